package domain

import "strings"

const (
	videoMarker       = "video"
	starterPackMarker = "starterPack"
)

// ParsePost classifies a raw search hit. Rules are evaluated in order and the
// first match wins:
//
//  1. the primary embed (or the media half of a recordWithMedia embed) is a
//     video
//  2. the embedded record carries a video among its own embeds
//  3. the embedded record is a starter pack
//  4. otherwise the record text is extracted and the post is valid when the
//     text is non-empty
//
// A nil post or missing sub-structure never panics; it yields the zero
// ParsedPost, which is invalid with no flags set.
func ParsePost(p *RawPost) ParsedPost {
	if p == nil {
		return ParsedPost{}
	}

	if isVideo(p.EmbedType()) || isVideo(p.MediaType()) {
		return ParsedPost{HasVideo: true}
	}

	for _, t := range p.NestedEmbedTypes() {
		if isVideo(t) {
			return ParsedPost{HasVideo: true}
		}
	}

	if strings.Contains(p.EmbedRecordType(), starterPackMarker) {
		return ParsedPost{HasStarterPack: true}
	}

	text := p.RecordText()
	return ParsedPost{
		Text:    text,
		IsValid: text != "",
	}
}

func isVideo(embedType string) bool {
	return strings.Contains(embedType, videoMarker)
}
