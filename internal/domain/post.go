package domain

import "time"

// RawPost is a single search hit as returned by a post-search provider. Every
// nested field is optional; use the accessor methods, which state the default
// applied when a field is absent.
type RawPost struct {
	// URI is the AT-URI of the post. Empty when the provider omitted it.
	URI string

	// Record is the post record body.
	Record *RawRecord

	// Embed is the hydrated embed view attached to the post.
	Embed *RawEmbed

	// Author is the post author's profile view.
	Author *RawAuthor

	// IndexedAt is the provider's indexing timestamp, as sent on the wire.
	IndexedAt string
}

// RawRecord is the app.bsky.feed.post record carried by a search hit.
type RawRecord struct {
	Text *string
}

// RawEmbed is an embed view. Type holds the lexicon $type
// (e.g. app.bsky.embed.video#view).
type RawEmbed struct {
	Type string

	// Record is set for record and recordWithMedia embeds.
	Record *RawEmbedRecord

	// Media is set for recordWithMedia embeds.
	Media *RawEmbed
}

// RawEmbedRecord is the record referenced by a record embed: a quoted post,
// a starter pack, a list, etc.
type RawEmbedRecord struct {
	Type string

	// Embeds are the quoted post's own embeds.
	Embeds []RawEmbed
}

// RawAuthor is the author profile view of a search hit.
type RawAuthor struct {
	Handle      string
	DisplayName *string
}

// RecordText returns the record text, or "" when the record or its text is
// missing.
func (p *RawPost) RecordText() string {
	if p == nil || p.Record == nil || p.Record.Text == nil {
		return ""
	}
	return *p.Record.Text
}

// EmbedType returns the primary embed type, or "" when there is no embed.
func (p *RawPost) EmbedType() string {
	if p == nil || p.Embed == nil {
		return ""
	}
	return p.Embed.Type
}

// MediaType returns the media type of a recordWithMedia embed, or "" when
// there is none.
func (p *RawPost) MediaType() string {
	if p == nil || p.Embed == nil || p.Embed.Media == nil {
		return ""
	}
	return p.Embed.Media.Type
}

// EmbedRecordType returns the type of the embedded record, or "" when the
// embed carries no record.
func (p *RawPost) EmbedRecordType() string {
	if p == nil || p.Embed == nil || p.Embed.Record == nil {
		return ""
	}
	return p.Embed.Record.Type
}

// NestedEmbedTypes returns the types of the embedded record's own embeds, or
// nil when there are none.
func (p *RawPost) NestedEmbedTypes() []string {
	if p == nil || p.Embed == nil || p.Embed.Record == nil {
		return nil
	}
	types := make([]string, 0, len(p.Embed.Record.Embeds))
	for _, e := range p.Embed.Record.Embeds {
		types = append(types, e.Type)
	}
	return types
}

// AuthorName returns the author's display name, or "" when the author or the
// display name is missing.
func (p *RawPost) AuthorName() string {
	if p == nil || p.Author == nil || p.Author.DisplayName == nil {
		return ""
	}
	return *p.Author.DisplayName
}

// AuthorHandle returns the author's handle, or "" when the author is missing.
func (p *RawPost) AuthorHandle() string {
	if p == nil || p.Author == nil {
		return ""
	}
	return p.Author.Handle
}

// IndexedTime parses IndexedAt. It returns nil when the timestamp is missing
// or unparseable.
func (p *RawPost) IndexedTime() *time.Time {
	if p == nil || p.IndexedAt == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, p.IndexedAt)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// ParsedPost is the filter verdict for a RawPost. IsValid is true iff Text is
// non-empty and neither HasVideo nor HasStarterPack is set.
type ParsedPost struct {
	Text           string
	HasVideo       bool
	HasStarterPack bool
	IsValid        bool
}

// AnalyzedPost is one scored post in a ResultSet.
type AnalyzedPost struct {
	URI         string     `json:"uri,omitempty"`
	Text        string     `json:"text"`
	CleanedText string     `json:"cleaned_text"`
	Score       float64    `json:"score"`
	Magnitude   float64    `json:"magnitude"`
	Category    Category   `json:"category"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Author      string     `json:"author,omitempty"`

	// ScoringFailed marks a zero-filled result produced when the sentiment
	// oracle failed. It keeps a real neutral (0, 0) apart from a failure.
	ScoringFailed bool `json:"scoring_failed,omitempty"`
}

// ResultSet is the ordered collection of posts produced by one query.
type ResultSet []AnalyzedPost
