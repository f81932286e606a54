package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blackmichael/bluesense/internal/domain"
)

// maxPageSize is the largest limit app.bsky.feed.searchPosts accepts.
const maxPageSize = 100

// SearchPosts runs app.bsky.feed.searchPosts for query and returns up to
// limit hits in provider order, following the cursor across pages.
//
// Hits are decoded one by one: a hit whose JSON does not match the expected
// shape becomes an empty domain.RawPost instead of failing the search.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]domain.RawPost, error) {
	if limit <= 0 {
		return nil, nil
	}

	var (
		posts  []domain.RawPost
		cursor string
	)
	for len(posts) < limit {
		params := url.Values{}
		params.Set("q", query)
		params.Set("limit", pageSize(limit-len(posts)))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page searchPostsResponse
		if err := c.get(ctx, "/xrpc/app.bsky.feed.searchPosts", params, &page); err != nil {
			return nil, fmt.Errorf("search posts: %w", err)
		}

		for _, raw := range page.Posts {
			posts = append(posts, decodePost(raw))
		}

		if page.Cursor == "" || len(page.Posts) == 0 {
			break
		}
		cursor = page.Cursor
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func decodePost(raw json.RawMessage) domain.RawPost {
	var pv postView
	if err := json.Unmarshal(raw, &pv); err != nil {
		return domain.RawPost{}
	}
	return pv.toDomain()
}

type searchPostsResponse struct {
	Cursor string            `json:"cursor"`
	Posts  []json.RawMessage `json:"posts"`
}

// postView is the subset of app.bsky.feed.defs#postView read by the
// pipeline.
type postView struct {
	URI       string       `json:"uri"`
	Author    *profileView `json:"author"`
	Record    *postRecord  `json:"record"`
	Embed     *embedView   `json:"embed"`
	IndexedAt string       `json:"indexedAt"`
}

type profileView struct {
	Handle      string  `json:"handle"`
	DisplayName *string `json:"displayName"`
}

type postRecord struct {
	Text *string `json:"text"`
}

type embedView struct {
	Type   string           `json:"$type"`
	Record *embedRecordView `json:"record"`
	Media  *embedView       `json:"media"`
}

// embedRecordView is the record half of a record embed. Inside a
// recordWithMedia embed it is itself an app.bsky.embed.record#view whose
// Record holds the quoted post.
type embedRecordView struct {
	Type   string           `json:"$type"`
	Embeds []embedView      `json:"embeds"`
	Record *embedRecordView `json:"record"`
}

func (pv postView) toDomain() domain.RawPost {
	p := domain.RawPost{
		URI:       pv.URI,
		Embed:     pv.Embed.toDomain(),
		IndexedAt: pv.IndexedAt,
	}
	if pv.Record != nil {
		p.Record = &domain.RawRecord{Text: pv.Record.Text}
	}
	if pv.Author != nil {
		p.Author = &domain.RawAuthor{
			Handle:      pv.Author.Handle,
			DisplayName: pv.Author.DisplayName,
		}
	}
	return p
}

func (e *embedView) toDomain() *domain.RawEmbed {
	if e == nil {
		return nil
	}
	out := &domain.RawEmbed{
		Type:  e.Type,
		Media: e.Media.toDomain(),
	}
	record := e.Record
	if record != nil && strings.Contains(e.Type, "recordWithMedia") && record.Record != nil {
		record = record.Record
	}
	if record != nil {
		rec := &domain.RawEmbedRecord{Type: record.Type}
		for i := range record.Embeds {
			rec.Embeds = append(rec.Embeds, *record.Embeds[i].toDomain())
		}
		out.Record = rec
	}
	return out
}

// pageSize returns the per-request limit for the remaining wanted count.
func pageSize(remaining int) string {
	if remaining > maxPageSize {
		remaining = maxPageSize
	}
	return strconv.Itoa(remaining)
}
