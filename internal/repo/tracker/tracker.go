package tracker

import (
	"context"

	"github.com/tidwall/gjson"
)

const (
	NameMTeam = "mteam"
	NameCarpt = "carpt"
)

type SearchQuery struct {
	Keyword string
	// PageNumber is 1-indexed.
	PageNumber int
	PageSize   int
}

// RawSearchResult is the envelope's "data" member, left untouched so the
// caller can decide what to do with malformed parts.
type RawSearchResult struct {
	Data gjson.Result
}

// Tracker is a torrent site able to search and hand out download links.
type Tracker interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) (*RawSearchResult, error)
	DownloadURL(ctx context.Context, torrentID string) (string, error)
}
