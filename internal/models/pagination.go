package models

const (
	// MaxPageLimit caps every paginated read.
	MaxPageLimit = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps page to >= 1 and limit to 1..MaxPageLimit, using defaultLimit when limit is unset.
func NewPage(number, limit, defaultLimit int) Page {
	if number < 1 {
		number = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasMore reports whether rows remain after this page.
func (p Page) HasMore(total int64) bool {
	return int64(p.Offset()+p.Limit) < total
}

// PostPage is one page of posts plus the total number of matching posts.
type PostPage struct {
	Posts   []*Post `json:"posts"`
	HasMore bool    `json:"hasMore"`
	Page    int     `json:"page"`
	Total   int64   `json:"total"`
}

// CommentPage is one page of comments.
type CommentPage struct {
	Comments []*Comment `json:"comments"`
	HasMore  bool       `json:"hasMore"`
	Page     int        `json:"page"`
	Total    int64      `json:"total"`
}
