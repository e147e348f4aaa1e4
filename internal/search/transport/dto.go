package transport

import "time"

type SearchRequest struct {
	Term string `form:"term" validate:"notblank,max=200"`
	In   string `form:"in"` // "category:N" or "N"; anything else searches every category
}

type Author struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
	Userslug string `json:"userslug"`
	Picture  string `json:"picture,omitempty"`
}

type SearchResult struct {
	PID          int64     `json:"pid"`
	TID          int64     `json:"tid"`
	CID          int64     `json:"cid"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Category     string    `json:"category"`
	User         Author    `json:"user"`
	IsMainPost   bool      `json:"isMainPost"`
	Content      string    `json:"content"`
	Snippet      *string   `json:"snippet"` // null when the term does not occur in the post text
	Timestamp    int64     `json:"timestamp"`
	TimestampISO time.Time `json:"timestampISO"`
}

type SearchResponse struct {
	Results     []SearchResult `json:"results"`
	MatchCount  int            `json:"matchCount"`
	SearchedFor string         `json:"searchedFor"`
	Partial     bool           `json:"partial"`
	Note        string         `json:"note,omitempty"`
}

type SampleTitle struct {
	TID   int64  `json:"tid"`
	Title string `json:"title"`
	CID   int64  `json:"cid"`
}

type InfoResponse struct {
	TotalTopics  int64         `json:"totalTopics"`
	SampleTitles []SampleTitle `json:"sampleTitles"`
	Note         string        `json:"note"`
}
