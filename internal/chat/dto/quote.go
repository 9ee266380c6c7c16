package dto

import "time"

// Quote is a point-in-time price snapshot for a symbol. Values are never mutated
// after construction; a newer Quote supersedes an older one.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	Source        string    `json:"source,omitempty"`
}

// CacheEntry is a Quote as stored in either cache tier.
type CacheEntry struct {
	Quote     Quote     `json:"quote"`
	WrittenAt time.Time `json:"writtenAt"`
}
