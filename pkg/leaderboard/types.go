package leaderboard

import "time"

// Metrics holds the summary counters for a window at a point in time.
// Values are derived from the raw upstream payload and never mutated.
type Metrics struct {
	TotalYappers   uint64 `json:"totalYappers"`
	TotalTweets    uint64 `json:"totalTweets"`
	TopImpressions uint64 `json:"topImpressions"`
	TopLikes       uint64 `json:"topLikes"`
}

// Entry is one ranked participant within a snapshot. Ranks are 1-based,
// unique, and contiguous within a snapshot.
type Entry struct {
	Rank            int     `json:"rank"`
	Username        string  `json:"username"`
	Mindshare       float64 `json:"mindshare"`
	TweetCount      uint64  `json:"tweetCount"`
	ImpressionCount uint64  `json:"impressionCount"`
	LikeCount       uint64  `json:"likeCount"`
	ProfileURL      string  `json:"profileUrl"`
}

// Snapshot is one immutable capture of metrics and ranked entries for a
// window at a collection date. Entries are never updated in place; a
// correction requires a new snapshot.
type Snapshot struct {
	ID          string    `json:"id"`
	CollectedAt string    `json:"collectedAt"` // calendar day, YYYY-MM-DD
	Window      Window    `json:"window"`
	IsLive      bool      `json:"isLive"`
	Metrics     Metrics   `json:"metrics"`
	EntryCount  int       `json:"entryCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SyncLogEntry is an append-only audit record for a snapshot write.
type SyncLogEntry struct {
	ID          int64     `json:"id"`
	SnapshotID  string    `json:"snapshotId"`
	Status      string    `json:"status"`
	SyncedItems int       `json:"syncedItems"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sync log statuses.
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// DateFormat is the calendar-day format used for collection dates.
const DateFormat = "2006-01-02"
