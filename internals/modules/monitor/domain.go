package monitor

import "time"

// Monitor is the durable record owned by the external CRUD layer. The
// pipeline reads it via the scheduler and mutates only status/updated_at
// via the aggregator.
type Monitor struct {
	ID               int64
	UserID           string
	URL              string
	Mail             string
	MailNotification bool
	IntervalMin      int16
	Status           *bool // true=up, false=down, nil=never checked
	IsActive         bool
	UpdatedAt        time.Time
}

// Target is the slice of a monitor that travels through the queue to the
// checker: just enough to probe and to address an alert.
type Target struct {
	ID               int64  `json:"id"`
	URL              string `json:"url"`
	Mail             string `json:"mail,omitempty"`
	MailNotification bool   `json:"mail_notification"`
}

// HistoryEntry is append-only; rows vanish only through the monitor's
// cascade delete.
type HistoryEntry struct {
	MonitorID int64
	Timestamp time.Time
	Status    int
	LatencyMs int64
}

// StatusUpdate carries the per-monitor last-write-wins outcome of one
// aggregation run.
type StatusUpdate struct {
	MonitorID int64
	Up        bool
	At        time.Time
}
