package scheduler

import (
	"time"
	"upmon/internals/modules/monitor"
)

// CheckBatch is the queue message body: a fixed-size group of monitors
// dispatched together, stamped with the tick that produced it.
type CheckBatch struct {
	Monitors     []monitor.Target `json:"monitors"`
	DispatchedAt time.Time        `json:"dispatched_at"`
}
