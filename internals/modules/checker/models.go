package checker

import "time"

// Negative probe codes. Anything >= 0 is a verbatim HTTP status.
const (
	StatusUnknown             = -1
	StatusTimeout             = -2
	StatusDNSError            = -3
	StatusConnectionRefused   = -4
	StatusTLSError            = -5
	StatusNetworkError        = -6
	StatusAbort               = -7
	StatusTooManyRedirects    = -8
	StatusInvalidRedirectLoc  = -9
	StatusUnsupportedProtocol = -10
)

// IsTransient reports whether a failed probe is worth one immediate retry.
// Redirect and protocol errors are permanent; retrying cannot change them.
func IsTransient(status int) bool {
	switch status {
	case StatusUnknown,
		StatusTimeout,
		StatusDNSError,
		StatusConnectionRefused,
		StatusTLSError,
		StatusNetworkError,
		StatusAbort:
		return true
	default:
		return false
	}
}

// CheckResult is one probe outcome as persisted in a CheckResultBatch.
// Mail fields ride along so the aggregator can alert without a second
// monitor lookup.
type CheckResult struct {
	MonitorID        int64     `json:"id"`
	URL              string    `json:"url"`
	Mail             string    `json:"mail,omitempty"`
	MailNotification bool      `json:"mail_notification"`
	Status           int       `json:"status"`
	LatencyMs        int64     `json:"latency"`
	CheckedAt        time.Time `json:"timestamp"`
}
