package apperror

type Kind string

var (
	NotFound       Kind = "not_found"
	RequestTimeout Kind = "request_timeout"
	Internal       Kind = "internal"
	DatabaseErr    Kind = "database_error"
)
