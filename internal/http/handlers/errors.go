package handlers

// Stable machine-readable codes carried in ErrorResponse.Code. Clients branch
// on these, never on the message text.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Widget-specific:
	ErrCodeNoProfile   = "profile_required"
	ErrCodeUnavailable = "widget_unavailable"
	ErrCodeNoSession   = "no_session"
	ErrCodeUpstream    = "upstream_failed"
)
