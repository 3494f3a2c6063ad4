// Package handlers defines the HTTP-layer error codes used by the JSON
// endpoints (dev endpoint and route fallbacks). The webhook itself never
// returns these — it always answers with a TwiML 200.
//
// Codes are lowercase snake_case and stable; clients branch on the code, the
// message is for humans.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
)
