// Package services implements the message-handling decision engine and the
// per-user rolling-window rate limiter. This file centralizes the
// service-level error values used to signal dependency degradation; the
// engine converts every one of them into a safe reply, so none of these ever
// reaches the webhook caller.
package services

import "errors"

var (
	// ErrStoreUnavailable indicates the profile store could not be reached.
	// Counting, rate limiting and pagination are disabled while it holds;
	// keyword replies are still served.
	ErrStoreUnavailable = errors.New("profile store unavailable")

	// ErrDirectoryNotReady indicates the ZIP reference dataset did not load.
	// Region-gated operations fail closed until it is ready.
	ErrDirectoryNotReady = errors.New("zip directory not ready")

	// ErrLocatorUnavailable indicates the clinic-search API failed or timed
	// out. Locate-type replies degrade to an apology.
	ErrLocatorUnavailable = errors.New("clinic locator unavailable")
)
