// Package usecases implements the classify-route-dispatch-log pipeline and
// the operator-facing services built on top of it. This file centralizes the
// sentinel errors callers are expected to check.
package usecases

import "errors"

var (
	// ErrUnsupportedMediaType is returned by the dispatcher for a content
	// variant it has no send operation for.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrInvalidCaption is returned when a caption cannot be made safe for
	// the outbound transport's markup. Sending is refused rather than
	// risking malformed markup.
	ErrInvalidCaption = errors.New("caption is not valid UTF-8")

	// ErrInvalidCredentials is returned by the admin API login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
