package mrupdate

import (
	"errors"

	"github.com/tie/mrupdate/registry"
)

// Registry failures. Resolver turns them into StatusError.
var (
	ErrNotFound          = registry.ErrNotFound
	ErrTransport         = registry.ErrTransport
	ErrMalformedResponse = registry.ErrMalformedResponse
)

var (
	ErrArchiveRead     = errors.New("archive read")
	ErrActionInvariant = errors.New("action invariant violation")
	ErrMissingHash     = errors.New("missing sha1 hash")
	ErrUnknownStatus   = errors.New("unknown status")
	ErrUnknownAction   = errors.New("unknown action")
	ErrStalePlan       = errors.New("plan does not match modpack")
)
