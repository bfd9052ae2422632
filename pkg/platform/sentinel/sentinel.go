package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Media, fetchers and lookup clients
// return these (optionally wrapped) so callers can decide how to degrade.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key or record does not exist
// - ErrExpired: cached entry outlived its ttl
// - ErrMalformed: stored or fetched payload failed to parse
// - ErrUnavailable: remote service or storage medium temporarily unavailable
//
// Field-level format problems (a malformed postal code) use postal.FormatError.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrMalformed   = errors.New("malformed")
	ErrUnavailable = errors.New("unavailable")
)
