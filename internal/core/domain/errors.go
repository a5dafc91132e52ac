package domain

import "fmt"

// FetchError reports a failed remote geodata fetch. For the street network
// the caller must abort the render; for optional layers it degrades to
// "layer absent".
type FetchError struct {
	Layer string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Layer, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GeocodingError reports an unreachable or failing geocoding service.
type GeocodingError struct {
	City    string
	Country string
	Err     error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding failed for %s, %s: %v", e.City, e.Country, e.Err)
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// NotFoundError reports a place the geocoding service could not resolve.
type NotFoundError struct {
	City    string
	Country string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find coordinates for %s, %s", e.City, e.Country)
}

// CacheWriteError reports a failed cache write. Always non-fatal: a failed
// write must never abort a successful fetch, so callers log it and move on.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write for %q failed: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// InvalidViewportError rejects a malformed crop request before any fetch.
type InvalidViewportError struct {
	Radius float64
	Aspect float64
	Reason string
}

func (e *InvalidViewportError) Error() string {
	return fmt.Sprintf("invalid viewport (radius=%v aspect=%v): %s", e.Radius, e.Aspect, e.Reason)
}
