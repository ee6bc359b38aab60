package webbase

import "fmt"

// FetchError reports a failed request: a transport error, a non-2xx status
// or an oversized body.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a body that could not be parsed in the requested format.
type ParseError struct {
	URL    string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s as %s: %v", e.URL, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
