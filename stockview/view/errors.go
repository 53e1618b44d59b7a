package view

import "fmt"

// FetchError wraps a collaborator failure surfaced by a session refresh.
// The session keeps its last-known-good view when one occurs, so callers
// can show the error next to the previous rows instead of a blank page.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
