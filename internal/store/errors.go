package store

import (
	"errors"
	"fmt"
)

// Sentinel lookup errors. The host adapter maps them to "absent".
var (
	ErrBlockNotFound = errors.New("block not found")
	ErrPageNotFound  = errors.New("page not found")
)

// PageConflictError is returned when a page name collides case-insensitively
// with an existing page that has a different id.
type PageConflictError struct {
	Name string
}

func (e *PageConflictError) Error() string     { return fmt.Sprintf("page name already taken: %s", e.Name) }
func (e *PageConflictError) ErrorCode() string { return "PAGE_CONFLICT" }
func (e *PageConflictError) Context() map[string]string {
	return map[string]string{"page": e.Name}
}
func (e *PageConflictError) SuggestedAction() string {
	return "pick a different --page name or reuse the existing page"
}
