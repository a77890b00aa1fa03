package models

import "fmt"

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. Both the panel and output packages use this
// interface to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// InvalidInputError reports free-text user input that could not be parsed
// (snooze durations, estimates, priorities). It is surfaced to the user and
// never replaced by a default.
type InvalidInputError struct {
	Field string
	Value string
	Hint  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}
func (e *InvalidInputError) ErrorCode() string { return "INVALID_INPUT" }
func (e *InvalidInputError) Context() map[string]string {
	return map[string]string{
		"field": e.Field,
		"value": e.Value,
	}
}
func (e *InvalidInputError) SuggestedAction() string { return e.Hint }

// SlogAttrs lets the CLI log the offending field alongside the error.
func (e *InvalidInputError) SlogAttrs() []any {
	return []any{"field", e.Field, "invalid_value", e.Value, "hint", e.Hint}
}

// BlockNotFoundError is returned by actions that target a block the host no
// longer has.
type BlockNotFoundError struct {
	ID string
}

func (e *BlockNotFoundError) Error() string     { return fmt.Sprintf("block not found: %s", e.ID) }
func (e *BlockNotFoundError) ErrorCode() string { return "BLOCK_NOT_FOUND" }
func (e *BlockNotFoundError) Context() map[string]string {
	return map[string]string{"block_id": e.ID}
}
func (e *BlockNotFoundError) SuggestedAction() string {
	return "nowpanel show --page <name> to list current block ids"
}
