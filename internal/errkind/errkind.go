// Package errkind defines the error kinds the game reports: missing UI
// elements, asset load failures and invalid configuration.
package errkind

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrMissingUIElement     = errors.New("missing UI element")
	ErrAssetLoad            = errors.New("asset load failure")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Error carries a kind, the operation or subject that failed, and an optional cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Op)
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// MissingUIElement reports that the named UI element does not exist.
func MissingUIElement(name string) error {
	return &Error{Kind: ErrMissingUIElement, Op: name}
}

// AssetLoad reports that the asset at path could not be loaded.
func AssetLoad(path string, cause error) error {
	return &Error{Kind: ErrAssetLoad, Op: path, Err: cause}
}

// InvalidConfig reports a configuration field with an unusable value.
func InvalidConfig(field, reason string) error {
	return &Error{Kind: ErrInvalidConfiguration, Op: field, Err: errors.New(reason)}
}
