package container

import (
	"fmt"
	"strings"
)

// NotFoundError reports a Make of an unregistered key. Registered carries the
// full key list at call time as a diagnostic aid.
type NotFoundError struct {
	Key        string
	Registered []string
}

func (e *NotFoundError) Error() string {
	if len(e.Registered) == 0 {
		return fmt.Sprintf("container: no service registered for key %q (registry is empty)", e.Key)
	}
	return fmt.Sprintf("container: no service registered for key %q (registered: %s)",
		e.Key, strings.Join(e.Registered, ", "))
}

// DuplicateError reports a registration for an already-used key. It is only
// returned under WithStrictKeys; the lenient default logs a warning and lets
// the new registration win.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("container: key %q is already registered", e.Key)
}

// TypeError reports a Resolve whose instance does not satisfy the requested
// type.
type TypeError struct {
	Key      string
	Expected string
	Got      string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("container: key %q resolved to %s, want %s", e.Key, e.Got, e.Expected)
}

// InitError wraps a failed Initialize during InitializeAll.
type InitError struct {
	Key string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("container: initialize %q: %v", e.Key, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// CleanupError wraps a failed Cleanup. Teardown never stops on one; callers
// receive them aggregated.
type CleanupError struct {
	Key string
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("container: cleanup %q: %v", e.Key, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
