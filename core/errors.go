package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyStarted is returned by Delegate.Start on a started delegate.
	ErrAlreadyStarted = errors.New("delegate already started")
	// ErrNotStarted is returned when the delegate is not in the started state.
	ErrNotStarted = errors.New("delegate not started")
	// ErrStopped is returned by Delegate.Start once the delegate has been stopped.
	// A delegate is single-use.
	ErrStopped = errors.New("delegate stopped")
	// ErrPanic marks an error recovered from a panicking contributor or hook.
	ErrPanic = errors.New("panic")
)

// Stage names the aggregation step a ConfigurationError came from.
type Stage string

const (
	StageStartupHooks  Stage = "startup hooks"
	StageShutdownHooks Stage = "shutdown hooks"
	StageObservers     Stage = "observers"
	StageOptions       Stage = "options"
	StageBuildOptions  Stage = "build options"
)

// ConfigurationError reports a contributor that failed during aggregation.
// Index is the contributor's position in the discovered list, or -1 when
// the failure is not attributable to a single contributor.
type ConfigurationError struct {
	Index       int
	Contributor string
	Stage       Stage
	Err         error
}

func (e *ConfigurationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("configuration %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("configuration %s: contributor #%d (%s): %v", e.Stage, e.Index, e.Contributor, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// HookError wraps the failure of a single startup or shutdown hook.
type HookError struct {
	Phase string
	Hook  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook %q: %v", e.Phase, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// ShutdownError collects every failure observed while stopping. Teardown
// does not stop at the first failure, so there may be several.
type ShutdownError struct {
	Errs []error
}

func (e *ShutdownError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "shutdown: " + strings.Join(msgs, "; ")
}

func (e *ShutdownError) Unwrap() []error { return e.Errs }

// NotBoundError is returned by container lookups for unknown keys.
type NotBoundError struct {
	Key any
}

func (e *NotBoundError) Error() string {
	return fmt.Sprintf("container: nothing bound for %v", e.Key)
}
