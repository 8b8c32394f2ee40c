package loader

import "fmt"

// Stage is a named transform applied to a resource's content as part of a chain.
type Stage interface {
	Run(lc *Context, input any) Result
}

// StageFunc adapts an ordinary function to the Stage interface.
type StageFunc func(lc *Context, input any) Result

// Run implements Stage.
func (f StageFunc) Run(lc *Context, input any) Result {
	return f(lc, input)
}

type resultKind int

const (
	resultNone resultKind = iota
	resultValue
	resultError
	resultDeferred
)

// Result is the tagged outcome of one stage invocation. The zero Result
// means the stage neither returned nor detached.
type Result struct {
	kind     resultKind
	value    any
	err      error
	panicked bool
}

// Return completes the invocation immediately with a transformed value.
func Return(value any) Result {
	return Result{kind: resultValue, value: value}
}

// Fail completes the invocation immediately with an error.
func Fail(err error) Result {
	if err == nil {
		err = fmt.Errorf("stage failed without an error")
	}
	return Result{kind: resultError, err: err}
}

// Detach declares that the invocation completes later through the Callback
// obtained from Context.Async.
func Detach() Result {
	return Result{kind: resultDeferred}
}

// StageError is the cause recorded when a stage reports an error.
type StageError struct {
	Stage string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q (#%d): %v", e.Stage, e.Index, e.Err)
}

// Unwrap returns the stage's own error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Bytes returns the byte form of a stage input. It accepts []byte and string.
func Bytes(input any) ([]byte, error) {
	switch v := input.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("expected bytes or a string, got %T", input)
	}
}
