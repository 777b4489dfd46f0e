package stack

import (
	"errors"
	"fmt"
)

const (
	ErrorCodeInvalidContext = "stack.invalid_context"
	ErrorCodeConstruct      = "stack.construct_failed"
)

// Error reports why a stack could not be assembled.
type Error struct {
	Code  string
	Stack string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Stack, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// fromPanic converts a recovered construct panic. jsii raises kernel failures as error values;
// anything else is formatted.
func fromPanic(stackName string, recovered any) *Error {
	err, ok := recovered.(error)
	if !ok {
		err = errors.New(fmt.Sprint(recovered))
	}
	return &Error{Code: ErrorCodeConstruct, Stack: stackName, Err: err}
}

// Guard runs fn and returns any panic it raises as an *Error attributed to name.
func Guard(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fromPanic(name, r)
		}
	}()
	fn()
	return nil
}
