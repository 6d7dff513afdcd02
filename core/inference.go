package core

import (
	"context"
	"errors"
	"fmt"
)

// InferenceOutcome is the result of one inference call: Success carries the
// answer text, Failure carries Err.
type InferenceOutcome struct {
	Text string
	Err  error
}

// Success builds a successful outcome.
func Success(text string) InferenceOutcome {
	return InferenceOutcome{Text: text}
}

// Failure builds a failed outcome.
func Failure(err error) InferenceOutcome {
	return InferenceOutcome{Err: err}
}

// Failed reports whether the call failed.
func (o InferenceOutcome) Failed() bool { return o.Err != nil }

// Reply is the text sent back to the chat: the answer, or the failure
// description. Backend status errors are relayed as "<code>: <body>".
func (o InferenceOutcome) Reply() string {
	if o.Err == nil {
		return o.Text
	}
	var se *StatusError
	if errors.As(o.Err, &se) {
		return se.Error()
	}
	return "An error occurred: " + o.Err.Error()
}

// StatusError reports a non-200 response from the inference backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Body)
}

// Inferer answers queries through the inference backend. Infer always returns
// an outcome; transport faults are reported as a Failure, never as a panic.
type Inferer interface {
	Infer(ctx context.Context, query string) InferenceOutcome
}
