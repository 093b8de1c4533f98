// Package apperrors provides the application error type used across gridline.
// Errors are immutable templates that can be refined with messages, wrapped
// causes, and HTTP status codes while remaining compatible with errors.Is
// and errors.As.
package apperrors

// Error is the interface implemented by all gridline application errors.
// Refinement methods return new errors; the receiver is never mutated.
type Error interface {
	error
	Unwrap() error // supports errors.Is / errors.As

	New(msg string) Error                  // derives a fresh error with the receiver as base
	Msg(msg string) Error                  // new message, wraps the receiver
	MsgErr(msg string, err ...error) Error // new message, wraps the receiver and extra causes
	Err(err ...error) Error                // same message, attaches extra causes
	SetStatusCode(int) Error               // sets the HTTP status code
	StatusCode() int                       // returns the HTTP status code
	ErrorAll() string                      // message including wrapped causes
	UnwrapAll() []error                    // all wrapped causes
}
