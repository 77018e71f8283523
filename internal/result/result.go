// Package result holds the envelope every article operation answers with.
//
// A Result carries a classification code, a message fit for display and,
// on success, a payload. Failures from an inner step are handed upward with
// Recast so the outer operation can return them under its own payload type.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const failurePrefix = "F"

// Code classifies an outcome. The first letter says success or failure,
// the digits after it are the HTTP status the outcome maps to.
type Code string

const (
	OK              Code = "S200"
	Created         Code = "S201"
	BadRequest      Code = "F400"
	Unauthorized    Code = "F401"
	Forbidden       Code = "F403"
	NotFound        Code = "F404"
	Conflict        Code = "F409"
	TooManyRequests Code = "F429"
	Internal        Code = "F500"
)

// Failure reports whether the code classifies a failed outcome.
func (c Code) Failure() bool {
	return strings.HasPrefix(string(c), failurePrefix)
}

// Status returns the HTTP status encoded in the code.
func (c Code) Status() int {
	s := string(c)
	if len(s) < 2 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 100 || n > 599 {
		return http.StatusInternalServerError
	}
	return n
}

func (c Code) defaultMessage() string {
	if text := http.StatusText(c.Status()); text != "" {
		return strings.ToLower(text)
	}
	return string(c)
}

// Empty is the payload of results that carry no value.
type Empty struct{}

// Result is an immutable outcome: a code, a display message and, on
// success, an optional payload of type T.
type Result[T any] struct {
	code    Code
	message string
	data    T
	present bool
}

// Make builds a result. It never rejects its input: a blank message is
// replaced by the code's default text and data passed with a failure code
// is dropped.
func Make[T any](code Code, message string, data T) Result[T] {
	if strings.TrimSpace(message) == "" {
		message = code.defaultMessage()
	}
	r := Result[T]{code: code, message: message}
	if !code.Failure() {
		r.data = data
		r.present = true
	}
	return r
}

// Success builds a successful result carrying data. It panics if code is a
// failure code.
func Success[T any](code Code, message string, data T) Result[T] {
	if code.Failure() {
		panic(fmt.Sprintf("result: success built with failure code %q", code))
	}
	return Make(code, message, data)
}

// Fail builds a failed result without data. It panics if code is a success
// code.
func Fail[T any](code Code, message string) Result[T] {
	if !code.Failure() {
		panic(fmt.Sprintf("result: failure built with success code %q", code))
	}
	var zero T
	return Make(code, message, zero)
}

func (r Result[T]) Code() Code      { return r.code }
func (r Result[T]) Message() string { return r.message }
func (r Result[T]) Failed() bool    { return r.code.Failure() }

// Data returns the payload and whether one is present.
func (r Result[T]) Data() (T, bool) {
	return r.data, r.present
}

func IsFailure[T any](r Result[T]) bool {
	return r.Failed()
}

// Recast returns r under another payload type. Code and message are kept
// verbatim and the payload is dropped.
func Recast[U, T any](r Result[T]) Result[U] {
	return Result[U]{code: r.code, message: r.message}
}

// Map converts the payload of a successful result, keeping its code and
// message. Failures and payload-less results pass through as Recast.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.Failed() || !r.present {
		return Recast[U](r)
	}
	return Result[U]{code: r.code, message: r.message, data: fn(r.data), present: true}
}

type wire[T any] struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	w := wire[T]{Code: r.code, Message: r.message}
	if r.present {
		data := r.data
		w.Data = &data
	}
	return json.Marshal(w)
}

func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var w wire[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Code == "" {
		return fmt.Errorf("result: missing code")
	}
	if w.Data != nil && !w.Code.Failure() {
		*r = Make(w.Code, w.Message, *w.Data)
		return nil
	}
	*r = Result[T]{code: w.Code, message: w.Message}
	if strings.TrimSpace(r.message) == "" {
		r.message = w.Code.defaultMessage()
	}
	return nil
}
