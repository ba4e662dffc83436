// Package errors turns errors into low-cardinality names for log and metric labels.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

// known maps sentinel errors to fixed names. It is consulted before type names.
var known = []struct {
	err  error
	name string
}{
	{context.Canceled, "context_canceled"},
	{context.DeadlineExceeded, "context_deadline_exceeded"},
	{domainauth.ErrSessionNotFound, "session_not_found"},
	{domainauth.ErrInvalidSessionToken, "invalid_session_token"},
}

// Classify names err for tagging logs and metrics. Known sentinels anywhere in the
// chain map to fixed names; otherwise the innermost cause's type is used in snake case.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range known {
		if goerrors.Is(err, k.err) {
			return k.name
		}
	}
	return typeName(rootCause(err))
}

// rootCause follows the wrap chain. For joined or multi-%w errors it follows the
// last branch, which by convention carries the underlying cause.
func rootCause(err error) error {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() error }:
			next := e.Unwrap()
			if next == nil {
				return err
			}
			err = next
		case interface{ Unwrap() []error }:
			var next error
			for _, branch := range e.Unwrap() {
				if branch != nil {
					next = branch
				}
			}
			if next == nil {
				return err
			}
			err = next
		default:
			return err
		}
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
