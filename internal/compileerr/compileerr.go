// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package compileerr classifies and accumulates the lowering engine's
// failures: programmer errors reported by isLowerable before lowering
// starts, internal assertions raised by the recursion itself, and "not yet
// implemented" level kinds at the Iterator boundary.
package compileerr

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Internal marks err as a bug in the lowering engine rather than a
// programmer error in the input. The driver aborts the compile on sight of
// one of these; there is no recovery path.
func Internal(format string, a ...any) error {
	return internalError{errors.Errorf(format, a...)}
}

type internalError struct{ err error }

func (e internalError) Error() string {
	return fmt.Sprintf("internal lowering error (this is a compiler bug): %v", e.err)
}

func (e internalError) Unwrap() error { return e.err }

// IsInternal reports whether err (or a wrapped cause) was produced by Internal.
func IsInternal(err error) bool {
	var e internalError
	return errors.As(err, &e)
}

// NotSupported reports a level kind or feature that the Iterator boundary
// recognizes but deliberately does not implement yet (Offset, Replicated).
// It is distinct from both a programmer error and an internal assertion:
// the input is well formed, the engine simply stops short of it.
func NotSupported(what string) error {
	return errors.Errorf("%s: not supported yet", what)
}

// Errors accumulates programmer errors discovered while checking whether an
// index statement is lowerable. Independent checks - one per operand, one
// per format - each append their own finding; the caller reports Reason()
// as the human-readable string isLowerable hands back to its caller, or
// treats Empty() as "go ahead and lower".
//
// Aggregation goes through multierr so every independent check gets to
// report its own finding instead of the first one short-circuiting the
// rest.
type Errors struct {
	err error
}

// Append records err, if non-nil, as one more reason the statement is not
// lowerable.
func (e *Errors) Append(err error) {
	if err == nil {
		return
	}
	e.err = multierr.Append(e.err, err)
}

// Appendf formats and records a programmer error.
func (e *Errors) Appendf(format string, a ...any) {
	e.Append(errors.Errorf(format, a...))
}

// Empty reports whether no error was recorded.
func (e *Errors) Empty() bool {
	return e.err == nil
}

// Reason returns the human-readable reason isLowerable refused the input, or
// "" if Empty.
func (e *Errors) Reason() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// Err returns the accumulated error, or nil if Empty.
func (e *Errors) Err() error {
	return e.err
}
