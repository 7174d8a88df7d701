// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// ErrMissingState is returned when an operation needs a matrix that has not
	// been built or loaded.
	ErrMissingState = errors.ConstError("missing state")
	// ErrMalformedInput is wrapped by every MalformedInputError.
	ErrMalformedInput = errors.ConstError("malformed input")
	// ErrNoMoreFolds is returned by FoldIterator.Next after the last fold.
	ErrNoMoreFolds = errors.ConstError("no more folds")
)

func missingState(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrMissingState)
}

// MalformedInputError reports the line of an interaction file that failed to parse.
type MalformedInputError struct {
	Line int
	Text string
	Err  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}
