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

package util

import (
	"strconv"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ParseFloat parses s with the precision of T, so that float32 values round once.
func ParseFloat[T constraints.Float](s string) (T, error) {
	var zero T
	v, err := strconv.ParseFloat(s, bitSize(zero))
	return T(v), err
}

// ParseUInt parses a base 10 unsigned integer that must fit in T.
func ParseUInt[T constraints.Unsigned](s string) (T, error) {
	var zero T
	v, err := strconv.ParseUint(s, 10, bitSize(zero))
	return T(v), err
}

func bitSize[T constraints.Integer | constraints.Float](v T) int {
	return int(unsafe.Sizeof(v)) * 8
}
