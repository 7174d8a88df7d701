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

package encoding

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

const readChunkSize = 1 << 20

// Number is a fixed-size value that binary.Write encodes without reflection on fields.
type Number interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// WriteString writes string to byte stream.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads string from byte stream.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	return string(data), err
}

// WriteBytes writes bytes to byte stream.
func WriteBytes(w io.Writer, s []byte) error {
	err := binary.Write(w, binary.LittleEndian, int32(len(s)))
	if err != nil {
		return errors.Trace(err)
	}
	n, err := w.Write(s)
	if err != nil {
		return errors.Trace(err)
	} else if n != len(s) {
		return errors.New("fail to write string")
	}
	return nil
}

// ReadBytes reads bytes from byte stream.
func ReadBytes(r io.Reader) ([]byte, error) {
	var length int32
	err := binary.Read(r, binary.LittleEndian, &length)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if length < 0 {
		return nil, errors.NotValidf("byte length %d", length)
	}
	data := make([]byte, length)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// WriteInt writes a single integer as int64.
func WriteInt(w io.Writer, v int) error {
	return errors.Trace(binary.Write(w, binary.LittleEndian, int64(v)))
}

// ReadInt reads an integer written by WriteInt.
func ReadInt(r io.Reader) (int, error) {
	var v int64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return int(v), nil
}

// WriteSlice writes the length of a slice followed by its elements.
func WriteSlice[T Number](w io.Writer, s []T) error {
	if err := WriteInt(w, len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, s))
}

// ReadSlice reads a slice written by WriteSlice.
func ReadSlice[T Number](r io.Reader) ([]T, error) {
	n, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.NotValidf("slice length %d", n)
	}
	// a corrupt length fails at the end of the stream instead of allocating it all
	s := make([]T, 0, min(n, readChunkSize))
	for len(s) < n {
		chunk := make([]T, min(n-len(s), readChunkSize))
		if err = binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, errors.Trace(err)
		}
		s = append(s, chunk...)
	}
	return s, nil
}
