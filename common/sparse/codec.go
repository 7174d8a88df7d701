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

package sparse

import (
	"io"

	"github.com/gorse-io/urm/common/encoding"
	"github.com/juju/errors"
)

const (
	cooMagic = "URMCOO1"
	csrMagic = "URMCSR1"
)

func writeHeader(w io.Writer, magic string, numRows, numCols int) error {
	if err := encoding.WriteString(w, magic); err != nil {
		return err
	}
	if err := encoding.WriteInt(w, numRows); err != nil {
		return err
	}
	return encoding.WriteInt(w, numCols)
}

func readHeader(r io.Reader, magic string) (numRows, numCols int, err error) {
	header, err := encoding.ReadString(r)
	if err != nil {
		return 0, 0, err
	}
	if header != magic {
		return 0, 0, errors.NotValidf("matrix header %q", header)
	}
	if numRows, err = encoding.ReadInt(r); err != nil {
		return 0, 0, err
	}
	if numCols, err = encoding.ReadInt(r); err != nil {
		return 0, 0, err
	}
	return numRows, numCols, nil
}

// WriteCOO serializes a COO matrix.
func WriteCOO(w io.Writer, m *COO) error {
	if err := writeHeader(w, cooMagic, m.NumRows, m.NumCols); err != nil {
		return err
	}
	if err := encoding.WriteSlice(w, m.Rows); err != nil {
		return err
	}
	if err := encoding.WriteSlice(w, m.Cols); err != nil {
		return err
	}
	return encoding.WriteSlice(w, m.Data)
}

// ReadCOO deserializes a matrix written by WriteCOO.
func ReadCOO(r io.Reader) (*COO, error) {
	var (
		m   COO
		err error
	)
	if m.NumRows, m.NumCols, err = readHeader(r, cooMagic); err != nil {
		return nil, err
	}
	if m.Rows, err = encoding.ReadSlice[int32](r); err != nil {
		return nil, err
	}
	if m.Cols, err = encoding.ReadSlice[int32](r); err != nil {
		return nil, err
	}
	if m.Data, err = encoding.ReadSlice[float32](r); err != nil {
		return nil, err
	}
	if err = m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteCSR serializes a CSR matrix.
func WriteCSR(w io.Writer, m *CSR) error {
	if err := writeHeader(w, csrMagic, m.NumRows, m.NumCols); err != nil {
		return err
	}
	if err := encoding.WriteSlice(w, m.IndPtr); err != nil {
		return err
	}
	if err := encoding.WriteSlice(w, m.Indices); err != nil {
		return err
	}
	return encoding.WriteSlice(w, m.Data)
}

// ReadCSR deserializes a matrix written by WriteCSR.
func ReadCSR(r io.Reader) (*CSR, error) {
	var (
		m   CSR
		err error
	)
	if m.NumRows, m.NumCols, err = readHeader(r, csrMagic); err != nil {
		return nil, err
	}
	if m.IndPtr, err = encoding.ReadSlice[int32](r); err != nil {
		return nil, err
	}
	if m.Indices, err = encoding.ReadSlice[int32](r); err != nil {
		return nil, err
	}
	if m.Data, err = encoding.ReadSlice[float32](r); err != nil {
		return nil, err
	}
	if err = m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
