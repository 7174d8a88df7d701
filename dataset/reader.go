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
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/util"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const maxLineSize = 1024 * 1024

// Columns maps the roles of an interaction to field positions. A negative
// Rating means the file has no rating column.
type Columns struct {
	UserID int
	ItemID int
	Rating int
}

// DefaultColumns is the layout user,item,rating.
var DefaultColumns = Columns{UserID: 0, ItemID: 1, Rating: 2}

// HasRating reports whether a rating column is mapped.
func (c Columns) HasRating() bool {
	return c.Rating >= 0
}

func (c Columns) width() int {
	return max(c.UserID, c.ItemID, c.Rating) + 1
}

// Validate checks that user and item are mapped to distinct positions.
func (c Columns) Validate() error {
	if c.UserID < 0 || c.ItemID < 0 {
		return errors.NotValidf("column mapping %+v", c)
	}
	if c.UserID == c.ItemID || (c.HasRating() && (c.Rating == c.UserID || c.Rating == c.ItemID)) {
		return errors.NotValidf("column mapping %+v with shared positions", c)
	}
	return nil
}

type ParseOptions struct {
	Columns   Columns
	Delimiter string
	Header    bool
}

// DefaultParseOptions reads comma separated user,item,rating lines without header.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Columns: DefaultColumns, Delimiter: ","}
}

// Interactions are raw (user, item, rating) triples in file order.
type Interactions struct {
	Rows []uint32
	Cols []uint32
	Data []float32
}

// Len returns the number of triples.
func (in *Interactions) Len() int {
	return len(in.Data)
}

// Append adds a triple.
func (in *Interactions) Append(user, item uint32, rating float32) {
	in.Rows = append(in.Rows, user)
	in.Cols = append(in.Cols, item)
	in.Data = append(in.Data, rating)
}

// ParseFile reads interactions from a file.
func ParseFile(path string, opts ParseOptions) (*Interactions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	log.Logger().Info("parse interactions", zap.String("path", path),
		zap.String("delimiter", opts.Delimiter), zap.Bool("header", opts.Header))
	return ParseInteractions(file, opts)
}

// ParseInteractions reads one interaction per line. Any malformed line aborts
// parsing and no partial result is returned.
func ParseInteractions(r io.Reader, opts ParseOptions) (*Interactions, error) {
	if opts.Delimiter == "" {
		return nil, errors.NotValidf("empty delimiter")
	}
	if err := opts.Columns.Validate(); err != nil {
		return nil, err
	}
	width := opts.Columns.width()
	in := &Interactions{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNumber == 1 && opts.Header {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, opts.Delimiter)
		if len(fields) < width {
			return nil, &MalformedInputError{
				Line: lineNumber,
				Text: line,
				Err:  errors.Errorf("expect at least %d fields but got %d", width, len(fields)),
			}
		}
		user, err := util.ParseUInt[uint32](strings.TrimSpace(fields[opts.Columns.UserID]))
		if err != nil {
			return nil, &MalformedInputError{Line: lineNumber, Text: line, Err: errors.Annotate(err, "user id")}
		}
		item, err := util.ParseUInt[uint32](strings.TrimSpace(fields[opts.Columns.ItemID]))
		if err != nil {
			return nil, &MalformedInputError{Line: lineNumber, Text: line, Err: errors.Annotate(err, "item id")}
		}
		rating := float32(1)
		if opts.Columns.HasRating() {
			rating, err = util.ParseFloat[float32](strings.TrimSpace(fields[opts.Columns.Rating]))
			if err != nil {
				return nil, &MalformedInputError{Line: lineNumber, Text: line, Err: errors.Annotate(err, "rating")}
			}
		}
		in.Append(user, item, rating)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &MalformedInputError{Line: lineNumber + 1, Err: err}
		}
		return nil, errors.Trace(err)
	}
	log.Logger().Info("parsed interactions", zap.Int("lines", lineNumber), zap.Int("interactions", in.Len()))
	return in, nil
}
