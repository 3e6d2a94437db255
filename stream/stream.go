// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package stream reads and writes sequences
// of frames ("record batches") as one stream
// of Ion values.
//
// Each batch is either an encoded frame document
// or, when compressed, a struct annotated with
// the name of the compression algorithm:
//
//	zstd::{n: <decompressed size>, b: <compressed document>}
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/SnellerInc/ionframe/compr"
	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/frame"

	"github.com/amazon-ion/ion-go/ion"
)

// ErrUnknownCompression is returned when a batch
// is written or read with an unsupported algorithm.
var ErrUnknownCompression = errors.New("stream: unknown compression")

const (
	keySize = "n"
	keyBody = "b"
)

// Writer writes frames to an Ion stream.
type Writer struct {
	// Codec is used to encode each frame.
	Codec frame.Codec
	// Logf, if non-nil, is called
	// once for each batch written.
	Logf func(f string, args ...interface{})

	dst     ion.Writer
	algo    compr.Algorithm
	batches int
	rows    int
}

// NewWriter returns a Writer writing to dst.
// If compression is non-empty, each batch is
// compressed with the named algorithm
// (see compr.Names).
func NewWriter(dst io.Writer, compression string) (*Writer, error) {
	w := &Writer{dst: ion.NewBinaryWriter(dst)}
	if compression != "" {
		algo, err := compr.Lookup(compression)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownCompression, compression)
		}
		w.algo = algo
	}
	return w, nil
}

func (w *Writer) logf(f string, args ...interface{}) {
	if false {
		_ = fmt.Sprintf(f, args...)
	}
	if w.Logf != nil {
		w.Logf(f, args...)
	}
}

// Write encodes f and writes it as one batch.
// The batch is flushed to the underlying
// io.Writer before Write returns.
func (w *Writer) Write(f *frame.Frame) error {
	d, err := w.Codec.Encode(f)
	if err != nil {
		return fmt.Errorf("stream: batch %d: %w", w.batches, err)
	}
	var out doc.Datum = d
	if w.algo != nil {
		raw, err := doc.Marshal(d)
		if err != nil {
			return err
		}
		body := doc.NewStruct(
			doc.Field{Label: keySize, Value: doc.Int(len(raw))},
			doc.Field{Label: keyBody, Value: doc.Blob(w.algo.Compress(nil, raw))},
		)
		out = &doc.Annotation{Labels: []string{w.algo.Name()}, Value: body}
	}
	if err := doc.Write(w.dst, out); err != nil {
		return err
	}
	if err := w.dst.Finish(); err != nil {
		return err
	}
	w.logf("stream: wrote batch %d (%d rows)", w.batches, f.Len())
	w.batches++
	w.rows += f.Len()
	return nil
}

// Batches returns the number of batches written.
func (w *Writer) Batches() int { return w.batches }

// Rows returns the number of rows written.
func (w *Writer) Rows() int { return w.rows }

// Reader reads frames from an Ion stream.
type Reader struct {
	// Codec is used to decode each frame.
	Codec frame.Codec
	// Logf, if non-nil, is called
	// once for each batch read.
	Logf func(f string, args ...interface{})

	src     ion.Reader
	batches int
}

// NewReader returns a Reader reading from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: ion.NewReader(src)}
}

func (r *Reader) logf(f string, args ...interface{}) {
	if false {
		_ = fmt.Sprintf(f, args...)
	}
	if r.Logf != nil {
		r.Logf(f, args...)
	}
}

// Next reads the next batch.
// It returns io.EOF at the end of the stream.
func (r *Reader) Next() (*frame.Frame, error) {
	if !r.src.Next() {
		if err := r.src.Err(); err != nil {
			return nil, fmt.Errorf("stream: batch %d: %w", r.batches, err)
		}
		return nil, io.EOF
	}
	d, err := doc.Read(r.src)
	if err != nil {
		return nil, fmt.Errorf("stream: batch %d: %w", r.batches, err)
	}
	if a, ok := d.(*doc.Annotation); ok {
		d, err = decompress(a)
		if err != nil {
			return nil, fmt.Errorf("stream: batch %d: %w", r.batches, err)
		}
	}
	f, err := r.Codec.Decode(d)
	if err != nil {
		return nil, fmt.Errorf("stream: batch %d: %w", r.batches, err)
	}
	r.logf("stream: read batch %d (%d rows)", r.batches, f.Len())
	r.batches++
	return f, nil
}

func decompress(a *doc.Annotation) (doc.Datum, error) {
	if len(a.Labels) != 1 {
		return nil, fmt.Errorf("batch has %d annotations", len(a.Labels))
	}
	algo, err := compr.Lookup(a.Labels[0])
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownCompression, a.Labels[0])
	}
	body, ok := a.Value.(*doc.Struct)
	if !ok {
		return nil, fmt.Errorf("compressed batch is %s, not a struct", a.Value.Kind())
	}
	sd, _ := body.Get(keySize)
	size, ok := sd.(doc.Int)
	if !ok {
		return nil, fmt.Errorf("compressed batch has no size")
	}
	bd, _ := body.Get(keyBody)
	blob, ok := bd.(doc.Blob)
	if !ok {
		return nil, fmt.Errorf("compressed batch has no body")
	}
	if size < 0 || size > compr.MaxSize {
		return nil, fmt.Errorf("compressed batch declares size %d", int64(size))
	}
	raw, err := algo.Decompress(blob, int(size))
	if err != nil {
		return nil, err
	}
	return doc.Unmarshal(raw)
}

// ReadAll reads every batch from src.
func ReadAll(src io.Reader) ([]*frame.Frame, error) {
	r := NewReader(src)
	var out []*frame.Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
}
