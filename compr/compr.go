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

// Package compr provides the compression
// algorithms used for frame stream batches.
package compr

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MaxSize is the largest decompressed
// size that Decompress will produce.
const MaxSize = 1 << 30

// ErrUnknown is returned by Lookup for
// an unsupported algorithm name.
var ErrUnknown = errors.New("compr: unknown compression algorithm")

// Algorithm is a compression algorithm.
// Implementations are safe for concurrent use.
type Algorithm interface {
	// Name is the name the algorithm
	// is looked up by and recorded as.
	Name() string
	// Compress appends the compressed form
	// of src to dst and returns the result.
	Compress(dst, src []byte) []byte
	// Decompress decompresses src, which must
	// expand to exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)
}

var algorithms = map[string]Algorithm{
	"zstd":        zstdAlgo{name: "zstd", level: zstd.SpeedDefault},
	"zstd-better": zstdAlgo{name: "zstd-better", level: zstd.SpeedBetterCompression},
	"s2":          s2Algo{},
}

// Lookup returns the algorithm called name:
// "zstd", "zstd-better" or "s2".
func Lookup(name string) (Algorithm, error) {
	a, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return a, nil
}

// Names lists the supported algorithms in sorted order.
func Names() []string {
	names := maps.Keys(algorithms)
	slices.Sort(names)
	return names
}

func checkSize(name string, size int) error {
	if size < 0 || size > MaxSize {
		return fmt.Errorf("compr: %s: bad decompressed size %d", name, size)
	}
	return nil
}

var (
	encoderLock sync.Mutex
	encoders    = make(map[zstd.EncoderLevel]*zstd.Encoder)

	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// encoder returns the shared encoder for level;
// EncodeAll may be called concurrently
func encoder(level zstd.EncoderLevel) *zstd.Encoder {
	encoderLock.Lock()
	defer encoderLock.Unlock()
	enc := encoders[level]
	if enc == nil {
		var err error
		enc, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(level),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true))
		if err != nil {
			panic(err)
		}
		encoders[level] = enc
	}
	return enc
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		var err error
		decoder, err = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)),
			zstd.WithDecoderMaxMemory(MaxSize))
		if err != nil {
			panic(err)
		}
	})
	return decoder
}

type zstdAlgo struct {
	name  string
	level zstd.EncoderLevel
}

func (z zstdAlgo) Name() string { return z.name }

func (z zstdAlgo) Compress(dst, src []byte) []byte {
	return encoder(z.level).EncodeAll(src, dst)
}

func (z zstdAlgo) Decompress(src []byte, size int) ([]byte, error) {
	if err := checkSize(z.name, size); err != nil {
		return nil, err
	}
	out, err := zstdDecoder().DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("compr: %s: %w", z.name, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("compr: %s: expected %d bytes decompressed; got %d", z.name, size, len(out))
	}
	return out, nil
}

type s2Algo struct{}

func (s2Algo) Name() string { return "s2" }

func (s2Algo) Compress(dst, src []byte) []byte {
	return append(dst, s2.Encode(nil, src)...)
}

func (s2Algo) Decompress(src []byte, size int) ([]byte, error) {
	if err := checkSize("s2", size); err != nil {
		return nil, err
	}
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, fmt.Errorf("compr: s2: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("compr: s2: expected %d bytes decompressed; block holds %d", size, n)
	}
	out, err := s2.Decode(make([]byte, size), src)
	if err != nil {
		return nil, fmt.Errorf("compr: s2: %w", err)
	}
	return out, nil
}
