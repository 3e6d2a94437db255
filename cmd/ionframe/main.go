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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/SnellerInc/ionframe/compr"
	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/frame"
	"github.com/SnellerInc/ionframe/rows"
	"github.com/SnellerInc/ionframe/stream"
)

var (
	dashv     bool
	dashh     bool
	dashtext  bool
	dashcheck bool
	dashrows  int
	dashskip  int
	dashj     int
	dashc     string
	dashs     string
	dasho     string
	dashf     string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.BoolVar(&dashtext, "text", false, "dump frames as Ion text rather than NDJSON")
	flag.BoolVar(&dashcheck, "check", false, "validate each encoded frame before writing it")
	flag.IntVar(&dashrows, "rows", 64*1024, "maximum rows per batch for encode")
	flag.IntVar(&dashj, "j", runtime.GOMAXPROCS(0), "columns encoded/decoded in parallel")
	flag.StringVar(&dashc, "c", "", "batch compression for encode ("+strings.Join(compr.Names(), ", ")+")")
	flag.StringVar(&dashs, "s", "", "schema file (YAML or JSON) for encode")
	flag.StringVar(&dasho, "o", "-", "output file (or - for stdout)")
	flag.StringVar(&dashf, "f", "ndjson", "input format for encode (ndjson, csv, tsv)")
	flag.IntVar(&dashskip, "skip", 0, "csv/tsv records to skip (e.g. 1 for a header)")
}

func exitf(f string, args ...interface{}) {
	if !strings.HasSuffix(f, "\n") {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

func codec() frame.Codec {
	c := frame.Codec{Parallel: dashj, Check: dashcheck}
	if dashv {
		c.Logf = logf
	}
	return c
}

func open(name string) io.ReadCloser {
	if name == "-" {
		return io.NopCloser(os.Stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		exitf("can't open %q: %s", name, err)
	}
	return f
}

func output() (*bufio.Writer, func()) {
	var out io.WriteCloser = os.Stdout
	if dasho != "-" {
		f, err := os.Create(dasho)
		if err != nil {
			exitf("creating output: %s", err)
		}
		out = f
	}
	w := bufio.NewWriter(out)
	return w, func() {
		if err := w.Flush(); err != nil {
			exitf("flushing output: %s", err)
		}
		if err := out.Close(); err != nil {
			exitf("closing output: %s", err)
		}
	}
}

func read(in io.Reader, s *rows.Schema) (*rows.Table, error) {
	switch dashf {
	case "ndjson", "json":
		return rows.ReadJSON(in, s)
	case "csv":
		return rows.ReadDelimited(rows.CSV(in, 0), s, dashskip)
	case "tsv":
		return rows.ReadDelimited(rows.TSV(in), s, dashskip)
	}
	exitf("unknown input format %q", dashf)
	return nil, nil
}

// entry point for 'ionframe encode ...'
func encode(args []string) {
	if dashs == "" {
		exitf("encode: a schema (-s) is required")
	}
	s, err := rows.LoadSchema(dashs)
	if err != nil {
		exitf("loading schema: %s", err)
	}
	out, done := output()
	w, err := stream.NewWriter(out, dashc)
	if err != nil {
		exitf("%s", err)
	}
	w.Codec = codec()
	if dashv {
		w.Logf = logf
	}
	for _, arg := range args {
		in := open(arg)
		t, err := read(bufio.NewReader(in), s)
		in.Close()
		if err != nil {
			exitf("input %s: %s", arg, err)
		}
		if len(t.Rows) == 0 {
			continue
		}
		f, err := rows.Tables{}.ToFrame(t)
		if err != nil {
			exitf("input %s: %s", arg, err)
		}
		for _, part := range f.SplitRows(dashrows) {
			if err := w.Write(part); err != nil {
				exitf("input %s: %s", arg, err)
			}
		}
	}
	done()
	if dashv {
		logf("wrote %d rows in %d batches", w.Rows(), w.Batches())
	}
}

// each calls fn for each frame in each input
func each(args []string, fn func(name string, f *frame.Frame)) {
	for _, arg := range args {
		in := open(arg)
		r := stream.NewReader(bufio.NewReader(in))
		r.Codec = codec()
		if dashv {
			r.Logf = logf
		}
		for {
			f, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				exitf("input %s: %s", arg, err)
			}
			fn(arg, f)
		}
		in.Close()
	}
}

// entry point for 'ionframe dump ...'
func dump(args []string) {
	out, done := output()
	each(args, func(name string, f *frame.Frame) {
		if dashtext {
			d, err := frame.Encode(f)
			if err != nil {
				exitf("input %s: %s", name, err)
			}
			if err := doc.WriteText(out, d); err != nil {
				exitf("writing output: %s", err)
			}
			out.WriteByte('\n')
			return
		}
		t, err := rows.Tables{}.FromFrame(f)
		if err != nil {
			exitf("input %s: %s", name, err)
		}
		if err := rows.WriteJSON(out, t); err != nil {
			exitf("writing output: %s", err)
		}
	})
	done()
}

// entry point for 'ionframe check ...'
func check(args []string) {
	batches, nrows := 0, 0
	each(args, func(name string, f *frame.Frame) {
		batches++
		nrows += f.Len()
	})
	fmt.Printf("ok: %d batches, %d rows\n", batches, nrows)
}

// entry point for 'ionframe schema ...'
func schema(args []string) {
	var prev *rows.Schema
	each(args, func(name string, f *frame.Frame) {
		if prev != nil {
			return
		}
		prev = rows.SchemaOf(f)
	})
	if prev == nil {
		exitf("no batches in input")
	}
	buf, err := prev.YAML()
	if err != nil {
		exitf("%s", err)
	}
	os.Stdout.Write(buf)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 || dashh {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s -s <schema.yaml> [-c <compression>] [-f csv|tsv [-skip <n>]] [-rows <n>] encode <file>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        encode NDJSON (or CSV/TSV) rows as a stream of Ion frames\n")
		fmt.Fprintf(os.Stderr, "    %s [-text] dump <file.ion>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        print the frames in a stream as NDJSON (or Ion text)\n")
		fmt.Fprintf(os.Stderr, "    %s check <file.ion>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        decode and validate every frame in a stream\n")
		fmt.Fprintf(os.Stderr, "    %s schema <file.ion>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        print the schema of the first frame as YAML\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.Usage()
		os.Exit(1)
	}
	inputs := args[1:]
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	switch args[0] {
	case "encode":
		encode(inputs)
	case "dump":
		dump(inputs)
	case "check":
		check(inputs)
	case "schema":
		schema(inputs)
	default:
		exitf("unknown command %q", args[0])
	}
}
