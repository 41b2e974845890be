// Package trace loads recorded cache access traces from disk.
//
// A trace is a CSV-ish text file with one access per line. Files may be
// zstd-compressed; compression is detected from the frame magic, not the
// file name.
package trace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Op is one access from a trace.
type Op struct {
	Key   string
	Write bool
}

// Options controls how lines are split into operations.
type Options struct {
	// KeyColumn is the zero-based comma-separated column holding the key.
	KeyColumn int
	// OpColumn holds the operation name ("GET", "SET", ...). Negative means
	// the trace has no such column and every access is a read.
	OpColumn int
	// SkipHeader drops the first line.
	SkipHeader bool
	// Limit caps the number of operations read. Zero means no limit.
	Limit int
}

// DefaultOptions reads one key per line with no operation column.
func DefaultOptions() Options {
	return Options{OpColumn: -1}
}

// Load reads the trace at path.
func Load(path string, opts Options) ([]Op, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	ops, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ops, nil
}

// Read parses a trace from r, decompressing it first if it is zstd.
func Read(r io.Reader, opts Options) ([]Op, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peek trace: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		src = dec
	}
	return parse(src, opts)
}

func parse(r io.Reader, opts Options) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ops []Op
	if opts.Limit > 0 {
		ops = make([]Op, 0, opts.Limit)
	}

	first := true
	for scanner.Scan() {
		if first {
			first = false
			if opts.SkipHeader {
				continue
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if opts.KeyColumn >= len(fields) {
			continue
		}
		key := strings.TrimSpace(fields[opts.KeyColumn])
		if key == "" {
			continue
		}

		op := Op{Key: key}
		if opts.OpColumn >= 0 && opts.OpColumn < len(fields) {
			op.Write = isWrite(fields[opts.OpColumn])
		}
		ops = append(ops, op)

		if opts.Limit > 0 && len(ops) >= opts.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan trace: %w", err)
	}
	return ops, nil
}

func isWrite(op string) bool {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "SET", "PUT", "WRITE", "ADD", "REPLACE":
		return true
	default:
		return false
	}
}

// Keys returns the key of every operation, in order.
func Keys(ops []Op) []string {
	keys := make([]string, len(ops))
	for i, op := range ops {
		keys[i] = op.Key
	}
	return keys
}

// Summary describes a loaded trace.
type Summary struct {
	Ops        int
	UniqueKeys int
	Writes     int
}

// Summarize counts operations, distinct keys and writes.
func Summarize(ops []Op) Summary {
	seen := make(map[string]struct{}, len(ops)/4)
	s := Summary{Ops: len(ops)}
	for _, op := range ops {
		seen[op.Key] = struct{}{}
		if op.Write {
			s.Writes++
		}
	}
	s.UniqueKeys = len(seen)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d ops, %d unique keys, %d writes", s.Ops, s.UniqueKeys, s.Writes)
}
