package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/forage/sim"
)

// TraceFile is the event trace's name inside an output directory.
const TraceFile = "events.jsonl.zst"

// StopTrace is returned from a ReadTrace callback to stop reading without an error.
var StopTrace = errors.New("stop trace")

// TraceWriter appends one JSON line per dispatch to a zstd-compressed file.
type TraceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   uint64
}

// NewTraceWriter creates path (and its directory) and returns a writer for it.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &TraceWriter{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// Write appends d. Safe on a nil writer.
func (t *TraceWriter) Write(d sim.Dispatch) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return err
	}
	t.n++
	return nil
}

// Count returns the number of dispatches written.
func (t *TraceWriter) Count() uint64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

// Close flushes buffered lines, finishes the zstd frame and closes the file.
func (t *TraceWriter) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if t.w != nil {
		if err := t.w.Flush(); err != nil {
			firstErr = err
		}
		t.w = nil
	}
	if t.enc != nil {
		if err := t.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.enc = nil
	}
	if t.f != nil {
		if err := t.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.f = nil
	}
	return firstErr
}

// ReadTrace decodes the trace at path and calls fn for each dispatch in order.
// Returning StopTrace from fn ends the read early with a nil error.
func ReadTrace(path string, fn func(sim.Dispatch) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		var d sim.Dispatch
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(d); err != nil {
			if errors.Is(err, StopTrace) {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}
