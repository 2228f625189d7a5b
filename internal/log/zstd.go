package log

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdLogger archives events as zstd-compressed JSON lines. It keeps an
// in-memory copy so it can also serve as the game's primary logger.
type ZstdLogger struct {
	MemoryLogger

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// NewZstdLogger creates (or truncates) path and writes every logged event to it.
func NewZstdLogger(path string) (*ZstdLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ZstdLogger{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (l *ZstdLogger) Log(event GameEvent) {
	event = l.MemoryLogger.record(event)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil || l.err != nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		l.err = err
		return
	}
	if _, err := l.w.Write(b); err != nil {
		l.err = err
		return
	}
	l.err = l.w.WriteByte('\n')
}

// Err returns the first write error, if any.
func (l *ZstdLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close flushes the archive and closes the file.
func (l *ZstdLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return l.err
	}
	err := l.w.Flush()
	if cerr := l.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.w, l.enc, l.f = nil, nil, nil
	if err == nil {
		err = l.err
	}
	return err
}

// ReadEvents decodes a zstd JSONL event archive.
func ReadEvents(r io.Reader) ([]GameEvent, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var events []GameEvent
	jd := json.NewDecoder(dec)
	for {
		var e GameEvent
		if err := jd.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			return events, err
		}
		events = append(events, e)
	}
	return events, nil
}

// ReadEventsFile opens path and decodes its event archive.
func ReadEventsFile(path string) ([]GameEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEvents(f)
}
