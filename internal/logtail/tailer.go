package logtail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/lobbytracker/internal/logging"
	"github.com/Amund211/lobbytracker/internal/parsing"
	"golang.org/x/text/encoding/unicode"
)

const defaultPollInterval = 100 * time.Millisecond

// Tailer follows a growing log file from a persistent read position.
// Truncation and rotation of the file are not detected.
type Tailer struct {
	file *os.File
	path string

	pollInterval time.Duration
	afterFunc    func(time.Duration) <-chan time.Time
	startAtEnd   bool
	logger       *slog.Logger

	// Bytes read from the file but not yet handed off
	pending bytes.Buffer
}

type Option func(*Tailer)

func WithPollInterval(interval time.Duration) Option {
	return func(t *Tailer) {
		t.pollInterval = interval
	}
}

func WithAfterFunc(afterFunc func(time.Duration) <-chan time.Time) Option {
	return func(t *Tailer) {
		t.afterFunc = afterFunc
	}
}

// Skip the existing contents of the file and only follow lines appended after Open
func WithStartAtEnd() Option {
	return func(t *Tailer) {
		t.startAtEnd = true
	}
}

// Defaults to the logger in the context passed to Run
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tailer) {
		t.logger = logger
	}
}

func Open(path string, opts ...Option) (*Tailer, error) {
	t := &Tailer{
		path:         path,
		pollInterval: defaultPollInterval,
		afterFunc:    time.After,
	}
	for _, opt := range opts {
		opt(t)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if t.startAtEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to seek to end of log file: %w", err)
		}
	}

	t.file = file

	return t, nil
}

func (t *Tailer) Close() error {
	return t.file.Close()
}

// Run reads the file until ctx is cancelled or a read fails.
//
// Complete lines are passed to handle in file order, one batch per poll. While paused
// returns true, new bytes keep accumulating and are delivered as one batch once unpaused.
// Returns ctx.Err() on cancellation.
func (t *Tailer) Run(ctx context.Context, paused func() bool, handle func(ctx context.Context, lines []string)) error {
	logger := t.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger = logger.With("component", "logtail", "path", t.path)
	ctx = logging.AddToContext(ctx, logger)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		read, err := io.Copy(&t.pending, t.file)
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		if read > 0 {
			logger.DebugContext(ctx, "Read from log file", "bytes", read, "pending", t.pending.Len())
		}

		if !paused() {
			if lines := t.takeCompleteLines(); len(lines) > 0 {
				handle(ctx, lines)
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.afterFunc(t.pollInterval):
		}
	}
}

// Decode and remove every complete line from the pending buffer.
// A trailing line without a newline stays pending until the rest of it is written.
func (t *Tailer) takeCompleteLines() []string {
	end := bytes.LastIndexByte(t.pending.Bytes(), '\n')
	if end == -1 {
		return nil
	}

	complete := t.pending.Next(end + 1)
	return parsing.SplitLines(decode(complete))
}

// Invalid UTF-8 is replaced with U+FFFD
func decode(data []byte) string {
	// The replacing UTF-8 decoder never returns an error
	decoded, _ := unicode.UTF8.NewDecoder().Bytes(data)
	return string(decoded)
}
