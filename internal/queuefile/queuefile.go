package queuefile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

const maxLineSize = 1024 * 1024

// Entry is one queued source URL with its 1-based line number.
type Entry struct {
	Line int
	URL  string
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsComment reports whether the first non-space character of line is '#'.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func parse(lineNo int, raw string) (Entry, bool) {
	if IsBlank(raw) || IsComment(raw) {
		return Entry{}, false
	}
	return Entry{Line: lineNo, URL: strings.TrimSpace(raw)}, true
}

// Stream delivers queue entries one at a time. The channel is unbuffered so
// the producer never reads ahead of the consumer by more than one line.
type Stream struct {
	file    *os.File
	entries chan Entry
	done    chan struct{}
	closed  chan struct{}

	closeOnce sync.Once
	err       error
}

// Open starts streaming path. The stream stops at end of file, on ctx
// cancellation, or on Close.
func Open(ctx context.Context, path string) (*Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queue file: %w", err)
	}
	s := &Stream{
		file:    file,
		entries: make(chan Entry),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go s.produce(ctx)
	return s, nil
}

func (s *Stream) produce(ctx context.Context) {
	defer close(s.done)
	defer close(s.entries)
	defer s.file.Close()

	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		entry, ok := parse(lineNo, scanner.Text())
		if !ok {
			continue
		}
		select {
		case s.entries <- entry:
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.err = fmt.Errorf("read queue file: %w", err)
	}
}

// Entries returns the receive side of the stream. It is closed when the
// producer stops.
func (s *Stream) Entries() <-chan Entry {
	return s.entries
}

// Err reports a read error. It is only meaningful after Entries is closed.
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops the producer and waits for it to release the file. It is safe
// to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	<-s.done
	return nil
}

// ReadAll returns every entry in path without streaming.
func ReadAll(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queue file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if entry, ok := parse(lineNo, scanner.Text()); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	return entries, nil
}
