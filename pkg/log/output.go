package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes formatted entries to an io.Writer (stdout by default),
// serialized behind a mutex so concurrent loggers don't interleave lines.
type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput returns an Output writing to os.Stdout.
func NewConsoleOutput() Output { return &ConsoleOutput{w: os.Stdout} }

// NewWriterOutput returns an Output writing to an arbitrary io.Writer, useful
// in tests that want to capture log lines.
func NewWriterOutput(w io.Writer) Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(formatted)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

// NullOutput discards all entries.
type NullOutput struct{}

func (NullOutput) Write(*Entry, []byte) error { return nil }
func (NullOutput) Close() error               { return nil }

// FileOutput appends formatted entries to a file on disk.
type FileOutput struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileOutput opens (creating if necessary) the file at path for appending.
func NewFileOutput(path string) (*FileOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileOutput{f: f}, nil
}

func (f *FileOutput) Write(_ *Entry, formatted []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.f.Write(formatted)
	return err
}

func (f *FileOutput) Close() error { return f.f.Close() }
