package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrInjected is the error returned by a Fault without its own Err.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailOnOpen  bool
	FailOnRead  bool
	FailOnClose bool
	Err         error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules map[string]Fault // name substring -> fault

	opens  atomic.Int64
	closes atomic.Int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
	}
}

// AddRule injects fault into every file whose name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// Opens returns how many files were opened successfully.
func (f *FaultyFS) Opens() int64 { return f.opens.Load() }

// Closes returns how many files were closed, including failed closes.
func (f *FaultyFS) Closes() int64 { return f.closes.Load() }

func (f *FaultyFS) faultFor(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	var fault Fault
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	return fault
}

func (f *FaultyFS) Open(name string) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, &os.PathError{Op: "open", Path: name, Err: fault.err()}
	}

	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}
	f.opens.Add(1)
	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

type faultyFile struct {
	File
	fs    *FaultyFS
	fault Fault
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	if ff.fault.FailOnRead {
		return 0, ff.fault.err()
	}
	return ff.File.ReadAt(p, off)
}

func (ff *faultyFile) Close() error {
	ff.fs.closes.Add(1)
	err := ff.File.Close()
	if ff.fault.FailOnClose {
		return ff.fault.err()
	}
	return err
}
