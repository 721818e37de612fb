// Package mmap maps files read-only into memory.
//
// A Mapping remembers the size and modification time the file had when it
// was mapped, so a long-lived handle can cheaply tell whether the file on
// disk has since been replaced:
//
//	m, err := mmap.Open("run-42.nc")
//	if err != nil { ... }
//	defer m.Close()
//
//	if changed, err := m.Stale(); err == nil && changed {
//	    // reopen
//	}
//
// Unix uses mmap(2) and madvise(2); Windows uses CreateFileMapping and
// MapViewOfFile (Advise is a no-op there).
//
// Mappings are safe for concurrent reads. Close is idempotent, but callers
// must not touch Bytes() after Close returns.
package mmap
