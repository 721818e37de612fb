// Package fs provides read-only filesystem abstractions for testability and
// fault injection.
//
//   - [File]: an open file supporting positioned reads
//   - [FileSystem]: opens and stats files
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects open, read and close failures
//
// Tests can inject [FaultyFS] to simulate a handle that fails to close:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".grib", fs.Fault{FailOnClose: true})
//
// Operations take no context.Context; local syscalls are not interruptible.
// Remote data goes through blobstore.Blob, which does.
package fs
