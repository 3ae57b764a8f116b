// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// File is a descriptor opened in non-blocking mode and driven through the
// same attempt-suspend-retry idiom as sockets. Regular files report ready
// unconditionally, so their futures resolve on the first poll; the shared
// idiom exists for descriptors that genuinely signal readiness, such as
// pipes and FIFOs opened through the same surface.
type File struct {
	rt   *Runtime
	name string
	fd   int
}

// Create opens path for writing, creating it if absent and truncating it
// otherwise. Fails with ErrFSDisabled unless the runtime was built with
// WithFS.
func Create(rt *Runtime, path string, perm fs.FileMode) (*File, error) {
	return openFile(rt, path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, perm)
}

// Open opens path for reading. Fails with ErrFSDisabled unless the runtime
// was built with WithFS.
func Open(rt *Runtime, path string) (*File, error) {
	return openFile(rt, path, unix.O_RDONLY, 0)
}

func openFile(rt *Runtime, path string, flags int, perm fs.FileMode) (*File, error) {
	if !rt.fsEnabled {
		return nil, ErrFSDisabled
	}
	fd, err := unix.Open(path, flags|unix.O_NONBLOCK|unix.O_CLOEXEC, uint32(perm.Perm()))
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	rt.log.Trace().
		Int("fd", fd).
		Str("path", path).
		Log("file opened")
	return &File{rt: rt, fd: fd, name: path}, nil
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Read returns a future resolving to the next chunk read into buf. A
// resolved length of zero means end of file.
func (f *File) Read(buf []byte) *FileReadFuture {
	return &FileReadFuture{f: f, buf: buf}
}

// WriteAll returns a future that resolves once every byte of buf has been
// written.
func (f *File) WriteAll(buf []byte) *FileWriteAllFuture {
	return &FileWriteAllFuture{f: f, buf: buf}
}

// Close releases the descriptor, waking any task still suspended on it.
func (f *File) Close() error {
	if f.rt.reactor != nil {
		f.rt.reactor.deregisterFD(f.fd)
	}
	return unix.Close(f.fd)
}

// FileReadFuture resolves to one successful read from a file.
type FileReadFuture struct {
	f   *File
	buf []byte
}

// Poll implements Future.
func (r *FileReadFuture) Poll(cx *Context) (int, error, bool) {
	for {
		n, err := unix.Read(r.f.fd, r.buf)
		switch {
		case err == nil:
			return n, nil, true
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(r.f.fd, InterestRead); rerr != nil {
				return 0, rerr, true
			}
			return 0, nil, false
		default:
			return 0, &IOError{Op: "read", Err: err}, true
		}
	}
}

// FileWriteAllFuture drives a buffer fully into a file across partial
// writes.
type FileWriteAllFuture struct {
	f   *File
	buf []byte
	off int
}

// Poll implements Future. Resolves to the total number of bytes written.
func (w *FileWriteAllFuture) Poll(cx *Context) (int, error, bool) {
	for w.off < len(w.buf) {
		n, err := unix.Write(w.f.fd, w.buf[w.off:])
		switch {
		case err == nil:
			w.off += n
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(w.f.fd, InterestWrite); rerr != nil {
				return w.off, rerr, true
			}
			return 0, nil, false
		default:
			return w.off, &IOError{Op: "write", Err: err}, true
		}
	}
	return w.off, nil, true
}

// Mkdir creates a directory at path with the given permissions. Fails with
// ErrFSDisabled unless the runtime was built with WithFS.
func Mkdir(rt *Runtime, path string, perm fs.FileMode) error {
	if !rt.fsEnabled {
		return ErrFSDisabled
	}
	if err := unix.Mkdir(path, uint32(perm.Perm())); err != nil {
		return &IOError{Op: "mkdir", Err: err}
	}
	return nil
}

// RemoveDir removes the empty directory at path. Fails with ErrFSDisabled
// unless the runtime was built with WithFS.
func RemoveDir(rt *Runtime, path string) error {
	if !rt.fsEnabled {
		return ErrFSDisabled
	}
	if err := unix.Rmdir(path); err != nil {
		return &IOError{Op: "rmdir", Err: err}
	}
	return nil
}
