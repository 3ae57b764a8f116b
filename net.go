// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// Listener is a non-blocking TCP listening socket. Accept attempts run
// inline; only a genuinely empty backlog suspends the accepting task on
// reactor readiness.
type Listener struct {
	rt   *Runtime
	addr netip.AddrPort
	fd   int
}

// Bind creates a listening socket on address ("host:port"). Port 0 binds an
// ephemeral port; Addr reports the port actually chosen.
func Bind(rt *Runtime, address string) (*Listener, error) {
	if rt.reactor == nil {
		return nil, ErrIODisabled
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return nil, &IOError{Op: "bind", Err: err}
	}
	fd, err := sysSocket(ap.Addr().Is6())
	if err != nil {
		return nil, &IOError{Op: "socket", Err: err}
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, &IOError{Op: "setsockopt", Err: err}
	}
	if err := unix.Bind(fd, addrPortToSockaddr(ap)); err != nil {
		_ = unix.Close(fd)
		return nil, &IOError{Op: "bind", Err: err}
	}
	if err := unix.Listen(fd, 128); err != nil {
		_ = unix.Close(fd)
		return nil, &IOError{Op: "listen", Err: err}
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &IOError{Op: "getsockname", Err: err}
	}
	l := &Listener{rt: rt, fd: fd, addr: sockaddrToAddrPort(sa)}
	rt.log.Debug().
		Int("fd", fd).
		Stringer("addr", l.addr).
		Log("listener bound")
	return l, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() netip.AddrPort {
	return l.addr
}

// Accept returns a future resolving to the next inbound connection.
func (l *Listener) Accept() *AcceptFuture {
	return &AcceptFuture{l: l}
}

// Close tears down the listening socket. Any task suspended on it is woken
// so its retry observes the closed descriptor.
func (l *Listener) Close() error {
	l.rt.reactor.deregisterFD(l.fd)
	return unix.Close(l.fd)
}

// Accepted is the result of a resolved accept: the connected stream and the
// peer's address.
type Accepted struct {
	Stream *Stream
	Peer   netip.AddrPort
}

// AcceptFuture resolves to one inbound connection on a listener.
type AcceptFuture struct {
	l *Listener
}

// Poll implements Future. Each poll retries the accept syscall; an empty
// backlog re-registers read interest and suspends.
func (a *AcceptFuture) Poll(cx *Context) (Accepted, error, bool) {
	for {
		fd, sa, err := sysAccept(a.l.fd)
		switch {
		case err == nil:
			s := &Stream{rt: a.l.rt, fd: fd}
			return Accepted{Stream: s, Peer: sockaddrToAddrPort(sa)}, nil, true
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(a.l.fd, InterestRead); rerr != nil {
				return Accepted{}, rerr, true
			}
			return Accepted{}, nil, false
		default:
			return Accepted{}, &IOError{Op: "accept", Err: err}, true
		}
	}
}

// Connect returns a future resolving to an outbound connection to address.
func Connect(rt *Runtime, address string) *ConnectFuture {
	return &ConnectFuture{rt: rt, address: address}
}

// ConnectFuture establishes a non-blocking outbound TCP connection. The
// first poll issues the connect; an in-progress handshake suspends on write
// readiness and the retry observes the final outcome via a repeated connect
// call.
type ConnectFuture struct {
	rt      *Runtime
	sa      unix.Sockaddr
	address string
	fd      int
	started bool
}

// Poll implements Future.
func (c *ConnectFuture) Poll(cx *Context) (*Stream, error, bool) {
	if c.rt.reactor == nil {
		return nil, ErrIODisabled, true
	}
	if !c.started {
		ap, err := netip.ParseAddrPort(c.address)
		if err != nil {
			return nil, &IOError{Op: "connect", Err: err}, true
		}
		fd, err := sysSocket(ap.Addr().Is6())
		if err != nil {
			return nil, &IOError{Op: "socket", Err: err}, true
		}
		c.fd = fd
		c.sa = addrPortToSockaddr(ap)
		c.started = true
		err = unix.Connect(fd, c.sa)
		switch err {
		case nil, unix.EISCONN:
			return &Stream{rt: c.rt, fd: fd}, nil, true
		case unix.EINPROGRESS:
			if rerr := cx.registerIO(fd, InterestWrite); rerr != nil {
				_ = unix.Close(fd)
				return nil, rerr, true
			}
			return nil, nil, false
		default:
			_ = unix.Close(fd)
			return nil, &IOError{Op: "connect", Err: err}, true
		}
	}
	// Retry the connect itself rather than trusting write readiness: a wake
	// from another source on the same task would otherwise misreport an
	// in-progress handshake. EISCONN confirms success, EALREADY re-suspends.
	err := unix.Connect(c.fd, c.sa)
	switch err {
	case nil, unix.EISCONN:
		return &Stream{rt: c.rt, fd: c.fd}, nil, true
	case unix.EALREADY, unix.EINPROGRESS:
		if rerr := cx.registerIO(c.fd, InterestWrite); rerr != nil {
			_ = unix.Close(c.fd)
			return nil, rerr, true
		}
		return nil, nil, false
	default:
		_ = unix.Close(c.fd)
		return nil, &IOError{Op: "connect", Err: err}, true
	}
}

// Stream is a connected non-blocking TCP socket. Read and write attempts
// run inline; only EAGAIN suspends the calling task, read and write
// independently.
type Stream struct {
	rt *Runtime
	fd int
}

// Read returns a future resolving to the next chunk of received bytes,
// written into buf. A resolved length of zero means the peer closed the
// connection.
func (s *Stream) Read(buf []byte) *StreamReadFuture {
	return &StreamReadFuture{s: s, buf: buf}
}

// Write returns a future performing a single send attempt of buf, resolving
// to the number of bytes the kernel accepted. A full socket buffer suspends
// until writable; partial sends are the caller's concern, or use WriteAll.
func (s *Stream) Write(buf []byte) *StreamWriteFuture {
	return &StreamWriteFuture{s: s, buf: buf}
}

// WriteAll returns a future that resolves once every byte of buf has been
// accepted by the kernel, suspending across as many partial sends as needed.
func (s *Stream) WriteAll(buf []byte) *StreamWriteAllFuture {
	return &StreamWriteAllFuture{s: s, buf: buf}
}

// Close tears down the socket, waking any task still suspended on it.
func (s *Stream) Close() error {
	s.rt.reactor.deregisterFD(s.fd)
	return unix.Close(s.fd)
}

// StreamReadFuture resolves to one successful receive on a stream.
type StreamReadFuture struct {
	s   *Stream
	buf []byte
}

// Poll implements Future.
func (f *StreamReadFuture) Poll(cx *Context) (int, error, bool) {
	for {
		n, err := unix.Read(f.s.fd, f.buf)
		switch {
		case err == nil:
			return n, nil, true
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(f.s.fd, InterestRead); rerr != nil {
				return 0, rerr, true
			}
			return 0, nil, false
		default:
			return 0, &IOError{Op: "read", Err: err}, true
		}
	}
}

// StreamWriteFuture resolves to one successful send on a stream.
type StreamWriteFuture struct {
	s   *Stream
	buf []byte
}

// Poll implements Future.
func (f *StreamWriteFuture) Poll(cx *Context) (int, error, bool) {
	for {
		n, err := unix.Write(f.s.fd, f.buf)
		switch {
		case err == nil:
			return n, nil, true
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(f.s.fd, InterestWrite); rerr != nil {
				return 0, rerr, true
			}
			return 0, nil, false
		default:
			return 0, &IOError{Op: "write", Err: err}, true
		}
	}
}

// StreamWriteAllFuture drives a buffer fully onto the wire across partial
// sends.
type StreamWriteAllFuture struct {
	s   *Stream
	buf []byte
	off int
}

// Poll implements Future. Resolves to the total number of bytes written.
func (f *StreamWriteAllFuture) Poll(cx *Context) (int, error, bool) {
	for f.off < len(f.buf) {
		n, err := unix.Write(f.s.fd, f.buf[f.off:])
		switch {
		case err == nil:
			f.off += n
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if rerr := cx.registerIO(f.s.fd, InterestWrite); rerr != nil {
				return f.off, rerr, true
			}
			return 0, nil, false
		default:
			return f.off, &IOError{Op: "write", Err: err}, true
		}
	}
	return f.off, nil, true
}

// addrPortToSockaddr converts a parsed address into the sockaddr form the
// socket syscalls take.
func addrPortToSockaddr(ap netip.AddrPort) unix.Sockaddr {
	if ap.Addr().Is6() && !ap.Addr().Is4In6() {
		return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: ap.Addr().As16()}
	}
	return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: ap.Addr().Unmap().As4()}
}

func sockaddrToAddrPort(sa unix.Sockaddr) netip.AddrPort {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))
	default:
		return netip.AddrPort{}
	}
}
