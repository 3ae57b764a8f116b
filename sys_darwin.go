// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build darwin

package cadentis

import "golang.org/x/sys/unix"

// sysSocket creates a non-blocking, close-on-exec TCP socket. Darwin has no
// SOCK_NONBLOCK/SOCK_CLOEXEC, so the flags are applied after creation.
func sysSocket(ipv6 bool) (int, error) {
	domain := unix.AF_INET
	if ipv6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := applySocketFlags(fd); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// sysAccept accepts a connection, then applies the non-blocking and
// close-on-exec flags (no accept4 on Darwin).
func sysAccept(fd int) (int, unix.Sockaddr, error) {
	nfd, sa, err := unix.Accept(fd)
	if err != nil {
		return -1, nil, err
	}
	if err := applySocketFlags(nfd); err != nil {
		_ = unix.Close(nfd)
		return -1, nil, err
	}
	return nfd, sa, nil
}

func applySocketFlags(fd int) error {
	unix.CloseOnExec(fd)
	return unix.SetNonblock(fd, true)
}
