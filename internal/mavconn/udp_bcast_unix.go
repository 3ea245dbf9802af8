//go:build !windows

package mavconn

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func setBroadcastSockopt(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
}
