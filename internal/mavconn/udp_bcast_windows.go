//go:build windows

package mavconn

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func setBroadcastSockopt(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		_ = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
	})
}
