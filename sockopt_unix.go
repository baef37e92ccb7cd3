//go:build unix

package asyncnet

import "golang.org/x/sys/unix"

func setReuseOptions(fd uintptr, reuseAddress, reusePort bool) error {
	if reuseAddress {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return err
		}
	}
	if reusePort {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return err
		}
	}
	return nil
}
