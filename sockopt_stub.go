//go:build !unix

package asyncnet

// Reuse options are best effort on platforms without SO_REUSEPORT.
func setReuseOptions(fd uintptr, reuseAddress, reusePort bool) error {
	return nil
}
