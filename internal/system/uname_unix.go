//go:build unix

package system

import "golang.org/x/sys/unix"

// kernelInfo reads the kernel release and version via uname(2).
func kernelInfo() (release, version string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", ""
	}
	return unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Version[:])
}
