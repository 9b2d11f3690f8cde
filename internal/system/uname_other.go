//go:build !unix

package system

// kernelInfo has no uname(2) to call here; reports carry the OS name
// alone.
func kernelInfo() (release, version string) {
	return "", ""
}
