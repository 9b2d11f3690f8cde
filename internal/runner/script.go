package runner

import (
	"fmt"
	"os"
	"sync"
)

// ScriptFile is an install script written to the OS temp area, marked
// executable and ready to hand to a shell. Callers own the file until
// they pass it to Runner.Run, which removes it on every exit path.
type ScriptFile struct {
	Path string

	removeOnce sync.Once
	removeErr  error
}

// Materialize writes script text to a uniquely named temp file and
// marks it executable (0755). On any failure the partial file is
// removed before the error is returned.
func Materialize(script string) (*ScriptFile, error) {
	f, err := os.CreateTemp("", "morphogen-*.sh")
	if err != nil {
		return nil, fmt.Errorf("creating script file: %w", err)
	}
	path := f.Name()

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing script file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing script file: %w", err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("marking script executable: %w", err)
	}

	return &ScriptFile{Path: path}, nil
}

// Remove deletes the script file. Safe to call more than once; only
// the first call touches the filesystem and its result is sticky.
func (s *ScriptFile) Remove() error {
	s.removeOnce.Do(func() {
		s.removeErr = os.Remove(s.Path)
	})
	return s.removeErr
}
