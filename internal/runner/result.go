package runner

import "time"

// Result holds the outcome of one script execution. Output is decoded
// text, trimmed of surrounding whitespace; the raw streams are capped
// at the runner's MaxOutput before decoding.
type Result struct {
	RunID         string        // unique identifier for this run
	ExitCode      int           // process exit code, -1 if killed before exiting
	Stdout        string        // captured stdout (may be truncated)
	Stderr        string        // captured stderr (may be truncated)
	Truncated     bool          // output exceeded the size cap
	TimedOut      bool          // the run hit the wall-clock limit
	DecodeWarning bool          // output contained invalid UTF-8, replaced
	Duration      time.Duration // wall-clock run time
}

// Combined joins stdout and stderr for text that inspects the whole
// output, stdout first.
func (r *Result) Combined() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// DurationMilli is the run time in whole milliseconds.
func (r *Result) DurationMilli() int64 {
	return r.Duration.Milliseconds()
}
