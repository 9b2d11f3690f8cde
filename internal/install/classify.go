package install

import "strings"

// Verdict is an advisory classification of install output. It is a
// text heuristic, not a verification of service state; treat it as a
// hint about where to look, never as ground truth.
type Verdict int

const (
	// Indeterminate means the output carried no recognized marker.
	Indeterminate Verdict = iota
	// LikelySuccess means the output mentions success or a started
	// service.
	LikelySuccess
	// LikelyError means the output mentions an error. Takes
	// precedence over success markers.
	LikelyError
)

// String returns the stable wire name of the verdict.
func (v Verdict) String() string {
	switch v {
	case LikelySuccess:
		return "likely_success"
	case LikelyError:
		return "likely_error"
	default:
		return "indeterminate"
	}
}

// Summary returns the one-line advisory for the verdict.
func (v Verdict) Summary() string {
	switch v {
	case LikelySuccess:
		return "The service appears to be installed and running."
	case LikelyError:
		return "Some errors were detected during installation."
	default:
		return "Installation output reviewed. Manual verification may be needed."
	}
}

// ParseVerdict maps a stored wire name back to a Verdict. Unknown
// names come back Indeterminate.
func ParseVerdict(s string) Verdict {
	switch s {
	case "likely_success":
		return LikelySuccess
	case "likely_error":
		return LikelyError
	default:
		return Indeterminate
	}
}

// Classify scans output for outcome markers, case-insensitively.
// "error" anywhere wins over "success" and "started"; text with none
// of the markers is Indeterminate.
func Classify(output string) Verdict {
	lower := strings.ToLower(output)
	if strings.Contains(lower, "error") {
		return LikelyError
	}
	if strings.Contains(lower, "success") || strings.Contains(lower, "started") {
		return LikelySuccess
	}
	return Indeterminate
}
