// Package safety screens install scripts against a denylist of known
// dangerous commands before anything touches the filesystem.
//
// Screening is literal substring containment, not regular expressions
// and not shell tokenization. A script that hides a dangerous command
// behind quoting, variable expansion, or inserted whitespace will pass.
// That limitation is deliberate: the gate rejects obviously dangerous
// literal text and nothing more.
package safety

import "strings"

// Denylist is the built-in set of dangerous substrings, checked in
// declaration order. Config may append patterns; built-ins are never
// removed.
var Denylist = []string{
	"rm -rf /",
	"shutdown",
	"reboot",
	":(){ :|:& };:",
	"mkfs",
	"dd if=",
}

// Verdict is the outcome of screening a script.
type Verdict struct {
	// Pattern is the first denylisted substring found, in list order.
	// Empty when the script was accepted.
	Pattern string
}

// Rejected reports whether the script matched a denylisted pattern.
func (v Verdict) Rejected() bool { return v.Pattern != "" }

// Validator screens script text against the built-in denylist plus any
// extra patterns supplied at construction.
type Validator struct {
	patterns []string
}

// NewValidator returns a Validator over the built-in denylist followed
// by extra, preserving order.
func NewValidator(extra ...string) *Validator {
	patterns := make([]string, 0, len(Denylist)+len(extra))
	patterns = append(patterns, Denylist...)
	patterns = append(patterns, extra...)
	return &Validator{patterns: patterns}
}

// Validate returns the verdict for script. It has no side effects and
// cannot fail: an unmatched script is simply accepted.
func (v *Validator) Validate(script string) Verdict {
	for _, p := range v.patterns {
		if strings.Contains(script, p) {
			return Verdict{Pattern: p}
		}
	}
	return Verdict{}
}

// Patterns returns the full pattern list in match order.
func (v *Validator) Patterns() []string {
	out := make([]string, len(v.patterns))
	copy(out, v.patterns)
	return out
}
