package install

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   Verdict
	}{
		{"empty", "", Indeterminate},
		{"no markers", "hello\nreading package lists", Indeterminate},
		{"error", "Error: unable to locate package", LikelyError},
		{"error uppercase", "FATAL ERROR", LikelyError},
		{"success", "Installation successful", LikelySuccess},
		{"started", "nginx.service started", LikelySuccess},
		{"started uppercase", "Service STARTED", LikelySuccess},
		{"error beats success", "install succeeded\nerror: post-install hook failed", LikelyError},
		{"error beats started", "service started with errors", LikelyError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.output); got != c.want {
				t.Errorf("Classify(%q) = %v, want %v", c.output, got, c.want)
			}
		})
	}
}

func TestVerdictZeroValue(t *testing.T) {
	var v Verdict
	if v != Indeterminate {
		t.Errorf("zero verdict = %v, want Indeterminate", v)
	}
}

func TestVerdictString(t *testing.T) {
	cases := map[Verdict]string{
		Indeterminate: "indeterminate",
		LikelySuccess: "likely_success",
		LikelyError:   "likely_error",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", v, got, want)
		}
	}
}

func TestParseVerdictRoundTrip(t *testing.T) {
	for _, v := range []Verdict{Indeterminate, LikelySuccess, LikelyError} {
		if got := ParseVerdict(v.String()); got != v {
			t.Errorf("ParseVerdict(%q) = %v, want %v", v.String(), got, v)
		}
	}
	if got := ParseVerdict("weird"); got != Indeterminate {
		t.Errorf("ParseVerdict(weird) = %v, want Indeterminate", got)
	}
}

func TestVerdictSummary(t *testing.T) {
	if s := LikelyError.Summary(); !strings.Contains(s, "errors were detected") {
		t.Errorf("LikelyError summary = %q", s)
	}
	if s := LikelySuccess.Summary(); !strings.Contains(s, "installed and running") {
		t.Errorf("LikelySuccess summary = %q", s)
	}
	if s := Indeterminate.Summary(); !strings.Contains(s, "Manual verification") {
		t.Errorf("Indeterminate summary = %q", s)
	}
}
