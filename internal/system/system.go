// Package system answers questions about the host: which OS it runs,
// whether a component is known to work there, and which stack fits a
// stated business purpose. Everything here is pure lookup and
// formatting; nothing in this package executes commands or mutates
// the host.
package system

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Info describes the detected host operating system.
type Info struct {
	OS      string `json:"os"`
	Release string `json:"release"`
	Version string `json:"version"`
}

// Detect returns the host OS name in normalized form plus the kernel
// release and version where the platform exposes them.
func Detect() Info {
	release, version := kernelInfo()
	return Info{
		OS:      NormalizeOS(runtime.GOOS),
		Release: release,
		Version: version,
	}
}

// NormalizeOS maps a GOOS value to the OS name used throughout
// compatibility checks and reports.
func NormalizeOS(goos string) string {
	switch goos {
	case "darwin":
		return "MacOS"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "":
		return ""
	default:
		return strings.ToUpper(goos[:1]) + goos[1:]
	}
}

// compatibility holds the supported systems per component, keyed by
// lower-case component name. Callers only see copies.
var compatibility = map[string][]string{
	"docker":   {"Ubuntu", "Debian", "Rocky", "CentOS", "MacOS", "Windows"},
	"teleport": {"Linux", "MacOS", "Windows"},
	"netbox":   {"Ubuntu", "Debian", "Rocky"},
}

// SupportedSystems returns the systems a component is known to work
// on, or nil for an unknown component. Lookup is case-insensitive.
func SupportedSystems(component string) []string {
	supported, ok := compatibility[strings.ToLower(component)]
	if !ok {
		return nil
	}
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// KnownComponents returns the component names in the compatibility
// matrix, sorted.
func KnownComponents() []string {
	names := make([]string, 0, len(compatibility))
	for name := range compatibility {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCompatibility reports whether component is known to work on
// target. An empty target means the detected OS. Unknown components
// and unlisted systems both come back as "unknown or unverified"
// rather than incompatible: absence from the matrix is not a no.
func CheckCompatibility(component, target string, info Info) string {
	if target == "" {
		target = info.OS
	}

	status := "unknown or unverified"
	for _, s := range SupportedSystems(component) {
		if s == target {
			status = "compatible"
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is %s with %s.\n", component, status, target)
	fmt.Fprintf(&b, "\nSystem detected:\n")
	fmt.Fprintf(&b, "- OS: %s\n", target)
	fmt.Fprintf(&b, "- Release: %s\n", info.Release)
	fmt.Fprintf(&b, "- Version: %s", info.Version)

	// Release strings like "10.15.7" predate the 11+ numbering; many
	// current tools have dropped support for them.
	if target == "MacOS" && strings.HasPrefix(info.Release, "10.") {
		b.WriteString("\n\nNote: Some modern tools may not support MacOS 10.x or older versions.")
	}
	return b.String()
}

// stacks maps a lower-case business purpose to a recommended stack.
var stacks = map[string]string{
	"web server":         "Recommended stack: Ubuntu Server + Nginx + Certbot + Docker",
	"data warehouse":     "Recommended stack: Debian + PostgreSQL + Apache Superset",
	"network monitoring": "Recommended stack: Rocky Linux + NetBox + Prometheus + Grafana",
	"devops":             "Recommended stack: Ubuntu + Jenkins + GitLab + Ansible",
}

// RecommendStack returns the stack recommendation for a business
// purpose, or an explicit no-recommendation line for purposes outside
// the catalog. Lookup is case-insensitive.
func RecommendStack(purpose string) string {
	if rec, ok := stacks[strings.ToLower(purpose)]; ok {
		return rec
	}
	return "No stack recommendation available for that purpose."
}

// BuildInstallPrompt renders the prompt handed to an external model to
// request an install script for component on the given host. The
// prompt asks for a script; nothing here runs one.
func BuildInstallPrompt(component string, info Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please generate a safe and minimal bash installation script for the following:\n\n")
	fmt.Fprintf(&b, "Component: %s\n", component)
	fmt.Fprintf(&b, "OS: %s %s (%s)\n\n", info.OS, info.Release, info.Version)
	b.WriteString("Requirements:\n")
	b.WriteString("- Use native package managers if possible (e.g., apt for Ubuntu)\n")
	b.WriteString("- Avoid interactive prompts (use -y flags)\n")
	b.WriteString("- No dangerous commands like rm -rf or reboot\n")
	b.WriteString("- Only installation and basic configuration\n\n")
	b.WriteString("Return only the bash script.")
	return b.String()
}
