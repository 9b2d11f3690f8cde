// Package morphogen holds the version and identity of the Morphogen
// MCP server, an open-source solutions integrator that installs and
// configures infrastructure components on the host it runs on.
package morphogen

import (
	"fmt"
	"strings"
)

// Version is the Morphogen release version.
const Version = "1.0.0"

// Identity metadata published through the identity://morphogen resource.
const (
	Name    = "morphogen"
	Role    = "Open-source Solutions Integrator"
	Mission = "Help businesses build their digital infrastructure by installing and configuring open-source systems."
)

// Identity returns the formatted identity block.
func Identity() string {
	var b strings.Builder
	fmt.Fprintln(&b, "== Identity ==")
	fmt.Fprintf(&b, "Name: %s\n", Name)
	fmt.Fprintf(&b, "Role: %s\n", Role)
	fmt.Fprintf(&b, "Mission: %s\n", Mission)
	fmt.Fprintf(&b, "Version: %s", Version)
	return b.String()
}
