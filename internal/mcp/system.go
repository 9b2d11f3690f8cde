package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/morphogen/internal/system"
)

type compatibilityParams struct {
	Component string `json:"component" jsonschema:"the component name to check (e.g. docker, teleport, netbox)"`
	System    string `json:"system,omitempty" jsonschema:"target system name (e.g. Ubuntu, MacOS). Defaults to the detected host OS."`
}

func (h *handler) compatibilityHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params compatibilityParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Component == "" {
		return errorResult("component is required")
	}

	info := h.sysinfo()
	target := params.System
	if target == "" {
		target = info.OS
	}
	slog.InfoContext(ctx, "checking compatibility", "component", params.Component, "system", target)

	return textResult(system.CheckCompatibility(params.Component, params.System, info))
}

type recommendParams struct {
	Purpose string `json:"purpose" jsonschema:"the business purpose (e.g. web server, data warehouse, network monitoring, devops)"`
}

func (h *handler) recommendHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params recommendParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Purpose == "" {
		return errorResult("purpose is required")
	}
	return textResult(system.RecommendStack(params.Purpose))
}

type detectParams struct{}

func (h *handler) detectHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ detectParams) (*sdkmcp.CallToolResult, any, error) {
	info := h.sysinfo()
	slog.InfoContext(ctx, "detected os", "os", info.OS, "release", info.Release)

	var b strings.Builder
	fmt.Fprintf(&b, "OS: %s\n", info.OS)
	fmt.Fprintf(&b, "Release: %s\n", info.Release)
	fmt.Fprintf(&b, "Version: %s", info.Version)

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: b.String()}},
	}, info, nil
}

type installComponentParams struct {
	Component string `json:"component" jsonschema:"the component to build an install prompt for (e.g. docker)"`
}

func (h *handler) installComponentHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params installComponentParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Component == "" {
		return errorResult("component is required")
	}

	info := h.sysinfo()
	slog.InfoContext(ctx, "building install prompt", "component", params.Component, "os", info.OS)

	var b strings.Builder
	fmt.Fprintln(&b, "=== Install Prompt ===")
	fmt.Fprintln(&b, system.BuildInstallPrompt(params.Component, info))
	fmt.Fprintln(&b)
	fmt.Fprint(&b, "Hand this prompt to the model and pass the returned bash script to install_from_llm_script.")

	return textResult(b.String())
}
