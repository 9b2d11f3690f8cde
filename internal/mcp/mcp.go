// Package mcp provides the Morphogen MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/morphogen"
	"github.com/deixis/morphogen/internal/config"
	"github.com/deixis/morphogen/internal/install"
	"github.com/deixis/morphogen/internal/report"
	"github.com/deixis/morphogen/internal/runner"
	"github.com/deixis/morphogen/internal/safety"
	"github.com/deixis/morphogen/internal/system"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	installer *install.Installer
	runner    *runner.Runner // retained for updateWorkspaceFromRoots
	store     report.Store
	sysinfo   func() system.Info
}

// NewServer creates an MCP server with all Morphogen tools registered
// and the identity resource published.
func NewServer(ins *install.Installer, r *runner.Runner, store report.Store, opts ...ServerOption) *mcp.Server {
	h := &handler{
		installer: ins,
		runner:    r,
		store:     store,
		sysinfo:   system.Detect,
	}

	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	if so.sysinfo != nil {
		info := *so.sysinfo
		h.sysinfo = func() system.Info { return info }
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools:     &mcp.ToolCapabilities{ListChanged: false},
			Resources: &mcp.ResourceCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "morphogen", Version: morphogen.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "check_compatibility",
		Description: "Check whether a component is known to work on a system. The system defaults to the detected host OS.",
	}, h.compatibilityHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "recommend_os_stack",
		Description: "Recommend an open-source stack for a business purpose (web server, data warehouse, network monitoring, devops).",
	}, h.recommendHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "detect_os_info",
		Description: "Detect the host operating system, kernel release, and kernel version.",
	}, h.detectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "validate_script",
		Description: `Screen a shell install script against the denylist of dangerous commands without running it.

The check is literal substring matching, so treat an accepted verdict as a first
filter, not proof of safety. Rejection names the matched pattern.`,
	}, h.validateHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_install_script",
		Description: `Execute a shell install script on the host and report the outcome.

The script is written to an executable temp file, run under the configured shell
with a timeout, and removed afterwards. This tool does NOT consult the safety
denylist; prefer install_from_llm_script for model-generated scripts. Results
are stored for drill-down via get_install_report.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "summarize_result",
		Description: "Classify installation output text as likely success, likely error, or indeterminate. Advisory only; it reads markers in the text, it does not verify service state.",
	}, h.summarizeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "install_from_llm_script",
		Description: `Validate and run a model-generated shell install script end to end.

The script is screened against the denylist first; a rejected script is never
written to disk or executed. Accepted scripts run as in run_install_script, and
the report adds an advisory summary of the output. Results are stored for
drill-down via get_install_report.`,
	}, h.installHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "install_component_with_os_detection",
		Description: `Detect the host OS and build an install-script request prompt for a component.

Returns the prompt only; nothing is executed. Hand the prompt to the model and
pass the returned bash script to install_from_llm_script.`,
	}, h.installComponentHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "get_install_report",
		Description: `Reload the stored record of a past install run by its run ID.

Use the run_id from a run_install_script or install_from_llm_script result.`,
	}, h.reportHandler)

	s.AddResource(&mcp.Resource{
		URI:         "identity://morphogen",
		Name:        "identity",
		Description: "Morphogen's name, role, mission, and version.",
		MIMEType:    "text/plain",
	}, identityResource)

	return s
}

// ServerOption configures the Morphogen MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	sysinfo *system.Info
}

// WithSystemInfo pins the host information served by the system tools
// instead of detecting it. Used by tests and by callers targeting a
// remote host.
func WithSystemInfo(info system.Info) ServerOption {
	return func(o *serverOptions) {
		o.sysinfo = &info
	}
}

// identityResource serves the identity://morphogen resource.
func identityResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     morphogen.Identity(),
		}},
	}, nil
}

// updateWorkspaceFromRoots queries the client for MCP roots and, when
// a file root is returned, reloads .morphogen from it and applies the
// settings to the runner and validator. This is called during session
// initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	cfg, err := config.Load(workspace)
	if err != nil {
		return
	}

	// Update runner. MaxConcurrent is applied only if no run has
	// sized the semaphore yet.
	h.runner.Workdir = workspace
	h.runner.Shell = cfg.Shell()
	h.runner.Timeout = cfg.Timeout()
	h.runner.MaxOutput = cfg.MaxOutputBytes()
	h.runner.MaxConcurrent = cfg.MaxConcurrent()

	// Update the safety gate with any extra patterns.
	h.installer.Validator = safety.NewValidator(cfg.Deny...)
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
