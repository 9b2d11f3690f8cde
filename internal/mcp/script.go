package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/morphogen/internal/install"
	"github.com/deixis/morphogen/internal/report"
)

type validateParams struct {
	Script string `json:"script" jsonschema:"the shell install script text to screen"`
}

func (h *handler) validateHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params validateParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Script == "" {
		return errorResult("script is required")
	}

	// A rejection is a verdict, not a tool failure.
	verdict := h.installer.Validator.Validate(params.Script)
	if verdict.Rejected() {
		return textResult(fmt.Sprintf("Status: rejected\n%s", rejectionText(verdict.Pattern)))
	}
	return textResult("Status: accepted\nScript passed basic validation.")
}

type runParams struct {
	Script string `json:"script" jsonschema:"the shell install script text to execute"`
}

func (h *handler) runHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params runParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Script == "" {
		return errorResult("script is required")
	}

	rec := h.installer.Run(ctx, params.Script)
	_ = h.store.Save(rec)

	return recordResult(withInspectHint(formatRecord(rec, false), rec.ID), rec)
}

type summarizeParams struct {
	Output string `json:"output" jsonschema:"installation output text to classify"`
}

func (h *handler) summarizeHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params summarizeParams) (*sdkmcp.CallToolResult, any, error) {
	verdict := install.Classify(params.Output)
	return textResult(fmt.Sprintf("Verdict: %s\n%s", verdict, verdict.Summary()))
}

type installParams struct {
	Script string `json:"script" jsonschema:"the model-generated shell install script to validate and execute"`
}

func (h *handler) installHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params installParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Script == "" {
		return errorResult("script is required")
	}

	rec := h.installer.Install(ctx, params.Script)
	_ = h.store.Save(rec)

	return recordResult(withInspectHint(formatRecord(rec, true), rec.ID), rec)
}

// recordResult pairs the formatted report with the record as
// structured content.
func recordResult(text string, rec *report.InstallRecord) (*sdkmcp.CallToolResult, any, error) {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}, rec, nil
}

func rejectionText(pattern string) string {
	return fmt.Sprintf("Detected unsafe command: `%s`\nAborting installation.", pattern)
}

// formatRecord renders an InstallRecord the way the tools report it.
// withSummary appends the advisory classification section used by the
// full install pipeline.
func formatRecord(rec *report.InstallRecord, withSummary bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", rec.Status)
	fmt.Fprintf(&b, "Run: %s\n", rec.ID)

	switch rec.Status {
	case report.StatusRejected:
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, rejectionText(rec.RejectedPattern))

	case report.StatusSetupError, report.StatusSpawnError:
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Error: %s\n", rec.Error)

	default:
		if rec.ExitCode == 0 {
			fmt.Fprintln(&b, "Installation succeeded.")
		} else {
			fmt.Fprintf(&b, "Installation failed (exit code %d).\n", rec.ExitCode)
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "=== Execution ===")
		fmt.Fprintf(&b, "Exit code: %d\n", rec.ExitCode)
		fmt.Fprintf(&b, "Duration: %dms\n", rec.DurationMS)
		if rec.TimedOut {
			fmt.Fprintln(&b, "The run hit the execution timeout and was killed.")
		}
		if rec.Truncated {
			fmt.Fprintln(&b, "Output was truncated at the configured size limit.")
		}
		if rec.DecodeWarning {
			fmt.Fprintln(&b, "Output contained invalid UTF-8; offending bytes were replaced.")
		}

		if rec.Stdout != "" {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, "Stdout:")
			writeIndented(&b, rec.Stdout)
		}
		if rec.Stderr != "" {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, "Stderr:")
			writeIndented(&b, rec.Stderr)
		}

		if withSummary {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, "=== Summary ===")
			fmt.Fprintf(&b, "Verdict: %s\n", rec.Verdict)
			fmt.Fprintln(&b, install.ParseVerdict(rec.Verdict).Summary())
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// withInspectHint appends the drill-down pointer shown by the tools
// that just produced a record.
func withInspectHint(text, runID string) string {
	return fmt.Sprintf("%s\n\nInspect later with get_install_report(run_id=%q).", text, runID)
}

func writeIndented(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}
