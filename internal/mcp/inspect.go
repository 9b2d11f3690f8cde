package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type reportParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a run_install_script or install_from_llm_script result"`
}

func (h *handler) reportHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params reportParams) (*sdkmcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rec, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	var b strings.Builder
	b.WriteString(formatRecord(rec, true))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Recorded: %s\n", rec.Time.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintln(&b, "Script:")
	writeIndented(&b, strings.TrimRight(rec.Script, "\n"))

	return recordResult(strings.TrimRight(b.String(), "\n"), rec)
}
