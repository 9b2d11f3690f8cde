package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/morphogen/internal/install"
	"github.com/deixis/morphogen/internal/report"
	"github.com/deixis/morphogen/internal/runner"
	"github.com/deixis/morphogen/internal/safety"
	"github.com/deixis/morphogen/internal/system"
)

// setup creates a full Morphogen MCP server + client over in-memory
// transports, with pinned host info so assertions are stable.
func setup(t *testing.T) *mcp.ClientSession {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
	ctx := context.Background()

	r := &runner.Runner{
		Timeout:   30 * time.Second,
		MaxOutput: 1 << 20,
	}
	ins := &install.Installer{Validator: safety.NewValidator(), Runner: r}
	store := report.NewLRUStore(5, report.NewDiskStore())

	server := NewServer(ins, r, store, WithSystemInfo(system.Info{
		OS:      "Linux",
		Release: "6.8.0-test",
		Version: "#1 SMP test",
	}))

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// runIDFrom extracts the run ID from a "Run: <id>" line.
func runIDFrom(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Run: ") {
			return strings.TrimPrefix(line, "Run: ")
		}
	}
	t.Fatalf("no Run ID found in output:\n%s", text)
	return ""
}

// --- check_compatibility ---

func TestCheckCompatibility_DetectedHost(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "check_compatibility", map[string]any{"component": "teleport"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "teleport is compatible with Linux.") {
		t.Errorf("expected compatible verdict, got:\n%s", text)
	}
	if !strings.Contains(text, "- Release: 6.8.0-test") {
		t.Errorf("expected detected release, got:\n%s", text)
	}
}

func TestCheckCompatibility_ExplicitSystem(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "check_compatibility", map[string]any{
		"component": "docker",
		"system":    "Ubuntu",
	})
	text := resultText(res)
	if !strings.Contains(text, "docker is compatible with Ubuntu.") {
		t.Errorf("expected explicit system verdict, got:\n%s", text)
	}
}

func TestCheckCompatibility_UnknownComponent(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "check_compatibility", map[string]any{"component": "minio"})
	text := resultText(res)
	if !strings.Contains(text, "minio is unknown or unverified with Linux.") {
		t.Errorf("expected unverified verdict, got:\n%s", text)
	}
}

func TestCheckCompatibility_MissingComponent(t *testing.T) {
	cs := setup(t)
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "check_compatibility",
		Arguments: map[string]any{},
	})
	if err == nil {
		t.Error("expected error for missing component")
	}
}

// --- recommend_os_stack ---

func TestRecommendOsStack(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "recommend_os_stack", map[string]any{"purpose": "web server"})
	text := resultText(res)
	if !strings.Contains(text, "Nginx") {
		t.Errorf("expected web server stack, got:\n%s", text)
	}

	res = callTool(t, cs, "recommend_os_stack", map[string]any{"purpose": "time travel"})
	if !strings.Contains(resultText(res), "No stack recommendation") {
		t.Errorf("expected no-recommendation line, got:\n%s", resultText(res))
	}
}

// --- detect_os_info ---

func TestDetectOsInfo(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "detect_os_info", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "OS: Linux") || !strings.Contains(text, "Release: 6.8.0-test") {
		t.Errorf("expected host lines, got:\n%s", text)
	}

	sc, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("StructuredContent = %T, want object", res.StructuredContent)
	}
	if sc["os"] != "Linux" {
		t.Errorf("structured os = %v, want Linux", sc["os"])
	}
	if sc["release"] != "6.8.0-test" {
		t.Errorf("structured release = %v", sc["release"])
	}
}

// --- validate_script ---

func TestValidateScript_Accepted(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "validate_script", map[string]any{"script": "echo hello"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Status: accepted") {
		t.Errorf("expected accepted status, got:\n%s", text)
	}
	if !strings.Contains(text, "passed basic validation") {
		t.Errorf("expected validation line, got:\n%s", text)
	}
}

func TestValidateScript_Rejected(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "validate_script", map[string]any{"script": "rm -rf / --no-preserve-root"})
	text := resultText(res)
	// A rejection is a verdict, not a tool failure.
	if res.IsError {
		t.Fatalf("rejection flagged as tool error: %s", text)
	}
	if !strings.Contains(text, "Status: rejected") {
		t.Errorf("expected rejected status, got:\n%s", text)
	}
	if !strings.Contains(text, "rm -rf /") || !strings.Contains(text, "Aborting installation.") {
		t.Errorf("expected rejection detail, got:\n%s", text)
	}
}

// --- run_install_script ---

func TestRunInstallScript(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "run_install_script", map[string]any{"script": "echo hello"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Status: completed") {
		t.Errorf("expected completed status, got:\n%s", text)
	}
	if !strings.Contains(text, "Installation succeeded.") {
		t.Errorf("expected success marker, got:\n%s", text)
	}
	if !strings.Contains(text, "Exit code: 0") {
		t.Errorf("expected exit code line, got:\n%s", text)
	}
	if !strings.Contains(text, "hello") {
		t.Errorf("expected captured stdout, got:\n%s", text)
	}
	if strings.Contains(text, "=== Summary ===") {
		t.Errorf("bare run should not carry a summary section:\n%s", text)
	}

	sc, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("StructuredContent = %T, want object", res.StructuredContent)
	}
	if sc["status"] != "completed" {
		t.Errorf("structured status = %v", sc["status"])
	}
	if sc["exit_code"] != float64(0) {
		t.Errorf("structured exit_code = %v", sc["exit_code"])
	}
}

func TestRunInstallScript_SkipsSafetyGate(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "run_install_script", map[string]any{"script": "echo rebooting"})
	text := resultText(res)
	if !strings.Contains(text, "Status: completed") {
		t.Errorf("bare run should not screen scripts, got:\n%s", text)
	}
	if !strings.Contains(text, "rebooting") {
		t.Errorf("expected stdout, got:\n%s", text)
	}
}

// --- summarize_result ---

func TestSummarizeResult(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "summarize_result", map[string]any{"output": "FATAL ERROR: no such package"})
	if !strings.Contains(resultText(res), "Verdict: likely_error") {
		t.Errorf("expected likely_error, got:\n%s", resultText(res))
	}

	res = callTool(t, cs, "summarize_result", map[string]any{"output": "nginx.service started"})
	if !strings.Contains(resultText(res), "Verdict: likely_success") {
		t.Errorf("expected likely_success, got:\n%s", resultText(res))
	}

	res = callTool(t, cs, "summarize_result", map[string]any{"output": "done"})
	if !strings.Contains(resultText(res), "Verdict: indeterminate") {
		t.Errorf("expected indeterminate, got:\n%s", resultText(res))
	}
}

// --- install_from_llm_script ---

func TestInstallFromLLMScript_Success(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "install_from_llm_script", map[string]any{"script": "echo 'install success'"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Status: completed") {
		t.Errorf("expected completed status, got:\n%s", text)
	}
	if !strings.Contains(text, "=== Execution ===") || !strings.Contains(text, "=== Summary ===") {
		t.Errorf("expected sectioned report, got:\n%s", text)
	}
	if !strings.Contains(text, "Verdict: likely_success") {
		t.Errorf("expected likely_success verdict, got:\n%s", text)
	}
	if !strings.Contains(text, "installed and running") {
		t.Errorf("expected advisory line, got:\n%s", text)
	}
}

func TestInstallFromLLMScript_Rejected(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "install_from_llm_script", map[string]any{"script": "shutdown -h now"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("rejection flagged as tool error: %s", text)
	}
	if !strings.Contains(text, "Status: rejected") {
		t.Errorf("expected rejected status, got:\n%s", text)
	}
	if !strings.Contains(text, "`shutdown`") {
		t.Errorf("expected matched pattern, got:\n%s", text)
	}
	if strings.Contains(text, "=== Execution ===") {
		t.Errorf("rejected script must not reach execution:\n%s", text)
	}

	sc, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("StructuredContent = %T, want object", res.StructuredContent)
	}
	if sc["status"] != "rejected" {
		t.Errorf("structured status = %v", sc["status"])
	}
	if sc["rejected_pattern"] != "shutdown" {
		t.Errorf("structured rejected_pattern = %v", sc["rejected_pattern"])
	}
}

func TestInstallFromLLMScript_NonZeroExit(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "install_from_llm_script", map[string]any{"script": "exit 1"})
	text := resultText(res)
	if !strings.Contains(text, "Status: completed") {
		t.Errorf("expected completed status, got:\n%s", text)
	}
	if !strings.Contains(text, "Installation failed (exit code 1).") {
		t.Errorf("expected failure marker, got:\n%s", text)
	}
	if !strings.Contains(text, "Exit code: 1") {
		t.Errorf("expected non-zero exit surfaced, got:\n%s", text)
	}
	if !strings.Contains(text, "Verdict: indeterminate") {
		t.Errorf("expected indeterminate verdict, got:\n%s", text)
	}
}

// --- install_component_with_os_detection ---

func TestInstallComponentWithOSDetection(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "install_component_with_os_detection", map[string]any{"component": "docker"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "=== Install Prompt ===") {
		t.Errorf("expected prompt header, got:\n%s", text)
	}
	if !strings.Contains(text, "Component: docker") {
		t.Errorf("expected component line, got:\n%s", text)
	}
	if !strings.Contains(text, "OS: Linux 6.8.0-test (#1 SMP test)") {
		t.Errorf("expected OS line, got:\n%s", text)
	}
	if !strings.Contains(text, "install_from_llm_script") {
		t.Errorf("expected follow-up hint, got:\n%s", text)
	}
}

// --- get_install_report ---

func TestGetInstallReport(t *testing.T) {
	cs := setup(t)

	runRes := callTool(t, cs, "install_from_llm_script", map[string]any{"script": "echo hello"})
	runID := runIDFrom(t, resultText(runRes))

	res := callTool(t, cs, "get_install_report", map[string]any{"run_id": runID})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Status: completed") {
		t.Errorf("expected stored status, got:\n%s", text)
	}
	if !strings.Contains(text, "Run: "+runID) {
		t.Errorf("expected run ID, got:\n%s", text)
	}
	if !strings.Contains(text, "Script:") || !strings.Contains(text, "echo hello") {
		t.Errorf("expected stored script, got:\n%s", text)
	}
	if !strings.Contains(text, "Recorded: ") {
		t.Errorf("expected timestamp, got:\n%s", text)
	}
}

func TestGetInstallReport_InvalidRunID(t *testing.T) {
	cs := setup(t)
	res := callTool(t, cs, "get_install_report", map[string]any{"run_id": "nonexistent-id"})
	if !res.IsError {
		t.Error("expected IsError for invalid run_id")
	}
}

func TestGetInstallReport_MissingRunID(t *testing.T) {
	cs := setup(t)
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_install_report",
		Arguments: map[string]any{},
	})
	if err == nil {
		t.Error("expected error for missing run_id")
	}
}

// --- identity resource ---

func TestIdentityResource(t *testing.T) {
	cs := setup(t)
	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "identity://morphogen",
	})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("Contents = %d entries, want 1", len(res.Contents))
	}
	text := res.Contents[0].Text
	for _, want := range []string{
		"== Identity ==",
		"Name: morphogen",
		"Role: Open-source Solutions Integrator",
		"Version:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("identity missing %q:\n%s", want, text)
		}
	}
}

func TestInstructionsMentionPipeline(t *testing.T) {
	for _, want := range []string{"install_from_llm_script", "get_install_report", "detect_os_info"} {
		if !strings.Contains(Instructions, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
}
