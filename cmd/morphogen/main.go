// Command morphogen runs the Morphogen MCP server and its install
// pipeline from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	slogmulti "github.com/samber/slog-multi"

	"github.com/deixis/morphogen"
	"github.com/deixis/morphogen/internal/config"
	"github.com/deixis/morphogen/internal/install"
	morphmcp "github.com/deixis/morphogen/internal/mcp"
	"github.com/deixis/morphogen/internal/report"
	"github.com/deixis/morphogen/internal/runner"
	"github.com/deixis/morphogen/internal/safety"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("morphogen: ")

	// Optional .env for MORPHOGEN_* overrides.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "mcp":
		err = mcpMain(args)
	case "validate":
		err = validateMain(args)
	case "run":
		err = runMain(args)
	case "version":
		fmt.Println(morphogen.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "morphogen: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: morphogen <command> [flags] [script]

Commands:
  mcp         Start the MCP server (stdio by default)
  validate    Screen a script against the denylist (file or stdin)
  run         Validate and execute an install script (file or stdin)
  version     Print the version
  help        Show this help

Use "morphogen <command> -h" for command-specific flags.`)
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(morphmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining working directory: %w", err)
	}

	cfg, err := config.Load(workdir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	closeLogs, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	slog.Info("starting morphogen MCP server", "version", morphogen.Version, "workdir", workdir)
	defer slog.Info("morphogen MCP server stopped")

	disk := report.NewDiskStore()
	store := report.NewLRUStore(5, disk)

	r := &runner.Runner{
		Shell:         cfg.Shell(),
		Timeout:       cfg.Timeout(),
		MaxOutput:     cfg.MaxOutputBytes(),
		MaxConcurrent: cfg.MaxConcurrent(),
		Workdir:       workdir,
	}
	ins := &install.Installer{
		Validator: safety.NewValidator(cfg.Deny...),
		Runner:    r,
	}

	server := morphmcp.NewServer(ins, r, store)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// setupLogging installs the default slog handler: human-readable text
// on stderr (stdout belongs to the stdio transport), plus a JSON file
// sink when log_file is configured.
func setupLogging(cfg *config.Config) (func(), error) {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	closer := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = func() { _ = f.Close() }
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
	return closer, nil
}

// --- validate ---

func validateMain(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	_ = fs.Parse(args)

	script, err := readScript(fs.Args())
	if err != nil {
		return err
	}

	v, err := newValidator()
	if err != nil {
		return err
	}

	verdict := v.Validate(script)
	if verdict.Rejected() {
		fmt.Printf("REJECTED: unsafe command %q\n", verdict.Pattern)
		os.Exit(1)
	}
	fmt.Println("ok")
	return nil
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output the install record as JSON")
	timeoutFlag := fs.Duration("timeout", 0, "override configured timeout (e.g. 5m)")
	_ = fs.Parse(args)

	script, err := readScript(fs.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ins, cfg, err := newInstaller(*timeoutFlag)
	if err != nil {
		return err
	}

	closeLogs, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	rec := ins.Install(ctx, script)

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return err
		}
	} else {
		fmt.Print(formatRecordCLI(rec))
	}

	if !rec.Succeeded() {
		os.Exit(1)
	}
	return nil
}

func formatRecordCLI(rec *report.InstallRecord) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	switch rec.Status {
	case report.StatusRejected:
		w("REJECTED: unsafe command %q\n", rec.RejectedPattern)
		return string(b)
	case report.StatusSetupError, report.StatusSpawnError:
		w("FAIL (%s)\n", rec.Status)
		w("%s\n", rec.Error)
		return string(b)
	}

	if rec.ExitCode == 0 {
		w("ok")
	} else {
		w("FAIL")
	}
	w("  exit=%d  %dms  verdict=%s\n", rec.ExitCode, rec.DurationMS, rec.Verdict)
	if rec.TimedOut {
		w("timed out: the script was killed at the execution deadline\n")
	}
	if rec.Stdout != "" {
		w("\n%s\n", rec.Stdout)
	}
	if rec.Stderr != "" {
		w("\nstderr:\n%s\n", rec.Stderr)
	}
	return string(b)
}

// --- shared ---

// readScript reads the script from the file argument, or stdin when
// the argument is absent or "-".
func readScript(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading script from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func newValidator() (*safety.Validator, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return safety.NewValidator(cfg.Deny...), nil
}

func newInstaller(timeoutOverride time.Duration) (*install.Installer, *config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("determining working directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	timeout := cfg.Timeout()
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	r := &runner.Runner{
		Shell:         cfg.Shell(),
		Timeout:       timeout,
		MaxOutput:     cfg.MaxOutputBytes(),
		MaxConcurrent: cfg.MaxConcurrent(),
		Workdir:       dir,
	}

	return &install.Installer{
		Validator: safety.NewValidator(cfg.Deny...),
		Runner:    r,
	}, cfg, nil
}
