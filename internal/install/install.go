// Package install provides the pipeline that takes a shell install
// script from screening through execution to an InstallRecord. It is
// consumed by both the MCP server and the CLI commands.
//
// The pipeline is the only place in the program that mutates the host,
// and it does so solely through the spawned script. Everything before
// the spawn is pure string work.
package install

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/morphogen/internal/report"
	"github.com/deixis/morphogen/internal/runner"
	"github.com/deixis/morphogen/internal/safety"
)

// ScriptRunner executes a materialized script.
// Implemented by runner.Runner.
type ScriptRunner interface {
	Run(ctx context.Context, script *runner.ScriptFile) (*runner.Result, error)
}

// Installer holds shared dependencies for the install pipeline.
type Installer struct {
	Validator *safety.Validator
	Runner    ScriptRunner
}

// Install screens the script against the safety gate and, if it
// passes, executes it. A rejected script produces a terminal record
// without touching the filesystem.
//
// The returned record always has a Status; failures along the way are
// recorded, never raised. Each call makes at most one execution
// attempt.
func (ins *Installer) Install(ctx context.Context, script string) *report.InstallRecord {
	rec := newRecord(script)
	if verdict := ins.Validator.Validate(script); verdict.Rejected() {
		rec.Status = report.StatusRejected
		rec.RejectedPattern = verdict.Pattern
		return rec
	}
	ins.execute(ctx, rec)
	return rec
}

// Run executes the script without consulting the safety gate. It
// backs the bare run tool, where the caller has opted out of
// screening; prefer Install.
func (ins *Installer) Run(ctx context.Context, script string) *report.InstallRecord {
	rec := newRecord(script)
	ins.execute(ctx, rec)
	return rec
}

func newRecord(script string) *report.InstallRecord {
	return &report.InstallRecord{
		ID:     uuid.New().String(),
		Time:   time.Now().UTC(),
		Script: script,
	}
}

// execute materializes and runs the record's script, filling in the
// outcome. The runner removes the script file on every path.
func (ins *Installer) execute(ctx context.Context, rec *report.InstallRecord) {
	sf, err := runner.Materialize(rec.Script)
	if err != nil {
		rec.Status = report.StatusSetupError
		rec.Error = err.Error()
		return
	}

	res, err := ins.Runner.Run(ctx, sf)
	if err != nil {
		rec.Status = report.StatusSpawnError
		rec.Error = err.Error()
		return
	}

	// Adopt the runner's run ID so the stored record matches the
	// execution log lines.
	if res.RunID != "" {
		rec.ID = res.RunID
	}
	rec.Status = report.StatusCompleted
	rec.ExitCode = res.ExitCode
	rec.Stdout = res.Stdout
	rec.Stderr = res.Stderr
	rec.Truncated = res.Truncated
	rec.TimedOut = res.TimedOut
	rec.DecodeWarning = res.DecodeWarning
	rec.DurationMS = res.DurationMilli()
	rec.Verdict = Classify(res.Combined()).String()
}
