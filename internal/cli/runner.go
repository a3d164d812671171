// Package cli drives a synchronization run over a directory of row
// classes: it finds the files, fetches their comments and writes the
// rewritten sources back.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/serupd/internal/config"
	"github.com/toyz/serupd/internal/engine"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/metadata"
	"github.com/toyz/serupd/internal/utils"
)

// Status is the outcome of one file
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// FileResult describes what happened to one file
type FileResult struct {
	Path    string   `yaml:"path"`
	Class   string   `yaml:"class,omitempty"`
	Status  Status   `yaml:"status"`
	Reason  string   `yaml:"reason,omitempty"`
	Changed []string `yaml:"changed,omitempty"`

	Err error `yaml:"-"`
}

// Summary aggregates the file results of a run
type Summary struct {
	RunID     string        `yaml:"run_id,omitempty"`
	Root      string        `yaml:"root"`
	DryRun    bool          `yaml:"dry_run"`
	Total     int           `yaml:"total"`
	Updated   int           `yaml:"updated"`
	Unchanged int           `yaml:"unchanged"`
	Skipped   int           `yaml:"skipped"`
	Failed    int           `yaml:"failed"`
	Duration  time.Duration `yaml:"duration"`
	Files     []FileResult  `yaml:"files"`
}

// AllFailed reports whether there were files and every one of them failed
func (s *Summary) AllFailed() bool {
	return s.Total > 0 && s.Failed == s.Total
}

// Stats returns the counters for console output
func (s *Summary) Stats() map[string]interface{} {
	return map[string]interface{}{
		"files":     s.Total,
		"updated":   s.Updated,
		"unchanged": s.Unchanged,
		"skipped":   s.Skipped,
		"failed":    s.Failed,
	}
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	s.Total++
	switch r.Status {
	case StatusUpdated:
		s.Updated++
	case StatusUnchanged:
		s.Unchanged++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Runner processes every row file below a directory. One file's failure
// never stops the others.
type Runner struct {
	engine      *engine.Engine
	source      metadata.Source
	connections *config.Connections
	scanner     *DirectoryScanner
	reader      *utils.SourceReader
	diagnostics *utils.DiagnosticSystem
	logger      *zap.Logger
	runID       string
	cfg         Config
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithDiagnostics sets the console output
func WithDiagnostics(d *utils.DiagnosticSystem) RunnerOption {
	return func(r *Runner) {
		r.diagnostics = d
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRunID tags the summary with the id of the run
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner creates a runner
func NewRunner(eng *engine.Engine, source metadata.Source, connections *config.Connections, cfg Config, opts ...RunnerOption) *Runner {
	cfg = cfg.withDefaults()
	r := &Runner{
		engine:      eng,
		source:      source,
		connections: connections,
		scanner:     NewDirectoryScanner(cfg.Pattern, cfg.Exclude),
		reader:      utils.NewSourceReader(),
		diagnostics: utils.NewDiagnosticSystem(utils.DiagnosticSilent),
		logger:      zap.NewNop(),
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans root and processes every row file found. The returned error is
// only set when root cannot be scanned; per-file failures are recorded in
// the summary.
func (r *Runner) Run(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()

	files, err := r.scanner.FindRowFiles(root)
	if err != nil {
		return nil, err
	}
	r.logger.Info("scan complete", zap.String("root", root), zap.Int("files", len(files)))
	r.diagnostics.Verbose("Found %d row files under %s", len(files), root)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = r.processFile(gctx, path)
			r.report(results[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: r.runID, Root: root, DryRun: r.cfg.DryRun}
	for _, res := range results {
		summary.add(res)
	}
	summary.Duration = time.Since(start)

	r.logger.Info("run complete",
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (r *Runner) processFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		return res.fail(err)
	}

	src, err := r.reader.ReadSource(path)
	if err != nil {
		return res.fail(err)
	}

	info, err := r.engine.Analyze(ctx, src)
	if err != nil {
		if errors.CodeOf(err) == errors.NotFoundErrorCode {
			return res.skip("no row class")
		}
		return res.fail(err)
	}
	res.Class = info.Name

	if info.ConnectionKey == "" || info.TableName == "" {
		return res.skip("missing ConnectionKey or TableName")
	}
	conn, ok := r.connections.Lookup(info.ConnectionKey)
	if !ok {
		return res.skip(fmt.Sprintf("unknown connection %q", info.ConnectionKey))
	}

	comments, err := r.source.ColumnComments(ctx, conn, info.TableName)
	if err != nil {
		return res.fail(err)
	}
	if comments.IsEmpty() {
		return res.skip("no column comments")
	}

	text := src
	props, err := r.engine.SyncProperties(ctx, text, comments)
	if err != nil {
		return res.fail(err)
	}
	text = props.Text
	res.Changed = append(res.Changed, props.Updated...)

	if r.cfg.ClassAttributes {
		display, err := r.source.TableComment(ctx, conn, info.TableName)
		if err != nil {
			return res.fail(err)
		}
		if strings.TrimSpace(display) != "" {
			class, err := r.engine.SyncClass(ctx, text, display)
			if err != nil {
				return res.fail(err)
			}
			text = class.Text
			res.Changed = append(res.Changed, class.Updated...)
		}
	}

	if bytes.Equal(text, src) {
		if props.Skipped != nil {
			return res.skip("no eligible properties")
		}
		res.Status = StatusUnchanged
		return res
	}

	if !r.cfg.DryRun {
		if err := r.reader.WriteSource(path, text); err != nil {
			return res.fail(err)
		}
	}
	res.Status = StatusUpdated
	return res
}

func (r *Runner) report(res FileResult) {
	fields := []zap.Field{
		zap.String("file", res.Path),
		zap.String("status", string(res.Status)),
	}
	if res.Class != "" {
		fields = append(fields, zap.String("class", res.Class))
	}

	switch res.Status {
	case StatusFailed:
		r.logger.Warn("file failed", append(fields, zap.Error(res.Err))...)
		r.diagnostics.Error("%s: %v", res.Path, res.Err)
	case StatusSkipped:
		r.logger.Debug("file skipped", append(fields, zap.String("reason", res.Reason))...)
		r.diagnostics.Verbose("Skipped %s (%s)", res.Path, res.Reason)
	case StatusUpdated:
		r.logger.Info("file updated", append(fields, zap.Strings("changed", res.Changed))...)
		if r.cfg.DryRun {
			r.diagnostics.Info("Would update %s: %s", res.Path, strings.Join(res.Changed, ", "))
		} else {
			r.diagnostics.Success("Updated %s: %s", res.Path, strings.Join(res.Changed, ", "))
		}
	default:
		r.logger.Debug("file unchanged", fields...)
		r.diagnostics.Debug("Unchanged %s", res.Path)
	}
}

func (res FileResult) skip(reason string) FileResult {
	res.Status = StatusSkipped
	res.Reason = reason
	return res
}

func (res FileResult) fail(err error) FileResult {
	res.Status = StatusFailed
	res.Reason = err.Error()
	res.Err = err
	return res
}
