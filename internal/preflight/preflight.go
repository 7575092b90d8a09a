package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tubesync/internal/config"
	"tubesync/internal/deps"
	"tubesync/internal/logging"
	"tubesync/internal/services"
	"tubesync/internal/version"
)

// Check names, in execution order.
const (
	CheckStageDir   = "Staging directory"
	CheckQueueFile  = "Queue file"
	CheckLedger     = "Download archive"
	CheckVersion    = "rclone version"
	CheckRemote     = "Remote reachability"
	CheckXAttrTool  = "xattr tool"
	CheckXAttrProbe = "xattr support"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Capabilities are optional features the environment turned out to support.
type Capabilities struct {
	XAttrs bool
}

// Failure is returned by Validator.Run for the first failing check.
type Failure struct {
	Check  string
	Detail string
	Code   int
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("preflight %s: %s: %v", f.Check, f.Detail, f.Err)
	}
	return fmt.Sprintf("preflight %s: %s", f.Check, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

// ExitCode implements services.ExitCoder.
func (f *Failure) ExitCode() int { return f.Code }

// Relocator is the subset of the rclone client the validator needs.
type Relocator interface {
	Version(ctx context.Context) (string, error)
	Probe(ctx context.Context, remote string) error
}

// Validator runs the ordered environment checks for a config.
type Validator struct {
	cfg       *config.Config
	relocator Relocator
	logger    *slog.Logger
}

// NewValidator constructs a validator. A nil logger discards output.
func NewValidator(cfg *config.Config, relocator Relocator, logger *slog.Logger) *Validator {
	return &Validator{
		cfg:       cfg,
		relocator: relocator,
		logger:    logging.NewComponentLogger(logger, "preflight"),
	}
}

type check struct {
	name string
	run  func(ctx context.Context, caps *Capabilities) ([]Result, *Failure)
}

// Run executes every check in order and stops at the first failure. The
// returned results include the failing check.
func (v *Validator) Run(ctx context.Context) (Capabilities, []Result, error) {
	var caps Capabilities
	if v.cfg == nil {
		return caps, nil, services.Wrap(services.ErrConfiguration, "preflight", "run", "config required", nil)
	}
	if v.relocator == nil {
		return caps, nil, services.Wrap(services.ErrConfiguration, "preflight", "run", "relocator required", nil)
	}

	checks := []check{
		{CheckStageDir, v.checkStageDir},
		{CheckQueueFile, v.checkQueueFile},
		{CheckLedger, v.checkLedger},
		{"tools", v.checkTools},
		{CheckVersion, v.checkVersion},
		{CheckRemote, v.checkRemote},
		{"xattrs", v.checkXAttrs},
	}

	logger := logging.WithContext(ctx, v.logger)
	var results []Result
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return caps, results, err
		}
		checkResults, failure := c.run(ctx, &caps)
		results = append(results, checkResults...)
		for _, r := range checkResults {
			logger.Debug("preflight check",
				logging.String("check", r.Name),
				logging.Bool("passed", r.Passed),
				logging.String("detail", r.Detail),
			)
		}
		if failure != nil {
			if errors.Is(failure.Err, context.Canceled) {
				return caps, results, failure.Err
			}
			return caps, results, failure
		}
	}
	return caps, results, nil
}

func fail(name, detail string, code int, err error) ([]Result, *Failure) {
	return []Result{{Name: name, Detail: detail}}, &Failure{Check: name, Detail: detail, Code: code, Err: err}
}

func (v *Validator) checkStageDir(context.Context, *Capabilities) ([]Result, *Failure) {
	path := v.cfg.Paths.StageDir
	if err := EnsureDirectory(path); err != nil {
		return fail(CheckStageDir, fmt.Sprintf("%s (error: %v)", path, err), services.ExitFailure, services.ErrConfiguration)
	}
	result := CheckDirectoryAccess(CheckStageDir, path)
	if !result.Passed {
		return fail(CheckStageDir, result.Detail, services.ExitFailure, services.ErrConfiguration)
	}
	return []Result{result}, nil
}

func (v *Validator) checkQueueFile(context.Context, *Capabilities) ([]Result, *Failure) {
	path := v.cfg.Paths.QueueFile
	size, err := EnsureFile(path)
	if err != nil {
		return fail(CheckQueueFile, fmt.Sprintf("%s (error: %v)", path, err), services.ExitFailure, services.ErrConfiguration)
	}
	if size == 0 {
		return fail(CheckQueueFile, fmt.Sprintf("%s (error: queue is empty)", path), services.ExitFailure, services.ErrValidation)
	}
	return []Result{{Name: CheckQueueFile, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, size)}}, nil
}

func (v *Validator) checkLedger(context.Context, *Capabilities) ([]Result, *Failure) {
	path := v.cfg.Paths.ArchiveFile
	if _, err := EnsureFile(path); err != nil {
		return fail(CheckLedger, fmt.Sprintf("%s (error: %v)", path, err), services.ExitFailure, services.ErrConfiguration)
	}
	return []Result{{Name: CheckLedger, Passed: true, Detail: path}}, nil
}

// RequiredTools lists the binaries a run needs on PATH, in check order.
func RequiredTools(cfg *config.Config) []string {
	tools := []string{cfg.Fetch.Binary, cfg.Relocate.Binary}
	return append(tools, cfg.Preflight.RequiredTools...)
}

func (v *Validator) checkTools(context.Context, *Capabilities) ([]Result, *Failure) {
	statuses := deps.CheckBinaries(deps.Requirements(RequiredTools(v.cfg)...))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, toolResult(status))
	}
	if missing, ok := deps.FirstMissing(statuses); ok {
		return results, &Failure{
			Check:  missing.Name,
			Detail: missing.Detail,
			Code:   services.ExitMissingTool,
			Err:    services.ErrMissingTool,
		}
	}
	return results, nil
}

func toolResult(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	}
	return Result{Name: status.Name, Detail: status.Detail}
}

func (v *Validator) checkVersion(ctx context.Context, _ *Capabilities) ([]Result, *Failure) {
	minimum := v.cfg.Relocate.MinVersion
	token, err := v.relocator.Version(ctx)
	if err != nil {
		return fail(CheckVersion, "version unavailable", services.ExitFailure, err)
	}
	ok, err := version.AtLeast(token, minimum)
	if err != nil {
		return fail(CheckVersion, fmt.Sprintf("%s (error: %v)", token, err), services.ExitFailure, services.ErrValidation)
	}
	if !ok {
		detail := fmt.Sprintf("%s is older than required %s", version.Normalize(token), minimum)
		return fail(CheckVersion, detail, services.ExitFailure, services.ErrValidation)
	}
	return []Result{{Name: CheckVersion, Passed: true, Detail: fmt.Sprintf("%s (>= %s)", token, minimum)}}, nil
}

func (v *Validator) checkRemote(ctx context.Context, _ *Capabilities) ([]Result, *Failure) {
	remote := v.cfg.RemoteRoot()
	if err := v.relocator.Probe(ctx, remote); err != nil {
		return fail(CheckRemote, fmt.Sprintf("%s unreachable", remote), services.ExitFailure, err)
	}
	return []Result{{Name: CheckRemote, Passed: true, Detail: remote}}, nil
}

func (v *Validator) checkXAttrs(_ context.Context, caps *Capabilities) ([]Result, *Failure) {
	if !v.cfg.Fetch.XAttrs {
		return nil, nil
	}
	tool := deps.CheckBinaries(deps.Requirements(v.cfg.Fetch.XAttrTool))
	if len(tool) == 0 || !tool[0].Available {
		detail := "xattr tool not configured"
		if len(tool) > 0 {
			detail = tool[0].Detail
		}
		return fail(CheckXAttrTool, detail, services.ExitMissingTool, services.ErrMissingTool)
	}
	results := []Result{{Name: CheckXAttrTool, Passed: true, Detail: tool[0].Path}}

	if err := ProbeXAttrs(v.cfg.Paths.StageDir); err != nil {
		detail := fmt.Sprintf("%s (error: %v)", v.cfg.Paths.StageDir, err)
		results = append(results, Result{Name: CheckXAttrProbe, Detail: detail})
		return results, &Failure{Check: CheckXAttrProbe, Detail: detail, Code: services.ExitFailure, Err: services.ErrValidation}
	}
	caps.XAttrs = true
	results = append(results, Result{Name: CheckXAttrProbe, Passed: true, Detail: "user xattrs writable"})
	return results, nil
}
