package control

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

const (
	SaveBaseline = "save-baseline"
	RunCheck     = "run-check"

	DefaultScript = "./lkim.sh"
	source        = "control"
)

var ErrUnknownCommand = errors.New("netcandle: unknown control command")

type Config struct {
	Script  string        `yaml:"script"`
	Timeout time.Duration `yaml:"timeout"`
}

// Flag maps a control command to the backend script's argument.
func Flag(cmd string) (string, error) {
	switch cmd {
	case SaveBaseline:
		return "--save-baseline", nil
	case RunCheck:
		return "--run-check", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// CheckExecutable fails when path is missing or lacks execute permission.
func CheckExecutable(path string) error {
	st, err := os.Stat(path)
	if err == nil && st.IsDir() {
		err = errors.New("is a directory")
	}
	if err == nil {
		err = unix.Access(path, unix.X_OK)
	}
	if err != nil {
		return fmt.Errorf("%w: script %s is not executable (chmod +x %s): %v", domain.ErrNotExecutable, path, path, err)
	}
	return nil
}

// Runner launches the backend script, one run at a time.
type Runner struct {
	cfg      Config
	activity ports.ActivityLog
	journal  ports.Journal
	obs      ports.Observability

	mu   sync.Mutex
	busy bool
}

// NewRunner builds a runner. journal may be nil.
func NewRunner(cfg Config, activity ports.ActivityLog, journal ports.Journal, obs ports.Observability) *Runner {
	if cfg.Script == "" {
		cfg.Script = DefaultScript
	}
	return &Runner{cfg: cfg, activity: activity, journal: journal, obs: obs}
}

func (r *Runner) Script() string { return r.cfg.Script }

func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Start launches cmd and returns immediately. The outcome is delivered once on
// the returned channel after the process exits.
func (r *Runner) Start(ctx context.Context, cmd string) (string, <-chan domain.ControlOutcome, error) {
	flag, err := Flag(cmd)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return "", nil, domain.ErrBusy
	}
	r.busy = true
	r.mu.Unlock()

	runID := uuid.NewString()
	r.activity.Append(source, ports.LevelInfo, fmt.Sprintf("[GUI] requested %q", flag))

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	}

	var stdout, stderr bytes.Buffer
	proc := exec.CommandContext(runCtx, r.cfg.Script, flag)
	proc.Stdout = &stdout
	proc.Stderr = &stderr
	// children of the script may keep the output pipes open after a kill
	proc.WaitDelay = 2 * time.Second

	started := time.Now()
	if err := proc.Start(); err != nil {
		cancel()
		out := domain.ControlOutcome{RunID: runID, Command: cmd, ExitCode: -1, Err: err.Error()}
		r.activity.Append(source, ports.LevelError, fmt.Sprintf("[GUI ERROR] failed to start script: %v", err))
		r.obs.LogError("control_launch_failed", err, ports.Field{Key: "command", Value: cmd}, ports.Field{Key: "run_id", Value: runID})
		r.obs.IncCounter("netcandle_control_failed_total", 1)
		r.record(out)
		r.idle()
		return runID, nil, fmt.Errorf("control: start %s: %w", r.cfg.Script, err)
	}

	exit := make(chan error, 1)
	go func() { exit <- proc.Wait() }()

	done := make(chan domain.ControlOutcome, 1)
	go func() {
		defer cancel()
		waitErr := <-exit

		out := domain.ControlOutcome{
			RunID:    runID,
			Command:  cmd,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(started),
		}
		r.finish(runCtx, &out, waitErr)
		r.record(out)
		r.idle()
		done <- out
		close(done)
	}()

	return runID, done, nil
}

// Run launches cmd and waits for it to finish.
func (r *Runner) Run(ctx context.Context, cmd string) (domain.ControlOutcome, error) {
	_, done, err := r.Start(ctx, cmd)
	if err != nil {
		return domain.ControlOutcome{}, err
	}
	return <-done, nil
}

func (r *Runner) finish(ctx context.Context, out *domain.ControlOutcome, waitErr error) {
	fields := []ports.Field{
		{Key: "command", Value: out.Command},
		{Key: "run_id", Value: out.RunID},
		{Key: "duration", Value: out.Duration},
	}

	if waitErr == nil {
		r.activity.Append(source, ports.LevelInfo, "[GUI] command finished successfully, final report is in the log")
		r.obs.IncCounter("netcandle_control_succeeded_total", 1)
		r.obs.LogInfo("control_succeeded", fields...)
		return
	}

	out.Err = waitErr.Error()
	out.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
	}

	msg := fmt.Sprintf("[GUI ALERT] script exited with an error (code %d), check the log file", out.ExitCode)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("[GUI ALERT] script timed out after %s (code %d)", r.cfg.Timeout, out.ExitCode)
	}
	r.activity.Append(source, ports.LevelAlert, msg)
	r.obs.IncCounter("netcandle_control_failed_total", 1)
	r.obs.LogWarn("control_failed", waitErr, append(fields, ports.Field{Key: "exit_code", Value: out.ExitCode})...)
}

func (r *Runner) record(out domain.ControlOutcome) {
	if r.journal == nil {
		return
	}
	if _, err := r.journal.Append(&domain.JournalEntry{Kind: domain.EntryControl, At: time.Now().UTC(), Control: &out}); err != nil {
		r.obs.LogWarn("journal_append_failed", err, ports.Field{Key: "run_id", Value: out.RunID})
	}
}

func (r *Runner) idle() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}
