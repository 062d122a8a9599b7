// Trial orchestration: one OS process per VM per trial
package trial

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"clocksim/internal/config"
	"clocksim/internal/logging"
)

// Runner launches the cluster as subprocesses, one per VM, once per
// trial, and waits for each trial to finish before starting the next.
type Runner struct {
	Binary     string
	ConfigPath string
	SchemaPath string
	Cfg        *config.ClusterConfig

	runID  string
	logDir string
}

// NewRunner prepares a runner for the given cluster. Every run gets a
// fresh id so repeated runs never mix their log directories.
func NewRunner(binary, configPath, schemaPath string, cfg *config.ClusterConfig) *Runner {
	id := uuid.New().String()[:8]
	return &Runner{
		Binary:     binary,
		ConfigPath: configPath,
		SchemaPath: schemaPath,
		Cfg:        cfg,
		runID:      id,
		logDir:     filepath.Join(cfg.LogDir, "run-"+id),
	}
}

// RunID returns the unique id of this run.
func (r *Runner) RunID() string { return r.runID }

// LogDir returns the directory the trial logs land in.
func (r *Runner) LogDir() string { return r.logDir }

// command builds the subprocess invocation for one VM in one trial.
func (r *Runner) command(ctx context.Context, node config.NodeConfig, trial int) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Binary, "vm",
		"--id", strconv.Itoa(node.ID),
		"--trial", strconv.Itoa(trial),
		"--config", r.ConfigPath,
		"--schema", r.SchemaPath,
		"--log-dir", r.logDir,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Run executes all configured trials sequentially.
func (r *Runner) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	log.Info("run starting", "run_id", r.runID, "trials", r.Cfg.Trials, "log_dir", r.logDir)

	for trial := 1; trial <= r.Cfg.Trials; trial++ {
		log.Info("trial starting", "trial", trial)
		start := time.Now()
		if err := r.runTrial(ctx, trial); err != nil {
			return fmt.Errorf("trial %d: %w", trial, err)
		}
		log.Info("trial finished", "trial", trial, "elapsed", time.Since(start).Round(time.Millisecond))

		if trial < r.Cfg.Trials && r.Cfg.PauseSeconds > 0 {
			select {
			case <-time.After(time.Duration(r.Cfg.PauseSeconds) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// runTrial starts every VM process concurrently and waits for all of
// them. The first failure is reported after all processes have exited.
func (r *Runner) runTrial(ctx context.Context, trial int) error {
	log := logging.FromContext(ctx)
	cmds := make([]*exec.Cmd, 0, len(r.Cfg.Nodes))
	for _, node := range r.Cfg.Nodes {
		cmd := r.command(ctx, node, trial)
		log.Info("spawning vm", "vm", node.ID, "trial", trial)
		if err := cmd.Start(); err != nil {
			for _, running := range cmds {
				_ = running.Process.Kill()
			}
			return fmt.Errorf("start vm %d: %w", node.ID, err)
		}
		cmds = append(cmds, cmd)
	}

	var firstErr error
	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("vm %d: %w", r.Cfg.Nodes[i].ID, err)
		}
	}
	return firstErr
}
