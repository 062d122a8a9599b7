package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clocksim/internal/admin"
	"clocksim/internal/config"
	"clocksim/internal/logging"
	"clocksim/internal/trial"
	"clocksim/internal/watch"
)

var (
	runConfigPath string
	runSchemaPath string
	runTrials     int
	runTUI        bool
	runAdminAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all configured trials of the cluster",
	Long:  "run spawns one vm subprocess per machine per trial, waits for each trial to finish, and optionally shows a live TUI or serves a status page while they run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}
		if runTrials > 0 {
			cfg.Trials = runTrials
		}

		binary, err := os.Executable()
		if err != nil {
			return err
		}
		runner := trial.NewRunner(binary, runConfigPath, runSchemaPath, cfg)

		log := logging.New()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		tracker := watch.NewTracker(runner.LogDir())
		if runAdminAddr != "" {
			srv := admin.NewServer(tracker, cfg)
			go func() {
				log.Info("status page listening", "addr", runAdminAddr)
				if err := srv.Start(runAdminAddr); err != nil && err != http.ErrServerClosed {
					log.Error("status server failed", "error", err)
				}
			}()
		}

		if !runTUI {
			if err := runner.Run(ctx); err != nil {
				return err
			}
			log.Info("all trials finished", "log_dir", runner.LogDir())
			return nil
		}

		ui := watch.NewUI(tracker)
		runErr := make(chan error, 1)
		go func() { runErr <- runner.Run(ctx) }()

		select {
		case err := <-runErr:
			ui.Close()
			if err != nil {
				return err
			}
		case <-uiDone(ui):
			// User quit the TUI; let the trials finish headless.
			if err := <-runErr; err != nil {
				return err
			}
		}
		log.Info("all trials finished", "log_dir", runner.LogDir())
		return nil
	},
}

func uiDone(ui *watch.UI) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		ui.Wait()
		close(done)
	}()
	return done
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/cluster.yaml", "Path to cluster configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "schemas/cluster.cue", "Path to CUE schema file")
	runCmd.Flags().IntVar(&runTrials, "trials", 0, "Override the configured number of trials")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show a live terminal view of the running trial")
	runCmd.Flags().StringVar(&runAdminAddr, "admin", "", "Serve an HTTP status page on this address (e.g. :8080)")
	rootCmd.AddCommand(runCmd)
}
