package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clocksim/internal/config"
	"clocksim/internal/logging"
	"clocksim/internal/vm"
)

var (
	vmID           int
	vmTrial        int
	vmConfigPath   string
	vmSchemaPath   string
	vmLogDir       string
	vmDuration     time.Duration
	vmPrintRecords bool
)

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Run a single virtual machine",
	Long:  "vm runs one clocked machine: it binds its listener, connects to its peers, and ticks at its drawn rate until the trial duration elapses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(vmConfigPath, vmSchemaPath)
		if err != nil {
			return err
		}
		node, ok := cfg.Node(vmID)
		if !ok {
			return fmt.Errorf("vm %d not present in %s", vmID, vmConfigPath)
		}

		duration := vmDuration
		if duration <= 0 {
			duration = time.Duration(cfg.DurationSeconds) * time.Second
		}

		if err := os.MkdirAll(vmLogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		records, cleanup, err := newRecordWriters(vmLogDir, vmID, vmTrial, vmPrintRecords)
		if err != nil {
			return err
		}
		defer cleanup()

		machine, err := vm.New(vm.Config{
			ID:          node.ID,
			Addr:        node.Addr,
			Peers:       cfg.PeersFor(node.ID),
			Duration:    duration,
			TickRateMin: cfg.TickRateMin,
			TickRateMax: cfg.TickRateMax,
			EventRange:  cfg.EventRange,
			RetryDelay:  time.Duration(cfg.RetrySeconds) * time.Second,
			Grace:       time.Duration(cfg.GraceSeconds) * time.Second,
			Records:     records,
		})
		if err != nil {
			return err
		}

		log := logging.WithVM(logging.New(), node.ID)
		log.Info("vm starting", "trial", vmTrial, "addr", node.Addr, "tick_rate", machine.TickRate(), "duration", duration)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		if err := machine.Run(ctx); err != nil {
			return fmt.Errorf("vm %d: %w", node.ID, err)
		}
		log.Info("vm stopped", "clock", machine.ClockValue())
		return nil
	},
}

func init() {
	vmCmd.Flags().IntVar(&vmID, "id", 0, "ID of the machine to run, as listed in the cluster config")
	vmCmd.Flags().IntVar(&vmTrial, "trial", 1, "Trial number, used in the log file name")
	vmCmd.Flags().StringVar(&vmConfigPath, "config", "config/cluster.yaml", "Path to cluster configuration YAML")
	vmCmd.Flags().StringVar(&vmSchemaPath, "schema", "schemas/cluster.cue", "Path to CUE schema file")
	vmCmd.Flags().StringVar(&vmLogDir, "log-dir", "logs", "Directory for event log files")
	vmCmd.Flags().DurationVar(&vmDuration, "duration", 0, "Override the configured trial duration (e.g. 30s)")
	vmCmd.Flags().BoolVar(&vmPrintRecords, "print-records", false, "Echo event records to STDOUT as well")
	_ = vmCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(vmCmd)
}
