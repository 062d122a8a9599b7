package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clocksim/internal/analysis"
	"clocksim/internal/eventlog"
	"clocksim/internal/report"
)

var (
	reportLogDir string
	reportOutDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize trial logs and render charts",
	Long:  "report parses the vm_*_trial*.log files of a run, prints per-VM statistics, and renders SVG charts of clock progression, queue lengths, and event pacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := analysis.LoadDir(reportLogDir)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			return fmt.Errorf("no log files found in %s", reportLogDir)
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TRIAL\tVM\tEVENTS\tSEND\tRECEIVE\tINTERNAL\tMAX CLOCK\tMAX JUMP\tAVG GAP (s)")
		for _, s := range series {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.3f\n",
				s.Trial, s.VMID, s.Events(),
				s.Counts[eventlog.EventSend],
				s.Counts[eventlog.EventReceive],
				s.Counts[eventlog.EventInternal],
				s.MaxClock, s.MaxJump, s.AvgInterEvent)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Println()
		fmt.Fprintln(tw, "TRIAL\tVMS\tEVENTS\tMAX CLOCK\tCLOCK SPREAD\tMAX JUMP\tMAX QUEUE")
		for _, st := range analysis.Aggregate(series) {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				st.Trial, st.VMs, st.Events, st.MaxClock, st.ClockSpread, st.MaxJump, st.MaxQueueLen)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if err := report.Render(series, reportOutDir); err != nil {
			return err
		}
		fmt.Printf("charts written to %s\n", filepath.Join(reportOutDir, "index.html"))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportLogDir, "log-dir", "logs", "Directory containing vm_*_trial*.log files")
	reportCmd.Flags().StringVar(&reportOutDir, "out", "report", "Output directory for charts and index page")
	rootCmd.AddCommand(reportCmd)
}
