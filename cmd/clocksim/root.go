package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clocksim",
	Short: "Logical clock cluster simulator",
	Long:  "clocksim runs a small cluster of virtual machines that exchange Lamport-clocked messages, plus tooling to orchestrate trials and analyze the resulting event logs.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
