package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"servosweep/config"
	"servosweep/core"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "servosweep",
	Short: "Servo pulse generator: simulate, drive a PCA9685, or monitor firmware",
	Long: `servosweep generates a 50Hz servo pulse whose width either holds a
static value or sweeps back and forth between two bounds.

The same waveform code runs in the RP2040 firmware and on the host. Use
"simulate" to print the pulse sequence, "run" to drive a PCA9685 board
from Linux, and "monitor" to read status frames from the firmware.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			core.SetDebugWriter(func(s string) {
				fmt.Fprintln(os.Stderr, s)
			})
			core.SetDebugEnabled(true)
			core.InitAsyncDebug()
		}
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
}

// loadConfig reads --config, or the reference configuration without one
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFile(configPath)
}

// applyServoFlags overrides servo settings from command line flags that
// were set explicitly, then validates the result
func applyServoFlags(cmd *cobra.Command, cfg *core.ServoConfig) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		name, _ := flags.GetString("mode")
		cfg.ModeName = name
	}
	if flags.Changed("step") {
		step, _ := flags.GetInt32("step")
		cfg.Step = step
	}
	if flags.Changed("width") {
		width, _ := flags.GetInt32("width")
		cfg.InitialWidth = core.PulseWidth(width)
	}
	if err := cfg.ResolveNames(); err != nil {
		return err
	}
	return cfg.Validate()
}

func addServoFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Operating mode: static or sweep")
	cmd.Flags().Int32("step", core.DefaultStep, "Sweep step in timer ticks per period")
	cmd.Flags().Int32("width", 0, "Initial pulse width in timer ticks (static value)")
}
