package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"servosweep/core"
	"servosweep/host/marker"
	"servosweep/host/pca9685"
)

var (
	runChannel int
	runMarker  int
)

// runCmd drives a real servo through a PCA9685 board
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a servo on a PCA9685 board until interrupted",
	Long: `Opens the PCA9685 on the configured I2C bus and updates the selected
output once per 20ms period. With --marker the given gpiochip line is
raised for the duration of each update.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyServoFlags(cmd, &cfg.Servo); err != nil {
			return err
		}
		if cmd.Flags().Changed("channel") {
			cfg.Output.Channel = runChannel
		}
		if cmd.Flags().Changed("marker") {
			cfg.Output.Marker = runMarker
		}

		board, err := pca9685.Open(cfg.Output, cfg.Servo.PeriodTicks())
		if err != nil {
			return err
		}
		defer board.Close()

		ch, err := core.NewServoChannel(board, cfg.Servo)
		if err != nil {
			return err
		}
		overruns := core.NewOverrunMonitor(cfg.Servo.PeriodUS)
		ch.SetOverrunMonitor(overruns)

		var mk pca9685.Marker
		if cfg.Output.Marker >= 0 {
			line, err := marker.Open(cfg.Output.Chip, cfg.Output.Marker)
			if err != nil {
				return err
			}
			defer line.Close()
			mk = line
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-sigs
			cancel()
		}()

		if verbose {
			go reportStatus(ctx, ch, time.Duration(cfg.Telemetry.IntervalMS)*time.Millisecond)
		}

		fmt.Printf("Driving %s channel %d (%s)\n", cfg.Output.Bus, cfg.Output.Channel, cfg.Servo.Mode)
		period := time.Duration(cfg.Servo.PeriodUS) * time.Microsecond
		_ = board.Run(ctx, period, ch.Tick, mk)

		st := ch.Snapshot()
		failed, lastErr := board.WriteErrors()
		fmt.Printf("Stopped after %d periods, %d missed, %d late\n", st.Periods, overruns.Missed(), overruns.Events())
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d PCA9685 writes failed, last: %v\n", failed, lastErr)
		}
		core.DumpTimingRing()
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runChannel, "channel", 0, "PCA9685 output channel (0-15)")
	runCmd.Flags().IntVar(&runMarker, "marker", -1, "gpiochip line to pulse on each tick, -1 for none")
	addServoFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func reportStatus(ctx context.Context, ch *core.ServoChannel, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			core.DebugAsync(core.FormatState(ch.Snapshot()))
		}
	}
}
