package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"servosweep/core"
	"servosweep/host/monitor"
	"servosweep/host/serial"
)

var monitorDevice string

// monitorCmd prints status frames streamed by the firmware
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print servo status frames from the firmware's USB port",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if monitorDevice != "" {
			cfg.Telemetry.Device = monitorDevice
		}

		port, err := serial.Open(serial.FromTelemetry(cfg.Telemetry))
		if err != nil {
			return err
		}
		_ = port.Flush()

		m := monitor.New(port)
		defer m.Close()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-sigs
			cancel()
		}()

		fmt.Printf("Monitoring %s\n", cfg.Telemetry.Device)
		err = m.Run(ctx, func(st core.ServoStatus) {
			fmt.Println(monitor.FormatStatus(st, cfg.Servo.ClockHz))
		})

		s := m.Stats()
		fmt.Printf("%d frames, %d undecodable, %d bad CRC, %d sequence gaps\n",
			s.Frames, s.DecodeErrors, s.CRCErrors, s.SequenceGaps)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("monitor stopped: %w", err)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorDevice, "device", "d", "", "Serial device (overrides the config file)")
	rootCmd.AddCommand(monitorCmd)
}
