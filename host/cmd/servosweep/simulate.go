package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"servosweep/core"
)

var (
	simPeriods int
	simCSV     bool
)

// simulateCmd runs the waveform on the software timer
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Print the pulse sequence without hardware",
	Long: `Runs the servo channel on a simulated 1MHz system clock and prints
one line per period: pulse width, direction and the compare value that
would be written to the timer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyServoFlags(cmd, &cfg.Servo); err != nil {
			return err
		}

		st, err := simulate(cmd.OutOrStdout(), cfg.Servo, simPeriods, simCSV)
		if err != nil {
			return err
		}
		if !simCSV {
			fmt.Fprintf(cmd.OutOrStdout(), "final: %s\n", core.FormatState(st))
		}
		core.DumpTimingRing()
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVarP(&simPeriods, "periods", "n", 200, "Number of periods to simulate")
	simulateCmd.Flags().BoolVar(&simCSV, "csv", false, "Print CSV")
	addServoFlags(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}

// simulate drives a channel from a SoftTimer for the given number of
// periods, writing one line per period to w
func simulate(w io.Writer, cfg core.ServoConfig, periods int, csv bool) (core.ServoState, error) {
	core.ResetTimers()
	core.SetTime(0)
	core.TimerInit()
	core.ClearTimingRing()

	src := core.NewSoftTimer(cfg.PeriodTicks(), cfg.PeriodUS)
	ch, err := core.NewServoChannel(src, cfg)
	if err != nil {
		return core.ServoState{}, err
	}
	ch.SetOverrunMonitor(core.NewOverrunMonitor(cfg.PeriodUS))

	src.Start(core.GetTime(), ch.Tick)
	defer src.Stop()

	if csv {
		fmt.Fprintln(w, "period,width,direction,compare,pulse_us")
	}
	interval := core.TimerFromUS(cfg.PeriodUS)
	for i := 0; i < periods; i++ {
		core.AdvanceTime(interval)
		st := ch.Snapshot()
		pulse := core.HighTimeUS(st.Compare, cfg.ClockHz)
		if csv {
			fmt.Fprintf(w, "%d,%d,%s,%d,%d\n", st.Periods, st.Width, st.Direction, st.Compare, pulse)
		} else {
			fmt.Fprintf(w, "%6d  width=%-6d %-7s compare=%-7d pulse=%dus\n",
				st.Periods, st.Width, st.Direction, st.Compare, pulse)
		}
	}
	return ch.Snapshot(), nil
}
