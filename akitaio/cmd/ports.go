package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/akitaio/config"
)

// portFlags are the flags shared by the single-port commands.
type portFlags struct {
	period   uint64
	delta    uint64
	duration string
	realtime float64
	strict   bool
	echo     bool
	queue    string
	capacity int
}

func (f *portFlags) register(flags *pflag.FlagSet) {
	flags.Uint64Var(&f.period, "period", 10,
		"Activation period in milliseconds")
	flags.Uint64Var(&f.delta, "delta", 0,
		"Delay between an activation and the output in milliseconds (default period)")
	flags.StringVar(&f.duration, "duration", "",
		"Simulated duration, for example 10s (default until interrupted)")
	flags.Float64Var(&f.realtime, "realtime", 1,
		"Wall seconds per simulated second, 0 runs as fast as possible")
	flags.BoolVar(&f.strict, "strict-timing", false,
		"Reject a delta that is not shorter than the period")
	flags.BoolVar(&f.echo, "echo", false,
		"Send every received payload back")
	flags.StringVar(&f.queue, "queue", "unbounded",
		"Queue policy: unbounded, drop_oldest or reject_newest")
	flags.IntVar(&f.capacity, "queue-capacity", 0,
		"Capacity of bounded queues")
}

func (f *portFlags) timing(cmd *cobra.Command) config.Timing {
	t := config.Timing{Period: f.period}
	if cmd.Flags().Changed("delta") {
		delta := f.delta
		t.Delta = &delta
	}

	return t
}

func (f *portFlags) file() config.File {
	realtime := f.realtime

	return config.File{
		Queue:        config.Queue{Policy: f.queue, Capacity: f.capacity},
		Duration:     f.duration,
		Realtime:     &realtime,
		StrictTiming: f.strict,
	}
}

func runFile(cmd *cobra.Command, file config.File) error {
	cfg, err := file.Resolve()
	if err != nil {
		return err
	}

	return runConfig(cmd.Context(), cmd.OutOrStdout(), cfg)
}
