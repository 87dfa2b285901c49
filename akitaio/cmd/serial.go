package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/akitaio/config"
	"github.com/sarchlab/akitaio/serialport"
)

var serialOpts struct {
	portFlags

	baudRate   int
	dataBits   int
	parity     string
	stopBits   string
	bufferSize int
	kiss       bool
}

var serialCmd = &cobra.Command{
	Use:   "serial PATH",
	Short: "Bridge one serial line.",
	Long: "`serial /dev/ttyUSB0 --baud 115200` runs a simulation with a " +
		"single serial port. A baud rate of 0 keeps the current speed, " +
		"as needed for software TTYs.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bufferSize := serialOpts.bufferSize

		file := serialOpts.file()
		file.Serial = []config.Serial{{
			Name:       "Serial",
			Path:       args[0],
			BaudRate:   serialOpts.baudRate,
			DataBits:   serialOpts.dataBits,
			Parity:     serialOpts.parity,
			StopBits:   serialOpts.stopBits,
			BufferSize: &bufferSize,
			Kiss:       serialOpts.kiss,
			Echo:       serialOpts.echo,
			Timing:     serialOpts.timing(cmd),
		}}

		return runFile(cmd, file)
	},
}

func init() {
	rootCmd.AddCommand(serialCmd)

	flags := serialCmd.Flags()
	serialOpts.register(flags)
	flags.IntVarP(&serialOpts.baudRate, "baud", "b", 0, "Baud rate")
	flags.IntVarP(&serialOpts.dataBits, "data-bits", "d", 8,
		"Data bits (5, 6, 7, 8)")
	flags.StringVarP(&serialOpts.parity, "parity", "p", "None",
		"Parity (None, Odd, Even, Mark, Space)")
	flags.StringVar(&serialOpts.stopBits, "stop-bits", "",
		"Stop bits (default one)")
	flags.IntVar(&serialOpts.bufferSize, "buffer-size",
		serialport.DefaultBufferSize, "Largest payload read at once")
	flags.BoolVar(&serialOpts.kiss, "kiss", false,
		"Decode KISS frames from the received bytes")
}
