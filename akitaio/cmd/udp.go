package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/akitaio/config"
	"github.com/sarchlab/akitaio/udpport"
)

var udpOpts struct {
	portFlags

	bufferSize int
}

var udpCmd = &cobra.Command{
	Use:   "udp ADDRESS",
	Short: "Bridge a UDP socket.",
	Long:  "`udp 127.0.0.1:9000` runs a simulation with one UDP port bound to the address.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := udpOpts.file()
		file.UDP = []config.UDP{{
			Name:       "UDP",
			Bind:       args[0],
			BufferSize: udpOpts.bufferSize,
			Echo:       udpOpts.echo,
			Timing:     udpOpts.timing(cmd),
		}}

		return runFile(cmd, file)
	},
}

func init() {
	rootCmd.AddCommand(udpCmd)

	flags := udpCmd.Flags()
	udpOpts.register(flags)
	flags.IntVar(&udpOpts.bufferSize, "buffer-size", udpport.DefaultBufferSize,
		"Largest datagram read in full")
}
