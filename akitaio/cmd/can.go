package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/akitaio/config"
)

var canOpts struct {
	portFlags
}

var canCmd = &cobra.Command{
	Use:   "can [INTERFACE...]",
	Short: "Bridge CAN interfaces.",
	Long: "`can vcan0 vcan1` runs a simulation with one port serving every " +
		"given interface. Without arguments vcan0 and vcan1 are used. " +
		"Frames sent on an interface are also received from it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file := canOpts.file()
		file.CAN = []config.CAN{{
			Name:       "CAN",
			Interfaces: args,
			Echo:       canOpts.echo,
			Timing:     canOpts.timing(cmd),
		}}

		return runFile(cmd, file)
	},
}

func init() {
	rootCmd.AddCommand(canCmd)
	canOpts.register(canCmd.Flags())
}
