package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/akitaio/config"
)

var runCmd = &cobra.Command{
	Use:   "run CONFIG",
	Short: "Run the ports described by a configuration file.",
	Long: "`run bridge.yaml` opens every serial, CAN and UDP port of the " +
		"file and runs the simulation for the configured duration.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}

		return runConfig(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
