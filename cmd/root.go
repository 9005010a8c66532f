// Package cmd wires the notifier command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pedrosilva/notifier/cmd/check"
	"github.com/pedrosilva/notifier/internal/buildinfo"
	"github.com/pedrosilva/notifier/internal/conf"
)

// RootCommand creates the notifier command. Running it without a subcommand
// performs a full notification run.
func RootCommand() *cobra.Command {
	flags := &conf.Flags{}

	rootCmd := &cobra.Command{
		Use:   "notifier",
		Short: "Send an SMS to every contact of a spreadsheet",
		Long: `Send an SMS to every contact of a spreadsheet through Nexmo, optionally
follow up with a confirmation email, and print one summary line per contact.

Examples:
  # Notify the contacts listed in [SMS] DESTINATION
  notifier --configuration details.ini

  # Send the configured message to a single phone number
  notifier --destination 15551234567`,
		Version:       buildinfo.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	setupFlags(rootCmd, flags)
	rootCmd.AddCommand(check.Command(flags))

	return rootCmd
}

// setupFlags defines the flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, flags *conf.Flags) {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "configuration", conf.DefaultConfigFile, "Path to the ini configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.Destination, "destination", "", "Phone number to notify instead of the spreadsheet contacts")
	rootCmd.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "Enable debug output")
}
