// Package check implements the check subcommand, a dry run that shows what a
// notification run would send.
package check

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pedrosilva/notifier/internal/conf"
	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/message"
	"github.com/pedrosilva/notifier/internal/notifier"
)

// dryRunClient stands in for the SMS gateway. It opens no connection and
// refuses every send.
type dryRunClient struct{}

func (dryRunClient) Send(context.Context, string, string, string) (*contact.DeliveryResult, error) {
	return nil, errors.Newf("check does not send SMS").
		Component("check").
		Category(errors.CategoryState).
		Build()
}

// Command returns the check subcommand. It loads the configuration and the
// contacts and prints them with the composed message; nothing is sent.
func Command(flags *conf.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and list the contacts without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := conf.Load(flags.ConfigFile, flags.Destination)
			if err != nil {
				return err
			}

			n, err := notifier.New(notifier.Config{
				Sender:      settings.SMS.Sender,
				Destination: settings.SMS.Destination,
			}, dryRunClient{})
			if err != nil {
				return err
			}
			if err := n.Load(cmd.Context(), flags.Destination); err != nil {
				return err
			}

			return printPlan(cmd.OutOrStdout(), settings, n)
		},
	}
}

func printPlan(w io.Writer, settings *conf.Settings, n *notifier.Notifier) error {
	contacts := n.Contacts()

	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Sender:  %s\n", settings.SMS.Sender)
	printf("Message: %s\n", message.Compose(settings.SMS.Title, settings.SMS.Content))
	printf("Contacts (%d):\n", len(contacts))
	for _, c := range contacts {
		if c.HasEmail() {
			printf("  %s <%s>\n", c, c.Email)
		} else {
			printf("  %s\n", c)
		}
	}

	if settings.Email.Enabled() {
		printf("Confirmation: %q from %s via %s:%d\n",
			settings.Confirmation.Subject, settings.Email.Sender, settings.Email.SMTP, settings.Email.Port)
	} else {
		printf("Confirmation: disabled\n")
	}
	return err
}
