package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/cardsdk"
	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
)

type configLoader func(profile string) (*cardsdk.Config, error)

func loadConfig(profile string) (*cardsdk.Config, error) {
	return cardsdk.LoadConfig(profile)
}

// cli carries what every subcommand needs once flags are parsed.
type cli struct {
	profile  string
	logLevel string
	load     configLoader
	client   *cardsdk.Client
}

func newRootCommand(load configLoader) *cobra.Command {
	c := &cli{load: load}

	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "Query the trading card catalog",
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.connect(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.profile, "profile", "local", "configuration profile (configs/<profile>.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: trace, debug, info, warn or error")

	root.AddCommand(
		newGetCommand(c),
		newListCommand(c),
		newHealthCommand(c),
	)

	return root
}

func (c *cli) connect(cmd *cobra.Command) error {
	cfg, err := c.load(c.profile)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   c.logLevel,
		Format:  "pretty",
		Service: "cardctl",
		Version: Version,
	}, cmd.ErrOrStderr())

	client, err := cardsdk.New(cmd.Context(), cfg, cardsdk.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	c.client = client

	return nil
}

// describe renders a catalog exception with its status and field errors.
func describe(err error) string {
	var verr *cardsdk.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Message()
		for _, field := range verr.FieldNames() {
			for _, e := range verr.FieldErrors(field) {
				msg += fmt.Sprintf("\n  %s: %s", field, e)
			}
		}

		return msg
	}

	var exc interface {
		Message() string
		HTTPStatusCode() *int
	}
	if errors.As(err, &exc) {
		if status := exc.HTTPStatusCode(); status != nil {
			return fmt.Sprintf("%s (HTTP %d)", exc.Message(), *status)
		}

		return exc.Message()
	}

	return err.Error()
}
