package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-field-analyzer/usage"
)

func newObjectsCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "objects",
		Short: "List the custom objects of the org",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			aggregator, err := opts.aggregator(ctx)
			if err != nil {
				return err
			}
			objects, err := aggregator.ListCustomObjects(ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, objects)
		},
	}
}

func newFieldsCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields OBJECT",
		Short: "List the custom fields of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			aggregator, err := opts.aggregator(ctx)
			if err != nil {
				return err
			}
			fields, err := aggregator.ListCustomFields(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, fields)
		},
	}
}

func newAnalyzeCommand(opts *cliOptions) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "analyze OBJECT",
		Short: "Report the usage of every custom field of an object",
		Long: `Report metadata, flows, reports, page layouts and population for the custom
fields of OBJECT. Flow and report counts are org-wide, not per field.

Interrupting the command prints what was gathered so far; unfinished fields are
reported as errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			aggregator, err := opts.aggregator(ctx)
			if err != nil {
				return err
			}

			if field != "" {
				record, err := aggregator.GatherFieldUsage(ctx, args[0], field)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), opts.output, record)
			}

			records, gatherErr := aggregator.GatherAllFieldsUsage(ctx, args[0])
			if records != nil {
				if err := writeOutput(cmd.OutOrStdout(), opts.output, records); err != nil {
					return err
				}
			}
			return gatherErr
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "", "report a single field")
	return cmd
}

// aggregator authenticates and returns an aggregator bound to the new session.
func (o *cliOptions) aggregator(ctx context.Context) (*usage.Aggregator, error) {
	manager, err := o.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return usage.NewAggregator(manager, newClientFactory(o.config),
		usage.WithMaxConcurrentFields(o.config.GetMaxConcurrentFields()))
}
