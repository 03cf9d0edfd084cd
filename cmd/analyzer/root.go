package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-field-analyzer/internal/config"
	"github.com/jrsteele09/go-field-analyzer/internal/logging"
)

// cliOptions are the flags shared by the commands that talk to the platform.
type cliOptions struct {
	config   config.Config
	username string
	password string
	loginURL string
	oauth    bool
	output   string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "analyzer",
		Short: "Custom field usage analyzer for Salesforce orgs",
		Long: `analyzer reports, for every custom field of an object, where the field is
defined, which flows, reports and page layouts may use it, and how many records
populate it.

Run "analyzer serve" for the HTTP API, or query an org directly from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.config = config.New()
			logging.Setup(opts.config.GetEnv(), opts.config.GetLogLevel())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.username, "username", "u", "", "Salesforce username")
	flags.StringVarP(&opts.password, "password", "p", "", "Salesforce password, prompted when omitted")
	flags.StringVar(&opts.loginURL, "login-url", "", "login host, e.g. https://test.salesforce.com (default SF_LOGIN_URL)")
	flags.BoolVar(&opts.oauth, "oauth", false, "authorize in the browser instead of with a password")
	flags.StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newObjectsCommand(opts),
		newFieldsCommand(opts),
		newAnalyzeCommand(opts),
	)
	return rootCmd
}

func (o *cliOptions) effectiveLoginURL() string {
	if o.loginURL != "" {
		return o.loginURL
	}
	return o.config.GetLoginURL()
}
