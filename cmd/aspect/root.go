package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	log     *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{log: logrus.StandardLogger()}

	cmd := &cobra.Command{
		Use:   "aspect",
		Short: "Generate and check aspect proxies",
		Long: `aspect weaves annotated Go types.

Types marked with @Proxy or @Pointcut get a proxy running the aspect chain around
their methods. See https://github.com/go-park/aspectchain for the annotations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log.SetOutput(cmd.ErrOrStderr())
			if opts.verbose {
				opts.log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newGenCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	return cmd
}
