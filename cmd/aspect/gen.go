package main

import (
	"github.com/go-park/aspectchain/pkg/gen"
	"github.com/spf13/cobra"
)

type genOptions struct {
	dir       string
	tags      []string
	recursive bool
	deps      []string
}

func newGenCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &genOptions{}
	cmd := &cobra.Command{
		Use:   "gen [packages]",
		Short: "Generate proxies and pointcut declarations",
		Long: `Generate a <type>_aspect.gen.go proxy for every annotated type, and a
pointcuts_aspect.gen.go per package registering its pointcuts.

Packages default to the current directory. Custom annotations declared with
@Aspect(custom=...) in imported packages are found through --deps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return gen.Do(
				gen.WithDir(opts.dir),
				gen.WithPatterns(args...),
				gen.WithTags(opts.tags...),
				gen.WithRecursive(opts.recursive),
				gen.WithDeps(opts.deps...),
				gen.WithLogger(rootOpts.log),
			)
		},
	}
	cmd.Flags().StringVarP(&opts.dir, "dir", "C", "", "directory packages are loaded from")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "comma-separated list of build tags to apply")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", true, "load packages below the given directories")
	cmd.Flags().StringSliceVar(&opts.deps, "deps", nil, "import path prefixes of dependencies declaring aspects")
	return cmd
}
