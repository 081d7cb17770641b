package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-park/aspectchain/pkg/config"
	"github.com/go-park/aspectchain/pkg/tools/collections"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type checkOptions struct {
	config string
	dsn    string
}

func newCheckCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check an aspect configuration",
		Long: `Load an aspect configuration, create every enabled aspect and report
pointcuts naming aspects that are not registered.

Aspects needing a database are created against --dsn, an in-memory SQLite
database by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "aspects.yaml", "configuration file")
	cmd.Flags().StringVar(&opts.dsn, "dsn", ":memory:", "SQLite data source for aspects using a database")
	return cmd
}

func runCheck(rootOpts *rootOptions, opts *checkOptions, w io.Writer) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	db, err := gorm.Open(sqlite.Open(opts.dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.dsn, err)
	}
	reg, err := cfg.Registry(config.Deps{DB: db, Prometheus: prometheus.NewRegistry(), Log: rootOpts.log})
	if err != nil {
		return err
	}
	rootOpts.log.WithField("aspects", reg.Names()).Debug("registry created")

	fmt.Fprintln(w, "aspects:")
	for _, name := range reg.Names() {
		r, _ := reg.Lookup(name)
		fmt.Fprintf(w, "  %-12s %6d\n", name, r.Order)
	}
	fmt.Fprintln(w, "pointcuts:")
	declared := map[string][]string{}
	for _, pc := range cfg.Pointcuts {
		for _, name := range pc.Aspects {
			declared[name] = collections.AppendUnique(declared[name], pc.Site())
		}
	}
	for _, name := range collections.SortedKeys(declared) {
		fmt.Fprintf(w, "  %-12s %s\n", name, strings.Join(declared[name], ", "))
	}
	return cfg.Check(reg)
}
