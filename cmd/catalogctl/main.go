// Command catalogctl inspects how storefront addresses turn into catalog
// queries: address parsing, descriptor building, SQL and result pages.
package main

import (
	"fmt"
	"os"

	"storefront-catalog/config"
	"storefront-catalog/pkg/logger"

	"github.com/spf13/cobra"
)

type options struct {
	pageSize     int
	priceCeiling float64
	fixture      string
	dsn          string
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect storefront catalog addresses and queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitWriter(cmd.ErrOrStderr(), "development", opts.logLevel)
		},
	}

	cfg := config.LoadConfig()
	flags := root.PersistentFlags()
	flags.IntVar(&opts.pageSize, "page-size", cfg.PageSize, "rows per page")
	flags.Float64Var(&opts.priceCeiling, "price-ceiling", cfg.DefaultPriceCeiling, "price ceiling used while nothing is loaded")
	flags.StringVar(&opts.fixture, "fixture", cfg.CatalogFixture, "JSON catalog fixture for the in-memory store")
	flags.StringVar(&opts.dsn, "dsn", cfg.DBUrl, "Postgres DSN")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newParseCmd(opts))
	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newAddressCmd())
	return root
}
