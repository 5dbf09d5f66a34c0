package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"storefront-catalog/config"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/repository/memory"
	"storefront-catalog/internal/repository/postgres"
	"storefront-catalog/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// newParseCmd creates the 'parse' command.
func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <address>",
		Short: "Show the criteria and page restored from an address",
		Long: `Parse a storefront address the way a browse session does on mount.

Invalid fields fall back to defaults and unknown keys are ignored.

Example:
  catalogctl parse "search=lamp&sort=price_asc&page=3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, page := usecase.ParseAddress(args[0], opts.priceCeiling)
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"criteria":  c,
				"page":      page,
				"canonical": usecase.SerializeAddress(c, page),
			})
		},
	}
}

// newQueryCmd creates the 'query' command.
func newQueryCmd(opts *options) *cobra.Command {
	var execute bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "query <address>",
		Short: "Build the catalog query for an address",
		Long: `Build the query descriptor for an address and print it together with
the Postgres statement it compiles to. With --execute the page is fetched from
Postgres (--dsn) or the in-memory fixture (--fixture).

Example:
  catalogctl query "category=lamps&onSale=true" --fixture catalog.json --execute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, page := usecase.ParseAddress(args[0], opts.priceCeiling)
			q := usecase.BuildQuery(c, opts.priceCeiling, page, opts.pageSize)

			sql, sqlArgs, err := postgres.SQL(q)
			if err != nil {
				return err
			}
			out := map[string]interface{}{
				"descriptor": q,
				"sql":        sql,
				"args":       sqlArgs,
			}

			if execute {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()

				store, closeStore, err := openStore(ctx, opts)
				if err != nil {
					return err
				}
				defer closeStore()

				res, err := store.Execute(ctx, q, true)
				if err != nil {
					return fmt.Errorf("query failed: %w", err)
				}
				out["items"] = res.Items
				out["pagination"] = domain.Pagination{
					Page:       page,
					Limit:      opts.pageSize,
					TotalItems: int64(res.TotalCount),
					TotalPages: domain.TotalPages(res.TotalCount, opts.pageSize),
					HasMore:    domain.HasMore(page, res.TotalCount, opts.pageSize),
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "fetch the page")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "fetch timeout")
	return cmd
}

// newAddressCmd creates the 'address' command.
func newAddressCmd() *cobra.Command {
	var (
		search   string
		category string
		sort     string
		onSale   bool
		page     int
	)

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Serialize criteria flags into a minimal address",
		Example: `  catalogctl address --search lamp --sort newest --page 2
  # page=2&search=lamp&sort=newest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := domain.ParseSortMode(sort)
			if !ok {
				return fmt.Errorf("%w: %q", domain.ErrInvalidSort, sort)
			}
			c := domain.DefaultCriteria(0)
			c.SearchText = search
			c.CommittedSearchText = search
			if category != "" {
				c.CategoryIDs = []string{category}
			}
			c.SortMode = mode
			c.OnlyOnSale = onSale

			_, err := fmt.Fprintln(cmd.OutOrStdout(), usecase.SerializeAddress(c, page))
			return err
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "search text")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&sort, "sort", string(domain.SortPopular), "sort mode")
	cmd.Flags().BoolVar(&onSale, "on-sale", false, "only discounted products")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func openStore(ctx context.Context, opts *options) (domain.CatalogStore, func(), error) {
	if opts.dsn != "" {
		pool, err := postgres.NewPgxPool(ctx, &config.Config{
			DBUrl:             opts.dsn,
			DBMaxConns:        2,
			DBMinConns:        0,
			DBMaxConnIdleTime: time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewCatalogStore(pool), pool.Close, nil
	}
	if opts.fixture == "" {
		return nil, nil, fmt.Errorf("--execute needs --dsn or --fixture")
	}
	fixture, err := memory.LoadFixture(opts.fixture)
	if err != nil {
		return nil, nil, err
	}
	return memory.NewCatalogStore(fixture), func() {}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
