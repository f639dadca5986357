package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"triposo/internal/adapters/observability"
	"triposo/internal/app"
	"triposo/internal/domain"
	"triposo/internal/query"
	"triposo/internal/shared"
)

type cli struct {
	v      *viper.Viper
	params []string
	cfg    shared.Config
	stack  *shared.Stack
}

// newRootCmd returns the command tree and a func that releases whatever the
// command connected to. Call it after Execute, whether or not it failed.
func newRootCmd() (*cobra.Command, func()) {
	c := &cli{v: shared.NewViper()}

	root := &cobra.Command{
		Use:   "triposo",
		Short: "Query the Triposo travel-content API",
		Long: `triposo - fetch locations, points of interest, tags and day plans.

Every -p key=value pair is sent to the remote service verbatim and in order.
Settings come from flags, TRIPOSO_* environment variables, or the file named
by --config.

Examples:
  triposo location Amsterdam -p fields=id,name,intro
  triposo pois -p location_id=Amsterdam -p tag_labels=sightseeing
  triposo dayplan Amsterdam Rotterdam --workers 2
  triposo walk locations -p tag_labels=city --count 50 --limit 200`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (toml, yaml or json)")
	pf.String("base-url", "", "remote API base URL")
	pf.String("account-id", "", "account id header")
	pf.String("token", "", "token header")
	pf.String("log-level", "", "log level")
	pf.Bool("escape", false, "percent-encode query keys and values")
	pf.StringArrayVarP(&c.params, "param", "p", nil, "query parameter key=value (repeatable, ordered)")
	for key, flag := range map[string]string{
		"config":       "config",
		"base_url":     "base-url",
		"account_id":   "account-id",
		"token":        "token",
		"log_level":    "log-level",
		"escape_query": "escape",
	} {
		_ = c.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		c.locationCmd(),
		listCmd(c, "locations", "List locations", func(a *app.API) lister[*domain.Location] { return a.Locations }),
		listCmd(c, "pois", "List points of interest", func(a *app.API) lister[*domain.PointOfInterest] { return a.Pois }),
		listCmd(c, "tags", "List tags", func(a *app.API) lister[*domain.Tag] { return a.Tags }),
		listCmd(c, "labels", "List common tag labels", func(a *app.API) lister[*domain.Tag] { return a.CommonTagLabels }),
		listCmd(c, "articles", "List articles", func(a *app.API) lister[*domain.Article] { return a.Articles }),
		c.dayPlanCmd(),
		c.walkCmd(),
		c.missesCmd(),
	)
	return root, c.close
}

func (c *cli) close() {
	if c.stack != nil {
		c.stack.Close()
	}
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := shared.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	c.stack, err = shared.Build(cmd.Context(), cfg)
	return err
}

// query parses the -p flags, keeping their order. Later duplicates overwrite
// the value but keep the first position.
func (c *cli) query(lead ...string) (query.Params, error) {
	p := query.NewParams()
	for i := 0; i+1 < len(lead); i += 2 {
		p.Set(lead[i], lead[i+1])
	}
	for _, kv := range c.params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return query.Params{}, errors.Newf("bad --param %q, want key=value", kv)
		}
		p.Set(k, v)
	}
	return p, nil
}

func (c *cli) locationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "location <id>",
		Short: "Show one location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.query("id", args[0])
			if err != nil {
				return err
			}
			l, err := c.stack.API.Location(cmd.Context(), p)
			if err != nil {
				return err
			}
			if l == nil {
				return errors.Newf("location %q not found", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), l)
		},
	}
}

type lister[T any] func(context.Context, query.Params) ([]T, error)

// listCmd prints one JSON line per record of a collection call. pick is
// resolved after setup, once the API exists.
func listCmd[T any](c *cli, use, short string, pick func(*app.API) lister[T]) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.query()
			if err != nil {
				return err
			}
			vs, err := pick(c.stack.API)(cmd.Context(), p)
			if err != nil {
				return err
			}
			return eachLine(cmd.OutOrStdout(), vs)
		},
	}
}

func (c *cli) dayPlanCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "dayplan <location_id>...",
		Short: "Fetch day plans for one or more locations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.query()
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = c.cfg.Workers
			}
			outcomes, err := app.NewBatchPlanner(c.stack.API, workers).Plan(cmd.Context(), args, p)
			if err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				switch {
				case o.Err != nil:
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", o.LocationID, o.Err)
				case o.Plan == nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no day plan\n", o.LocationID)
				default:
					for _, be := range o.Plan.BuildErrors() {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: partial: %v\n", o.LocationID, be)
					}
					if err := writeLine(cmd.OutOrStdout(), o.Plan); err != nil {
						return err
					}
				}
			}
			if failed > 0 {
				return errors.Newf("%d of %d day plans failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent requests (default from config)")
	return cmd
}

func (c *cli) walkCmd() *cobra.Command {
	var page, count, limit int
	cmd := &cobra.Command{
		Use:       "walk <locations|pois>",
		Short:     "Page through every location or point of interest matching -p",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"locations", "pois"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.query()
			if err != nil {
				return err
			}
			if count <= 0 {
				count = c.cfg.PageSize
			}
			out := cmd.OutOrStdout()
			switch args[0] {
			case "locations":
				return walk(cmd, out, c.stack.API.LocationPager(p, page, count), limit)
			case "pois":
				return walk(cmd, out, c.stack.API.PoiPager(p, page, count), limit)
			default:
				return errors.Newf("cannot walk %q", args[0])
			}
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "first page")
	cmd.Flags().IntVar(&count, "count", 0, "items per page (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many items (0 = no limit)")
	return cmd
}

func walk[T any](cmd *cobra.Command, out io.Writer, p *app.Pager[T], limit int) error {
	n := 0
	for v, err := range p.All(cmd.Context()) {
		if err != nil {
			return err
		}
		if err := writeLine(out, v); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	log.Info().Int("items", n).Int("last_page", p.Page()).Msg("walk done")
	return nil
}

func (c *cli) missesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "misses",
		Short: "List lookups the remote service answered with 404",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.stack.Misses == nil {
				return errors.New("no miss log configured (set TRIPOSO_MYSQL_DSN)")
			}
			ms, err := c.stack.Misses.ListMisses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range ms {
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", m.Resource, m.Query, m.Count, m.LastSeen.UTC().Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "rows to show")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func eachLine[T any](w io.Writer, vs []T) error {
	for _, v := range vs {
		if err := writeLine(w, v); err != nil {
			return err
		}
	}
	return nil
}
