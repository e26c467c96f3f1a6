package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahabub-bd/purepac-admin/internal/app"
	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/config"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
)

const defaultConfigPath = "configs/config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "purepac-admin",
		Short:        "PurePac admin console",
		Long:         `purepac-admin serves the PurePac admin console over the PurePac REST backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(resourcesCmd())
	root.AddCommand(listCmd(&configPath))
	root.AddCommand(configCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin console HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	return a.Run()
}

func resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Print the resource catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResources(cmd.OutOrStdout(), resource.Default().All())
		},
	}
}

func printResources(out io.Writer, defs []resource.Definition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTITLE\tENDPOINT\tFILTERS\tACTIONS")
	for _, def := range defs {
		filters := strings.Join(def.FilterNames(), ",")
		if filters == "" {
			filters = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", def.Key, def.Title, def.Endpoint, filters, actions(def))
	}
	return w.Flush()
}

func actions(def resource.Definition) string {
	out := []string{"list"}
	if def.CanCreate {
		out = append(out, "create")
	}
	if def.CanEdit {
		out = append(out, "edit")
	}
	if def.CanDelete {
		out = append(out, "delete")
	}
	return strings.Join(out, ",")
}

type listFlags struct {
	search  string
	page    int
	limit   int
	filters []string
}

func listCmd(configPath *string) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Fetch one page of a resource from the backend",
		Long: `list drives the same list controller as the console: the flags are
applied to the resource's default state, one page is fetched and printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, ok := resource.Default().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown resource %q (see \"resources\")", args[0])
			}
			values, err := flags.values()
			if err != nil {
				return err
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			client, err := backend.New(backend.Config{
				BaseURL:    cfg.Backend.BaseURL,
				Token:      cfg.Backend.Token,
				Timeout:    cfg.Backend.BackendTimeout(),
				UploadPath: cfg.Backend.UploadPath,
				Logger:     slog.New(slog.DiscardHandler),
			})
			if err != nil {
				return err
			}

			return runList(cmd.Context(), cmd.OutOrStdout(), client, def, cfg.Listing, values)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.search, "search", "s", "", "search text")
	fs.IntVarP(&flags.page, "page", "p", 0, "page number")
	fs.IntVarP(&flags.limit, "limit", "l", 0, "rows per page")
	fs.StringArrayVarP(&flags.filters, "filter", "f", nil, "filter as name=value (repeatable)")
	return cmd
}

// values converts the flags into the URL parameters the console would send.
func (f listFlags) values() (url.Values, error) {
	v := url.Values{}
	if f.search != "" {
		v.Set(listing.ParamSearch, f.search)
	}
	if f.page > 0 {
		v.Set(listing.ParamPage, strconv.Itoa(f.page))
	}
	if f.limit > 0 {
		v.Set(listing.ParamLimit, strconv.Itoa(f.limit))
	}
	for _, raw := range f.filters {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --filter %q: want name=value", raw)
		}
		v.Set(name, strings.TrimSpace(value))
	}
	return v, nil
}

func runList(ctx context.Context, out io.Writer, src *backend.Client, def resource.Definition, limits config.ListingConfig, values url.Values) error {
	for name := range values {
		switch name {
		case listing.ParamSearch, listing.ParamPage, listing.ParamLimit:
		default:
			if !slices.Contains(def.FilterNames(), name) {
				return fmt.Errorf("resource %q has no filter %q", def.Key, name)
			}
		}
	}
	ctrl := listing.NewController[backend.Record](src.Source(def.Endpoint), listing.Config{
		Defaults: def.Defaults(limits.DefaultLimit),
		Options:  def.ListOptions(limits.MaxLimit),
	})
	ctrl.Initialize(values)
	if err := ctrl.Fetch(ctx); err != nil {
		return fmt.Errorf("list %s: %w", def.Key, err)
	}
	snap := ctrl.Snapshot()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	for _, col := range def.Columns {
		if col.Kind == resource.KindImage || col.Label == "" {
			continue
		}
		header = append(header, strings.ToUpper(col.Label))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	now := time.Now()
	for _, rec := range snap.Page.Items {
		cells := []string{rec.ID()}
		for _, col := range def.Columns {
			if col.Kind == resource.KindImage || col.Label == "" {
				continue
			}
			cells = append(cells, col.Render(rec, now).Text)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	from, to := snap.Page.Range(snap.Query)
	fmt.Fprintf(out, "\n%d–%d of %d, page %d of %d\n", from, to, snap.Page.TotalItems, snap.Query.Page, max(snap.Page.TotalPages, 1))
	return nil
}

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", *configPath)
			fmt.Fprintf(out, "  server    %s:%d (%s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.Mode)
			fmt.Fprintf(out, "  backend   %s (timeout %s)\n", cfg.Backend.BaseURL, cfg.Backend.BackendTimeout())
			fmt.Fprintf(out, "  database  %s\n", cfg.Database.Driver)
			fmt.Fprintf(out, "  metrics   %t %s\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
			return nil
		},
	})
	return cmd
}
