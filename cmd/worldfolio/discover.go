package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"worldfolio/internal/discovery"
	"worldfolio/pkg/fetch"
)

func newDiscoverCmd(root *rootOptions) *cobra.Command {
	var (
		region, language, search string
		pages                    int
		timeout                  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List countries, optionally filtered by region, language or name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, value, err := discoverMode(region, language, search)
			if err != nil {
				return err
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			svc, err := buildServices(ctx, cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer svc.Close()

			view, err := svc.newDiscovery()
			if err != nil {
				return err
			}
			defer view.Close()

			if err := view.SetMode(ctx, mode, value); err != nil {
				return err
			}
			state, err := view.Wait(ctx)
			if err != nil {
				return err
			}
			for i := 1; i < pages && state.HasMore; i++ {
				state = view.LoadMore()
			}
			return printDiscovery(cmd.OutOrStdout(), state)
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "filter by region")
	cmd.Flags().StringVar(&language, "language", "", "filter by language")
	cmd.Flags().StringVar(&search, "search", "", "search by name")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to show")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall time limit")
	cmd.MarkFlagsMutuallyExclusive("region", "language", "search")
	return cmd
}

func discoverMode(region, language, search string) (discovery.Mode, string, error) {
	switch {
	case region != "":
		return discovery.ModeRegion, region, nil
	case language != "":
		return discovery.ModeLanguage, language, nil
	case search != "":
		return discovery.ModeSearch, search, nil
	default:
		return discovery.ModeAll, "", nil
	}
}

func printDiscovery(w io.Writer, s discovery.State) error {
	switch s.Status {
	case fetch.StatusError:
		return fmt.Errorf("%s", s.Error)
	case fetch.StatusEmpty:
		fmt.Fprintln(w, "No countries found.")
		return nil
	}
	for _, c := range s.Countries {
		fmt.Fprintf(w, "%-4s %s\n", c.Code, c.DisplayName())
	}
	fmt.Fprintf(w, "\nshowing %d of %d\n", len(s.Countries), s.Total)
	return nil
}
