package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"worldfolio/internal/details"
	"worldfolio/pkg/fetch"
)

func newCountryCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "country <code>",
		Short: "Print the detail view for one country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			view, err := svc.newDetails()
			if err != nil {
				return err
			}
			defer view.Close()

			if err := view.Navigate(ctx, args[0]); err != nil {
				return err
			}
			state, err := view.Wait(ctx, true)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			return printCountry(cmd.OutOrStdout(), state)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw view state")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall time limit")
	return cmd
}

func printCountry(w io.Writer, s details.State) error {
	if s.Status == fetch.StatusError {
		return fmt.Errorf("%s", s.Error)
	}
	fmt.Fprintf(w, "%s (%s)\n", s.Country.Name.Common, s.Country.Name.Official)
	fmt.Fprintf(w, "  Population: %s\n", s.Facts.Population)
	fmt.Fprintf(w, "  Capital:    %s\n", s.Facts.Capital)
	fmt.Fprintf(w, "  Region:     %s / %s\n", s.Facts.Region, s.Facts.Subregion)
	fmt.Fprintf(w, "  Languages:  %s\n", s.Facts.Languages)
	fmt.Fprintf(w, "  Currencies: %s\n", s.Facts.Currencies)
	if len(s.Borders) > 0 {
		fmt.Fprint(w, "  Borders:   ")
		for _, b := range s.Borders {
			fmt.Fprintf(w, " %s", b.Name)
		}
		fmt.Fprintln(w)
	}
	for _, sec := range s.Sections {
		fmt.Fprintf(w, "\n%s\n  %s\n", sec.Title, sec.Body)
	}
	if len(s.News.Items) > 0 {
		fmt.Fprintln(w, "\nNews")
		for _, a := range s.News.Items {
			fmt.Fprintf(w, "  - %s (%s)\n", a.Title, a.Source)
		}
	}
	return nil
}
