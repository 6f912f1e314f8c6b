package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	auction "auction-house/internal/auctionService"
	"auction-house/utils"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			utils.Info("schema is up to date", map[string]any{"driver": opts.cfg.Storage.Driver})
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", storageName(opts.cfg.Storage.Driver))
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the configured categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.auctions.EnsureCategories(cmd.Context(), opts.cfg.Categories)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d categories created, %d already present\n",
				created, len(opts.cfg.Categories)-created)
			return nil
		},
	}
}

func newListingsCommand(opts *options) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Print active listings with their current price",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var summaries []auction.ListingSummary
			if category != "" {
				summaries, err = a.auctions.ListByCategory(cmd.Context(), category)
			} else {
				summaries, err = a.auctions.ListActiveListings(cmd.Context())
			}
			if err != nil {
				return err
			}

			renderListings(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show listings filed under this category")
	return cmd
}

func renderListings(w io.Writer, summaries []auction.ListingSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Seller", "Categories", "Starting", "Current", "Bids"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: 40},
		{Name: "Starting", Align: text.AlignRight},
		{Name: "Current", Align: text.AlignRight},
		{Name: "Bids", Align: text.AlignRight},
	})

	for _, s := range summaries {
		names := make([]string, 0, len(s.Categories))
		for _, c := range s.Categories {
			names = append(names, c.Name)
		}
		t.AppendRow(table.Row{
			s.ListingID,
			s.Title,
			s.SellerID,
			fmt.Sprint(names),
			s.StartingBid.StringFixed(2),
			s.CurrentPrice.StringFixed(2),
			s.BidCount,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(summaries)})
	t.Render()
}

func storageName(driver string) string {
	if driver == "" {
		return "memory"
	}
	return driver
}
