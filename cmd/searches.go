package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/store"
)

var searchesLimit int

var searchesCmd = &cobra.Command{
	Use:   "searches [id]",
	Short: "List saved searches, or print one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			rec, err := st.GetSearch(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		recs, err := st.ListSearches(ctx, store.SearchFilter{Limit: searchesLimit})
		if err != nil {
			return err
		}
		for _, rec := range recs {
			zap.L().Info("saved search",
				zap.String("id", rec.ID),
				zap.String("query", rec.Query),
				zap.Int("results", rec.TotalResults),
				zap.Time("created_at", rec.CreatedAt),
			)
		}
		return nil
	},
}

func init() {
	searchesCmd.Flags().IntVar(&searchesLimit, "limit", 50, "maximum searches to list")
	rootCmd.AddCommand(searchesCmd)
}
