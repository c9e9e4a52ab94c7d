package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/internal/pipeline"
)

var (
	searchConnectedTo []string
	searchNoRanking   bool
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one search-and-rank pipeline from the command line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := pipeline.Options{
			Query:          args[0],
			ConnectedTo:    searchConnectedTo,
			RankingEnabled: !searchNoRanking,
		}

		rec, err := a.Pipeline.Run(ctx, opts, func(ev model.ProgressEvent) {
			zap.L().Info("progress",
				zap.String("step", string(ev.Step)),
				zap.String("message", ev.Message),
			)
		})
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		zap.L().Info("search complete",
			zap.String("id", rec.ID),
			zap.Int("results", rec.TotalResults),
			zap.Float64("cost_usd", rec.TotalCost),
			zap.Float64("seconds", rec.TotalTime),
		)
		for i, r := range rec.Results {
			if i >= 10 {
				break
			}
			zap.L().Info("result",
				zap.Int("rank", i+1),
				zap.String("name", r.Name),
				zap.String("match", string(r.Match)),
				zap.Float64("score", r.Score),
			)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchConnectedTo, "connected-to", nil, "restrict to candidates connected to these usernames")
	searchCmd.Flags().BoolVar(&searchNoRanking, "no-ranking", false, "skip the Stage-2 ranking call")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the full search record as JSON")
	rootCmd.AddCommand(searchCmd)
}
