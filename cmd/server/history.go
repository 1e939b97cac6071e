package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/timefmt"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:       "history [sessions|analyses]",
	Short:     "Print recorded practice history from the database",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"sessions", "analyses"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("history needs DATABASE_URL")
		}
		h, err := openHistory(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer h.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		defer w.Flush()

		switch args[0] {
		case "sessions":
			rows, err := h.Sessions(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "STARTED\tDURATION\tDETECTIONS\tBEST")
			for _, s := range rows {
				best := "-"
				if s.BestPose != "" {
					best = fmt.Sprintf("%s (%d%%)", s.BestPose, s.BestAccuracy)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.StartedAt.Local().Format("2006-01-02 15:04"), timefmt.Clock(s.ElapsedSeconds), s.Detections, best)
			}
		case "analyses":
			rows, err := h.Analyses(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ANALYZED\tFILE\tPOSE\tACCURACY\tFEEDBACK")
			for _, a := range rows {
				fb := strings.Join(a.Feedback, "; ")
				if fb == "" {
					fb = pose.NoFeedbackMessage
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d%% (%s)\t%s\n", a.AnalyzedAt.Local().Format("2006-01-02 15:04"), a.FileName, a.PoseName, a.Accuracy, pose.GradeOf(a.Accuracy), fb)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultLimit, "maximum rows to print")
	rootCmd.AddCommand(historyCmd)
}
