package main

import (
	"fmt"
	"log/slog"

	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/ashureev/shsh-quiz/internal/completion"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <course> <lab>",
	Short: "Report whether a lab has been completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, labID := args[0], args[1]
		if !catalog.IDPattern.MatchString(courseID) || !catalog.IDPattern.MatchString(labID) {
			return fmt.Errorf("invalid course or lab id %q/%q", courseID, labID)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		markers, err := completion.NewFileMarkers(cfg.MarkerDir)
		if err != nil {
			return err
		}
		tracker := completion.NewTracker(markers)

		done, err := tracker.IsComplete(cmd.Context(), courseID, labID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !done {
			fmt.Fprintf(out, "%s/%s: incomplete\n", courseID, labID)
			return nil
		}
		fmt.Fprintf(out, "%s/%s: complete (%s)\n", courseID, labID, tracker.Location(courseID, labID))

		// The marker is authoritative; the ledger only adds the timestamp.
		repo, err := openLedger(cfg)
		if err != nil {
			slog.Warn("Completion ledger unavailable", "error", err)
			return nil
		}
		if repo == nil {
			return nil
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("Failed to close repository", "error", closeErr)
			}
		}()
		if rec, err := repo.GetCompletion(cmd.Context(), courseID, labID); err == nil && rec != nil {
			fmt.Fprintf(out, "completed at %s\n", rec.CompletedAt.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}
