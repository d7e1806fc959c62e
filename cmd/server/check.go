package main

import (
	"fmt"

	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the questions directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cat, err := catalog.LoadDir(cmd.Context(), cfg.QuestionsDir, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		labs := cat.ListCourses()
		for _, l := range labs {
			fmt.Fprintf(out, "%s/%s\t%d questions\t%s\n", l.CourseID, l.LabID, l.QuestionCount, l.Title)
		}
		fmt.Fprintf(out, "%d courses, %d labs OK\n", len(cat.CourseIDs()), len(labs))
		return nil
	},
}
