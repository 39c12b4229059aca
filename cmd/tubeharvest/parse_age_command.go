package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tubeharvest/internal/relage"
	"tubeharvest/internal/workspace"
)

func newParseAgeCommand() *cobra.Command {
	var daysBack int

	cmd := &cobra.Command{
		Use:         "parse-age <text>",
		Short:       "Show how a relative upload phrase is interpreted",
		Example:     "  tubeharvest parse-age \"Streamed 3 days ago\"",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			age, ok := relage.Parse(text)
			if !ok {
				return fmt.Errorf("no relative age found in %q", text)
			}
			if daysBack <= 0 {
				return errors.New("--days-back must be positive")
			}
			published := time.Now().Add(-age)
			window := time.Duration(daysBack) * 24 * time.Hour

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Age:         %s\n", age)
			fmt.Fprintf(out, "Normalized:  %s\n", relage.Format(age))
			fmt.Fprintf(out, "Published:   %s\n", published.Format(time.DateTime))
			fmt.Fprintf(out, "Date suffix: %s\n", published.Format(workspace.DateSuffixLayout))
			eligible := age <= window
			fmt.Fprintf(out, "Eligible:    %s\n", yesNo(eligible))
			if !eligible {
				fmt.Fprintf(out, "A scan halts at this item: it is older than %d days.\n", daysBack)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&daysBack, "days-back", 7, "Recency window in days")
	return cmd
}
