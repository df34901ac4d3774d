package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(open Opener) *cobra.Command {
	var (
		dir     string
		gitRef  string
		globs   []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <request>",
		Short: "Classify a request and rank project files without calling a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				files, err := loadProject(app, dir, gitRef, globs)
				if err != nil {
					return err
				}
				report := app.Edits().Analyze(strings.Join(args, " "), files, nil)

				out := cmd.OutOrStdout()
				if jsonOut {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}

				a := report.Analysis
				fmt.Fprintf(out, "%s %s (score %d, confidence %.1f)\n", titleStyle.Render("Complexity:"), a.Complexity, a.Score, a.Confidence)
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Intent:"), a.Intent)
				if len(a.Patterns) > 0 {
					fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Patterns:"), strings.Join(a.Patterns, ", "))
				}
				fmt.Fprintln(out, titleStyle.Render("Ranking:"))
				for _, r := range report.Ranking {
					fmt.Fprintf(out, "  %6.1f  %s %s\n", r.Score, r.Path, headerStyle.Render(strings.Join(r.Reasons, ", ")))
				}
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Context:"), strings.Join(report.Selected, ", "))
				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d of %d lines", report.OptimizedLines, report.TotalLines)))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", ".", "project directory")
	f.StringVar(&gitRef, "git-ref", "", "load files from this git revision")
	f.StringSliceVarP(&globs, "glob", "g", nil, "glob patterns selecting project files")
	f.BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}
