package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coregx/sqladvisor"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [sql]",
	Short: "Analyze one SELECT statement and print index recommendations",
	Long: `Analyze parses the given SELECT statement (from the argument or stdin) and
prints ranked index recommendations for the referenced tables.

Examples:
  sqladvisor analyze --driver postgres --dsn "$DSN" "SELECT * FROM emp WHERE dept_id = 10"
  cat query.sql | sqladvisor analyze --driver sqlite3 --dsn app.db --stats=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sqlText, err := readStatement(args)
	if err != nil {
		return err
	}

	eng, db, err := newEngine("cli")
	if err != nil {
		return err
	}
	defer db.Close()

	artifact, err := eng.Analyze(cmd.Context(), sqladvisor.Request{
		ConnectionID: "cli",
		SQL:          sqlText,
		Owner:        flagOwner,
		Options: sqladvisor.RequestOptions{
			IncludeStatistics: flagStats,
			IncludeHints:      flagHints,
		},
	})
	if err != nil {
		return err
	}

	printArtifact(cmd.OutOrStdout(), artifact)
	return nil
}

func readStatement(args []string) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read statement from stdin: %w", err)
	}
	sqlText := strings.TrimSpace(string(data))
	if sqlText == "" {
		return "", fmt.Errorf("no SQL statement provided")
	}
	return sqlText, nil
}

func printArtifact(w io.Writer, a *sqladvisor.Artifact) {
	fmt.Fprintf(w, "Analysis %s (%d ms)\n", a.AnalysisID, a.ElapsedMs)

	if len(a.Recommendations) == 0 {
		fmt.Fprintln(w, "No recommendations.")
	}
	for i, rec := range a.Recommendations {
		fmt.Fprintf(w, "\n%d. [%s] %s (score %.1f)\n", i+1, rec.Kind, rec.Table, rec.BenefitScore)
		fmt.Fprintf(w, "   %s\n", rec.Rationale)
		fmt.Fprintf(w, "   %s\n", rec.DDL)
	}

	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "\nnote: %s\n", warning)
	}
}
