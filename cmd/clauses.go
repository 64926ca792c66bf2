package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/clauses"
)

var clausesCmd = &cobra.Command{
	Use:   "clauses [query]",
	Short: "Search the reference clause library",
	Long:  `Searches the backend's clause library with a natural language query and prints the ranked candidates.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClauses,
}

func init() {
	clausesCmd.Flags().String("type", clauses.AllTypes, "clause category, e.g. confidentiality, termination, indemnification")
	clausesCmd.Flags().Int("top-k", 0, "maximum number of clauses (default from config)")
	clausesCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(clausesCmd)
}

func runClauses(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	clauseType, _ := cmd.Flags().GetString("type")
	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	searcher := clauses.NewSearcher(newClient(cfg), cfg.ClauseTopK)
	rs, err := searcher.Search(cmd.Context(), query, clauseType, topK)
	if err != nil {
		return fmt.Errorf("clause search failed: %w", err)
	}
	if rs == nil || len(rs.Clauses) == 0 {
		fmt.Println("No clauses found.")
		return nil
	}

	if jsonOutput {
		return printClausesJSON(rs)
	}
	printClausesTable(rs)
	return nil
}

func printClausesJSON(rs *clauses.ResultSet) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

func printClausesTable(rs *clauses.ResultSet) {
	fmt.Printf("Found %d clauses for %q (%s):\n\n", rs.TotalFound, rs.Query, rs.ClauseType)
	for _, c := range rs.Clauses {
		fmt.Printf("  %d. [%.1f%%] %s\n", c.Rank, c.RelevanceScore*100, c.ClauseType)
		if c.Source != "" {
			fmt.Printf("     Source: %s\n", c.Source)
		}
		fmt.Printf("     %s\n\n", truncate(strings.Join(strings.Fields(c.ClauseText), " "), 240))
	}
}
