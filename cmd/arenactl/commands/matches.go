package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchesLimit int

// MatchesCmd lists the match history.
var MatchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recent matches",
	Long:  `List the most recent matches saved by the server, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := newClient().Matches(cmd.Context(), matchesLimit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matches found.")
			return nil
		}
		ui := newUI()
		for ii := range matches {
			fmt.Printf("%s %s ", matches[ii].Started.Local().Format("2006-01-02 15:04:05"), matches[ii].MatchID)
			ui.PrintSummary(0, &matches[ii])
		}
		return nil
	},
}

func init() {
	MatchesCmd.Flags().IntVarP(&matchesLimit, "limit", "l", 20, "Maximum number of matches to list")
}
