package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AgentsCmd prints the leaderboard.
var AgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents",
	Long:  `List the agents of the arena, sorted by Elo rating.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Agents(cmd.Context())
		if err != nil {
			return err
		}
		newUI().PrintLeaderboard(stats)
		return nil
	},
}

// StatusCmd prints whether a training session or matches are running.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show arena status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient().Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Population: %d agents\n", status.PopulationSize)
		fmt.Printf("Training:   %v\n", status.Training)
		fmt.Printf("Matches:    %d in progress\n", status.ActiveMatches)
		return nil
	},
}
