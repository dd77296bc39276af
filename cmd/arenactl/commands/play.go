package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	trainNumMatches int
	resetPopulation int
)

// PlayCmd starts a single match.
var PlayCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a match",
	Long:  `Start a match between two random agents. Use "watch" to follow it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := newClient().PlayMatch(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Match %s started\n", matchID)
		return nil
	},
}

// TrainCmd starts a training session.
var TrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Start a training session",
	Long:  `Start a training session: a sequence of matches between random pairs of agents.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := newClient().StartTraining(cmd.Context(), trainNumMatches)
		if err != nil {
			return err
		}
		fmt.Printf("Training session %s started: %d matches\n", sessionID, trainNumMatches)
		return nil
	},
}

// ResetCmd replaces the population.
var ResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the population",
	Long:  `Replace all agents by a new population with fresh ratings.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Reset(cmd.Context(), resetPopulation); err != nil {
			return err
		}
		fmt.Printf("Arena reset with %d agents\n", resetPopulation)
		return nil
	},
}

func init() {
	TrainCmd.Flags().IntVarP(&trainNumMatches, "num-matches", "n", 10, "Number of matches of the session")
	ResetCmd.Flags().IntVarP(&resetPopulation, "population", "p", 4, "Number of agents of the new population")
}
