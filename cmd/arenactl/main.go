// arenactl is a command line client of the arena server.
package main

import (
	"fmt"
	"os"

	"github.com/janpfeifer/chessArena/cmd/arenactl/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "arenactl",
	Short:        "Chess arena CLI",
	Long:         `Command line interface to play matches, run training sessions and watch the games of a chess arena server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.APIURL, "api-url", commands.DefaultAPIURL(),
		"URL of the arena server (environment variable ARENA_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&commands.Color, "color", true, "Use colors on the output")

	rootCmd.AddCommand(commands.AgentsCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.PlayCmd)
	rootCmd.AddCommand(commands.TrainCmd)
	rootCmd.AddCommand(commands.ResetCmd)
	rootCmd.AddCommand(commands.MatchesCmd)
	rootCmd.AddCommand(commands.WatchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
