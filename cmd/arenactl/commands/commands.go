// Package commands implements the sub-commands of arenactl.
package commands

import (
	"os"

	"github.com/janpfeifer/chessArena/internal/client"
	"github.com/janpfeifer/chessArena/internal/ui/cli"
)

var (
	// APIURL of the arena server, set by the --api-url flag.
	APIURL string

	// Color output, set by the --color flag.
	Color bool
)

// DefaultAPIURL is taken from the environment variable ARENA_API_URL, or otherwise the default
// address of the server.
func DefaultAPIURL() string {
	if url := os.Getenv("ARENA_API_URL"); url != "" {
		return url
	}
	return "http://localhost:5000"
}

func newClient() *client.Client {
	return client.New(APIURL)
}

func newUI() *cli.UI {
	return cli.New(Color)
}
