// Package cli implements the terminal output of the arena: leaderboards, match results and boards.
package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the number of runes left.
func displayWidth(s string) int {
	return len([]rune(ansiFilter.ReplaceAllString(s, "")))
}

// UI prints to a terminal (or any io.Writer).
type UI struct {
	out   io.Writer
	color bool
	width int
}

// New returns a UI printing to stdout. If color is false no ANSI sequences are output.
func New(color bool) *UI {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 0
	}
	return NewWithWriter(os.Stdout, color, width)
}

// NewWithWriter returns a UI printing to w, centering blocks on the given width (0 for no centering).
func NewWithWriter(w io.Writer, color bool, width int) *UI {
	return &UI{out: w, color: color, width: width}
}

func (ui *UI) render(style lipgloss.Style, s string) string {
	if !ui.color {
		return s
	}
	return style.Render(s)
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((ui.width-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	leaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	drawStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	bannerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(1, 2)
	lightSquare = lipgloss.NewStyle().Background(lipgloss.Color("180")).Foreground(lipgloss.Color("0"))
	darkSquare  = lipgloss.NewStyle().Background(lipgloss.Color("94")).Foreground(lipgloss.Color("0"))
)

// Leaderboard returns stats sorted by rating (best first), ties broken by id.
func Leaderboard(stats []rating.Stats) []rating.Stats {
	sorted := slices.Clone(stats)
	slices.SortStableFunc(sorted, func(a, b rating.Stats) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		default:
			return a.ID - b.ID
		}
	})
	return sorted
}

// PrintLeaderboard prints the agents sorted by rating.
func (ui *UI) PrintLeaderboard(stats []rating.Stats) {
	var sb strings.Builder
	sb.WriteString(ui.render(headerStyle, fmt.Sprintf("%4s  %6s  %8s  %5s  %5s  %5s  %6s",
		"Rank", "Agent", "Elo", "Games", "Wins", "Loss", "Draws")))
	sb.WriteByte('\n')
	for ii, s := range Leaderboard(stats) {
		line := fmt.Sprintf("%4d  %6s  %8.1f  %5d  %5d  %5d  %6d",
			ii+1, fmt.Sprintf("#%d", s.ID), s.Rating, s.GamesPlayed, s.Wins, s.Losses, s.Draws)
		if ii == 0 && s.GamesPlayed > 0 {
			line = ui.render(leaderStyle, line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	ui.printCentered(sb.String())
}

// PrintSummary prints one line describing the result of a match.
func (ui *UI) PrintSummary(number int, summary *match.Summary) {
	var style lipgloss.Style
	switch summary.Outcome {
	case board.WhiteWin:
		style = winStyle
	case board.BlackWin:
		style = lossStyle
	default:
		style = drawStyle
	}
	prefix := ""
	if number > 0 {
		prefix = fmt.Sprintf("Match %3d: ", number)
	}
	_, _ = fmt.Fprintf(ui.out, "%s#%d (%.1f) vs #%d (%.1f): %s %s, %d plies\n",
		prefix, summary.White, summary.WhiteElo, summary.Black, summary.BlackElo,
		ui.render(style, fmt.Sprintf("%-7s", summary.Result)), summary.Termination, summary.Moves)
}

// PrintBanner prints msg highlighted and centered.
func (ui *UI) PrintBanner(msg string) {
	_, _ = fmt.Fprintln(ui.out)
	if ui.color {
		ui.printCentered(bannerStyle.Render(msg))
	} else {
		ui.printCentered("*** " + msg + " ***")
	}
	_, _ = fmt.Fprintln(ui.out)
}

// PrintBoard prints the chess position given by its FEN, white at the bottom.
func (ui *UI) PrintBoard(fen string) error {
	option, err := chess.FEN(fen)
	if err != nil {
		return errors.Wrapf(err, "invalid FEN %q", fen)
	}
	b := chess.NewGame(option).Position().Board()
	var sb strings.Builder
	for rank := chess.Rank8; ; rank-- {
		sb.WriteString(rank.String())
		sb.WriteByte(' ')
		for file := chess.FileA; file <= chess.FileH; file++ {
			symbol := " "
			if piece := b.Piece(chess.NewSquare(file, rank)); piece != chess.NoPiece {
				symbol = piece.String()
			}
			cell := " " + symbol + " "
			if (int(file)+int(rank))%2 == 0 {
				sb.WriteString(ui.render(darkSquare, cell))
			} else {
				sb.WriteString(ui.render(lightSquare, cell))
			}
		}
		sb.WriteByte('\n')
		if rank == chess.Rank1 {
			break
		}
	}
	sb.WriteString("   a  b  c  d  e  f  g  h\n")
	ui.printCentered(sb.String())
	return nil
}
