package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mazeswarm/internal/model"
	api "mazeswarm/pkg/mazeswarm"
)

// Map glyphs. Agents are drawn over everything except walls.
const (
	glyphWall       = '#'
	glyphUnexplored = '.'
	glyphPartial    = '+'
	glyphExplored   = ' '
	glyphSwamp      = '~'
	glyphDeadend    = 'x'
	glyphPath       = '*'
	glyphAgent      = '@'
	glyphEntrance   = 'S'
	glyphExit       = 'E'
)

var (
	wallStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	swampStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4E9A06"))
	deadendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F6C177")).Bold(true)
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	frameStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [run-id]",
		Short: "Draw the final collective memory map of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, latest, err := runSelector(cmd, args)
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			details, err := e.client.Show(cmd.Context(), api.ShowRequest{RunID: id, Latest: latest})
			if err != nil {
				return err
			}
			if details.Map == nil {
				return fmt.Errorf("run %s has no stored map", details.Run.ID)
			}
			if e.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"run":  details.Run.ID,
					"rows": mapGlyphs(details.Run, details.Map),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMap(details.Run, details.Map))
			return nil
		},
	}
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	return cmd
}

// mapGlyphs lays the stored map over the maze walls, one string per row.
func mapGlyphs(run model.RunRecord, snap *model.MapRecord) []string {
	agents := make(map[[2]int]bool, len(snap.Agents))
	for _, a := range snap.Agents {
		agents[[2]int{int(a.X), int(a.Y)}] = true
	}

	rows := make([]string, snap.Height)
	var b strings.Builder
	for y := 0; y < snap.Height; y++ {
		b.Reset()
		for x := 0; x < snap.Width; x++ {
			b.WriteRune(cellGlyph(run, snap, x, y, agents[[2]int{x, y}]))
		}
		rows[y] = b.String()
	}
	return rows
}

func cellGlyph(run model.RunRecord, snap *model.MapRecord, x, y int, agent bool) rune {
	symbol := byte(glyphWall)
	if y < len(run.Maze) && x < len(run.Maze[y]) {
		symbol = run.Maze[y][x]
	}
	if symbol == glyphWall {
		return glyphWall
	}
	if agent {
		return glyphAgent
	}
	cell := snap.Cells[y*snap.Width+x]
	switch {
	case symbol == glyphEntrance || symbol == glyphExit:
		return rune(symbol)
	case cell.Goal:
		return glyphPath
	case cell.Deadend:
		return glyphDeadend
	case cell.Status == 0:
		return glyphUnexplored
	case symbol == glyphSwamp:
		return glyphSwamp
	case cell.Status == 1:
		return glyphPartial
	default:
		return glyphExplored
	}
}

func renderMap(run model.RunRecord, snap *model.MapRecord) string {
	rows := mapGlyphs(run, snap)
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, r := range row {
			b.WriteString(styleGlyph(r))
		}
	}
	counts := statusCounts(run, snap)
	legend := dimStyle.Render(fmt.Sprintf("%s agent  %s path  %s dead end  %s swamp   %d/%d/%d unexplored/partial/explored",
		string(glyphAgent), string(glyphPath), string(glyphDeadend), string(glyphSwamp), counts[0], counts[1], counts[2]))
	return lipgloss.JoinVertical(lipgloss.Left, frameStyle.Render(b.String()), legend)
}

func styleGlyph(r rune) string {
	s := string(r)
	switch r {
	case glyphWall:
		return wallStyle.Render(s)
	case glyphUnexplored:
		return dimStyle.Render(s)
	case glyphPartial:
		return partialStyle.Render(s)
	case glyphSwamp:
		return swampStyle.Render(s)
	case glyphDeadend:
		return deadendStyle.Render(s)
	case glyphPath, glyphEntrance, glyphExit:
		return pathStyle.Render(s)
	case glyphAgent:
		return agentStyle.Render(s)
	default:
		return s
	}
}

// statusCounts tallies the open cells of the maze per status.
func statusCounts(run model.RunRecord, snap *model.MapRecord) [3]int {
	var out [3]int
	for i, c := range snap.Cells {
		x, y := i%snap.Width, i/snap.Width
		if y < len(run.Maze) && x < len(run.Maze[y]) && run.Maze[y][x] == glyphWall {
			continue
		}
		if int(c.Status) < len(out) {
			out[c.Status]++
		}
	}
	return out
}
