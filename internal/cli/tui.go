package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/latmesh/pkg/engine"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreStage tracks which selection the user is making.
type exploreStage int

const (
	stagePickSource exploreStage = iota
	stagePickTarget
	stageShowRoute
)

// =============================================================================
// exploreModel - Interactive mesh exploration
// =============================================================================

// exploreModel is the bubbletea model for interactive latency queries.
// Queries run synchronously inside Update; route tables are cached by
// the engine, so only the first visit to a source pays for a solve.
type exploreModel struct {
	ctx    context.Context
	engine *engine.Engine

	stage  exploreStage
	cursor int
	height int
	offset int

	source int
	target int
	dist   map[int]int64
	route  *engine.Route
	err    error
}

func newExploreModel(ctx context.Context, eng *engine.Engine) exploreModel {
	return exploreModel{
		ctx:    ctx,
		engine: eng,
		stage:  stagePickSource,
		height: 15,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m.back(), nil
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < m.engine.Graph().NodeCount()-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			return m.selectCurrent(), nil
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// back steps one stage towards source selection.
func (m exploreModel) back() exploreModel {
	switch m.stage {
	case stageShowRoute:
		m.stage = stagePickTarget
	case stagePickTarget:
		m.stage = stagePickSource
		m.dist = nil
	}
	m.err = nil
	return m
}

// selectCurrent commits the node under the cursor to the current stage.
func (m exploreModel) selectCurrent() exploreModel {
	node := m.cursor + 1
	switch m.stage {
	case stagePickSource:
		dist, err := m.engine.DistancesFrom(m.ctx, node)
		if err != nil {
			m.err = err
			return m
		}
		m.source = node
		m.dist = dist
		m.stage = stagePickTarget
		m.cursor = 0
		m.offset = 0
	case stagePickTarget:
		route, err := m.engine.Path(m.ctx, m.source, node)
		if err != nil && !errors.Is(err, engine.ErrNoRoute) {
			m.err = err
			return m
		}
		m.target = node
		if err != nil {
			m.route = nil
		} else {
			m.route = &route
		}
		m.err = nil
		m.stage = stageShowRoute
	}
	return m
}

func (m exploreModel) View() string {
	var b strings.Builder

	switch m.stage {
	case stagePickSource:
		b.WriteString(StyleTitle.Render("Select Source Service"))
	case stagePickTarget:
		b.WriteString(StyleTitle.Render(fmt.Sprintf("Latency from service %d", m.source)))
	case stageShowRoute:
		b.WriteString(StyleTitle.Render(fmt.Sprintf("Route %d %s %d", m.source, iconArrow, m.target)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc back  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
		return b.String()
	}

	if m.stage == stageShowRoute {
		b.WriteString(m.routeView())
		return b.String()
	}

	b.WriteString(m.nodeTable())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, m.engine.Graph().NodeCount())))
	return b.String()
}

// nodeTable renders the scrolling node list. In the target stage each
// row also carries the latency from the selected source.
func (m exploreModel) nodeTable() string {
	n := m.engine.Graph().NodeCount()
	end := m.offset + m.height
	if end > n {
		end = n
	}

	headers := []string{"", "Service", "Out-edges"}
	if m.stage == stagePickTarget {
		headers = []string{"", "Service", "Latency (µs)"}
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		node := i + 1

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var last string
		if m.stage == stagePickTarget {
			if d, ok := m.dist[node]; ok {
				last = strconv.FormatInt(d, 10)
			} else {
				last = "—"
			}
		} else {
			last = strconv.Itoa(len(m.engine.Graph().Neighbors(node)))
		}

		rows = append(rows, []string{cursor, strconv.Itoa(node), last})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.offset + row
			if actualIdx == m.cursor {
				return listSelectedStyle
			}
			if m.stage == stagePickTarget {
				if _, ok := m.dist[actualIdx+1]; !ok {
					return listDimStyle
				}
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	return t.Render()
}

// routeView renders the selected route, or the unreachable notice.
func (m exploreModel) routeView() string {
	if m.route == nil {
		return styleIconError.Render(iconError) +
			fmt.Sprintf(" No route from %d to %d\n", m.source, m.target)
	}

	var b strings.Builder
	b.WriteString("  " + formatRoute(m.route.Nodes))
	b.WriteString("\n\n")
	b.WriteString("  " + StyleDim.Render(fmt.Sprintf("total %d µs · %d hops",
		m.route.Latency, len(m.route.Nodes)-1)))
	b.WriteString("\n")
	return b.String()
}
