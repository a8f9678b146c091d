package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/phantomachine/assortative-matching-large-firms/internal/solver"
)

const historyCapacity = 600

// ProgressMsg carries one bisection attempt into the live view.
type ProgressMsg solver.ProgressUpdate

// DoneMsg signals that the solve finished, successfully or not.
type DoneMsg struct {
	Result *solver.Result
	Err    error
}

// LiveModel is the Bubble Tea model for watching a solve in flight. Feed it
// from a solver progress callback via the updates channel and send the
// final result on done.
type LiveModel struct {
	updates <-chan solver.ProgressUpdate
	done    <-chan DoneMsg

	initialUpper float64
	latest       solver.ProgressUpdate
	started      bool

	guessHistory []float64
	widthHistory []float64

	result   *solver.Result
	err      error
	finished bool
	showHelp bool
}

// NewLiveModel builds the live view. initialUpper is the top of the initial
// firm-size bracket, used to scale the bracket bar.
func NewLiveModel(initialUpper float64, updates <-chan solver.ProgressUpdate, done <-chan DoneMsg) LiveModel {
	return LiveModel{
		updates:      updates,
		done:         done,
		initialUpper: initialUpper,
		guessHistory: make([]float64, 0, historyCapacity),
		widthHistory: make([]float64, 0, historyCapacity),
	}
}

// ForwardProgress adapts a channel into the callback shape the solver
// expects. The solver goroutine blocks on the send, which keeps the view
// in lockstep with the bisection.
func ForwardProgress(ch chan<- solver.ProgressUpdate) func(solver.ProgressUpdate) {
	return func(u solver.ProgressUpdate) { ch <- u }
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.waitForDone())
}

func (m LiveModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return ProgressMsg(u)
	}
}

func (m LiveModel) waitForDone() tea.Cmd {
	return func() tea.Msg {
		return <-m.done
	}
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
		}
	case ProgressMsg:
		m.latest = solver.ProgressUpdate(msg)
		m.started = true
		m.guessHistory = appendCapped(m.guessHistory, m.latest.Guess)
		m.widthHistory = appendCapped(m.widthHistory, m.latest.Upper-m.latest.Lower)
		return m, m.waitForUpdate()
	case DoneMsg:
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
	}
	return m, nil
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m LiveModel) View() string {
	if m.showHelp {
		return helpOverlay + "\n\n" + m.body()
	}
	return m.body()
}

func (m LiveModel) body() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("EQUILIBRIUM SHOOTING") + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if m.started {
		s.WriteString(labelStyle.Render("Attempt") + valueStyle.Render(fmt.Sprintf("%d", m.latest.Attempt)) + "\n")
		s.WriteString(labelStyle.Render("Outcome") + valueStyle.Render(m.latest.Outcome.String()) + "\n")
		s.WriteString(labelStyle.Render("Guess") + valueStyle.Render(fmt.Sprintf("%.9g", m.latest.Guess)) + "\n")
		s.WriteString(labelStyle.Render("Bracket") + valueStyle.Render(fmt.Sprintf("[%.6g, %.6g]", m.latest.Lower, m.latest.Upper)) + "\n")
		s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", m.latest.Steps)) + "\n\n")

		s.WriteString(BracketBar(m.latest.Lower, m.latest.Upper, m.initialUpper, plotWidth) + "\n")
		s.WriteString(labelStyle.Render("Guesses") + Sparkline(m.guessHistory, 40) + "\n")

		if len(m.widthHistory) > 1 {
			chart := asciigraph.Plot(logWidths(m.widthHistory),
				asciigraph.Height(4), asciigraph.Width(40),
				asciigraph.Caption("log10 bracket width"))
			s.WriteString(graphStyle.Render(chart) + "\n")
		}
	} else {
		s.WriteString(labelStyle.Render("Waiting") + valueStyle.Render("compiling expressions...") + "\n")
	}

	if m.finished && m.result != nil {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Firm size") + valueStyle.Render(fmt.Sprintf("%.9g", m.result.InitialFirmSize)) + "\n")
		s.WriteString(labelStyle.Render("Message") + valueStyle.Render(m.result.Message) + "\n")
	}
	if m.finished && m.err != nil {
		s.WriteString("\n" + statusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("\nQ:Quit ?:Help"))
	return panelStyle.Render(s.String())
}

func (m LiveModel) statusLine() string {
	switch {
	case m.finished && m.err != nil:
		return statusFailed.Render("FAILED")
	case m.finished:
		return statusDone.Render("CONVERGED")
	default:
		return statusRunning.Render("BISECTING")
	}
}

func logWidths(widths []float64) []float64 {
	out := make([]float64, len(widths))
	for i, w := range widths {
		if w <= 0 {
			w = math.SmallestNonzeroFloat64
		}
		out[i] = math.Log10(w)
	}
	return out
}

var helpOverlay = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	Padding(0, 2).
	Render(strings.Join([]string{
		"KEYBOARD SHORTCUTS",
		"",
		"Q / Ctrl+C - Quit",
		"?          - Toggle this help",
	}, "\n"))
