package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"signmem/internal/content"
	"signmem/internal/game"
	"signmem/internal/scoring"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Status line
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Matched cards, win banner
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // Face-down cards
	selectStyle  = lipgloss.NewStyle().Reverse(true)                    // Picker selection
	hiddenBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	upBorder     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11"))
	doneBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("10"))
	focusBorder  = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("13"))
)

const gridCols = 4

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Flip    key.Binding
	Restart key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Flip:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "flip card")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "categories")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Flip, k.Restart, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Flip, k.Restart, k.Back, k.Quit},
	}
}

// TickMsg advances the session clock once per second.
type TickMsg time.Time

// resolveMsg carries the deferred outcome of a mismatched pair back to the
// session that scheduled it.
type resolveMsg struct {
	sessionID string
	gen       uint64
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func resolveCmd(sessionID string, r game.Resolution) tea.Cmd {
	return tea.Tick(r.Delay, func(time.Time) tea.Msg {
		return resolveMsg{sessionID: sessionID, gen: r.Gen}
	})
}

type model struct {
	categories []content.Category
	storage    scoring.Storage
	opts       game.Options
	keys       keyMap
	help       help.Model

	// Picker state; chosen is -1 until a category is selected.
	cursor int
	chosen int

	// Game state for the chosen category.
	session *game.Session
	focus   int
	history *scoring.History

	// ticking is true while a tick loop is in flight, so restarts do not
	// stack a second loop and double the clock rate.
	ticking bool
}

// startTicking begins the once-per-second tick loop unless one is already
// running.
func (m *model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func initialModel(categories []content.Category, opts game.Options, storage scoring.Storage) *model {
	return &model{
		categories: categories,
		storage:    storage,
		opts:       opts,
		keys:       defaultKeyMap(),
		help:       help.New(),
		chosen:     -1,
	}
}

func (m *model) startSession(idx int) error {
	cat := m.categories[idx]
	sess, err := game.NewSession(cat.Name, cat.Items, m.opts, m.storage)
	if err != nil {
		return err
	}
	sess.OnCompleted = func(r game.Result) {
		slog.Info("session completed",
			"session", r.SessionID, "category", r.Category,
			"score", r.Score, "moves", r.Moves, "elapsed", r.Elapsed)
	}
	m.session = sess
	m.chosen = idx
	m.focus = 0
	m.loadHistory()
	return nil
}

func (m *model) loadHistory() {
	if m.storage == nil {
		return
	}
	h, err := scoring.LoadHistory(m.storage)
	if err != nil {
		slog.Warn("could not load result history", "error", err)
		return
	}
	m.history = h
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.session == nil || m.session.IsCompleted() {
			m.ticking = false
			return m, nil
		}
		m.session.HandleTick()
		return m, tickCmd()

	case resolveMsg:
		// Outcomes scheduled for a session that has since been replaced
		// are dropped.
		if m.session != nil && m.session.ID == msg.sessionID {
			m.session.HandleResolve(msg.gen)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.chosen < 0 {
			return m.updatePicker(msg)
		}
		return m.updateGame(msg)
	}

	return m, nil
}

func (m *model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.categories)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Flip):
		if err := m.startSession(m.cursor); err != nil {
			slog.Error("could not start session", "error", err)
			return m, tea.Quit
		}
		return m, m.startTicking()
	}
	return m, nil
}

func (m *model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.session
	deckSize := len(sess.Deck)

	switch {
	case key.Matches(msg, m.keys.Back):
		m.session = nil
		m.chosen = -1
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		if err := sess.Reset(); err != nil {
			slog.Error("could not restart session", "error", err)
			return m, tea.Quit
		}
		m.focus = 0
		return m, m.startTicking()

	case key.Matches(msg, m.keys.Left):
		if m.focus > 0 {
			m.focus--
		}
	case key.Matches(msg, m.keys.Right):
		if m.focus < deckSize-1 {
			m.focus++
		}
	case key.Matches(msg, m.keys.Up):
		if m.focus-gridCols >= 0 {
			m.focus -= gridCols
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus+gridCols < deckSize {
			m.focus += gridCols
		}

	case key.Matches(msg, m.keys.Flip):
		res, err := sess.Reveal(m.focus)
		if err != nil {
			slog.Error("reveal failed", "index", m.focus, "error", err)
			return m, nil
		}
		if sess.IsCompleted() {
			m.loadHistory()
			return m, nil
		}
		if res != nil {
			return m, resolveCmd(sess.ID, *res)
		}
	}
	return m, nil
}

func (m *model) View() string {
	if m.chosen < 0 {
		return m.viewPicker()
	}
	return m.viewGame()
}

func (m *model) viewPicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a topic") + "\n\n")
	for i, cat := range m.categories {
		line := fmt.Sprintf("  %s (%d signs)", cat.Name, len(cat.Items))
		if i == m.cursor {
			line = selectStyle.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *model) viewGame() string {
	sess := m.session

	cardWidth := 8
	for _, c := range sess.Deck {
		if len(c.Word)+2 > cardWidth {
			cardWidth = len(c.Word) + 2
		}
	}

	var rows []string
	for start := 0; start < len(sess.Deck); start += gridCols {
		end := start + gridCols
		if end > len(sess.Deck) {
			end = len(sess.Deck)
		}
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, m.renderCard(i, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	status := fmt.Sprintf("MOVES: %d | PAIRS: %d/%d | TIME: %s",
		sess.Moves, sess.MatchedPairs, sess.TotalPairs(), formatTime(sess.Elapsed))

	display := titleStyle.Render(sess.Category) + "\n" +
		strings.Join(rows, "\n") + "\n" +
		scoreStyle.Render(status)

	if sess.IsCompleted() && sess.Result != nil {
		display += "\n\n" + m.viewCompleted(*sess.Result)
	}

	display += "\n\n" + m.help.View(m.keys)
	return display
}

func (m *model) renderCard(i, width int) string {
	card := m.session.Deck[i]

	var face string
	var style lipgloss.Style
	switch {
	case card.Matched:
		face = greenStyle.Render(card.Word)
		style = doneBorder
	case card.Revealed:
		face = card.Word
		style = upBorder
	default:
		face = faintStyle.Render(strings.Repeat("░", width-2))
		style = hiddenBorder
	}

	if i == m.focus && !m.session.IsCompleted() {
		style = focusBorder
	}

	return style.Width(width).Align(lipgloss.Center).Render(face)
}

func (m *model) viewCompleted(r game.Result) string {
	msg := greenStyle.Render(fmt.Sprintf("Completed! Score: %d (%d moves, %s)",
		r.Score, r.Moves, formatTime(r.Elapsed)))

	if m.history == nil {
		return msg
	}

	if best := m.history.BestForCategory(r.Category); best != nil && r.Score >= best.Score {
		msg += "\n" + greenStyle.Render("New best for this topic!")
	} else if best != nil {
		msg += fmt.Sprintf("\nBest for this topic: %d", best.Score)
	}
	msg += fmt.Sprintf("\nAttempts: %d | Total points: %d",
		m.history.AttemptsForCategory(r.Category), m.history.TotalPoints())
	return msg
}

func formatTime(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func main() {
	var (
		pairs    int
		delayMs  int
		dbPath   string
		jsonPath string
		logPath  string
	)

	flag.IntVar(&pairs, "pairs", 8, "Maximum number of pairs on the board (0 = use every item)")
	flag.IntVar(&delayMs, "delay", 1000, "How long a mismatched pair stays visible, in milliseconds")
	flag.StringVar(&dbPath, "db", "", "Record results in a SQLite database at this path")
	flag.StringVar(&jsonPath, "results", "", "Record results in a JSON file at this path (default ~/.config/signmem/results.json)")
	flag.StringVar(&logPath, "log", "", "Append debug logs to this file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <vocabulary-file-or-dir> [more paths...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEach vocabulary file is one topic; lines are 'word | description | mediaRef'.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	logWriter := io.Writer(io.Discard)
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, nil)))

	categories, err := content.LoadCategories(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading vocabulary: %v\n", err)
		os.Exit(1)
	}
	if len(categories) == 0 {
		fmt.Fprintln(os.Stderr, "no vocabulary found in provided paths")
		os.Exit(1)
	}

	var storage scoring.Storage
	switch {
	case dbPath != "":
		s, err := scoring.NewSQLiteStorage(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening results database: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		storage = s
	case jsonPath != "":
		storage = scoring.NewJSONFileStorageAt(jsonPath)
	default:
		s, err := scoring.NewJSONFileStorage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating result storage: %v\n", err)
			os.Exit(1)
		}
		storage = s
	}

	opts := game.Options{
		PairLimit:    pairs,
		ResolveDelay: time.Duration(delayMs) * time.Millisecond,
	}

	m := initialModel(categories, opts, storage)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error starting the program: %v\n", err)
		os.Exit(1)
	}
}
