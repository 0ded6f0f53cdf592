package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/linkage"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
)

type tab int

const (
	tabHome tab = iota
	tabPlanner
	tabFeelings
	tabGoals
)

var tabNames = []string{"Home", "Planner", "Feelings", "Goals"}

type inputKind int

const (
	inputNone inputKind = iota
	inputMemo
	inputWish
	inputAppreciation
	inputGoal
	inputPlanDate
)

var inputTitles = map[inputKind]string{
	inputMemo:         "New Memo",
	inputWish:         "New Wish",
	inputAppreciation: "Say Thanks",
	inputGoal:         "New Daily Goal",
	inputPlanDate:     "Plan Wish",
}

// row is one selectable line of the current tab.
type row struct {
	collection records.Collection
	id         string
	text       string
	author     string
	editable   bool
	done       bool
}

type model struct {
	sess   *session.Session
	vm     session.ViewModel
	loaded bool

	tab    tab
	cursor int // Index of selected row in the current tab
	width  int // Current terminal width (for layout)
	height int // Current terminal height
	err    error
	status string // Last refused mutation

	dbFilename string

	quitting bool

	inputting  inputKind
	input      textinput.Model
	inputError string
	planWishID string

	removing         bool
	removeConfirmIdx int // 0 = "Yes" selected, 1 = "No"

	// Animation state
	marqueeOffset int
	marqueeTimer  int
}

// Initialize TUI model
func initModel(sess *session.Session, dbFile string) model {
	in := textinput.New()
	in.CharLimit = 512

	return model{
		sess:       sess,
		dbFilename: filepath.Base(dbFile),
		input:      in,
	}
}

func tick() tea.Cmd {
	return tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
		return t
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadView(m.sess, false), tick())
}

// rows lists the selectable lines of the current tab
func (m model) rows() []row {
	v := m.vm.View
	var rows []row
	switch m.tab {
	case tabHome:
		for _, it := range v.Dashboard.Thread {
			rows = append(rows, row{records.Memos, it.Value.ID, it.Value.Text, it.AuthorID, it.Editable, false})
		}
	case tabPlanner:
		for _, it := range v.Wishes {
			rows = append(rows, row{records.Wishes, it.Value.ID, it.Value.Text, it.AuthorID, it.Editable, it.Value.Planned})
		}
		for _, it := range slices.Concat(v.UpcomingPlans, v.PastPlans) {
			text := fmt.Sprintf("%s %s", it.Value.Date, it.Value.Title)
			rows = append(rows, row{records.DatePlans, it.Value.ID, text, it.AuthorID, it.Editable, it.Value.Done})
		}
	case tabFeelings:
		for _, it := range v.Appreciations {
			rows = append(rows, row{records.Appreciations, it.Value.ID, it.Value.Text, it.AuthorID, it.Editable, false})
		}
		for _, it := range v.AngerLogs {
			text := fmt.Sprintf("[%d] %s", it.Value.Intensity, it.Value.Situation)
			rows = append(rows, row{records.AngerLogs, it.Value.ID, text, it.AuthorID, it.Editable, false})
		}
	case tabGoals:
		for _, g := range v.Goals {
			rows = append(rows, row{records.Goals, g.ID, fmt.Sprintf("%s (%s)", g.Text, g.Kind), v.ViewerID, true, g.Done})
		}
		for _, h := range v.Habits {
			text := fmt.Sprintf("%s x%d", h.HabitText, h.SuccessCount)
			rows = append(rows, row{records.Habits, h.ID, text, v.ViewerID, true, false})
		}
	}
	return rows
}

func (m model) selected() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m *model) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *model) startInput(kind inputKind, placeholder string) {
	m.inputting = kind
	m.inputError = ""
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
}

func (m *model) stopInput() {
	m.inputting = inputNone
	m.inputError = ""
	m.planWishID = ""
	m.input.Reset()
	m.input.Blur()
}

// submit turns the entered value into a mutation for the current input mode
func (m model) submit(value string) tea.Cmd {
	switch m.inputting {
	case inputMemo:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error {
			_, err := s.AddMemo(ctx, value)
			return err
		})
	case inputWish:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error {
			_, err := s.AddWish(ctx, value)
			return err
		})
	case inputAppreciation:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error {
			_, err := s.AddAppreciation(ctx, value)
			return err
		})
	case inputGoal:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error {
			_, err := s.AddGoal(ctx, value, records.GoalDaily)
			return err
		})
	case inputPlanDate:
		wishID := m.planWishID
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error {
			_, err := s.PlanFromWish(ctx, wishID, value)
			return err
		})
	}
	return nil
}

// toggle flips or counts the selected row, depending on its collection
func (m model) toggle(r row) tea.Cmd {
	switch r.collection {
	case records.Goals:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error { return s.ToggleGoal(ctx, r.id) })
	case records.Habits:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error { return s.RecordHabitSuccess(ctx, r.id) })
	case records.DatePlans:
		return mutate(m.sess, func(ctx context.Context, s *session.Session) error { return s.ToggleDatePlan(ctx, r.id) })
	}
	return nil
}

func setMood(mood records.Mood) func(context.Context, *session.Session) error {
	return func(ctx context.Context, s *session.Session) error { return s.SetMood(ctx, mood) }
}

func describeError(err error) string {
	switch {
	case errors.Is(err, gateway.ErrNotAuthor), errors.Is(err, gateway.ErrElementNotFound):
		return "That item belongs to your partner and is read-only."
	default:
		return err.Error()
	}
}

// Processes events like window resize, errors, loaded data, and key presses
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case viewMsg:
		m.vm = msg.vm
		m.loaded = true
		m.status = ""
		m.clampCursor()
		return m, nil

	case mutationFailedMsg:
		m.status = describeError(msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.inputting != inputNone {
			switch msg.Type {
			case tea.KeyEnter:
				value := strings.TrimSpace(m.input.Value())
				if value == "" {
					m.inputError = "Text cannot be empty"
					return m, nil
				}
				cmd := m.submit(value)
				m.stopInput()
				return m, cmd

			case tea.KeyEsc:
				m.stopInput()
				return m, nil
			}

			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		if m.removing {
			switch msg.String() {
			case "up", "k":
				m.removeConfirmIdx = 0

			case "down", "j":
				m.removeConfirmIdx = 1

			case "enter":
				m.removing = false
				r, ok := m.selected()
				if m.removeConfirmIdx != 0 || !ok {
					return m, nil
				}
				return m, mutate(m.sess, func(ctx context.Context, s *session.Session) error {
					return s.Remove(ctx, r.collection, r.id)
				})

			case "esc":
				m.removing = false
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			// Exit alt screen before quitting so the goodbye message displays
			return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

		case "tab", "right", "l":
			m.tab = (m.tab + 1) % tab(len(tabNames))
			m.cursor = 0

		case "shift+tab", "left", "h":
			m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
			m.cursor = 0

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows())-1 {
				m.cursor++
			}

		case "1":
			return m, mutate(m.sess, setMood(records.MoodHappy))
		case "2":
			return m, mutate(m.sess, setMood(records.MoodOkay))
		case "3":
			return m, mutate(m.sess, setMood(records.MoodSad))

		case "r":
			return m, loadView(m.sess, true)

		case "n":
			switch m.tab {
			case tabHome:
				m.startInput(inputMemo, "Leave a memo")
			case tabPlanner:
				m.startInput(inputWish, "Something you'd love to do together")
			case tabFeelings:
				m.startInput(inputAppreciation, "Thank your partner for something")
			case tabGoals:
				m.startInput(inputGoal, "A goal for today")
			}

		case "p":
			if r, ok := m.selected(); ok && r.collection == records.Wishes {
				m.startInput(inputPlanDate, time.Now().AddDate(0, 0, 7).Format(records.DateLayout))
				m.planWishID = r.id
			}

		case " ", "enter":
			if r, ok := m.selected(); ok {
				if !r.editable {
					m.status = describeError(gateway.ErrNotAuthor)
					return m, nil
				}
				return m, m.toggle(r)
			}

		case "d":
			if r, ok := m.selected(); ok {
				if !r.editable {
					m.status = describeError(gateway.ErrNotAuthor)
					return m, nil
				}
				m.removeConfirmIdx = 1
				m.removing = true
			}
		}
		return m, nil

	case time.Time:
		// Update marquee animation every x ticks (adjust for speed)
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tick()
	}

	return m, nil
}

func linkageLine(vm session.ViewModel) string {
	switch vm.Linkage {
	case linkage.Linked:
		return TextStatusColorize("linked with "+vm.PartnerID, 1)
	case linkage.PendingOneWay:
		return TextStatusColorize("waiting for "+vm.PartnerID+" to link back", 2)
	default:
		return TextStatusColorize("not linked", 0)
	}
}

func (m model) tabBar() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) listPanel(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render("  " + tabNames[m.tab]))
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString("  Nothing here yet. Press 'n' to add.\n")
		return b.String()
	}

	for i, r := range rows {
		pointer := generateLinePointer(i == m.cursor, 2)
		marker := ""
		switch r.collection {
		case records.Goals, records.DatePlans:
			marker = "[ ] "
			if r.done {
				marker = "[x] "
			}
		case records.Wishes:
			if r.done {
				marker = "* "
			}
		}

		availableWidth := width - len(pointer) - len(marker) - bordersAndPaddingWidth - 1
		text := marker
		style := inactiveStyle
		if !r.editable {
			style = partnerStyle
		}
		if i == m.cursor {
			style = selectedStyle
			text += lipgloss.NewStyle().MaxWidth(availableWidth).Render(m.marqueeText(r.text, availableWidth))
		} else {
			text += lipgloss.NewStyle().MaxWidth(availableWidth).Render(truncate(r.text, availableWidth))
		}
		b.WriteString(pointer + style.Render(text) + "\n")
	}
	return b.String()
}

func (m model) detailPanel(width int) string {
	var b strings.Builder

	switch {
	case m.inputting != inputNone:
		b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render(inputTitles[m.inputting]))
		b.WriteString("\n\n")
		if m.inputting == inputPlanDate {
			b.WriteString("Date (YYYY-MM-DD): ")
		}
		m.input.Width = width - bordersAndPaddingWidth
		b.WriteString(m.input.View() + "\n\n")
		b.WriteString("(enter to submit, esc to cancel)")
		if m.inputError != "" {
			b.WriteString("\n\n" + textRedStyle.Render(m.inputError) + "\n")
		}
		return b.String()

	case m.removing:
		r, _ := m.selected()
		b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render("Remove"))
		b.WriteString("\n\n")
		b.WriteString(textRedStyle.Render(r.text) + "\n\n")
		yesOpt, noOpt := "Yes", "No"
		if m.removeConfirmIdx == 0 {
			yesOpt = dangerSelectedStyle.Render(" >" + yesOpt)
			noOpt = inactiveStyle.Render("  " + noOpt)
		} else {
			yesOpt = inactiveStyle.Render("  " + yesOpt)
			noOpt = selectedStyle.Render(" >" + noOpt)
		}
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt))
		b.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
		return b.String()
	}

	d := m.vm.View.Dashboard
	b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render("Together"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Partner: ") + linkageLine(m.vm) + "\n")
	b.WriteString(labelStyle.Render("Mood: ") + inactiveStyle.Render(string(d.Mood)) + "\n")
	b.WriteString(labelStyle.Render("Your goals: ") + inactiveStyle.Render(d.OwnProgress.String()) + "\n")
	if d.PartnerProgress != nil {
		b.WriteString(labelStyle.Render("Their goals: ") + inactiveStyle.Render(d.PartnerProgress.String()) + "\n")
	}
	if d.NextPlan != nil {
		b.WriteString(labelStyle.Render("Next date: ") + inactiveStyle.Render(d.NextPlan.Value.Date+" "+d.NextPlan.Value.Title) + "\n")
	}
	if d.RecentAngerLog != nil {
		b.WriteString(labelStyle.Render("Last cooldown: ") + inactiveStyle.Render(d.RecentAngerLog.Situation) + "\n")
	}

	if r, ok := m.selected(); ok {
		author := "you"
		if r.author != m.vm.View.ViewerID {
			author = r.author
		}
		b.WriteString("\n" + labelStyle.Render("Selected: ") + inactiveStyle.Render(r.text) + "\n")
		b.WriteString(labelStyle.Render("By: ") + partnerStyle.Render(author) + "\n")
	}

	b.WriteString("\n" + labelStyle.Render("Database file: ") + TextStatusColorize(m.dbFilename, 1) + "\n")
	if m.status != "" {
		b.WriteString("\n" + textRedStyle.Render(m.status) + "\n")
	}
	return b.String()
}

// Assembles the UI string for each frame
func (m model) View() string {
	if m.quitting {
		return "See you both soon.\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.loaded {
		return "Loading...\n"
	}

	titleBar := titleStyle.Width(m.width).Render("Duet - " + m.vm.View.ViewerID)

	leftWidth, rightWidth := m.columnWidths()
	panelHeightPadding := 5

	// Left panel: border on the right side only
	leftPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(leftWidth).Height(m.height - panelHeightPadding).
		Render(m.listPanel(leftWidth))

	// Right panel: no border (open content area)
	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(m.height - panelHeightPadding).
		Render(m.detailPanel(rightWidth))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)

	footerText := "\n←/→ tabs • ↑/↓ select • n new • space toggle • p plan wish • d delete • 1/2/3 mood • r refresh • q quit"
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n" + m.tabBar() + "\n\n" + columns + footerBar
}

// Create and start the Bubble Tea TUI
func ShowTUI(sess *session.Session, dbFile string) error {
	p := tea.NewProgram(initModel(sess, dbFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
