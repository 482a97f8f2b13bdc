package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/view"
)

type formKind int

const (
	formCreate formKind = iota
	formStatus
)

// form is a modal with a fixed set of text fields. A form is created fresh
// each time a modal opens and dropped when it closes.
type form struct {
	kind    formKind
	title   string
	labels  []string
	inputs  []textinput.Model
	focused int
	hint    string
	err     string
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	ti.Width = 40
	ti.SetValue(value)
	return ti
}

func newCreateForm() *form {
	return &form{
		kind:   formCreate,
		title:  "Create Project",
		labels: []string{"Name", "Status", "Schools"},
		inputs: []textinput.Model{
			newInput("Rural Schools - Region C", ""),
			newInput(string(models.ProjectOpenForBids), string(models.ProjectOpenForBids)),
			newInput("0", ""),
		},
		hint: statusHint(),
	}
}

func newStatusForm(selected string) *form {
	f := &form{
		kind:   formStatus,
		title:  "Change Project Status",
		labels: []string{"Project", "New status"},
		inputs: []textinput.Model{
			newInput("Project name", selected),
			newInput(string(models.ProjectUnderReview), ""),
		},
		hint: statusHint(),
	}
	if selected != "" {
		f.focused = 1
	}
	return f
}

func statusHint() string {
	statuses := models.ProjectStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return "Statuses: " + strings.Join(names, ", ")
}

// focus focuses the current field and blurs the rest.
func (f *form) focus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focused {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *form) next(delta int) tea.Cmd {
	n := len(f.inputs)
	f.focused = (f.focused + delta + n) % n
	return f.focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	f.err = ""
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

var errSchoolCount = errors.New("School count must be a whole number.")

// newProject reads the create form. An empty school count means zero; the
// store validates the rest.
func (f *form) newProject() (models.NewProject, error) {
	p := models.NewProject{Name: f.value(0), Status: f.value(1)}
	if raw := f.value(2); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.NewProject{}, errSchoolCount
		}
		p.Schools = n
	}
	return p, nil
}

func (f *form) view() string {
	lines := []string{view.Title.Render(f.title), ""}
	for i, in := range f.inputs {
		label := view.Label.Render(f.labels[i])
		if i == f.focused {
			label = lipgloss.NewStyle().Bold(true).Foreground(view.PrimaryColor).Render("› " + f.labels[i])
		}
		lines = append(lines, label, in.View(), "")
	}
	if f.hint != "" {
		lines = append(lines, view.Muted.Render(f.hint))
	}
	if f.err != "" {
		lines = append(lines, view.ErrorBanner(f.err))
	}
	lines = append(lines, view.Muted.Render("enter submit • tab next field • esc cancel"))
	return view.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
