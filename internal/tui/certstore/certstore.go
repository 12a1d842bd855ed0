// ABOUTME: Certificate store browser as a bubbletea model
// ABOUTME: Lists keystore or truststore entries and drives remove requests

package certstore

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nagypet/wstemplate/internal/client"
	"github.com/nagypet/wstemplate/internal/tui/styles"
)

// Kind selects which server store the browser shows.
type Kind int

const (
	Keystore Kind = iota
	Truststore
)

// String returns the display name of the store.
func (k Kind) String() string {
	if k == Truststore {
		return "Truststore"
	}
	return "Keystore"
}

// RemoveRequestedMsg is sent when the user confirms removal of an entry.
type RemoveRequestedMsg struct {
	Kind  Kind
	Alias string
}

// ReloadRequestedMsg is sent when the user asks for a refresh.
type ReloadRequestedMsg struct {
	Kind Kind
}

// BackMsg is sent when the user leaves the browser.
type BackMsg struct{}

// Browser is the certificate store browser model.
type Browser struct {
	kind    Kind
	entries []client.KeystoreEntry
	table   table.Model
	width   int

	confirming   bool
	confirmAlias string
}

// New creates a store browser for the given entries.
func New(kind Kind, entries []client.KeystoreEntry, width, height int) *Browser {
	b := &Browser{kind: kind, width: width}
	b.table = newTable(entries, width, height)
	b.entries = entries
	return b
}

func newTable(entries []client.KeystoreEntry, width, height int) table.Model {
	aliasWidth := width - 46
	if aliasWidth < 16 {
		aliasWidth = 16
	}
	columns := []table.Column{
		{Title: "Alias", Width: aliasWidth},
		{Title: "Type", Width: 6},
		{Title: "In use", Width: 8},
		{Title: "Valid", Width: 7},
		{Title: "Subject CN", Width: 20},
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		inUse := ""
		if e.InUse {
			inUse = "yes"
		}
		valid := "yes"
		if !e.Valid {
			valid = "NO"
		}
		subject := ""
		if len(e.Chain) > 0 {
			subject = e.Chain[0].SubjectCN
		}
		rows = append(rows, table.Row{e.Alias, e.TypeAbbr(), inUse, valid, subject})
	}

	if height < 4 {
		height = 4
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(true)
	t.SetStyles(s)

	return t
}

// SetEntries replaces the listed entries, keeping the cursor in range.
func (b *Browser) SetEntries(entries []client.KeystoreEntry) {
	b.entries = entries
	b.table = newTable(entries, b.width, b.table.Height())
	b.confirming = false
}

// SetSize resizes the table.
func (b *Browser) SetSize(width, height int) {
	b.width = width
	b.table = newTable(b.entries, width, height)
}

// SelectedAlias returns the alias under the cursor, or empty.
func (b *Browser) SelectedAlias() string {
	row := b.table.SelectedRow()
	if row == nil {
		return ""
	}
	return row[0]
}

// Init implements tea.Model
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		b.table, cmd = b.table.Update(msg)
		return b, cmd
	}

	if b.confirming {
		switch key.String() {
		case "y", "Y":
			alias := b.confirmAlias
			b.confirming = false
			kind := b.kind
			return b, func() tea.Msg { return RemoveRequestedMsg{Kind: kind, Alias: alias} }
		default:
			b.confirming = false
			return b, nil
		}
	}

	switch key.String() {
	case "d", "delete":
		if alias := b.SelectedAlias(); alias != "" {
			b.confirming = true
			b.confirmAlias = alias
		}
		return b, nil
	case "r":
		kind := b.kind
		return b, func() tea.Msg { return ReloadRequestedMsg{Kind: kind} }
	case "b", "esc":
		return b, func() tea.Msg { return BackMsg{} }
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View implements tea.Model
func (b *Browser) View() string {
	out := styles.Title.Render(b.kind.String()) + "\n"

	if len(b.entries) == 0 {
		out += styles.Subtitle.Render("No entries.")
	} else {
		out += b.table.View()
	}

	if b.confirming {
		out += "\n" + styles.StatusWarning.Render(
			fmt.Sprintf("Remove %q? (y/N)", b.confirmAlias))
	}
	return out
}
