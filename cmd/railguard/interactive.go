package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/railguard/railguard/internal/db"
)

type callItem struct {
	call db.CallRecord
}

func (i callItem) Title() string { return i.call.CallID }

func (i callItem) Description() string {
	return fmt.Sprintf("%s · %s · %s · %d attempt(s)",
		i.call.SpecName, i.call.Engine, i.call.Status, i.call.Attempts)
}

func (i callItem) FilterValue() string { return i.call.CallID + " " + i.call.SpecName }

type historyModel struct {
	store    *db.Store
	list     list.Model
	viewport viewport.Model
	showing  bool
}

func newHistoryModel(store *db.Store, calls []db.CallRecord) historyModel {
	items := make([]list.Item, len(calls))
	for i, c := range calls {
		items[i] = callItem{call: c}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Guarded calls"
	return historyModel{store: store, list: l, viewport: viewport.New(0, 0)}
}

func (m historyModel) Init() tea.Cmd { return nil }

func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 1
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.showing {
				m.showing = false
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.showing {
				m.showing = false
				return m, nil
			}
		case "enter":
			if !m.showing {
				if item, ok := m.list.SelectedItem().(callItem); ok {
					m.viewport.SetContent(m.callDetail(item.call.CallID))
					m.viewport.GotoTop()
					m.showing = true
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.showing {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m historyModel) View() string {
	if m.showing {
		return m.viewport.View() + "\n esc: back · q: quit"
	}
	return m.list.View()
}

func (m historyModel) callDetail(callID string) string {
	ctx := context.Background()
	call, err := m.store.GetCall(ctx, callID)
	if err != nil {
		return err.Error()
	}
	attempts, err := m.store.ListAttempts(ctx, callID)
	if err != nil {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s · spec %s · engine %s · status %s\n\n",
		call.CallID, call.CreatedAt, call.SpecName, call.Engine, call.Status)
	if call.ValidatedJSON != "" {
		fmt.Fprintf(&b, "validated:\n%s\n\n", call.ValidatedJSON)
	}
	fmt.Fprintf(&b, "raw:\n%s\n", call.RawOutput)
	for _, a := range attempts {
		fmt.Fprintf(&b, "\n--- attempt %d (%s) ---\n", a.AttemptIndex+1, a.StartedAt)
		if a.IssuesJSON != "" {
			fmt.Fprintf(&b, "issues: %s\n", a.IssuesJSON)
		}
	}
	return b.String()
}

func browseCalls(store *db.Store, calls []db.CallRecord) error {
	program := tea.NewProgram(newHistoryModel(store, calls), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
