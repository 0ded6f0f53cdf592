package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/duet/pkg/session"
)

type viewMsg struct {
	vm session.ViewModel
}

// mutationFailedMsg reports a refused mutation. Unlike a load error it does
// not replace the whole screen.
type mutationFailedMsg struct {
	err error
}

// Compose the view model and return tea data. refresh rereads both records.
func loadView(sess *session.Session, refresh bool) tea.Cmd {
	return func() tea.Msg {
		var (
			vm  session.ViewModel
			err error
		)
		if refresh {
			vm, err = sess.Refresh(context.Background())
		} else {
			vm, err = sess.View(context.Background())
		}
		if err != nil {
			return err
		}
		return viewMsg{vm: vm}
	}
}

// Run a mutation, then reload the view
func mutate(sess *session.Session, fn func(ctx context.Context, sess *session.Session) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background(), sess); err != nil {
			return mutationFailedMsg{err: err}
		}
		return loadView(sess, false)()
	}
}
