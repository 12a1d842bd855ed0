// ABOUTME: User-facing notice sink for session events
// ABOUTME: Implemented by the CLI printer and the TUI status line

package session

// Notifier receives user-facing notices from the session manager: the
// welcome message after login and the session-expired warning.
type Notifier interface {
	Success(title, message string)
	Warning(title, message string)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

func (NopNotifier) Success(title, message string) {}
func (NopNotifier) Warning(title, message string) {}
