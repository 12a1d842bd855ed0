// ABOUTME: Toast notifier bridging session events into the TUI
// ABOUTME: Buffers notices on a channel the root model drains

package tui

// NoticeLevel classifies a toast notice.
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeWarning
)

// Notice is one toast shown in the console footer.
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}

// Notifier implements the session notifier interface on a buffered channel.
// Notices raised while the channel is full are dropped; the console only
// ever shows the latest ones anyway.
type Notifier struct {
	notices chan Notice
}

// NewNotifier creates a notifier for the console.
func NewNotifier() *Notifier {
	return &Notifier{notices: make(chan Notice, 8)}
}

// Success raises a success notice.
func (n *Notifier) Success(title, message string) {
	n.push(Notice{Level: NoticeSuccess, Title: title, Message: message})
}

// Warning raises a warning notice.
func (n *Notifier) Warning(title, message string) {
	n.push(Notice{Level: NoticeWarning, Title: title, Message: message})
}

func (n *Notifier) push(notice Notice) {
	select {
	case n.notices <- notice:
	default:
	}
}

// Notices exposes the notice stream for the root model.
func (n *Notifier) Notices() <-chan Notice {
	return n.notices
}
