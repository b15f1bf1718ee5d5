package tui

import (
	"sync"

	"github.com/and161185/blogbox/internal/screens"
	tea "github.com/charmbracelet/bubbletea"
)

// wakeMsg asks the model to re-read navigation state and pending notifications.
type wakeMsg struct{}

// Bridge carries navigation changes and notifications from any goroutine
// into the bubbletea event loop. It never blocks the sender, so controller
// listeners and screen callbacks may fire from inside Update.
type Bridge struct {
	mu    sync.Mutex
	notes []screens.Notification

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// NewBridge returns an open bridge.
func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1), done: make(chan struct{})}
}

// Notify implements screens.Notifier.
func (b *Bridge) Notify(n screens.Notification) {
	b.mu.Lock()
	b.notes = append(b.notes, n)
	b.mu.Unlock()
	b.Poke()
}

// Poke schedules a wake-up. Wake-ups coalesce.
func (b *Bridge) Poke() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Close releases a pending wait.
func (b *Bridge) Close() { b.once.Do(func() { close(b.done) }) }

func (b *Bridge) drain() []screens.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notes
	b.notes = nil
	return out
}

func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.wake:
			return wakeMsg{}
		case <-b.done:
			return nil
		}
	}
}
