// Package tray provides a system tray interface for the RPS Duel match
// runner: a pause toggle, the live score line, and a shortcut to the
// results page.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle      func(running bool)
	onOpenResults func()
	onQuit        func()
	running       bool
	mu            sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuScore  *systray.MenuItem
}

// New creates a new Tray with the match running by default.
func New() *Tray {
	return &Tray{running: true}
}

// OnToggle sets the callback for the pause/resume menu item.
func (t *Tray) OnToggle(fn func(running bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenResults sets the callback for the results menu item.
func (t *Tray) OnOpenResults(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenResults = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("RPS Duel")
	systray.SetTooltip("Rock Paper Scissors match runner")

	// SetScore can race onReady from the score ticker goroutine, so the
	// menu items are published under the lock.
	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("● Running", "Pause or resume the match")
	systray.AddSeparator()

	t.menuScore = systray.AddMenuItem("Score: 0 - 0", "Current match score")
	t.menuScore.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuResults := systray.AddMenuItem("Open Results...", "Open the results page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit RPS Duel")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuResults.ClickedCh:
				t.handleOpenResults()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.running = !t.running
	running := t.running

	if running {
		t.menuToggle.SetTitle("● Running")
	} else {
		t.menuToggle.SetTitle("○ Paused")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(running)
	}
}

func (t *Tray) handleOpenResults() {
	t.mu.RLock()
	callback := t.onOpenResults
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetScore updates the score line in the menu.
func (t *Tray) SetScore(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuScore != nil {
		t.menuScore.SetTitle("Score: " + text)
	}
}

// IsRunning reports whether the match is currently unpaused.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}
