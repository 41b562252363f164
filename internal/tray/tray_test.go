package tray

import "testing"

func TestNew_DefaultsToRunning(t *testing.T) {
	tr := New()
	if !tr.IsRunning() {
		t.Error("expected a new tray to report running")
	}
}

func TestSetScore_BeforeReady(t *testing.T) {
	tr := New()
	// The score ticker can fire before the menu exists; this must not
	// panic.
	tr.SetScore("blue 1 - 0 red")
}

func TestCallbackRegistration(t *testing.T) {
	tr := New()

	var toggled, opened, quit bool
	tr.OnToggle(func(bool) { toggled = true })
	tr.OnOpenResults(func() { opened = true })
	tr.OnQuit(func() { quit = true })

	if tr.onToggle == nil || tr.onOpenResults == nil || tr.onQuit == nil {
		t.Fatal("expected all callbacks to be registered")
	}
	tr.onToggle(false)
	tr.onOpenResults()
	tr.onQuit()
	if !toggled || !opened || !quit {
		t.Error("expected registered callbacks to be invoked")
	}
}
