// Package announce gives the session a narrow voice-feedback
// collaborator. The session speaks countdown words and lock events
// through it; implementations decide what "speaking" means.
package announce

import "log"

// Announcer receives short spoken-word feedback lines.
type Announcer interface {
	Say(text string)
}

// Logger prints announcements to the process log. It stands in for a
// text-to-speech engine.
type Logger struct{}

func (Logger) Say(text string) {
	log.Printf("[voice] %s", text)
}

// Silent discards announcements.
type Silent struct{}

func (Silent) Say(string) {}
