package commands

import (
	"log/slog"
	"sync"
)

// Prompter asks the user to confirm an action. The console front end backs
// it with a y/n prompt; a browser shell would back it with window.confirm.
type Prompter interface {
	Confirm(message string) bool
}

// NavigationGuard is the safety net against silently abandoning a held seat
// lock. It is armed exactly while the attempt is in a lock-holding phase and
// blocks navigation until the user explicitly agrees to give the lock up.
// Best effort only: the server's own lock expiry is the authoritative
// backstop against orphaned holds.
type NavigationGuard struct {
	mu       sync.Mutex
	armed    bool
	prompter Prompter
	logger   *slog.Logger
}

func NewNavigationGuard(prompter Prompter, logger *slog.Logger) *NavigationGuard {
	return &NavigationGuard{
		prompter: prompter,
		logger:   logger,
	}
}

// SetPrompter rebinds the confirmation source. The console front end is
// constructed after the guard, so wiring installs it here.
func (g *NavigationGuard) SetPrompter(p Prompter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompter = p
}

func (g *NavigationGuard) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		g.armed = true
		g.logger.Debug("navigation guard armed")
	}
}

func (g *NavigationGuard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armed {
		g.armed = false
		g.logger.Debug("navigation guard disarmed")
	}
}

func (g *NavigationGuard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// AllowExit reports whether navigation may proceed. Unarmed guards never
// prompt; armed guards require explicit confirmation.
func (g *NavigationGuard) AllowExit(message string) bool {
	g.mu.Lock()
	armed := g.armed
	prompter := g.prompter
	g.mu.Unlock()

	if !armed {
		return true
	}
	if prompter == nil {
		return false
	}
	return prompter.Confirm(message)
}
