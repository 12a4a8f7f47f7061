//go:build unit

package commands_test

import (
	"log/slog"
	"testing"

	"eventix-client/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
)

func TestGuardUnarmedNeverPrompts(t *testing.T) {
	prompter := &fakePrompter{answer: false}
	guard := commands.NewNavigationGuard(prompter, slog.Default())

	assert.True(t, guard.AllowExit("leave?"))
	assert.Equal(t, 0, prompter.calls)
}

func TestGuardArmedFollowsPrompter(t *testing.T) {
	prompter := &fakePrompter{answer: false}
	guard := commands.NewNavigationGuard(prompter, slog.Default())
	guard.Arm()

	assert.False(t, guard.AllowExit("leave?"))

	prompter.answer = true
	assert.True(t, guard.AllowExit("leave?"))
	assert.Equal(t, 2, prompter.calls)
}

func TestGuardDisarmStopsPrompting(t *testing.T) {
	prompter := &fakePrompter{answer: false}
	guard := commands.NewNavigationGuard(prompter, slog.Default())
	guard.Arm()
	guard.Disarm()

	assert.True(t, guard.AllowExit("leave?"))
	assert.Equal(t, 0, prompter.calls)
}

func TestGuardWithoutPrompterDeniesExit(t *testing.T) {
	guard := commands.NewNavigationGuard(nil, slog.Default())
	guard.Arm()

	assert.False(t, guard.AllowExit("leave?"))

	guard.SetPrompter(&fakePrompter{answer: true})
	assert.True(t, guard.AllowExit("leave?"))
}

func TestGuardArmIsIdempotent(t *testing.T) {
	guard := commands.NewNavigationGuard(&fakePrompter{answer: true}, slog.Default())
	guard.Arm()
	guard.Arm()
	assert.True(t, guard.Armed())

	guard.Disarm()
	guard.Disarm()
	assert.False(t, guard.Armed())
}
