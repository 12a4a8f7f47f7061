// Package idempotency mints the keys attached to every mutating request so
// the server can collapse duplicate submissions into a single effect.
package idempotency

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Provider returns a fresh 128-bit key per distinct logical action. Callers
// must hold a key constant across retries of the same failed request and only
// mint a new one when starting a genuinely new action.
type Provider interface {
	NewKey() uuid.UUID
}

type UUIDProvider struct{}

func NewUUIDProvider() Provider {
	return &UUIDProvider{}
}

func (p *UUIDProvider) NewKey() uuid.UUID {
	return uuid.New()
}

// SequenceProvider hands out deterministic keys for tests.
type SequenceProvider struct {
	mu   sync.Mutex
	next uint32
}

func NewSequenceProvider() *SequenceProvider {
	return &SequenceProvider{}
}

func (p *SequenceProvider) NewKey() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", p.next))
}

// Minted reports how many keys have been handed out.
func (p *SequenceProvider) Minted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.next)
}
