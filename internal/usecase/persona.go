package usecase

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
)

// Palette colors for new users
var paletteColors = []string{
	"#FF6B6B", // Coral
	"#4ECDC4", // Turquoise
	"#45B7D1", // Sky
	"#96CEB4", // Sage
	"#FFEEAD", // Cream
	"#D4A5A5", // Rose
}

// PersonaGenerator hands out display names that are unique among active sessions
type PersonaGenerator struct {
	mu       sync.RWMutex
	existing map[string]bool
}

// NewPersonaGenerator creates a new PersonaGenerator
func NewPersonaGenerator() *PersonaGenerator {
	return &PersonaGenerator{
		existing: make(map[string]bool),
	}
}

// Generate creates a user for the connection with a unique name and a palette color
func (pg *PersonaGenerator) Generate(id string) *domain.User {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	var name string
	maxAttempts := 100

	for i := 0; i < maxAttempts; i++ {
		name = fmt.Sprintf("User%d", 1000+rand.Intn(9000))

		if !pg.existing[name] {
			break
		}

		// Add suffix if still duplicate after max attempts
		if i == maxAttempts-1 {
			name = fmt.Sprintf("%s-%d", name, rand.Intn(999))
		}
	}

	pg.existing[name] = true
	color := paletteColors[rand.Intn(len(paletteColors))]

	return domain.NewUser(id, name, color)
}

// Reserve marks a name loaded from storage as taken.
// It reports false when another active session already holds it.
func (pg *PersonaGenerator) Reserve(name string) bool {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.existing[name] {
		return false
	}
	pg.existing[name] = true
	return true
}

// Release removes a persona from the active set
func (pg *PersonaGenerator) Release(name string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	delete(pg.existing, name)
}

// ActiveCount returns the number of active personas
func (pg *PersonaGenerator) ActiveCount() int {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return len(pg.existing)
}
