// Package meetlink generates opaque meeting links for scheduled sessions.
package meetlink

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL prefixes generated links.
const DefaultBaseURL = "https://meet.google.com/"

const letters = "abcdefghijklmnopqrstuvwxyz"

// Generator produces links shaped like <base>xxx-xxx-xxx from random
// lowercase letters.
type Generator struct {
	base string

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator with its own rand source. An empty base falls
// back to DefaultBaseURL.
func New(base string) *Generator {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Generator{
		base: base,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeeded returns a Generator with a fixed seed, for tests.
func NewSeeded(base string, seed int64) *Generator {
	g := New(base)
	g.rnd = rand.New(rand.NewSource(seed))
	return g
}

// Link generates one meeting link.
func (g *Generator) Link() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out strings.Builder
	out.WriteString(g.base)
	for group := 0; group < 3; group++ {
		if group > 0 {
			out.WriteByte('-')
		}
		for i := 0; i < 3; i++ {
			out.WriteByte(letters[g.rnd.Intn(len(letters))])
		}
	}
	return out.String()
}
