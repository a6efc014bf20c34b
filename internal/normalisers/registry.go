package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers match an extraction method, the highest priority one is used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.Normaliser, 0),
	}
}

// Register registers a normaliser.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the best-matching normaliser for an extraction method.
// Returns nil if no normaliser is registered for the method.
func (r *Registry) Get(method string) driven.Normaliser {
	matches := r.GetAll(method)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll retrieves all normalisers that match a method, sorted by priority (highest first).
func (r *Registry) GetAll(method string) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Normaliser
	for _, n := range r.normalisers {
		if matchesMethod(n.Methods(), method) {
			matches = append(matches, n)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

// List returns all registered methods.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, m := range n.Methods() {
			set[m] = struct{}{}
		}
	}

	methods := make([]string, 0, len(set))
	for m := range set {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Normalise runs the best-matching normaliser, or returns content unchanged.
func (r *Registry) Normalise(method, content string) string {
	n := r.Get(method)
	if n == nil {
		return content
	}
	return n.Normalise(content)
}

// matchesMethod checks if any of the supported entries match the method.
// "*" matches everything, "x*" matches by prefix and "*x*" by substring.
func matchesMethod(supported []string, method string) bool {
	method = strings.ToLower(strings.TrimSpace(method))

	for _, s := range supported {
		s = strings.ToLower(strings.TrimSpace(s))

		switch {
		case s == "*":
			return true
		case s == method:
			return true
		case len(s) > 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*"):
			if strings.Contains(method, s[1:len(s)-1]) {
				return true
			}
		case strings.HasSuffix(s, "*"):
			if strings.HasPrefix(method, s[:len(s)-1]) {
				return true
			}
		}
	}
	return false
}

// DefaultRegistry creates a registry with the built-in normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextNormaliser{})
	r.Register(&GoogleDocsNormaliser{})
	return r
}

// PlaintextNormaliser is the fallback for every extraction method.
type PlaintextNormaliser struct{}

func (n *PlaintextNormaliser) Normalise(content string) string {
	return collapseBlankLines(content)
}

func (n *PlaintextNormaliser) Methods() []string {
	return []string{"*"}
}

func (n *PlaintextNormaliser) Priority() int {
	return 1
}

// collapseBlankLines normalizes line endings and keeps at most one blank line in a row
func collapseBlankLines(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(content)
}
