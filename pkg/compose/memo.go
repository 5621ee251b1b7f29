package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-scannergen/pkg/model"
)

// DefaultMemoSize bounds a Memo created with a non-positive size.
const DefaultMemoSize = 64

// Memo caches Compose results keyed by the structural content of the inputs.
// It never changes output, only skips recomputation for repeated inputs.
type Memo struct {
	mu      sync.Mutex
	size    int
	order   []string
	entries map[string]Result
	hits    int
}

// NewMemo returns a memoizer holding at most size results.
func NewMemo(size int) *Memo {
	if size <= 0 {
		size = DefaultMemoSize
	}
	return &Memo{
		size:    size,
		entries: make(map[string]Result, size),
	}
}

// Compose returns the cached result for equal inputs or computes it.
func (m *Memo) Compose(sections []model.Section, questions []model.Question, answers model.Answers) Result {
	if m == nil {
		return Compose(sections, questions, answers)
	}
	key, ok := memoKey(sections, questions, answers)
	if !ok {
		return Compose(sections, questions, answers)
	}

	m.mu.Lock()
	if cached, found := m.entries[key]; found {
		m.hits++
		m.touch(key)
		m.mu.Unlock()
		return cloneResult(cached)
	}
	m.mu.Unlock()

	result := Compose(sections, questions, answers)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.entries[key]; !found {
		m.entries[key] = cloneResult(result)
		m.order = append(m.order, key)
		if len(m.order) > m.size {
			evicted := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, evicted)
		}
	}
	return result
}

// Hits reports how many calls were served from the cache.
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

// Len reports the number of cached results.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo) touch(key string) {
	for i, existing := range m.order {
		if existing == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			m.order = append(m.order, key)
			return
		}
	}
}

func memoKey(sections []model.Section, questions []model.Question, answers model.Answers) (string, bool) {
	payload, err := json.Marshal(struct {
		Sections  []model.Section  `json:"s"`
		Questions []model.Question `json:"q"`
		Answers   model.Answers    `json:"a"`
	}{sections, questions, answers})
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), true
}

func cloneResult(r Result) Result {
	r.Included = append([]string(nil), r.Included...)
	return r
}
