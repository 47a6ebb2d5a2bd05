package export

import (
	"context"
	"fmt"
	"sync"

	"payoff/internal/engine"
)

// MemoryWriter keeps exported grids in memory. It stands in for the
// spreadsheet when no credentials are configured.
type MemoryWriter struct {
	mu     sync.Mutex
	sheets map[string][][]string
	order  []string
}

var _ ScheduleWriter = (*MemoryWriter)(nil)

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{sheets: make(map[string][][]string)}
}

func (m *MemoryWriter) WriteSchedule(_ context.Context, title string, res *engine.Result) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := sheetTitle("mem", title)
	if _, exists := m.sheets[name]; exists {
		name = fmt.Sprintf("%s (%d)", name, len(m.order)+1)
	}
	m.sheets[name] = sheetGrid(res)
	m.order = append(m.order, name)
	return "mem:" + name, nil
}

// Sheet returns a copy of the grid stored under name.
func (m *MemoryWriter) Sheet(name string) ([][]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.sheets[name]
	if !ok {
		return nil, false
	}
	return append([][]string(nil), g...), true
}

// Names lists exported sheets in write order.
func (m *MemoryWriter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
