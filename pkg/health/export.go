package health

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/draftops/refinery/pkg/domain"
)

// HistoryExport is the plain-structure form of the monitor's state. Importing
// an export reproduces identical GetSnapshots results.
type HistoryExport struct {
	Documents map[string][]domain.HealthSnapshot `yaml:"documents" json:"documents"`
}

// Export copies the full snapshot history into a plain structure
func (m *Monitor) Export() HistoryExport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	export := HistoryExport{
		Documents: make(map[string][]domain.HealthSnapshot, len(m.history)),
	}
	for path, snapshots := range m.history {
		copied := make([]domain.HealthSnapshot, len(snapshots))
		copy(copied, snapshots)
		export.Documents[path] = copied
	}
	return export
}

// Import replaces the monitor's history with the exported state
func (m *Monitor) Import(export HistoryExport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = make(map[string][]domain.HealthSnapshot, len(export.Documents))
	for path, snapshots := range export.Documents {
		copied := make([]domain.HealthSnapshot, len(snapshots))
		copy(copied, snapshots)
		m.history[path] = copied
	}
}

// ImportHistory replaces one document's history, preserving snapshot order
func (m *Monitor) ImportHistory(docPath string, snapshots []domain.HealthSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]domain.HealthSnapshot, len(snapshots))
	copy(copied, snapshots)
	m.history[docPath] = copied
}

// SaveHistory writes the exported history to a YAML file
func (m *Monitor) SaveHistory(path string) error {
	data, err := yaml.Marshal(m.Export())
	if err != nil {
		return fmt.Errorf("failed to marshal health history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write health history: %w", err)
	}
	return nil
}

// LoadHistory reads a YAML history file and replaces the monitor's state
func (m *Monitor) LoadHistory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read health history: %w", err)
	}

	export := HistoryExport{}
	if err := yaml.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to parse health history: %w", err)
	}

	m.Import(export)
	return nil
}
