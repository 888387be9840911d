package coupling

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// ExchangeRecord logs one completed exchange.
type ExchangeRecord struct {
	Time      time.Time `json:"time"`
	Direction string    `json:"direction"`
	Variables []string  `json:"variables,omitempty"`
	FEMKeys   []string  `json:"fem_keys,omitempty"`
	PINNKeys  []string  `json:"pinn_keys,omitempty"`
}

// Status is the explicit, owned observable state of one coupling
// interface: update timestamps, descriptors, exchange history and the
// latest metrics and suggestions. It is safe for concurrent use by
// the exchange worker and its producers.
type Status struct {
	mu sync.Mutex

	projectID       int
	lastFEMUpdate   time.Time
	lastPINNUpdate  time.Time
	femMeshInfo     *FEMMeshInfo
	pinnDomainInfo  *PINNDomainInfo
	exchangeHistory []ExchangeRecord
	realtimeEnabled bool
	realtimeStatus  string
	errorMetrics    map[string]ErrorMetrics
	suggestions     []Suggestion
}

// NewStatus creates the status store for a project.
func NewStatus(projectID int, realtimeEnabled bool) *Status {
	return &Status{
		projectID:       projectID,
		realtimeEnabled: realtimeEnabled,
		realtimeStatus:  "stopped",
	}
}

// SetFEMMeshInfo replaces the FEM descriptor wholesale.
func (s *Status) SetFEMMeshInfo(info *FEMMeshInfo) {
	s.mu.Lock()
	s.femMeshInfo = info
	s.mu.Unlock()
}

// FEMMeshInfo returns the current FEM descriptor, nil if unset.
func (s *Status) FEMMeshInfo() *FEMMeshInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.femMeshInfo
}

// SetPINNDomainInfo replaces the PINN descriptor wholesale.
func (s *Status) SetPINNDomainInfo(info *PINNDomainInfo) {
	s.mu.Lock()
	s.pinnDomainInfo = info
	s.mu.Unlock()
}

// PINNDomainInfo returns the current PINN descriptor, nil if unset.
func (s *Status) PINNDomainInfo() *PINNDomainInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinnDomainInfo
}

// RecordExchange appends a record and stamps the direction's update
// time.
func (s *Status) RecordExchange(rec ExchangeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchangeHistory = append(s.exchangeHistory, rec)
	switch rec.Direction {
	case "fem_to_pinn":
		s.lastFEMUpdate = rec.Time
	case "pinn_to_fem":
		s.lastPINNUpdate = rec.Time
	}
}

// History returns a copy of the exchange records.
func (s *Status) History() []ExchangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExchangeRecord, len(s.exchangeHistory))
	copy(out, s.exchangeHistory)
	return out
}

// SetErrorMetrics stores the latest per-variable metrics snapshot.
func (s *Status) SetErrorMetrics(m map[string]ErrorMetrics) {
	s.mu.Lock()
	s.errorMetrics = m
	s.mu.Unlock()
}

// ErrorMetrics returns the latest metrics snapshot.
func (s *Status) ErrorMetrics() map[string]ErrorMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMetrics
}

// SetSuggestions stores the latest suggestion list.
func (s *Status) SetSuggestions(sug []Suggestion) {
	s.mu.Lock()
	s.suggestions = sug
	s.mu.Unlock()
}

// Suggestions returns a copy of the latest suggestion list. Handing a
// copy keeps the refiner/coupling boundary free of shared mutable
// state.
func (s *Status) Suggestions() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Suggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// SetRealtimeStatus updates the worker lifecycle marker.
func (s *Status) SetRealtimeStatus(state string) {
	s.mu.Lock()
	s.realtimeStatus = state
	s.mu.Unlock()
}

// RealtimeStatus returns the worker lifecycle marker.
func (s *Status) RealtimeStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realtimeStatus
}

// checkpoint is the durable JSON form of a Status.
type checkpoint struct {
	ProjectID       int              `json:"project_id"`
	LastFEMUpdate   time.Time        `json:"last_fem_update"`
	LastPINNUpdate  time.Time        `json:"last_pinn_update"`
	FEMMeshInfo     *FEMMeshInfo     `json:"fem_mesh_info"`
	PINNDomainInfo  *PINNDomainInfo  `json:"pinn_domain_info"`
	ExchangeHistory []ExchangeRecord `json:"exchange_history"`
	Timestamp       time.Time        `json:"timestamp"`
}

// Save serializes the descriptors and the most recent historyLimit
// exchange records to path.
func (s *Status) Save(path string, historyLimit int) error {
	s.mu.Lock()
	history := s.exchangeHistory
	if historyLimit > 0 && len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	cp := checkpoint{
		ProjectID:       s.projectID,
		LastFEMUpdate:   s.lastFEMUpdate,
		LastPINNUpdate:  s.lastPINNUpdate,
		FEMMeshInfo:     s.femMeshInfo,
		PINNDomainInfo:  s.pinnDomainInfo,
		ExchangeHistory: history,
		Timestamp:       time.Now(),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write status checkpoint: %w", err)
	}
	return nil
}

// Load restores descriptors and merges the checkpoint's exchange
// history into the in-memory history.
func (s *Status) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read status checkpoint: %w", err)
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("parse status checkpoint: %w", err)
	}

	s.mu.Lock()
	s.lastFEMUpdate = cp.LastFEMUpdate
	s.lastPINNUpdate = cp.LastPINNUpdate
	s.femMeshInfo = cp.FEMMeshInfo
	s.pinnDomainInfo = cp.PINNDomainInfo
	s.exchangeHistory = append(s.exchangeHistory, cp.ExchangeHistory...)
	s.mu.Unlock()
	return nil
}

// SaveStatus checkpoints the interface status to path, or to the
// default location under the data directory when path is empty.
// Failures are logged and reported as false.
func (c *Interface) SaveStatus(path string) bool {
	if path == "" {
		path = c.defaultStatusPath()
	}
	if err := c.status.Save(path, c.cfg.HistoryLimit); err != nil {
		c.log.Error("failed to save status", "path", path, "error", err)
		return false
	}
	c.log.Info("status saved", "path", path)
	return true
}

// LoadStatus restores a checkpoint written by SaveStatus. The mapping
// operators are invalidated since the descriptors may have changed.
func (c *Interface) LoadStatus(path string) bool {
	if path == "" {
		path = c.defaultStatusPath()
	}
	if err := c.status.Load(path); err != nil {
		c.log.Error("failed to load status", "path", path, "error", err)
		return false
	}
	c.mapping = nil
	c.log.Info("status loaded", "path", path)
	return true
}

func (c *Interface) defaultStatusPath() string {
	return fmt.Sprintf("%s/coupling_status.json", c.dataDir)
}
