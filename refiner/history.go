package refiner

import (
	"encoding/json"
	"fmt"
	"os"
)

// Stats aggregates the refinement history.
type Stats struct {
	Iterations              int     `json:"iterations"`
	Strategy                string  `json:"strategy"`
	Criterion               string  `json:"criterion"`
	InitialElements         int     `json:"initial_elements"`
	InitialNodes            int     `json:"initial_nodes"`
	FinalElements           int     `json:"final_elements"`
	FinalNodes              int     `json:"final_nodes"`
	ElementGrowth           float64 `json:"element_growth"`
	NodeGrowth              float64 `json:"node_growth"`
	AvgElementsPerIteration float64 `json:"avg_element_increase_per_iteration"`
	AvgNodesPerIteration    float64 `json:"avg_node_increase_per_iteration"`
}

// Statistics summarizes the growth recorded in the refinement history.
func (r *Refiner) Statistics() Stats {
	s := Stats{
		Iterations: r.iteration,
		Strategy:   r.strategy.String(),
		Criterion:  r.criterion.String(),
	}
	if len(r.history) == 0 {
		return s
	}
	first, last := r.history[0], r.history[len(r.history)-1]
	s.InitialElements = first.OldElements
	s.InitialNodes = first.OldNodes
	s.FinalElements = last.NewElements
	s.FinalNodes = last.NewNodes
	if first.OldElements > 0 {
		s.ElementGrowth = float64(last.NewElements) / float64(first.OldElements)
	}
	if first.OldNodes > 0 {
		s.NodeGrowth = float64(last.NewNodes) / float64(first.OldNodes)
	}
	var de, dn int
	for _, rec := range r.history {
		de += rec.ElementIncrease
		dn += rec.NodeIncrease
	}
	s.AvgElementsPerIteration = float64(de) / float64(len(r.history))
	s.AvgNodesPerIteration = float64(dn) / float64(len(r.history))
	return s
}

// SaveHistory writes the refinement records to path as JSON.
func (r *Refiner) SaveHistory(path string) error {
	data, err := json.MarshalIndent(r.history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal refinement history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write refinement history: %w", err)
	}
	r.log.Info("refinement history saved", "path", path, "records", len(r.history))
	return nil
}

// LoadHistory replaces the in-memory history from path and resumes the
// iteration counter after the highest recorded iteration.
func (r *Refiner) LoadHistory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read refinement history: %w", err)
	}
	var history []Record
	if err := json.Unmarshal(data, &history); err != nil {
		return fmt.Errorf("parse refinement history: %w", err)
	}
	r.history = history
	r.iteration = 0
	for _, rec := range history {
		if rec.Iteration+1 > r.iteration {
			r.iteration = rec.Iteration + 1
		}
	}
	r.log.Info("refinement history loaded", "path", path, "records", len(history))
	return nil
}
