package refiner

import "sort"

// sortedByError returns the element ids of errs ordered by descending
// error, ties broken by ascending id so selection is deterministic.
func sortedByError(errs ErrorMap) []int {
	ids := make([]int, 0, len(errs))
	for eid := range errs {
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool {
		if errs[ids[i]] != errs[ids[j]] {
			return errs[ids[i]] > errs[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// SelectElements chooses which elements to refine according to the
// configured strategy. The returned ids are ordered by descending
// error so downstream budget shrinkage drops the least critical
// elements first. An empty error map yields an empty selection.
func (r *Refiner) SelectElements(errs ErrorMap) []int {
	if len(errs) == 0 {
		r.log.Warn("error map empty, nothing to select")
		return nil
	}

	switch r.strategy {
	case Uniform:
		return sortedByError(errs)
	case Adaptive:
		return r.selectAdaptive(errs)
	case Targeted:
		return r.selectTargeted(errs)
	case Hierarchical:
		return r.selectHierarchical(errs)
	case PINNTargeted:
		return r.selectPINNTargeted(errs)
	default:
		r.log.Warn("unknown strategy, selecting nothing", "strategy", r.strategy)
		return nil
	}
}

// selectAdaptive takes all elements above the error threshold. When
// fewer than 5% qualify it instead takes the top RefinementRatio
// fraction by error, so refinement always makes progress.
func (r *Refiner) selectAdaptive(errs ErrorMap) []int {
	ordered := sortedByError(errs)
	selected := make([]int, 0, len(ordered))
	for _, eid := range ordered {
		if errs[eid] > r.cfg.ErrorThreshold {
			selected = append(selected, eid)
		}
	}

	if float64(len(selected)) < float64(len(errs))*0.05 {
		n := int(float64(len(errs)) * r.cfg.RefinementRatio)
		if n < 1 {
			n = 1
		}
		if n > len(ordered) {
			n = len(ordered)
		}
		selected = ordered[:n]
	}

	r.log.Info("adaptive selection complete",
		"selected", len(selected), "total", len(errs))
	return selected
}

// selectTargeted takes elements whose region tag appears in the
// configured target regions. Without configured regions it degrades
// to adaptive selection.
func (r *Refiner) selectTargeted(errs ErrorMap) []int {
	if len(r.cfg.TargetedRegions) == 0 {
		r.log.Warn("no targeted regions configured, falling back to adaptive selection")
		return r.selectAdaptive(errs)
	}
	regions := make(map[int]bool, len(r.cfg.TargetedRegions))
	for _, tr := range r.cfg.TargetedRegions {
		regions[tr.ID] = true
	}

	var selected []int
	for _, eid := range sortedByError(errs) {
		if eid < r.mesh.NumElements() && regions[r.mesh.Elements[eid].Region] {
			selected = append(selected, eid)
		}
	}
	r.log.Info("targeted selection complete",
		"selected", len(selected), "regions", len(regions))
	return selected
}

// selectHierarchical partitions the error range into three equal-width
// bands and samples each band at a ratio that decreases for lower
// error bands. Sampling is deterministic: the top of each band by
// error.
func (r *Refiner) selectHierarchical(errs ErrorMap) []int {
	const levels = 3
	step := 1.0 / levels

	var selected []int
	for level := 0; level < levels; level++ {
		lower := 1.0 - float64(level+1)*step
		upper := 1.0 - float64(level)*step

		var band []int
		for _, eid := range sortedByError(errs) {
			if e := errs[eid]; e > lower && e <= upper {
				band = append(band, eid)
			}
		}
		if len(band) == 0 {
			continue
		}

		ratio := r.cfg.RefinementRatio * float64(levels-level) / levels
		if ratio < 1.0 {
			n := int(float64(len(band)) * ratio)
			if n < 1 {
				n = 1
			}
			band = band[:n]
		}
		selected = append(selected, band...)
	}

	r.log.Info("hierarchical selection complete", "selected", len(selected))
	return selected
}

// selectPINNTargeted prefers elements named by the latest refinement
// suggestions, keeping those with error above half the threshold. When
// that set is below 3% of all elements it backfills with the highest
// error remaining elements up to the RefinementRatio fraction. Without
// suggestions it degrades to adaptive selection.
func (r *Refiner) selectPINNTargeted(errs ErrorMap) []int {
	var suggested []int
	for _, s := range r.suggestions {
		suggested = append(suggested, s.Elements...)
	}
	if len(suggested) == 0 {
		r.log.Warn("no PINN suggestions available, falling back to adaptive selection")
		return r.selectAdaptive(errs)
	}

	half := r.cfg.ErrorThreshold * 0.5
	inSelected := make(map[int]bool)
	var selected []int
	for _, eid := range suggested {
		if e, ok := errs[eid]; ok && e > half && !inSelected[eid] {
			selected = append(selected, eid)
			inSelected[eid] = true
		}
	}

	if float64(len(selected)) < float64(len(errs))*0.03 {
		want := int(float64(len(errs)) * r.cfg.RefinementRatio)
		for _, eid := range sortedByError(errs) {
			if len(selected) >= want {
				break
			}
			if !inSelected[eid] {
				selected = append(selected, eid)
				inSelected[eid] = true
			}
		}
	}

	r.log.Info("PINN-targeted selection complete",
		"selected", len(selected), "suggested", len(suggested), "total", len(errs))
	return selected
}
