package coupling

import "time"

// ExchangeParameters deep-merges FEM and PINN parameter sets. PINN
// values override FEM values for duplicate keys; nested maps are
// merged recursively rather than replaced. Neither input is mutated.
func (c *Interface) ExchangeParameters(femParams, pinnParams map[string]any) map[string]any {
	merged := mergeMaps(femParams, pinnParams)

	c.status.RecordExchange(ExchangeRecord{
		Time:      time.Now(),
		Direction: "parameter_exchange",
		FEMKeys:   keysOf(femParams),
		PINNKeys:  keysOf(pinnParams),
	})
	c.log.Info("parameters exchanged",
		"fem_keys", len(femParams), "pinn_keys", len(pinnParams))
	return merged
}

func mergeMaps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if vm, ok := v.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = mergeMaps(bm, vm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
