package coupling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/deepexcav/femadapt/field"
)

// SaveExchangeData persists a field map as a JSON artifact in the
// exchange directory. dataType tags the artifact ("fem", "pinn",
// "processed"); prefix overrides the generated file name. Returns the
// written path, empty on failure (logged).
func (c *Interface) SaveExchangeData(data map[string]field.Field, dataType, prefix string) string {
	if prefix == "" {
		prefix = fmt.Sprintf("%s_%s", dataType, uuid.New().String())
	}
	path := filepath.Join(c.dataDir, prefix+".json")

	blob, err := json.Marshal(data)
	if err != nil {
		c.log.Error("failed to marshal exchange data", "type", dataType, "error", err)
		return ""
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		c.log.Error("failed to save exchange data", "path", path, "error", err)
		return ""
	}
	c.log.Info("exchange data saved", "type", dataType, "path", path, "variables", len(data))
	return path
}

// LoadExchangeData reloads an artifact written by SaveExchangeData.
// Failures are logged and an empty map returned.
func (c *Interface) LoadExchangeData(path string) map[string]field.Field {
	blob, err := os.ReadFile(path)
	if err != nil {
		c.log.Error("failed to read exchange data", "path", path, "error", err)
		return map[string]field.Field{}
	}
	var data map[string]field.Field
	if err := json.Unmarshal(blob, &data); err != nil {
		c.log.Error("failed to parse exchange data", "path", path, "error", err)
		return map[string]field.Field{}
	}
	c.log.Info("exchange data loaded", "path", path, "variables", len(data))
	return data
}
