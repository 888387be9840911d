package coupling

import (
	"time"

	"github.com/deepexcav/femadapt/mesh"
)

// FEMMeshInfo describes the FEM discretization: where it came from and
// how many points and cells it carries. Replaced wholesale on reload,
// never partially mutated.
type FEMMeshInfo struct {
	Source   string    `json:"source"`
	NPoints  int       `json:"n_points"`
	NCells   int       `json:"n_cells"`
	LoadedAt time.Time `json:"loaded_at"`
}

// PINNDomainInfo describes the PINN sampling grid: an axis-aligned box
// sampled on a regular resolution[0] x resolution[1] x resolution[2]
// grid. Replaced wholesale on setup.
type PINNDomainInfo struct {
	Bounds     map[string][2]float64 `json:"bounds"`
	Resolution [3]int                `json:"resolution"`
	NPoints    int                   `json:"n_points"`
	SetupAt    time.Time             `json:"setup_at"`
}

// LoadFEMMesh reads the mesh description at path, keeping only the
// point and cell counts (plus coordinates when the format carries
// them, for mapping construction). Unsupported formats and I/O errors
// are logged and reported as false; nothing is raised. The mapping
// operators are invalidated.
func (c *Interface) LoadFEMMesh(path string) bool {
	info, err := mesh.ReadMeshInfo(path)
	if err != nil {
		c.log.Error("failed to load FEM mesh", "path", path, "error", err)
		return false
	}

	c.status.SetFEMMeshInfo(&FEMMeshInfo{
		Source:   info.Source,
		NPoints:  info.NPoints,
		NCells:   info.NCells,
		LoadedAt: info.LoadedAt,
	})
	if len(info.Points) > 0 {
		c.femPoints = info.Points
	}
	c.mapping = nil

	c.log.Info("FEM mesh loaded",
		"path", path, "points", info.NPoints, "cells", info.NCells)
	return true
}

// SetupPINNDomain defines the PINN sampling box. bounds must contain
// the keys "x", "y" and "z"; resolution is either one value applied to
// all axes or one per axis. The mapping operators are invalidated.
func (c *Interface) SetupPINNDomain(bounds map[string][2]float64, resolution []int) bool {
	for _, dim := range []string{"x", "y", "z"} {
		if _, ok := bounds[dim]; !ok {
			c.log.Error("missing axis bounds for PINN domain", "axis", dim)
			return false
		}
	}

	var res [3]int
	switch len(resolution) {
	case 1:
		res = [3]int{resolution[0], resolution[0], resolution[0]}
	case 3:
		res = [3]int{resolution[0], resolution[1], resolution[2]}
	default:
		c.log.Error("resolution must have 1 or 3 entries", "got", len(resolution))
		return false
	}
	for _, n := range res {
		if n < 1 {
			c.log.Error("resolution entries must be >= 1", "resolution", res)
			return false
		}
	}

	c.status.SetPINNDomainInfo(&PINNDomainInfo{
		Bounds:     bounds,
		Resolution: res,
		NPoints:    res[0] * res[1] * res[2],
		SetupAt:    time.Now(),
	})
	c.mapping = nil

	c.log.Info("PINN domain configured",
		"x", bounds["x"], "y", bounds["y"], "z", bounds["z"],
		"resolution", res, "points", res[0]*res[1]*res[2])
	return true
}
