package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Info is the slice of mesh metadata the coupling layer requires from
// a mesh file: point and cell counts plus, when the format carries
// them, the point coordinates needed to build mapping operators.
type Info struct {
	Source   string    `json:"source"`
	NPoints  int       `json:"n_points"`
	NCells   int       `json:"n_cells"`
	LoadedAt time.Time `json:"loaded_at"`

	// Points holds the parsed node coordinates, nil when the reader
	// only extracted counts.
	Points []r3.Vec `json:"-"`
}

// ReadMeshInfo parses a mesh file by extension. Supported formats are
// legacy ASCII VTK (.vtk) and Gmsh MSH (.msh).
func ReadMeshInfo(path string) (Info, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtk":
		return readVTKInfo(path)
	case ".msh":
		return readMSHInfo(path)
	default:
		return Info{}, fmt.Errorf("unsupported mesh format: %s", path)
	}
}

// readVTKInfo scans a legacy ASCII VTK file for the POINTS and CELLS
// headers and reads the point coordinates.
func readVTKInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open vtk mesh: %w", err)
	}
	defer f.Close()

	info := Info{Source: path, LoadedAt: time.Now()}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "POINTS":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return Info{}, fmt.Errorf("bad POINTS header in %s: %w", path, err)
			}
			info.NPoints = n
			pts, err := readVTKPoints(sc, n)
			if err != nil {
				return Info{}, err
			}
			info.Points = pts
		case "CELLS", "POLYGONS":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return Info{}, fmt.Errorf("bad CELLS header in %s: %w", path, err)
			}
			info.NCells = n
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, fmt.Errorf("read vtk mesh: %w", err)
	}
	if info.NPoints == 0 {
		return Info{}, fmt.Errorf("no POINTS section in %s", path)
	}
	return info, nil
}

// readVTKPoints consumes n coordinate triples following a POINTS
// header. Coordinates may be wrapped across lines arbitrarily.
func readVTKPoints(sc *bufio.Scanner, n int) ([]r3.Vec, error) {
	coords := make([]float64, 0, 3*n)
	for len(coords) < 3*n && sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("bad point coordinate %q: %w", tok, err)
			}
			coords = append(coords, v)
			if len(coords) == 3*n {
				break
			}
		}
	}
	if len(coords) < 3*n {
		return nil, fmt.Errorf("POINTS section truncated: got %d of %d coordinates",
			len(coords), 3*n)
	}
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: coords[3*i], Y: coords[3*i+1], Z: coords[3*i+2]}
	}
	return pts, nil
}

// readMSHInfo extracts node and element counts from a Gmsh MSH 2.x
// ASCII file. The count is the first line of the $Nodes and $Elements
// sections.
func readMSHInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open msh mesh: %w", err)
	}
	defer f.Close()

	info := Info{Source: path, LoadedAt: time.Now()}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var section string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "$Nodes" || line == "$Elements":
			section = line
		case strings.HasPrefix(line, "$End"):
			section = ""
		case section != "":
			n, err := strconv.Atoi(line)
			if err != nil {
				// Count line only; entity lines are skipped.
				continue
			}
			if section == "$Nodes" && info.NPoints == 0 {
				info.NPoints = n
			}
			if section == "$Elements" && info.NCells == 0 {
				info.NCells = n
			}
			section = ""
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, fmt.Errorf("read msh mesh: %w", err)
	}
	if info.NPoints == 0 {
		return Info{}, fmt.Errorf("no $Nodes section in %s", path)
	}
	return info, nil
}
