// Package refiner implements the adaptive mesh refinement engine: per
// element error estimation, selection strategies, quad subdivision,
// Laplacian smoothing and the estimate-select-refine-smooth-evaluate
// cycle driver.
package refiner

import "fmt"

// Criterion selects the error estimation method.
type Criterion uint8

const (
	EnergyError Criterion = iota
	GradientJump
	DisplacementJump
	StressJump
	PINNGuided
	Custom
)

func (c Criterion) String() string {
	switch c {
	case EnergyError:
		return "ENERGY_ERROR"
	case GradientJump:
		return "GRADIENT_JUMP"
	case DisplacementJump:
		return "DISPLACEMENT_JUMP"
	case StressJump:
		return "STRESS_JUMP"
	case PINNGuided:
		return "PINN_GUIDED"
	case Custom:
		return "CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// ParseCriterion maps a configuration string to a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	switch s {
	case "ENERGY_ERROR", "energy_error":
		return EnergyError, nil
	case "GRADIENT_JUMP", "gradient_jump":
		return GradientJump, nil
	case "DISPLACEMENT_JUMP", "displacement_jump":
		return DisplacementJump, nil
	case "STRESS_JUMP", "stress_jump":
		return StressJump, nil
	case "PINN_GUIDED", "pinn_guided":
		return PINNGuided, nil
	case "CUSTOM", "custom":
		return Custom, nil
	}
	return EnergyError, fmt.Errorf("unknown refinement criterion %q", s)
}

// Strategy selects the element selection policy.
type Strategy uint8

const (
	Uniform Strategy = iota
	Adaptive
	Targeted
	Hierarchical
	PINNTargeted
)

func (s Strategy) String() string {
	switch s {
	case Uniform:
		return "UNIFORM"
	case Adaptive:
		return "ADAPTIVE"
	case Targeted:
		return "TARGETED"
	case Hierarchical:
		return "HIERARCHICAL"
	case PINNTargeted:
		return "PINN_TARGETED"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy maps a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "UNIFORM", "uniform":
		return Uniform, nil
	case "ADAPTIVE", "adaptive":
		return Adaptive, nil
	case "TARGETED", "targeted":
		return Targeted, nil
	case "HIERARCHICAL", "hierarchical":
		return Hierarchical, nil
	case "PINN_TARGETED", "pinn_targeted":
		return PINNTargeted, nil
	}
	return Adaptive, fmt.Errorf("unknown refinement strategy %q", s)
}

// IntegrationMode controls how PINN error estimates are combined with
// the locally computed FEM error under the PINN_GUIDED criterion.
type IntegrationMode uint8

const (
	// ModeHybrid takes the per-element maximum of scaled PINN error
	// and FEM error when confidence is sufficient, a confidence
	// attenuated PINN value otherwise. Default.
	ModeHybrid IntegrationMode = iota

	// ModeWeighted blends PINN and FEM error with a confidence scaled
	// convex weight.
	ModeWeighted

	// ModeOverride uses the PINN error outright where confidence meets
	// the minimum, the FEM error elsewhere.
	ModeOverride
)

func (m IntegrationMode) String() string {
	switch m {
	case ModeHybrid:
		return "hybrid"
	case ModeWeighted:
		return "weighted"
	case ModeOverride:
		return "override"
	default:
		return "unknown"
	}
}

// ParseIntegrationMode maps a configuration string to an
// IntegrationMode.
func ParseIntegrationMode(s string) (IntegrationMode, error) {
	switch s {
	case "hybrid", "":
		return ModeHybrid, nil
	case "weighted":
		return ModeWeighted, nil
	case "override":
		return ModeOverride, nil
	}
	return ModeHybrid, fmt.Errorf("unknown integration mode %q", s)
}

// TargetedRegion names a mesh region to refine and the refinement
// level requested for it.
type TargetedRegion struct {
	ID    int `mapstructure:"id" json:"id"`
	Level int `mapstructure:"refinement_level" json:"refinement_level"`
}

// PINNGuidedConfig tunes PINN participation in error estimation.
type PINNGuidedConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Weight        float64 `mapstructure:"weight"`
	ErrorScale    float64 `mapstructure:"error_scale"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	Mode          IntegrationMode
}

// Config is the refinement session configuration. Field names mirror
// the recognized option keys of the configuration surface.
type Config struct {
	MaxIterations       int              `mapstructure:"max_refinement_iterations"`
	ErrorThreshold      float64          `mapstructure:"error_threshold"`
	MaxElements         int              `mapstructure:"max_elements"`
	MinElementSize      float64          `mapstructure:"min_element_size"`
	RefinementRatio     float64          `mapstructure:"refinement_ratio"`
	QualityThreshold    float64          `mapstructure:"quality_threshold"`
	SmoothingIterations int              `mapstructure:"smoothing_iterations"`
	TargetedRegions     []TargetedRegion `mapstructure:"targeted_regions"`
	PINNGuided          PINNGuidedConfig `mapstructure:"pinn_guided"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:       5,
		ErrorThreshold:      0.05,
		MaxElements:         1_000_000,
		MinElementSize:      0.1,
		RefinementRatio:     0.5,
		QualityThreshold:    0.3,
		SmoothingIterations: 3,
		PINNGuided: PINNGuidedConfig{
			Enabled:       false,
			Weight:        0.7,
			ErrorScale:    1.0,
			MinConfidence: 0.5,
			Mode:          ModeHybrid,
		},
	}
}
