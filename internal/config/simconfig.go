// Package config loads and validates simulation parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
// This is the single source of truth for all default parameter values.
const DefaultConfigPath = "config/sim.defaults.json"

// SimConfig is the full set of scalar parameters for one simulation run.
// Fields are pointers so that partial JSON configs are safe: anything
// omitted falls back to the defaults supplied by the Get* accessors. The
// config is read-only after simulation start.
type SimConfig struct {
	// Time grid
	Dt        *float64 `json:"dt,omitempty"`         // timestep in seconds
	FinalTime *float64 `json:"final_time,omitempty"` // horizon in seconds

	// Track geometry
	Track          []int    `json:"track,omitempty"`            // turn directives, one per leg
	TrackLength    *float64 `json:"track_length,omitempty"`     // total path length in meters
	TrackHalfWidth *float64 `json:"track_half_width,omitempty"` // lateral half-width in meters

	// Vehicle
	Wheelbase *float64 `json:"wheelbase,omitempty"` // axle distance in meters

	// Noise and disturbance
	EnableNoise         *bool    `json:"enable_noise,omitempty"`
	NoiseMag            *float64 `json:"noise_mag,omitempty"`
	EnableDisturbance   *bool    `json:"enable_disturbance,omitempty"`
	DisturbanceMagX     *float64 `json:"disturbance_mag_x,omitempty"`
	DisturbanceMagTheta *float64 `json:"disturbance_mag_theta,omitempty"`

	// Penalties and thresholds
	OffTrackVelocityPenalty *float64 `json:"off_track_velocity_penalty,omitempty"` // fraction in [0,1]
	DesiredSpeed            *float64 `json:"desired_speed,omitempty"`              // reference speed in m/s
	CrashDistance           *float64 `json:"crash_distance,omitempty"`             // lateral crash threshold in meters

	// Diagnostics
	Verbose *bool `json:"verbose,omitempty"`
}

// EmptySimConfig returns a SimConfig with all fields unset, so every
// accessor reports its default.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// LoadSimConfig loads a SimConfig from a JSON file. The file must have a
// .json extension and stay under the max file size. Fields omitted from the
// JSON retain their default values, so partial configs are safe.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that all set fields are within their operating ranges.
func (c *SimConfig) Validate() error {
	if c.Dt != nil && *c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", *c.Dt)
	}
	if c.FinalTime != nil && *c.FinalTime <= 0 {
		return fmt.Errorf("final_time must be positive, got %v", *c.FinalTime)
	}
	for i, d := range c.Track {
		if d < -1 || d > 1 {
			return fmt.Errorf("track directive %d must be -1, 0 or +1, got %d", i, d)
		}
	}
	if c.TrackLength != nil && *c.TrackLength <= 0 {
		return fmt.Errorf("track_length must be positive, got %v", *c.TrackLength)
	}
	if c.TrackHalfWidth != nil && *c.TrackHalfWidth <= 0 {
		return fmt.Errorf("track_half_width must be positive, got %v", *c.TrackHalfWidth)
	}
	if c.Wheelbase != nil && *c.Wheelbase <= 0 {
		return fmt.Errorf("wheelbase must be positive, got %v", *c.Wheelbase)
	}
	if c.NoiseMag != nil && *c.NoiseMag < 0 {
		return fmt.Errorf("noise_mag must be non-negative, got %v", *c.NoiseMag)
	}
	if c.DisturbanceMagX != nil && *c.DisturbanceMagX < 0 {
		return fmt.Errorf("disturbance_mag_x must be non-negative, got %v", *c.DisturbanceMagX)
	}
	if c.DisturbanceMagTheta != nil && *c.DisturbanceMagTheta < 0 {
		return fmt.Errorf("disturbance_mag_theta must be non-negative, got %v", *c.DisturbanceMagTheta)
	}
	if c.OffTrackVelocityPenalty != nil {
		if *c.OffTrackVelocityPenalty < 0 || *c.OffTrackVelocityPenalty > 1 {
			return fmt.Errorf("off_track_velocity_penalty must be between 0 and 1, got %v", *c.OffTrackVelocityPenalty)
		}
	}
	if c.DesiredSpeed != nil && *c.DesiredSpeed <= 0 {
		return fmt.Errorf("desired_speed must be positive, got %v", *c.DesiredSpeed)
	}
	if c.CrashDistance != nil && *c.CrashDistance <= 0 {
		return fmt.Errorf("crash_distance must be positive, got %v", *c.CrashDistance)
	}
	return nil
}

// GetDt returns the timestep or the default.
func (c *SimConfig) GetDt() float64 {
	if c.Dt == nil {
		return 0.001
	}
	return *c.Dt
}

// GetFinalTime returns the horizon or the default.
func (c *SimConfig) GetFinalTime() float64 {
	if c.FinalTime == nil {
		return 5.0
	}
	return *c.FinalTime
}

// GetTrack returns the turn directive sequence or the default course.
func (c *SimConfig) GetTrack() []int {
	if len(c.Track) == 0 {
		return []int{1, -1, 1, 1, 1, -1, 1, 1}
	}
	return c.Track
}

// GetTrackLength returns the total path length or the default.
func (c *SimConfig) GetTrackLength() float64 {
	if c.TrackLength == nil {
		return 5.0
	}
	return *c.TrackLength
}

// GetTrackHalfWidth returns the lateral half-width or the default.
func (c *SimConfig) GetTrackHalfWidth() float64 {
	if c.TrackHalfWidth == nil {
		return 0.05
	}
	return *c.TrackHalfWidth
}

// GetWheelbase returns the axle distance or the default.
func (c *SimConfig) GetWheelbase() float64 {
	if c.Wheelbase == nil {
		return 0.01
	}
	return *c.Wheelbase
}

// GetEnableNoise returns the enable_noise value or the default.
func (c *SimConfig) GetEnableNoise() bool {
	if c.EnableNoise == nil {
		return true
	}
	return *c.EnableNoise
}

// GetNoiseMag returns the noise_mag value or the default.
func (c *SimConfig) GetNoiseMag() float64 {
	if c.NoiseMag == nil {
		return 0.5
	}
	return *c.NoiseMag
}

// GetEnableDisturbance returns the enable_disturbance value or the default.
func (c *SimConfig) GetEnableDisturbance() bool {
	if c.EnableDisturbance == nil {
		return true
	}
	return *c.EnableDisturbance
}

// GetDisturbanceMagX returns the disturbance_mag_x value or the default.
func (c *SimConfig) GetDisturbanceMagX() float64 {
	if c.DisturbanceMagX == nil {
		return 0
	}
	return *c.DisturbanceMagX
}

// GetDisturbanceMagTheta returns the disturbance_mag_theta value or the default.
func (c *SimConfig) GetDisturbanceMagTheta() float64 {
	if c.DisturbanceMagTheta == nil {
		return 1.0
	}
	return *c.DisturbanceMagTheta
}

// GetOffTrackVelocityPenalty returns the off-track penalty fraction or the default.
func (c *SimConfig) GetOffTrackVelocityPenalty() float64 {
	if c.OffTrackVelocityPenalty == nil {
		return 0.5
	}
	return *c.OffTrackVelocityPenalty
}

// GetDesiredSpeed returns the reference speed or the default.
func (c *SimConfig) GetDesiredSpeed() float64 {
	if c.DesiredSpeed == nil {
		return 2.0
	}
	return *c.DesiredSpeed
}

// GetCrashDistance returns the crash threshold or the default.
func (c *SimConfig) GetCrashDistance() float64 {
	if c.CrashDistance == nil {
		return 0.2
	}
	return *c.CrashDistance
}

// GetVerbose returns the verbose flag or the default.
func (c *SimConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}
