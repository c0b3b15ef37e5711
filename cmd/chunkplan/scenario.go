package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fdtdgo/decomp/fragments"
	"github.com/fdtdgo/decomp/geom"
	"github.com/fdtdgo/decomp/partitions"
)

// regionConfig is one cost contributor in a scenario file
type regionConfig struct {
	Min    []int   `mapstructure:"min"`
	Max    []int   `mapstructure:"max"`
	Weight float64 `mapstructure:"weight"`
}

// scenario is the on-disk description of a partitioning run
type scenario struct {
	Min        []int   `mapstructure:"min"`
	Max        []int   `mapstructure:"max"`
	Resolution float64 `mapstructure:"resolution"`
	Periodic   []bool  `mapstructure:"periodic"`
	PML        [][]int `mapstructure:"pml"`

	Materials []regionConfig `mapstructure:"materials"`
	Sources   []regionConfig `mapstructure:"sources"`
	Monitors  []regionConfig `mapstructure:"monitors"`

	Chunks           int    `mapstructure:"chunks"`
	Workers          int    `mapstructure:"workers"`
	Groups           int    `mapstructure:"groups"`
	MinSize          []int  `mapstructure:"min_size"`
	AllowIdleWorkers bool   `mapstructure:"allow_idle_workers"`
	Strategy         string `mapstructure:"strategy"`
}

// loadScenario reads a scenario file, with CHUNKPLAN_* environment
// variables overriding scalar fields
func loadScenario(path string) (*scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("chunkplan")
	v.AutomaticEnv()
	v.SetDefault("resolution", 1.0)
	v.SetDefault("chunks", 1)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var s scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return &s, nil
}

func regions(cfgs []regionConfig) ([]fragments.Region, error) {
	out := make([]fragments.Region, 0, len(cfgs))
	for i, rc := range cfgs {
		vol, err := geom.NewVolume(rc.Min, rc.Max)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		out = append(out, fragments.Region{Bounds: vol, Weight: rc.Weight})
	}
	return out, nil
}

// request converts the scenario into a partitioning request
func (s *scenario) request() (partitions.Request, error) {
	var req partitions.Request

	bounds, err := geom.NewVolume(s.Min, s.Max)
	if err != nil {
		return req, fmt.Errorf("domain bounds: %w", err)
	}
	spec := fragments.DomainSpec{
		Bounds:     bounds,
		Resolution: s.Resolution,
		Periodic:   s.Periodic,
	}
	for ax, thickness := range s.PML {
		if ax >= bounds.NDims {
			return req, fmt.Errorf("pml entry for axis %d exceeds %dD domain", ax, bounds.NDims)
		}
		if len(thickness) != 2 {
			return req, fmt.Errorf("pml axis %d: want [low, high] cells, got %v", ax, thickness)
		}
		spec.PMLCells[ax] = [2]int{thickness[0], thickness[1]}
	}
	if spec.Materials, err = regions(s.Materials); err != nil {
		return req, fmt.Errorf("materials: %w", err)
	}
	if spec.Sources, err = regions(s.Sources); err != nil {
		return req, fmt.Errorf("sources: %w", err)
	}
	if spec.Monitors, err = regions(s.Monitors); err != nil {
		return req, fmt.Errorf("monitors: %w", err)
	}

	req = partitions.Request{
		Spec:             spec,
		NumChunks:        s.Chunks,
		NumWorkers:       s.Workers,
		MinSize:          s.MinSize,
		AllowIdleWorkers: s.AllowIdleWorkers,
	}
	switch strings.ToLower(s.Strategy) {
	case "", "greedy":
		req.Strategy = partitions.GreedyLoaded{}
	case "roundrobin", "round-robin":
		req.Strategy = partitions.RoundRobinAssign{}
	default:
		return req, fmt.Errorf("unknown assignment strategy %q", s.Strategy)
	}
	return req, nil
}
