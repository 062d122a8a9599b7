// YAML cluster configuration with CUE validation
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults: tick rates drawn from [1,20], a
// 1-in-20 event draw, 2s connect retry, 2s startup grace.
const (
	DefaultTickRateMin  = 1
	DefaultTickRateMax  = 20
	DefaultEventRange   = 20
	DefaultRetrySeconds = 2
	DefaultGraceSeconds = 2
	DefaultDuration     = 60
	DefaultTrials       = 1
)

// NodeConfig names one VM and its reachable endpoint.
type NodeConfig struct {
	ID   int    `yaml:"id"`
	Addr string `yaml:"addr"`
}

// ClusterConfig is the root configuration for a simulation run.
type ClusterConfig struct {
	Nodes           []NodeConfig `yaml:"nodes"`
	DurationSeconds int          `yaml:"duration_seconds"`
	Trials          int          `yaml:"trials"`
	LogDir          string       `yaml:"log_dir"`
	TickRateMin     int          `yaml:"tick_rate_min"`
	TickRateMax     int          `yaml:"tick_rate_max"`
	EventRange      int          `yaml:"event_range"`
	RetrySeconds    int          `yaml:"retry_seconds"`
	GraceSeconds    int          `yaml:"grace_seconds"`
	PauseSeconds    int          `yaml:"pause_seconds"`
}

// Load loads YAML config, validates it against a CUE schema, applies
// defaults, and checks structural invariants.
func Load(configPath, cueSchemaPath string) (*ClusterConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	var cfg ClusterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero fields with the standard defaults.
func (c *ClusterConfig) ApplyDefaults() {
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = DefaultDuration
	}
	if c.Trials <= 0 {
		c.Trials = DefaultTrials
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.TickRateMin <= 0 {
		c.TickRateMin = DefaultTickRateMin
	}
	if c.TickRateMax <= 0 {
		c.TickRateMax = DefaultTickRateMax
	}
	if c.EventRange <= 0 {
		c.EventRange = DefaultEventRange
	}
	if c.RetrySeconds <= 0 {
		c.RetrySeconds = DefaultRetrySeconds
	}
	if c.GraceSeconds <= 0 {
		c.GraceSeconds = DefaultGraceSeconds
	}
}

// Validate checks the structural invariants a run depends on.
func (c *ClusterConfig) Validate() error {
	if len(c.Nodes) < 2 {
		return fmt.Errorf("cluster needs at least 2 nodes, got %d", len(c.Nodes))
	}
	seen := make(map[int]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.ID <= 0 {
			return fmt.Errorf("node id must be positive, got %d", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		seen[n.ID] = true
		if n.Addr == "" {
			return fmt.Errorf("node %d has no addr", n.ID)
		}
	}
	if c.TickRateMin > c.TickRateMax {
		return fmt.Errorf("tick_rate_min %d exceeds tick_rate_max %d", c.TickRateMin, c.TickRateMax)
	}
	if c.EventRange < 3 {
		return fmt.Errorf("event_range must be at least 3, got %d", c.EventRange)
	}
	return nil
}

// Node returns the config entry for the given id.
func (c *ClusterConfig) Node(id int) (NodeConfig, bool) {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeConfig{}, false
}

// PeersFor returns the topology minus the given node, in ascending id
// order. That order defines the "first" and "second" send targets.
func (c *ClusterConfig) PeersFor(id int) []NodeConfig {
	peers := make([]NodeConfig, 0, len(c.Nodes)-1)
	for _, n := range c.Nodes {
		if n.ID != id {
			peers = append(peers, n)
		}
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	return peers
}
