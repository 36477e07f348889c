package main

import (
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config is the demo embedder's tunables: which plan/ranges/fixtures to
// drive a pipeline against and how aggressively to fan out per-partition
// fetches. Grounded on the teacher's flat, destination-field Config
// structs (pkg/server.Config), generalized here to a YAML-loadable
// config since the demo runs standalone rather than inside a server
// process.
type Config struct {
	Query        string `yaml:"query" default:""`
	PlanFile     string `yaml:"planFile"`
	PKRangesFile string `yaml:"pkRangesFile"`
	FixturesFile string `yaml:"fixturesFile"`

	// Concurrency bounds how many partitions the embedder fetches from
	// simultaneously, mirroring the teacher's
	// ParallelPartitionLister.Concurrency semaphore weight
	// (pkg/stores/partition/parallel.go).
	Concurrency int64 `yaml:"concurrency" default:"4"`

	// ItemBudget is the pipeline's per-run() item budget
	// (pipeline.Config.ItemBudget).
	ItemBudget int `yaml:"itemBudget" default:"1000"`

	EnableHybrid bool `yaml:"enableHybrid" default:"false"`
	Debug        bool `yaml:"debug" default:"false"`
}

// loadConfig reads a YAML config file and applies creasty/defaults to
// any field the file leaves zero-valued.
func loadConfig(path string) (Config, error) {
	var c Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, err
		}
	}
	if err := defaults.Set(&c); err != nil {
		return c, err
	}
	return c, nil
}
