// Scheduler configuration.
//
// The configuration is loaded from a YAML file, with the following
// structure:
//
//  tasker_config:
//    instance: tasker
//    settle_delay: 100ms
//    default_stack_size: 2048
//    collect_stats: true
//    log_config:
//      ...
//
// The "tasker_config" section maps to the Config structure defined in
// this package.

package tasker_internal

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TASKER_CONFIG_SECTION_NAME = "tasker_config"

	CONFIG_INSTANCE_DEFAULT                 = "tasker"
	CONFIG_SETTLE_DELAY_DEFAULT             = 100 * time.Millisecond
	CONFIG_DEFAULT_STACK_SIZE_DEFAULT       = uint32(2048)
	CONFIG_COLLECT_STATS_DEFAULT            = true
	CONFIG_STACK_CHECK_ENABLED_DEFAULT      = false
	CONFIG_STACK_OVERFLOW_THRESHOLD_DEFAULT = 90
)

// Config holds every host/scheduler tunable, loaded once at startup and
// shared read-only thereafter (the scheduler never mutates it).
type Config struct {
	// Instance name, used only in log lines.
	Instance string `yaml:"instance"`

	// SettleDelay is how long StartScheduler waits before bootstrapping
	// the tasks and entering the dispatch loop — the Go analogue of
	// the original's fixed startup pause to let peripherals settle.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// DefaultStackSize is used by CreateTask when the caller passes 0.
	DefaultStackSize uint32 `yaml:"default_stack_size"`

	// CollectStats toggles whether dispatchOne bothers sampling stack
	// usage and tick accounting at all; disabling it removes the
	// runtime.Stack() sampling cost from the dispatch hot path.
	CollectStats bool `yaml:"collect_stats"`

	// StackCheckEnabled mirrors the original's HAL_XTASK_STACK_CHECK_LEN
	// compile guard: when true, every dispatch checks the task's stack
	// high-water mark against StackOverflowThresholdPct and logs an
	// error if it's been reached, in place of the original's raw
	// fill-byte scan (see stack.go). The check runs alongside the stats
	// sampling, so it is skipped while CollectStats is false.
	StackCheckEnabled bool `yaml:"stack_check_enabled"`

	// StackOverflowThresholdPct is the high-water percentage above
	// which a task is considered to be approaching its declared stack
	// budget.
	StackOverflowThresholdPct int `yaml:"stack_overflow_threshold_pct"`

	LoggerConfig *LoggerConfig `yaml:"log_config"`
}

func DefaultConfig() *Config {
	return &Config{
		Instance:                  CONFIG_INSTANCE_DEFAULT,
		SettleDelay:               CONFIG_SETTLE_DELAY_DEFAULT,
		DefaultStackSize:          CONFIG_DEFAULT_STACK_SIZE_DEFAULT,
		CollectStats:              CONFIG_COLLECT_STATS_DEFAULT,
		StackCheckEnabled:         CONFIG_STACK_CHECK_ENABLED_DEFAULT,
		StackOverflowThresholdPct: CONFIG_STACK_OVERFLOW_THRESHOLD_DEFAULT,
		LoggerConfig:              DefaultLoggerConfig(),
	}
}

// LoadConfig loads the configuration from the specified YAML file (or
// buf, for testing). An absent tasker_config section yields
// DefaultConfig unchanged.
func LoadConfig(cfgFile string, buf []byte) (*Config, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	if err := yaml.Unmarshal(buf, &docNode); err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	cfg := DefaultConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		for i := 0; i+1 < len(rootNode.Content); i += 2 {
			key := rootNode.Content[i]
			val := rootNode.Content[i+1]
			if key.Kind == yaml.ScalarNode && key.Value == TASKER_CONFIG_SECTION_NAME {
				if err := val.Decode(cfg); err != nil {
					return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
				}
			}
		}
	}

	return cfg, nil
}
