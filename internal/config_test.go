package tasker_internal

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type LoadConfigTestCase struct {
	Name       string
	Data       string
	WantConfig *Config
	WantErr    error
}

func testLoadConfig(t *testing.T, tc *LoadConfigTestCase) {
	gotConfig, err := LoadConfig("", []byte(strings.ReplaceAll(tc.Data, "\t", "  ")))
	if tc.WantErr == nil && err != nil {
		t.Fatal(err)
	}
	if tc.WantErr != nil && err == nil {
		t.Fatalf("err: want %v, got nil", tc.WantErr)
	}

	if diff := cmp.Diff(tc.WantConfig, gotConfig); diff != "" {
		t.Fatalf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg1.Instance = "inst1"
	cfg1.SettleDelay = 7 * time.Second

	cfg2 := DefaultConfig()
	cfg2.DefaultStackSize = 4096
	cfg2.CollectStats = false

	cfg3 := DefaultConfig()
	cfg3.LoggerConfig.Level = "debug"

	ignoredData := `
		ignore:
			foo: bar
	`

	for _, tc := range []*LoadConfigTestCase{
		{
			Name:       "default",
			WantConfig: DefaultConfig(),
		},
		{
			Name: "tasker_config_empty",
			Data: `
				tasker_config:
			`,
			WantConfig: DefaultConfig(),
		},
		{
			Name: "instance_and_settle_delay",
			Data: `
				tasker_config:
					instance: inst1
					settle_delay: 7s
			`,
			WantConfig: cfg1,
		},
		{
			Name: "stack_size_and_collect_stats",
			Data: `
				tasker_config:
					default_stack_size: 4096
					collect_stats: false
			`,
			WantConfig: cfg2,
		},
		{
			Name: "log_config",
			Data: `
				tasker_config:
					log_config:
						level: debug
			`,
			WantConfig: cfg3,
		},
		{
			Name: "tasker_config_plus_ignored",
			Data: `
				tasker_config:
					instance: inst1
					settle_delay: 7s
			` + ignoredData,
			WantConfig: cfg1,
		},
	} {
		t.Run(tc.Name, func(t *testing.T) { testLoadConfig(t, tc) })
	}
}
