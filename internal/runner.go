package tasker_internal

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bgp59/logrusx"

	"github.com/eitanmi/micro-tasker/internal/hal"
)

// Run is the main entry point for a process that wants a cooperative
// task scheduler: it loads configuration, sets up logging, registers
// whatever tasks the caller's builders produce, and starts the
// scheduler.
//
// Tasks are not known to this package at compile time; callers
// register a builder via RegisterTaskBuilder before calling Run, each
// returning the (name, entry, stackSize, arg) tuples to hand to
// CreateTask.

const CONFIG_FLAG_NAME = "config"

// TaskSpec is what a task builder contributes to Run.
type TaskSpec struct {
	Name      string
	Entry     func(arg any)
	StackSize uint32
	Arg       any
}

var (
	// Version and GitInfo are normally set via -ldflags at build time.
	Version string
	GitInfo string

	scheduler    *Scheduler
	taskBuilders = struct {
		builders []func(cfg *Config) ([]TaskSpec, error)
		mu       sync.Mutex
	}{}
)

// RegisterTaskBuilder registers a function that will be called once,
// at Run time, to produce the tasks to schedule. Call it from an
// init() in the package that defines the tasks.
func RegisterTaskBuilder(tb func(cfg *Config) ([]TaskSpec, error)) {
	taskBuilders.mu.Lock()
	defer taskBuilders.mu.Unlock()
	taskBuilders.builders = append(taskBuilders.builders, tb)
}

// GetScheduler returns the scheduler instance built by the most recent
// Run call, or nil if Run has not been called yet. Exposed so a demo
// program can call DumpStats/Notify/etc. against the live instance
// from outside a task.
func GetScheduler() *Scheduler {
	return scheduler
}

var (
	versionArg = flag.Bool(
		"version",
		false,
		FormatFlagUsage(`Print the version and exit`),
	)

	configFileArg = flag.String(
		CONFIG_FLAG_NAME,
		fmt.Sprintf("%s-config.yaml", CONFIG_INSTANCE_DEFAULT),
		`Config file to load`,
	)
)

func init() {
	logrusx.EnableLoggerArgs()
}

var runnerLog = NewCompLogger("runner")

// Run parses command line flags, loads configuration, wires logging,
// builds every registered task, and runs the scheduler. It returns the
// process exit code when the configuration, logger or scheduler start
// fails; it exits the process itself on a task builder error or a
// failed CreateTask (via runnerLog.Fatal) and on SIGINT/SIGTERM (with
// status 0, after restoring the terminal).
func Run() int {
	if !flag.Parsed() {
		flag.Parse()
	}

	if *versionArg {
		fmt.Fprintf(os.Stderr, "Version: %s, GitInfo: %s\n", Version, GitInfo)
		return 0
	}

	cfg, err := LoadConfig(*configFileArg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		return 1
	}

	logrusx.ApplySetLoggerArgs(cfg.LoggerConfig)
	if err := SetLogger(cfg.LoggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the logger: %v\n", err)
		return 1
	}

	keyboard := hal.NewKeyboard()
	scheduler = NewScheduler(*cfg, nil, keyboard)

	taskBuilders.mu.Lock()
	builders := append([]func(cfg *Config) ([]TaskSpec, error){}, taskBuilders.builders...)
	taskBuilders.mu.Unlock()

	for _, tb := range builders {
		specs, err := tb(cfg)
		if err != nil {
			runnerLog.Fatal(err)
		}
		for _, spec := range specs {
			if h := scheduler.CreateTask(spec.Name, spec.Entry, spec.StackSize, spec.Arg); !h.Valid() {
				runnerLog.Fatalf("failed to create task %s", spec.Name)
			}
		}
	}

	runnerLog.Infof("instance=%s: starting scheduler", cfg.Instance)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		if tk, ok := keyboard.(hal.Restorer); ok {
			tk.Restore()
		}
		runnerLog.Warnf("%s signal received, exiting", sig)
		os.Exit(0)
	}()

	if !scheduler.StartScheduler() {
		runnerLog.Error("scheduler failed to start")
		return 1
	}
	return 0
}
