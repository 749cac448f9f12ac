// microtasker is a small demo program reproducing the scheduler's
// original sample: three tasks (Moshe, Aviv, Eli) exercising delay,
// busy-yield counting, and notify/wait respectively. Like the
// framework's own reference program, it contributes its tasks to the
// runner by registering a task builder in init(), then just calls Run.
package main

import (
	"fmt"
	"os"

	"github.com/mackerelio/go-osstat/loadavg"
	"github.com/mackerelio/go-osstat/memory"

	tasker "github.com/eitanmi/micro-tasker"
	"github.com/eitanmi/micro-tasker/internal/hal"
)

var sched *tasker.Scheduler

var eli tasker.Handle

func taskMoshe(arg any) {
	val := uint32(0)
	for {
		fmt.Println(hal.AnsiGreen + "Moshe: loop started.." + hal.AnsiFgDefault)
		sched.Delay(2000)
		fmt.Println(hal.AnsiGreen + "Moshe: loop ended" + hal.AnsiFgDefault)
		sched.Notify(eli, val)
		val++
	}
}

func taskAviv(arg any) {
	const target = 0xffffff
	for {
		fmt.Printf(hal.AnsiRed+"Aviv: counting from 0 to %d"+hal.AnsiFgDefault+"\n", target)
		for y := uint32(0); y != target; y++ {
			sched.Yield()
		}
		fmt.Println(hal.AnsiRed + "Aviv: done counting, taking a 5 second break.." + hal.AnsiFgDefault)
		sched.Delay(5000)
	}
}

func taskEli(arg any) {
	for {
		fmt.Println(hal.AnsiBlue + "Eli: waiting for an event" + hal.AnsiFgDefault)
		event := sched.WaitForNotify(tasker.TimeoutMax)
		fmt.Printf(hal.AnsiBlue+"Eli: got event %d, thinking it over.."+hal.AnsiFgDefault+"\n", event)
		sched.Delay(2000)
	}
}

// buildDemoTasks is the task builder this program contributes to Run.
// By the time Run calls a registered builder, the scheduler it will
// run already exists, so it's safe to grab it here. Moshe's entry
// needs Eli's handle to notify it, and a handle only exists once
// CreateTask has actually run, so this builder creates all three tasks
// itself (via the scheduler it just fetched) instead of handing back
// TaskSpecs for Run's loop to create. It returns nil, leaving nothing
// for that loop to do.
func buildDemoTasks(cfg *tasker.Config) ([]tasker.TaskSpec, error) {
	sched = tasker.GetScheduler()
	sched.CreateTask("TSK_MOSHE", taskMoshe, 0x3000, nil)
	sched.CreateTask("TSK_AVIV", taskAviv, 0x3000, nil)
	eli = sched.CreateTask("TSK_ELI", taskEli, 0x3000, nil)
	return nil, nil
}

func init() {
	tasker.RegisterTaskBuilder(buildDemoTasks)
}

func printHostInfo() {
	if mem, err := memory.Get(); err == nil {
		fmt.Printf("host memory: total=%d used=%d free=%d\n", mem.Total, mem.Used, mem.Free)
	}
	if la, err := loadavg.Get(); err == nil {
		fmt.Printf("host load average: 1m=%.2f 5m=%.2f 15m=%.2f\n", la.Loadavg1, la.Loadavg5, la.Loadavg15)
	}
}

func main() {
	fmt.Print(hal.AnsiCLS)
	printHostInfo()
	os.Exit(tasker.Run())
}
