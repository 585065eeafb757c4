package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/branchkit/branchkit"
	"github.com/spf13/cobra"
)

func buildBenchCommand() *cobra.Command {
	var (
		workers  uint
		tasks    int
		workTime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Report throughput of a single branch under a fixed task count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(workers, tasks, workTime)
		},
	}

	cmd.Flags().UintVar(&workers, "workers", 4, "fixed worker count for the benchmark branch")
	cmd.Flags().IntVar(&tasks, "tasks", 10000, "number of tasks to submit")
	cmd.Flags().DurationVar(&workTime, "work", time.Millisecond, "simulated per-task work duration")

	return cmd
}

func runBench(workers uint, tasks int, workTime time.Duration) error {
	b, err := branchkit.New(
		branchkit.WithName("bench"),
		branchkit.WithInitialWorkers(workers),
	)
	if err != nil {
		return fmt.Errorf("branchdemo: %w", err)
	}
	defer b.Close()

	var completed int64
	start := time.Now()
	for i := 0; i < tasks; i++ {
		if err := b.Submit(func() {
			time.Sleep(workTime)
			atomic.AddInt64(&completed, 1)
		}); err != nil {
			return fmt.Errorf("branchdemo: submit task %d: %w", i, err)
		}
	}

	if !b.WaitForTasks(5 * time.Minute) {
		return fmt.Errorf("branchdemo: branch did not drain within 5 minutes")
	}
	elapsed := time.Since(start)

	throughput := float64(completed) / elapsed.Seconds()
	fmt.Printf("workers=%d tasks=%d completed=%d elapsed=%s throughput=%.1f tasks/sec\n",
		workers, tasks, completed, elapsed, throughput)
	return nil
}
