// Command branchdemo is a peripheral CLI for driving a branchkit workspace
// with synthetic load. It is not part of the branchkit public API and
// exists to exercise a bootstrap config and report throughput.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "branchdemo",
		Short: "Drive a branchkit workspace with synthetic load",
	}

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildBenchCommand())
	return root
}
