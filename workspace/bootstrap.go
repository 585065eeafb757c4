package workspace

import (
	"fmt"
	"os"
	"time"

	"github.com/branchkit/branchkit"
	"github.com/branchkit/branchkit/supervisor"
	"gopkg.in/yaml.v3"
)

// BootstrapConfig declares a workspace's initial branches and supervisors
// for YAML-driven startup, the way the teacher's Config struct declares a
// single Workers instance's tunables.
type BootstrapConfig struct {
	Branches    []BranchSpec     `yaml:"branches"`
	Supervisors []SupervisorSpec `yaml:"supervisors"`
}

// BranchSpec describes one branch to create and attach.
type BranchSpec struct {
	Name           string `yaml:"name"`
	InitialWorkers uint   `yaml:"initial_workers"`
}

// SupervisorSpec describes one supervisor to create, attach, and start
// watching the branch named Branch. L and U bound the branch's live worker
// count the way supervisor.Config does.
type SupervisorSpec struct {
	Name       string `yaml:"name"`
	Branch     string `yaml:"branch"`
	L          uint   `yaml:"l"`
	U          uint   `yaml:"u"`
	IntervalMS int64  `yaml:"interval_ms"`
}

// LoadBootstrap reads and parses a BootstrapConfig from a YAML file at path.
func LoadBootstrap(path string) (*BootstrapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: read bootstrap config: %w", err)
	}
	var cfg BootstrapConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("workspace: parse bootstrap config: %w", err)
	}
	return &cfg, nil
}

// ApplyBootstrap constructs a branch for each BranchSpec and a supervisor
// for each SupervisorSpec in cfg, attaching all of them to w. SupervisorSpec
// entries reference a branch by the name given in BranchSpec, which
// ApplyBootstrap resolves to the BranchID the workspace issued for it during
// this same call — bootstrap YAML names are not a lookup key on Workspace
// itself. It returns the first construction or attachment error encountered,
// after which w may hold a partially applied configuration.
func ApplyBootstrap(w *Workspace, cfg *BootstrapConfig) error {
	branchIDs := make(map[string]BranchID, len(cfg.Branches))

	for _, bs := range cfg.Branches {
		opts := []branchkit.Option{branchkit.WithName(bs.Name)}
		if bs.InitialWorkers > 0 {
			opts = append(opts, branchkit.WithInitialWorkers(bs.InitialWorkers))
		}
		b, err := branchkit.New(opts...)
		if err != nil {
			return fmt.Errorf("workspace: construct branch %q: %w", bs.Name, err)
		}
		id, err := w.AttachBranch(bs.Name, b)
		if err != nil {
			return fmt.Errorf("workspace: attach branch %q: %w", bs.Name, err)
		}
		branchIDs[bs.Name] = id
	}

	for _, ss := range cfg.Supervisors {
		branchID, ok := branchIDs[ss.Branch]
		if !ok {
			return fmt.Errorf("workspace: supervisor %q references unknown branch %q", ss.Name, ss.Branch)
		}
		target, err := w.LookupBranch(branchID)
		if err != nil {
			return fmt.Errorf("workspace: supervisor %q references unknown branch %q: %w", ss.Name, ss.Branch, err)
		}
		interval := time.Duration(ss.IntervalMS) * time.Millisecond
		s, err := supervisor.New(target, supervisor.Config{
			L:        ss.L,
			U:        ss.U,
			Interval: interval,
		})
		if err != nil {
			return fmt.Errorf("workspace: construct supervisor %q: %w", ss.Name, err)
		}
		if _, err := w.AttachSupervisor(ss.Name, s); err != nil {
			return fmt.Errorf("workspace: attach supervisor %q: %w", ss.Name, err)
		}
	}

	return nil
}
