package worker

import (
	"os/exec"
	"strings"
)

// Fixed launch configuration for the Julia worker. The project and script
// paths are relative to the spawner's working directory.
const (
	DefaultExecutable = "julia"
	DefaultProject    = "./src-julia"
	DefaultScript     = "src-julia/julia-server.jl"
)

// LaunchSpec describes how the worker interpreter is invoked.
type LaunchSpec struct {
	Executable string
	Project    string
	Script     string
}

// DefaultLaunch is the only launch configuration the daemon uses.
var DefaultLaunch = LaunchSpec{
	Executable: DefaultExecutable,
	Project:    DefaultProject,
	Script:     DefaultScript,
}

// Args returns the interpreter arguments, e.g. --project=./src-julia src-julia/julia-server.jl.
func (s LaunchSpec) Args() []string {
	return []string{"--project=" + s.Project, s.Script}
}

// String returns the full command line.
func (s LaunchSpec) String() string {
	return strings.Join(append([]string{s.Executable}, s.Args()...), " ")
}

// JuliaCommand returns a command builder for spec, suitable for ExecSpawner.
func JuliaCommand(spec LaunchSpec) func() (*exec.Cmd, error) {
	return func() (*exec.Cmd, error) {
		return exec.Command(spec.Executable, spec.Args()...), nil
	}
}
