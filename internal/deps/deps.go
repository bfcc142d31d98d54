// Package deps discovers the external binaries telefetch shells out to.
package deps

import (
	"fmt"
	"os/exec"
)

// Requirement describes one external binary the pipeline may invoke.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved to an executable on PATH.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("%s not found in PATH", req.Command)
		} else {
			status.Available = true
			status.Detail = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}
