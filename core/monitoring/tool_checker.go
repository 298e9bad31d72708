package monitoring

import (
	"fmt"
	"os/exec"
)

// ToolStatus is the availability of one external binary
type ToolStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

// ToolChecker validates external tools are on PATH
type ToolChecker struct {
	tools    []string
	lookPath func(string) (string, error)
}

// NewToolChecker builds a checker using real OS lookups
func NewToolChecker(tools []string) *ToolChecker {
	return &ToolChecker{
		tools:    tools,
		lookPath: exec.LookPath,
	}
}

// Check resolves every configured tool
func (c *ToolChecker) Check() []ToolStatus {
	statuses := make([]ToolStatus, 0, len(c.tools))
	for _, name := range c.tools {
		path, err := c.lookPath(name)
		if err != nil {
			statuses = append(statuses, ToolStatus{
				Name:    name,
				Found:   false,
				Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			})
			continue
		}
		statuses = append(statuses, ToolStatus{
			Name:    name,
			Path:    path,
			Found:   true,
			Message: fmt.Sprintf("Found at %s", path),
		})
	}
	return statuses
}

// Missing returns the names of tools that could not be resolved
func (c *ToolChecker) Missing() []string {
	var missing []string
	for _, status := range c.Check() {
		if !status.Found {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
