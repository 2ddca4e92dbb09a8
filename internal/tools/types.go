package tools

// Spec describes a managed tool: the Hackage package that provides it, the
// executable it installs and how to ask that executable for its version.
type Spec struct {
	Name        string
	Binary      string
	VersionArgs []string
	Version     string // default desired version
	Deps        []Spec
}

// Closure returns the tool's dependencies, dependencies first, without
// duplicates. The tool itself is not included.
func (s Spec) Closure() []Spec {
	var (
		out  []Spec
		seen = map[string]bool{s.Name: true}
	)
	var walk func(deps []Spec, depth int)
	walk = func(deps []Spec, depth int) {
		if depth > maxDepth {
			return
		}
		for _, dep := range deps {
			if seen[dep.Name] {
				continue
			}
			walk(dep.Deps, depth+1)
			if seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			out = append(out, dep)
		}
	}
	walk(s.Deps, 1)
	return out
}

// maxDepth bounds dependency expansion; the tool table is not a graph.
const maxDepth = 2

// Status is what is currently installed for a tool. Empty Version and Path
// mean the tool is absent.
type Status struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Installed reports whether a binary was found.
func (s Status) Installed() bool {
	return s.Path != ""
}
