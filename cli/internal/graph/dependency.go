package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BDNK1/netflow/runtime"
)

// Graph represents the jumps between the targets of one script.
// Target names are matched ignoring case, like the executor does.
type Graph struct {
	script string

	// names maps the lowercased target name to its declared spelling
	names map[string]string

	// order keeps declaration order for stable output
	order []string

	// edges maps target to the targets it may jump to
	edges map[string][]string

	// reverseEdges maps target to the targets that may jump to it
	reverseEdges map[string][]string
}

// BuildGraph constructs the jump graph of a script. A jump to a target the
// script does not declare is an error; cycles are allowed and reported by
// FindCycle, since a branch may end them at run time.
func BuildGraph(script *runtime.Script) (*Graph, error) {
	g := &Graph{
		script:       script.Name,
		names:        make(map[string]string),
		edges:        make(map[string][]string),
		reverseEdges: make(map[string][]string),
	}

	// First pass: register all nodes
	for _, t := range script.Targets {
		key := strings.ToLower(t.Name)
		g.names[key] = t.Name
		g.order = append(g.order, key)
		g.edges[key] = []string{}
		g.reverseEdges[key] = []string{}
	}

	// Second pass: build edges
	for _, t := range script.Targets {
		from := strings.ToLower(t.Name)
		for _, jump := range t.Jumps() {
			to := strings.ToLower(jump)
			if _, exists := g.names[to]; !exists {
				return nil, &GraphError{
					Type:    ErrorMissingTarget,
					Target:  t.Name,
					Message: fmt.Sprintf("target '%s' jumps to '%s' which is not declared in script '%s'", t.Name, jump, script.Name),
					Details: map[string]string{
						"jump": jump,
					},
				}
			}
			if slices.Contains(g.edges[from], to) {
				continue
			}
			g.edges[from] = append(g.edges[from], to)
			g.reverseEdges[to] = append(g.reverseEdges[to], from)
		}
	}

	if script.DefaultTarget != "" {
		if _, exists := g.names[strings.ToLower(script.DefaultTarget)]; !exists {
			return nil, &GraphError{
				Type:    ErrorMissingTarget,
				Target:  script.DefaultTarget,
				Message: fmt.Sprintf("default target '%s' is not declared in script '%s'", script.DefaultTarget, script.Name),
			}
		}
	}

	return g, nil
}

// FindCycle returns a jump cycle such as [a b a], or nil if there is none.
// Uses DFS with recursion stack tracking
func (g *Graph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	parent := make(map[string]string)

	var dfs func(node string) []string

	dfs = func(node string) []string {
		visited[node] = true
		recStack[node] = true

		for _, next := range g.edges[node] {
			if !visited[next] {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			} else if recStack[next] {
				// Found cycle: reconstruct it
				cycle := []string{g.names[next]}
				current := node
				for current != next {
					cycle = append([]string{g.names[current]}, cycle...)
					current = parent[current]
				}
				return append([]string{g.names[next]}, cycle...)
			}
		}

		recStack[node] = false
		return nil
	}

	for _, node := range g.order {
		if !visited[node] {
			if cycle := dfs(node); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// HasCycle returns true if some target can jump back to itself
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// Unreachable returns the targets no chain of jumps from entry reaches.
// Such targets can still be run by naming them explicitly.
func (g *Graph) Unreachable(entry string) []string {
	start := strings.ToLower(entry)
	if _, ok := g.names[start]; !ok {
		return nil
	}

	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[current] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []string
	for _, node := range g.order {
		if !seen[node] {
			out = append(out, g.names[node])
		}
	}
	return out
}

// GetJumps returns the targets the given target may jump to
func (g *Graph) GetJumps(target string) []string {
	return g.display(g.edges[strings.ToLower(target)])
}

// GetCallers returns the targets that may jump to the given target
func (g *Graph) GetCallers(target string) []string {
	return g.display(g.reverseEdges[strings.ToLower(target)])
}

// Nodes returns all target names in declaration order
func (g *Graph) Nodes() []string {
	return g.display(g.order)
}

func (g *Graph) display(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.names[k])
	}
	return out
}

// GraphError represents errors that occur during graph operations
type GraphError struct {
	Type    ErrorType
	Target  string
	Message string
	Details map[string]string
}

func (e *GraphError) Error() string {
	return e.Message
}

// ErrorType represents different types of graph errors
type ErrorType int

const (
	ErrorMissingTarget ErrorType = iota
)

func (t ErrorType) String() string {
	switch t {
	case ErrorMissingTarget:
		return "MissingTarget"
	default:
		return "Unknown"
	}
}
