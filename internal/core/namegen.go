package core

import "fmt"

// NameGen hands out unique names per basename.
//
// With preserveFirst the first name for a basename is the basename itself;
// otherwise it is basename_0. Later names are basename_1, basename_2, ...
type NameGen struct {
	counts map[string]int
}

// NewNameGen creates an empty generator.
func NewNameGen() *NameGen {
	return &NameGen{counts: make(map[string]int)}
}

// Gen returns the next unique name for basename.
func (g *NameGen) Gen(basename string, preserveFirst bool) string {
	n, seen := g.counts[basename]
	if !seen {
		g.counts[basename] = 0
		if preserveFirst {
			return basename
		}
		return fmt.Sprintf("%s_0", basename)
	}
	n++
	g.counts[basename] = n
	return fmt.Sprintf("%s_%d", basename, n)
}
