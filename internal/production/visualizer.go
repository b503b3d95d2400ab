package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

// DefaultVisualizer renders the sensitivity graph of a snapshot: events and
// processes as nodes, static subscriptions as solid edges, dynamic waits as
// dashed edges and reset membership as dotted edges.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the snapshot.
func (v *DefaultVisualizer) ExportDOT(snapshot core.SimSnapshot) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", snapshot.SimID)
	buf.WriteString(`  rankdir=LR;
  node [fontsize=10];
  edge [fontsize=9];
`)

	buf.WriteString("  subgraph cluster_events {\n    label=\"events\";\n")
	for _, e := range snapshot.Events {
		style := ""
		if e.Pending {
			style = ` style=filled fillcolor=gold`
		}
		fmt.Fprintf(&buf, "    %q [shape=diamond%s];\n", eventNode(e.Name), style)
	}
	buf.WriteString("  }\n")

	for _, p := range snapshot.Processes {
		fmt.Fprintf(&buf, "  %q [label=%q shape=%s%s];\n",
			p.Name, fmt.Sprintf("%s (%s)", p.Name, p.Kind), processShape(p.Kind), processStyle(p))
	}

	for _, e := range snapshot.Events {
		for _, sub := range e.StaticSubscribers {
			fmt.Fprintf(&buf, "  %q -> %q;\n", eventNode(e.Name), sub)
		}
		for _, sub := range e.DynamicSubscribers {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", eventNode(e.Name), sub)
		}
	}

	for _, r := range snapshot.Resets {
		style := ""
		if r.Asserted {
			style = ` style=filled fillcolor=tomato`
		}
		fmt.Fprintf(&buf, "  %q [shape=hexagon%s];\n", resetNode(r.Name), style)
		for _, p := range r.Processes {
			fmt.Fprintf(&buf, "  %q -> %q [style=dotted];\n", resetNode(r.Name), p)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// graphJSON is the JSON form of the sensitivity graph.
type graphJSON struct {
	SimID string      `json:"simID"`
	Delta uint64      `json:"delta"`
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

type graphNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Kind  string `json:"kind,omitempty"`
	State string `json:"state,omitempty"`
}

type graphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// ExportJSON returns the sensitivity graph as JSON nodes and edges.
func (v *DefaultVisualizer) ExportJSON(snapshot core.SimSnapshot) ([]byte, error) {
	g := graphJSON{SimID: snapshot.SimID, Delta: snapshot.Delta, Nodes: []graphNode{}, Edges: []graphEdge{}}
	for _, e := range snapshot.Events {
		g.Nodes = append(g.Nodes, graphNode{ID: eventNode(e.Name), Type: "event"})
		for _, sub := range e.StaticSubscribers {
			g.Edges = append(g.Edges, graphEdge{From: eventNode(e.Name), To: sub, Type: "static"})
		}
		for _, sub := range e.DynamicSubscribers {
			g.Edges = append(g.Edges, graphEdge{From: eventNode(e.Name), To: sub, Type: "dynamic"})
		}
	}
	for _, p := range snapshot.Processes {
		g.Nodes = append(g.Nodes, graphNode{ID: p.Name, Type: "process", Kind: p.Kind.String(), State: p.State.String()})
	}
	for _, r := range snapshot.Resets {
		g.Nodes = append(g.Nodes, graphNode{ID: resetNode(r.Name), Type: "reset"})
		for _, p := range r.Processes {
			g.Edges = append(g.Edges, graphEdge{From: resetNode(r.Name), To: p, Type: "reset"})
		}
	}
	return json.MarshalIndent(g, "", "  ")
}

func eventNode(name string) string { return "event:" + name }
func resetNode(name string) string { return "reset:" + name }

func processShape(k primitives.Kind) string {
	switch k {
	case primitives.KindMethod:
		return "box"
	case primitives.KindCThread:
		return "doubleoctagon"
	default:
		return "ellipse"
	}
}

func processStyle(p core.ProcessSnapshot) string {
	if p.State == primitives.StateZombie {
		return ` style=dashed color=gray`
	}
	if len(p.DynamicEvents) > 0 {
		return ` style=filled fillcolor=lightgreen`
	}
	return ""
}
