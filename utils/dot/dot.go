// Package dot builds graphviz graphs and renders them with the embedded
// graphviz library.
package dot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Attrs are the attributes of a graph element.
type Attrs map[string]string

// String renders the attributes sorted by key.
func (a Attrs) String() string {
	keys := maps.Keys(a)
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, a[k])
	}
	return strings.Join(parts, " ")
}

type Node struct {
	ID    string
	Attrs Attrs
}

type Edge struct {
	From, To *Node
	Attrs    Attrs
}

// Cluster is a named subgraph. Its nodes are laid out together.
type Cluster struct {
	Name  string
	Attrs Attrs
	Nodes []*Node
}

// Node adds a node to the cluster.
func (c *Cluster) Node(id string, attrs Attrs) *Node {
	n := &Node{ID: id, Attrs: attrs}
	c.Nodes = append(c.Nodes, n)
	return n
}

// Graph is a directed graph. Node identifiers must be unique across
// clusters.
type Graph struct {
	Title    string
	Attrs    Attrs
	Clusters []*Cluster
	Edges    []*Edge
}

func New(title string) *Graph {
	return &Graph{
		Title: title,
		Attrs: Attrs{"rankdir": "TB", "labeljust": "l", "fontname": "Arial"},
	}
}

// Cluster adds a cluster to the graph.
func (g *Graph) Cluster(name string, attrs Attrs) *Cluster {
	c := &Cluster{Name: name, Attrs: attrs}
	g.Clusters = append(g.Clusters, c)
	return c
}

func (g *Graph) Edge(from, to *Node, attrs Attrs) {
	g.Edges = append(g.Edges, &Edge{From: from, To: to, Attrs: attrs})
}

// WriteDot writes the graph in the dot language.
func (g *Graph) WriteDot(w io.Writer) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "digraph %q {\n", g.Title)
	fmt.Fprintf(&b, "\tgraph [label=%q %s];\n", g.Title, g.Attrs)
	b.WriteString("\tnode [shape=\"box\" style=\"rounded,filled\" fillcolor=\"honeydew\" fontname=\"Courier\"];\n")
	for _, c := range g.Clusters {
		fmt.Fprintf(&b, "\tsubgraph %q {\n", "cluster_"+c.Name)
		if len(c.Attrs) > 0 {
			fmt.Fprintf(&b, "\t\tgraph [%s];\n", c.Attrs)
		}
		for _, n := range c.Nodes {
			fmt.Fprintf(&b, "\t\t%q [%s];\n", n.ID, n.Attrs)
		}
		b.WriteString("\t}\n")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "\t%q -> %q [%s];\n", e.From.ID, e.To.ID, e.Attrs)
	}
	b.WriteString("}\n")
	_, err := b.WriteTo(w)
	return err
}

// Render writes the dot source to outfname.dot and renders it to an image
// in the given format. Without a file name, only the image is written to
// the temporary directory. It returns the path of the image.
func (g *Graph) Render(outfname, format string) (string, error) {
	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		return "", err
	}

	img := filepath.Join(os.TempDir(), "semdiff_export."+format)
	if outfname != "" {
		if err := os.WriteFile(outfname+".dot", buf.Bytes(), 0o644); err != nil {
			return "", err
		}
		img = outfname + "." + format
	}
	return img, render(buf.Bytes(), format, img)
}

func render(src []byte, format, img string) (err error) {
	gv := graphviz.New()
	defer gv.Close()

	parsed, err := graphviz.ParseBytes(src)
	if err != nil {
		return fmt.Errorf("parsing dot graph: %w", err)
	}
	defer func() {
		if cerr := parsed.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := gv.RenderFilename(parsed, graphviz.Format(format), img); err != nil {
		return fmt.Errorf("rendering %s: %w", img, err)
	}
	return nil
}
