package dot

import (
	"strings"
	"testing"
)

func TestWriteDot(t *testing.T) {
	g := New("prog")
	c := g.Cluster("f", Attrs{"label": "f"})
	a := c.Node("n0", Attrs{"label": "entry"})
	b := c.Node("n1", Attrs{"shape": "diamond", "label": "x > 0"})
	g.Edge(a, b, Attrs{"style": "bold", "color": "sienna"})

	var sb strings.Builder
	if err := g.WriteDot(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{
		`digraph "prog" {`,
		`subgraph "cluster_f" {`,
		`"n1" [label="x > 0" shape="diamond"];`,
		`"n0" -> "n1" [color="sienna" style="bold"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in\n%s", want, out)
		}
	}
}
