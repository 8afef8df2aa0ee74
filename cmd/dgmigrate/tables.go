package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/notargets/dgmigrate/topology"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print the kernel/dune numbering tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range []topology.Kind{topology.Tetrahedron, topology.Hexahedron} {
			if err := printTables(cmd.OutOrStdout(), k); err != nil {
				return err
			}
		}
		return nil
	},
}

func printTables(out io.Writer, k topology.Kind) error {
	top := topology.For(k)
	face := topology.FaceFor(k)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%v\n", k)
	fmt.Fprintln(w, "dune\tvertex\tedge\tface\tface vertices (kernel)")
	for i := 0; i < k.NumEdges(); i++ {
		fmt.Fprintf(w, "%d", i)
		if i < k.NumVertices() {
			fmt.Fprintf(w, "\t%d", top.Dune2AluVertex(i))
		} else {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprintf(w, "\t%d", top.Dune2AluEdge(i))
		if i < k.NumFaces() {
			fmt.Fprintf(w, "\t%d\t", top.Dune2AluFace(i))
			for j := 0; j < k.VerticesPerFace(); j++ {
				fmt.Fprintf(w, "%d ", top.Dune2AluFaceVertex(i, j))
			}
		} else {
			fmt.Fprint(w, "\t\t")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "twisted face vertex (dune -> kernel), M=%d\n", face.NumVertices())
	for t := -face.NumVertices(); t < face.NumVertices(); t++ {
		fmt.Fprintf(w, "twist %d:", t)
		for i := 0; i < face.NumVertices(); i++ {
			fmt.Fprintf(w, "\t%d", face.Dune2AluVertexTwisted(i, t))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	return w.Flush()
}
