package main

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/notargets/dgmigrate/config"
	"github.com/notargets/dgmigrate/dof"
	"github.com/notargets/dgmigrate/grid"
	"github.com/notargets/dgmigrate/migration"
	"github.com/notargets/dgmigrate/nodal"
	"github.com/notargets/dgmigrate/operator"
	"github.com/notargets/dgmigrate/partitions"
	"github.com/notargets/dgmigrate/topology"
	"github.com/notargets/dgmigrate/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Refine, repartition by leaf count and migrate all data",
	Long: `Runs one repartitioning step:
  1. Build the macro mesh (file or box) and the initial block partition
  2. Refine uniformly, then around the hotspot
  3. Fill element, vertex and face data and exchange ghosts
  4. Partition by leaf-count weight and migrate the moved macro elements
  5. Verify ownership and data checksums, then exchange ghosts again`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetTimeout())
		defer cancel()
		s, err := runRebalance(ctx, cfg, logger)
		if err != nil {
			return err
		}
		s.print(cmd)
		return nil
	},
}

func init() {
	f := rebalanceCmd.Flags()
	f.String("mesh", "", "Mesh file (.neu, .msh, .su2); a generated box when empty")
	f.Int("ranks", 0, "Number of simulated ranks")
	f.String("strategy", "", "Partition strategy: block, round-robin, weighted, graph")
	f.Int("uniform", 0, "Uniform refinement levels")
	f.Int("hotspot-levels", 0, "Refinement rounds around the hotspot")
	f.Int("order", 0, "Polynomial degree of the element data")
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	var err error
	if f.Changed("mesh") {
		c.Mesh.Path, err = f.GetString("mesh")
	}
	if err == nil && f.Changed("strategy") {
		c.Partition.Strategy, err = f.GetString("strategy")
	}
	for name, dst := range map[string]*int{
		"ranks":          &c.Ranks,
		"uniform":        &c.Refine.Uniform,
		"hotspot-levels": &c.Refine.Hotspot.Levels,
		"order":          &c.Migration.Order,
	} {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetInt(name)
		}
	}
	return err
}

// nodalBases holds one basis per element kind of the mesh. Element blocks
// are sized for the largest; smaller kinds leave the tail zero.
type nodalBases struct {
	np    int
	bases map[topology.Kind]*nodal.Basis
}

func newNodalBases(kinds []topology.Kind, order int) (*nodalBases, error) {
	nb := &nodalBases{bases: make(map[topology.Kind]*nodal.Basis)}
	for _, k := range kinds {
		if _, ok := nb.bases[k]; ok {
			continue
		}
		b, err := nodal.NewBasis(k, order)
		if err != nil {
			return nil, err
		}
		nb.bases[k] = b
		nb.np = max(nb.np, b.Np())
	}
	if nb.np == 0 {
		return nil, fmt.Errorf("mesh has no elements")
	}
	return nb, nil
}

// elementBlock samples the field at the element's physical nodes
func (nb *nodalBases) elementBlock(e *grid.Element, dst []float64) {
	b := nb.bases[e.Kind()]
	top := e.Topology()
	corners := make([]r3.Vec, e.NumVertices())
	for i := range corners {
		corners[i] = e.Vertex(top.Dune2AluVertex(i)).X
	}
	for i, x := range b.Physical(corners) {
		dst[i] = field(x)
	}
}

type rankStores struct {
	elems *dof.ElementData
	verts *dof.VertexData
	faces *dof.FaceData
}

type summary struct {
	Macros, Leaves int
	Before, After  partitions.PartitionStats
	Moves          int
	Report         migration.Report
	Skipped        bool
	Callbacks      float64
}

func (s *summary) print(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "macros %d, leaves %d, ranks %d\n", s.Macros, s.Leaves, s.Before.NumPartitions)
	fmt.Fprintf(out, "imbalance before %.3f (weights %g..%g)\n", s.Before.Imbalance, s.Before.MinWeight, s.Before.MaxWeight)
	if s.Skipped {
		fmt.Fprintln(out, "within tolerance, nothing moved")
		return
	}
	fmt.Fprintf(out, "imbalance after  %.3f (weights %g..%g)\n", s.After.Imbalance, s.After.MinWeight, s.After.MaxWeight)
	fmt.Fprintf(out, "moved %d macros, %d bytes, %g kernel callbacks\n", s.Report.Moved, s.Report.Bytes, s.Callbacks)
}

func loadMesh(c *config.Config) (*grid.MacroMesh, []int, error) {
	if c.Mesh.Path != "" {
		return grid.LoadMesh(c.Mesh.Path)
	}
	kind := topology.Hexahedron
	if c.Mesh.Box.Kind == "tet" {
		kind = topology.Tetrahedron
	}
	mm, err := grid.BoxMesh(c.Mesh.Box.NX, c.Mesh.Box.NY, c.Mesh.Box.NZ, kind)
	return mm, nil, err
}

func initialPartition(mm *grid.MacroMesh, etop []int, nranks int) ([]int, error) {
	if etop != nil && slices.Max(etop) < nranks && slices.Min(etop) >= 0 {
		return etop, nil
	}
	layout, err := (&partitions.PartitionBuilder{
		Mesh:          &partitions.MeshConnectivity{NumElements: mm.NumElements(), ElementTypes: mm.Kinds, EToE: mm.EToE},
		NumPartitions: nranks,
		Strategy:      partitions.BlockPartition,
	}).BuildPartitions()
	if err != nil {
		return nil, err
	}
	return layout.EToP, nil
}

func buildRanks(mm *grid.MacroMesh, etop []int, np int, c *config.Config, metrics *migration.Metrics,
	log *zap.Logger) ([]*migration.Rank, []rankStores, error) {
	ranks := make([]*migration.Rank, c.Ranks)
	stores := make([]rankStores, c.Ranks)
	for r := range ranks {
		g, err := grid.NewMacroGrid(r, mm, etop, grid.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		st := rankStores{
			elems: dof.NewElementData(np),
			verts: dof.NewVertexData(),
			faces: dof.NewFaceData(),
		}
		// identical registration order on every rank
		op := operator.New[migration.Param]()
		operator.Append(op, st.elems)
		operator.Append(op, st.verts)
		operator.Append(op, st.faces)
		ranks[r] = &migration.Rank{
			Grid:   g,
			Bridge: migration.NewBridge(g, op, migration.WithMaxDepth(c.Migration.MaxDepth), migration.WithMetrics(metrics)),
			Stores: []migration.Pruner{st.elems, st.verts, st.faces},
		}
		stores[r] = st
	}
	return ranks, stores, nil
}

func refine(ranks []*migration.Rank, rc config.RefineConfig) {
	center := r3.Vec{X: rc.Hotspot.Center[0], Y: rc.Hotspot.Center[1], Z: rc.Hotspot.Center[2]}
	near := func(e *grid.Element) bool {
		return r3.Norm(r3.Sub(e.Center(), center)) <= rc.Hotspot.Radius
	}
	for _, r := range ranks {
		r.Grid.RefineAll(rc.Uniform)
		for l := 0; l < rc.Hotspot.Levels; l++ {
			r.Grid.RefineWhere(near)
		}
	}
}

func field(x r3.Vec) float64 { return math.Sin(x.X) * math.Cos(x.Y) * math.Exp(-x.Z) }

func vertexValue(v *grid.Vertex) float64 { return v.X.X*v.X.X + v.X.Y - v.X.Z }

func faceValue(_ string, v *grid.Vertex) float64 { return r3.Norm(v.X) }

func checksum(stores []rankStores) float64 {
	total := 0.
	for _, st := range stores {
		total += st.elems.Sum()
	}
	return total
}

func exchangeGhosts(ctx context.Context, ranks []*migration.Rank, mm *grid.MacroMesh, etop []int) error {
	gc, err := utils.NewGhostConnector(mm.EToE, etop, len(ranks))
	if err != nil {
		return err
	}
	if err = gc.Verify(); err != nil {
		return err
	}
	return migration.ExchangeGhosts(ctx, ranks, gc)
}

func runRebalance(ctx context.Context, c *config.Config, log *zap.Logger) (*summary, error) {
	mm, fileEToP, err := loadMesh(c)
	if err != nil {
		return nil, err
	}
	etop, err := initialPartition(mm, fileEToP, c.Ranks)
	if err != nil {
		return nil, err
	}
	nb, err := newNodalBases(mm.Kinds, c.Migration.Order)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	ranks, stores, err := buildRanks(mm, etop, nb.np, c, migration.NewMetrics(reg), log)
	if err != nil {
		return nil, err
	}

	refine(ranks, c.Refine)
	for i, r := range ranks {
		stores[i].elems.Fill(r.Grid, nb.elementBlock)
		stores[i].verts.Fill(r.Grid, vertexValue)
		stores[i].faces.Fill(r.Grid, faceValue)
	}
	// owned data only; ghost copies are pruned by the migration
	sum := checksum(stores)
	if err = exchangeGhosts(ctx, ranks, mm, etop); err != nil {
		return nil, fmt.Errorf("initial ghost exchange: %w", err)
	}

	K := mm.NumElements()
	weights := migration.LeafWeights(ranks, K)
	mesh := &partitions.MeshConnectivity{NumElements: K, ElementTypes: mm.Kinds, Weights: weights, EToE: mm.EToE}
	s := &summary{Macros: K, Before: partitions.NewLayout(etop, c.Ranks, mesh).PartitionStatistics()}
	for _, w := range weights {
		s.Leaves += int(w)
	}
	log.Info("refined", zap.Int("macros", K), zap.Int("leaves", s.Leaves),
		zap.Float64("imbalance", s.Before.Imbalance))
	if s.Before.Imbalance <= c.Partition.MaxImbalance {
		s.Skipped = true
		return s, nil
	}

	strategy, err := partitions.ParseStrategy(c.Partition.Strategy)
	if err != nil {
		return nil, err
	}
	layout, err := (&partitions.PartitionBuilder{Mesh: mesh, NumPartitions: c.Ranks, Strategy: strategy}).BuildPartitions()
	if err != nil {
		return nil, err
	}
	moves, err := partitions.PlanMigration(etop, layout.EToP)
	if err != nil {
		return nil, err
	}
	s.Moves = len(moves)
	log.Info("migrating", zap.Stringer("strategy", strategy), zap.Int("moves", len(moves)))

	if s.Report, err = migration.Rebalance(ctx, ranks, mm, moves, layout.EToP); err != nil {
		return nil, err
	}
	got, err := migration.CurrentEToP(ranks, K)
	if err != nil {
		return nil, err
	}
	if err = checkOwnership(got, layout); err != nil {
		return nil, err
	}
	if after := checksum(stores); math.Abs(after-sum) > 1e-9*math.Max(1, math.Abs(sum)) {
		return nil, fmt.Errorf("element data checksum changed from %g to %g", sum, after)
	}
	if err = exchangeGhosts(ctx, ranks, mm, layout.EToP); err != nil {
		return nil, fmt.Errorf("ghost exchange after migration: %w", err)
	}

	after := partitions.NewLayout(layout.EToP, c.Ranks, &partitions.MeshConnectivity{
		NumElements: K, Weights: migration.LeafWeights(ranks, K),
	})
	s.After = after.PartitionStatistics()
	s.Callbacks = callbackTotal(reg)
	log.Info("migrated", zap.Int("moved", s.Report.Moved), zap.Int("bytes", s.Report.Bytes),
		zap.Int("dropped", s.Report.Dropped), zap.Float64("imbalance", s.After.Imbalance))
	return s, nil
}

func callbackTotal(reg *prometheus.Registry) float64 {
	families, err := reg.Gather()
	if err != nil {
		return 0
	}
	total := 0.
	for _, mf := range families {
		if mf.GetName() != "dgmigrate_bridge_callbacks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// checkOwnership compares the owning rank of every macro with the layout
func checkOwnership(got []int, layout *partitions.PartitionLayout) error {
	if len(got) != layout.TotalElements {
		return fmt.Errorf("%d macros owned, partition map has %d", len(got), layout.TotalElements)
	}
	for k, p := range got {
		if want := layout.GetPartition(k); p != want {
			return fmt.Errorf("macro %d owned by rank %d after migration, partition map says %d", k, p, want)
		}
	}
	return nil
}
