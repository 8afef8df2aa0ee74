package utils

import (
	"fmt"
	"slices"
)

// GhostConnector manages pick and place indices for the macro ghost layer of
// a partitioned mesh. A partition holds a ghost copy of every face neighbour
// of its elements that another partition owns; the owner picks that element
// and the holder places it.
type GhostConnector struct {
	NumPartitions int
	K             int // Total macro elements

	// Input connectivity
	EToE [][]int // Element → neighbour per face, self on the boundary
	EToP []int   // Element → partition mapping

	// Partition mappings
	ElemsPerPartition []int   // Elements per partition
	LocalToGlobalElem [][]int // [partition][localElem] → globalElem

	// Pick/Place indices per partition, global element ids in ascending order
	PickIndices  [][]PickBuffer  // [sourcePartition][targetPartition]
	PlaceIndices [][]PlaceBuffer // [targetPartition][sourcePartition]
}

// PickBuffer lists the owned elements a partition sends to one target
type PickBuffer struct {
	Indices         []int
	TargetPartition int
}

// PlaceBuffer lists the ghost elements a partition receives from one source
type PlaceBuffer struct {
	Indices         []int
	SourcePartition int
}

// NewGhostConnector builds the connector. numPartitions may be zero to size
// it from the largest partition id in EToP.
func NewGhostConnector(EToE [][]int, EToP []int, numPartitions int) (*GhostConnector, error) {
	K := len(EToE)
	if K == 0 {
		return nil, fmt.Errorf("empty connectivity")
	}
	if len(EToP) != K {
		return nil, fmt.Errorf("EToP length %d does not match K=%d", len(EToP), K)
	}
	for k, row := range EToE {
		for f, n := range row {
			if n < 0 || n >= K {
				return nil, fmt.Errorf("EToE[%d][%d]=%d out of range", k, f, n)
			}
		}
	}
	for _, p := range EToP {
		if p < 0 {
			return nil, fmt.Errorf("negative partition id %d", p)
		}
		numPartitions = max(numPartitions, p+1)
	}

	gc := &GhostConnector{
		NumPartitions: numPartitions,
		K:             K,
		EToE:          EToE,
		EToP:          EToP,
	}
	gc.buildPartitionMappings()
	gc.initializeBuffers()
	gc.BuildIndices()
	return gc, nil
}

func (gc *GhostConnector) buildPartitionMappings() {
	gc.ElemsPerPartition = make([]int, gc.NumPartitions)
	for _, p := range gc.EToP {
		gc.ElemsPerPartition[p]++
	}

	gc.LocalToGlobalElem = make([][]int, gc.NumPartitions)
	for p := 0; p < gc.NumPartitions; p++ {
		gc.LocalToGlobalElem[p] = make([]int, 0, gc.ElemsPerPartition[p])
	}

	for globalElem := 0; globalElem < gc.K; globalElem++ {
		partition := gc.EToP[globalElem]
		gc.LocalToGlobalElem[partition] = append(gc.LocalToGlobalElem[partition], globalElem)
	}
}

func (gc *GhostConnector) initializeBuffers() {
	gc.PickIndices = make([][]PickBuffer, gc.NumPartitions)
	gc.PlaceIndices = make([][]PlaceBuffer, gc.NumPartitions)
	for p := 0; p < gc.NumPartitions; p++ {
		gc.PickIndices[p] = make([]PickBuffer, gc.NumPartitions)
		gc.PlaceIndices[p] = make([]PlaceBuffer, gc.NumPartitions)
		for q := 0; q < gc.NumPartitions; q++ {
			gc.PickIndices[p][q] = PickBuffer{TargetPartition: q}
			gc.PlaceIndices[p][q] = PlaceBuffer{SourcePartition: q}
		}
	}
}

// BuildIndices constructs pick and place indices for all partitions
func (gc *GhostConnector) BuildIndices() {
	for p := 0; p < gc.NumPartitions; p++ {
		// Elements are visited in ascending global order within a partition,
		// so every buffer comes out sorted
		for _, globalElem := range gc.LocalToGlobalElem[p] {
			for _, target := range gc.ghostHolders(globalElem) {
				gc.PickIndices[p][target].Indices = append(gc.PickIndices[p][target].Indices, globalElem)
				gc.PlaceIndices[target][p].Indices = append(gc.PlaceIndices[target][p].Indices, globalElem)
			}
		}
	}
}

// ghostHolders returns the partitions, other than the owner, that own a face
// neighbour of k
func (gc *GhostConnector) ghostHolders(k int) []int {
	owner := gc.EToP[k]
	var out []int
	for _, n := range gc.EToE[k] {
		if q := gc.EToP[n]; q != owner && !slices.Contains(out, q) {
			out = append(out, q)
		}
	}
	slices.Sort(out)
	return out
}

// GetPickIndices returns the elements source sends to target
func (gc *GhostConnector) GetPickIndices(sourcePartition, targetPartition int) []int {
	if sourcePartition < 0 || sourcePartition >= gc.NumPartitions ||
		targetPartition < 0 || targetPartition >= gc.NumPartitions {
		return nil
	}
	return gc.PickIndices[sourcePartition][targetPartition].Indices
}

// GetPlaceIndices returns the ghost elements target receives from source
func (gc *GhostConnector) GetPlaceIndices(targetPartition, sourcePartition int) []int {
	if targetPartition < 0 || targetPartition >= gc.NumPartitions ||
		sourcePartition < 0 || sourcePartition >= gc.NumPartitions {
		return nil
	}
	return gc.PlaceIndices[targetPartition][sourcePartition].Indices
}

// Ghosts returns every ghost element of partition p in ascending order
func (gc *GhostConnector) Ghosts(p int) []int {
	var out []int
	for q := 0; q < gc.NumPartitions; q++ {
		out = append(out, gc.GetPlaceIndices(p, q)...)
	}
	slices.Sort(out)
	return out
}

// Verify checks index validity and conservation properties
func (gc *GhostConnector) Verify() error {
	// Verify 1: Ownership - every picked element belongs to its source and
	// nothing is sent to itself
	for p := 0; p < gc.NumPartitions; p++ {
		if n := len(gc.PickIndices[p][p].Indices); n != 0 {
			return fmt.Errorf("partition %d picks %d elements for itself", p, n)
		}
		for q := 0; q < gc.NumPartitions; q++ {
			for _, k := range gc.PickIndices[p][q].Indices {
				if k < 0 || k >= gc.K || gc.EToP[k] != p {
					return fmt.Errorf("pick[%d][%d] holds element %d not owned by %d", p, q, k, p)
				}
			}
		}
	}

	// Verify 2: Correspondence - pick and place arrays are identical
	for p := 0; p < gc.NumPartitions; p++ {
		for q := 0; q < gc.NumPartitions; q++ {
			pick := gc.PickIndices[p][q].Indices
			place := gc.PlaceIndices[q][p].Indices
			if !slices.Equal(pick, place) {
				return fmt.Errorf("mismatch: pick[%d][%d]=%v, place[%d][%d]=%v", p, q, pick, q, p, place)
			}
		}
	}

	// Verify 3: Conservation - every cross-partition face is covered from
	// both sides
	for k := 0; k < gc.K; k++ {
		for f, n := range gc.EToE[k] {
			p, q := gc.EToP[k], gc.EToP[n]
			if p == q {
				continue
			}
			if _, found := slices.BinarySearch(gc.PickIndices[p][q].Indices, k); !found {
				return fmt.Errorf("element %d face %d borders partition %d but is not picked", k, f, q)
			}
		}
	}
	return nil
}
