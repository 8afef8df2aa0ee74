package partitions

import (
	"fmt"

	"github.com/notargets/dgmigrate/topology"
)

// Partition is the set of macro elements one rank owns
type Partition struct {
	// Unique identifier for this partition, equal to the owning rank
	ID int

	// Element membership
	Elements    []int   // Global macro element indices in this partition
	NumElements int     // Number of elements
	Weight      float64 // Sum of element weights (leaf counts)

	// Mixed element support
	ElementTypes []topology.Kind // Kind of each element, parallel to Elements
	TypeGroups   []ElementGroup  // Grouped by element kind
}

// ElementGroup represents elements of the same kind within a partition
type ElementGroup struct {
	ElementType topology.Kind
	StartIndex  int   // Starting position in the grouped ordering
	Count       int   // Number of elements of this kind
	LocalIDs    []int // Indices within the partition
}

// PartitionLayout is a complete decomposition of the macro mesh
type PartitionLayout struct {
	Partitions []Partition

	// Global sizing information
	KpartMax      int     // max(NumElements) across all partitions
	TotalElements int     // Sum of elements across partitions
	TotalWeight   float64 // Sum of weights across partitions
	NumPartitions int

	// Element to partition mapping
	EToP []int // Length TotalElements: element k belongs to partition EToP[k]
}

// Move relocates one macro element between ranks
type Move struct {
	Macro    int32
	From, To int
}

// GetPartition returns the partition containing element k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("%d partitions stored, %d declared", len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("EToP length %d != TotalElements %d", len(pl.EToP), pl.TotalElements)
	}

	// Every element appears exactly once, in the partition EToP names
	seen := make([]bool, pl.TotalElements)
	actualMax, total := 0, 0
	for _, p := range pl.Partitions {
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != %d listed", p.ID, p.NumElements, len(p.Elements))
		}
		for _, k := range p.Elements {
			if k < 0 || k >= pl.TotalElements {
				return fmt.Errorf("partition %d: element %d out of range", p.ID, k)
			}
			if seen[k] {
				return fmt.Errorf("element %d assigned twice", k)
			}
			if pl.EToP[k] != p.ID {
				return fmt.Errorf("element %d listed in partition %d, EToP says %d", k, p.ID, pl.EToP[k])
			}
			seen[k] = true
		}
		actualMax = max(actualMax, p.NumElements)
		total += p.NumElements
	}
	if total != pl.TotalElements {
		return fmt.Errorf("partitions hold %d elements, mesh has %d", total, pl.TotalElements)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d", actualMax, pl.KpartMax)
	}
	return nil
}

// PlanMigration lists the elements whose owner differs between two
// partition maps, ordered by element id
func PlanMigration(oldEToP, newEToP []int) ([]Move, error) {
	if len(oldEToP) != len(newEToP) {
		return nil, fmt.Errorf("partition maps differ in length: %d and %d", len(oldEToP), len(newEToP))
	}
	var moves []Move
	for k := range oldEToP {
		if oldEToP[k] != newEToP[k] {
			moves = append(moves, Move{Macro: int32(k), From: oldEToP[k], To: newEToP[k]})
		}
	}
	return moves, nil
}
