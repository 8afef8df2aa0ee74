package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/dgmigrate/topology"
)

// PartitionBuilder constructs partitions from mesh connectivity
type PartitionBuilder struct {
	// Mesh connectivity
	Mesh *MeshConnectivity

	// Partitioning parameters; NumPartitions below 1 builds one partition
	NumPartitions int
	Strategy      PartitionStrategy
}

// MeshConnectivity provides the mesh topology needed for partitioning
type MeshConnectivity struct {
	NumElements  int
	ElementTypes []topology.Kind
	Weights      []float64 // Cost of each element; nil weighs every element 1

	// Face connectivity
	EToE [][]int
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	// Simple strategies
	BlockPartition PartitionStrategy = iota // Consecutive elements
	RoundRobin                              // Distribute cyclically

	// Load-aware strategies
	WeightedPartition // Consecutive elements, equal weight per partition
	GraphPartition    // Graph partitioner; currently the weighted split
)

var strategyNames = map[string]PartitionStrategy{
	"block":       BlockPartition,
	"round-robin": RoundRobin,
	"weighted":    WeightedPartition,
	"graph":       GraphPartition,
}

// ParseStrategy maps a configuration name to a strategy
func ParseStrategy(name string) (PartitionStrategy, error) {
	s, ok := strategyNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown partition strategy %q", name)
	}
	return s, nil
}

func (s PartitionStrategy) String() string {
	for name, v := range strategyNames {
		if v == s {
			return name
		}
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// BuildPartitions creates a partition layout from mesh connectivity
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil || pb.Mesh.NumElements <= 0 {
		return nil, fmt.Errorf("empty mesh")
	}
	if pb.Mesh.Weights != nil && len(pb.Mesh.Weights) != pb.Mesh.NumElements {
		return nil, fmt.Errorf("%d weights for %d elements", len(pb.Mesh.Weights), pb.Mesh.NumElements)
	}

	numPartitions := pb.calculateNumPartitions()
	eToP := pb.partitionElements(numPartitions)
	layout := NewLayout(eToP, numPartitions, pb.Mesh)

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// NewLayout builds the partition structures for an existing partition map.
// mesh may be nil; element kinds and weights are then left out.
func NewLayout(eToP []int, numPartitions int, mesh *MeshConnectivity) *PartitionLayout {
	for _, p := range eToP {
		numPartitions = max(numPartitions, p+1)
	}
	partitions := createPartitions(eToP, numPartitions, mesh)
	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      calculateKpartMax(partitions),
		TotalElements: len(eToP),
		NumPartitions: numPartitions,
		EToP:          eToP,
	}
	for _, p := range partitions {
		layout.TotalWeight += p.Weight
	}
	return layout
}

// calculateNumPartitions determines the partition count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	return max(pb.NumPartitions, 1)
}

func (pb *PartitionBuilder) weight(k int) float64 {
	if pb.Mesh.Weights == nil {
		return 1
	}
	return pb.Mesh.Weights[k]
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	K := pb.Mesh.NumElements
	eToP := make([]int, K)

	switch pb.Strategy {
	case BlockPartition:
		elementsPerPartition := int(math.Ceil(float64(K) / float64(numPartitions)))
		for i := 0; i < K; i++ {
			eToP[i] = min(i/elementsPerPartition, numPartitions-1)
		}

	case RoundRobin:
		for i := 0; i < K; i++ {
			eToP[i] = i % numPartitions
		}

	case WeightedPartition:
		// Each element goes to the partition its weight midpoint falls in
		total := 0.
		for i := 0; i < K; i++ {
			total += pb.weight(i)
		}
		if total <= 0 {
			return pb.partitionWithStrategy(BlockPartition, numPartitions)
		}
		prefix := 0.
		for i := 0; i < K; i++ {
			w := pb.weight(i)
			mid := (prefix + w/2) / total
			eToP[i] = min(int(mid*float64(numPartitions)), numPartitions-1)
			prefix += w
		}

	case GraphPartition:
		// TODO: cut along EToE with a multilevel graph partitioner
		return pb.partitionWithStrategy(WeightedPartition, numPartitions)

	default:
		return pb.partitionWithStrategy(BlockPartition, numPartitions)
	}

	return eToP
}

// partitionWithStrategy applies a different strategy
func (pb *PartitionBuilder) partitionWithStrategy(strategy PartitionStrategy, numPartitions int) []int {
	oldStrategy := pb.Strategy
	pb.Strategy = strategy
	result := pb.partitionElements(numPartitions)
	pb.Strategy = oldStrategy
	return result
}

// createPartitions builds partition structures from element assignments
func createPartitions(eToP []int, numPartitions int, mesh *MeshConnectivity) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}

	for elem, part := range eToP {
		p := &partitions[part]
		p.Elements = append(p.Elements, elem)
		p.NumElements++
		switch {
		case mesh == nil || mesh.Weights == nil:
			p.Weight++
		default:
			p.Weight += mesh.Weights[elem]
		}
		if mesh != nil && mesh.ElementTypes != nil {
			p.ElementTypes = append(p.ElementTypes, mesh.ElementTypes[elem])
		}
	}

	for i := range partitions {
		partitions[i].TypeGroups = createElementGroups(&partitions[i])
	}
	return partitions
}

// createElementGroups organizes elements by kind within a partition
func createElementGroups(p *Partition) []ElementGroup {
	if len(p.ElementTypes) == 0 {
		return nil
	}

	typeIndices := make(map[topology.Kind][]int)
	for i, elemType := range p.ElementTypes {
		typeIndices[elemType] = append(typeIndices[elemType], i)
	}
	kinds := make([]topology.Kind, 0, len(typeIndices))
	for k := range typeIndices {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	groups := make([]ElementGroup, 0, len(kinds))
	currentIndex := 0
	for _, kind := range kinds {
		indices := typeIndices[kind]
		groups = append(groups, ElementGroup{
			ElementType: kind,
			StartIndex:  currentIndex,
			Count:       len(indices),
			LocalIDs:    indices,
		})
		currentIndex += len(indices)
	}
	return groups
}

// calculateKpartMax finds maximum elements across all partitions
func calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		kpartMax = max(kpartMax, p.NumElements)
	}
	return kpartMax
}

// PartitionStatistics computes load balance metrics
func (layout *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: layout.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
		AvgElements:   float64(layout.TotalElements) / float64(layout.NumPartitions),
		MinWeight:     math.Inf(1),
		AvgWeight:     layout.TotalWeight / float64(layout.NumPartitions),
	}

	for _, p := range layout.Partitions {
		stats.MinElements = min(stats.MinElements, p.NumElements)
		stats.MaxElements = max(stats.MaxElements, p.NumElements)
		stats.MinWeight = math.Min(stats.MinWeight, p.Weight)
		stats.MaxWeight = math.Max(stats.MaxWeight, p.Weight)
	}

	stats.Imbalance = 1
	if stats.AvgWeight > 0 {
		stats.Imbalance = stats.MaxWeight / stats.AvgWeight
	}
	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	MinWeight     float64
	MaxWeight     float64
	AvgWeight     float64
	Imbalance     float64 // MaxWeight / AvgWeight
}
