package utils

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// GetParallelDegree follows the solver convention: zero means one goroutine per
// CPU, and there are never more partitions than items to work on
func GetParallelDegree(ProcLimit, Kmax int) (ParallelDegree int) {
	if ProcLimit > 0 {
		ParallelDegree = ProcLimit
	} else {
		ParallelDegree = runtime.NumCPU()
	}
	if ParallelDegree > Kmax {
		ParallelDegree = Kmax
	}
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// Run executes work once per partition, each in its own goroutine. Each call
// owns the index range [kMin, kMax) exclusively, so writes indexed by k need no
// locking. The first error cancels the context handed to the others.
func (pm *PartitionMap) Run(ctx context.Context,
	work func(ctx context.Context, bn, kMin, kMax int) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for np := 0; np < pm.ParallelDegree; np++ {
		kMin, kMax := pm.GetBucketRange(np)
		if kMax == kMin {
			continue
		}
		np := np
		eg.Go(func() error {
			return work(ctx, np, kMin, kMax)
		})
	}
	return eg.Wait()
}
