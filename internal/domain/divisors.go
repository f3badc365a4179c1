package domain

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DivisorTask is the sub-range [Start, End] of candidate divisors of Number
// scanned by one worker.
type DivisorTask struct {
	Number int
	Start  int
	End    int
}

// DivisorBucketResult holds the divisors found in one bucket. Low is
// ascending, High is descending.
type DivisorBucketResult struct {
	Low  []int
	High []int
}

// Run scans the task's range by trial division.
func (t DivisorTask) Run() DivisorBucketResult {
	var res DivisorBucketResult
	for i := t.Start; i <= t.End; i++ {
		if t.Number%i != 0 {
			continue
		}
		res.Low = append(res.Low, i)
		if high := t.Number / i; high != i {
			res.High = append(res.High, high)
		}
	}
	return res
}

// DivisorFinder computes the positive divisors of a number by splitting
// the range [2, isqrt(n)] across Workers goroutines.
type DivisorFinder struct {
	// Workers caps the number of buckets; <= 0 uses GOMAXPROCS.
	Workers int
}

// FindDivisors returns the divisors of n in ascending order using one
// bucket per available CPU.
func FindDivisors(n int) ([]int, error) {
	return DivisorFinder{}.Find(n)
}

// Find returns the divisors of n in ascending order.
func (f DivisorFinder) Find(n int) ([]int, error) {
	switch {
	case n <= 0:
		return nil, invalid(ErrInvalidArgument, "Number must be greater than 0")
	case n == 1:
		return []int{1}, nil
	case n == 2:
		return []int{1, 2}, nil
	}

	tasks := partition(n, isqrt(n), f.workers())
	slots := make(bucketSlots, len(tasks))

	var g errgroup.Group
	g.SetLimit(len(tasks))
	for idx, task := range tasks {
		g.Go(func() error {
			return slots.store(idx, task.Run())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots.merge(n), nil
}

func (f DivisorFinder) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// partition splits [2, limit] into min(workers, limit) contiguous buckets of
// ceil(limit/count) candidates each. Trailing buckets may be short or empty.
func partition(n, limit, workers int) []DivisorTask {
	count := min(workers, limit)
	size := (limit + count - 1) / count

	tasks := make([]DivisorTask, count)
	for idx := range tasks {
		start := idx*size + 2
		tasks[idx] = DivisorTask{
			Number: n,
			Start:  start,
			End:    min(start+size-1, limit),
		}
	}
	return tasks
}

type bucketSlot struct {
	filled atomic.Bool
	result DivisorBucketResult
}

// bucketSlots gives every bucket index exactly one owner.
type bucketSlots []bucketSlot

func (s bucketSlots) store(idx int, res DivisorBucketResult) error {
	if !s[idx].filled.CompareAndSwap(false, true) {
		return fmt.Errorf("bucket %d: %w", idx, ErrDuplicateBucket)
	}
	s[idx].result = res
	return nil
}

// merge concatenates lows and highs, each in bucket order. The merged
// highs form one descending run, reversed as it is appended.
func (s bucketSlots) merge(n int) []int {
	var low, high []int
	for i := range s {
		low = append(low, s[i].result.Low...)
		high = append(high, s[i].result.High...)
	}
	slices.Reverse(high)

	out := make([]int, 0, len(low)+len(high)+2)
	out = append(out, 1)
	out = append(out, low...)
	out = append(out, high...)
	return append(out, n)
}

// isqrt returns floor(sqrt(n)) for n >= 0. The float estimate is corrected
// with division-based comparisons so large n neither misrounds nor
// overflows.
func isqrt(n int) int {
	if n < 2 {
		return n
	}
	r := int(math.Sqrt(float64(n)))
	for r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}
