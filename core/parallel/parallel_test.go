package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

func TestParallelizeN_CoversEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		hits := make([]int32, 37)
		ParallelizeN(len(hits), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "workers=%d index=%d", workers, i)
		}
	}
}

func TestParallelizeWithThreshold_Sequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestForEach_SerialOrder(t *testing.T) {
	var order []int
	err := ForEach(5, 1, func(i int) error {
		order = append(order, i)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForEach_ReturnsLowestIndexError(t *testing.T) {
	for _, workers := range []int{1, 4} {
		err := ForEach(8, workers, func(i int) error {
			if i == 3 || i == 6 {
				return errors.Newf("job %d", i)
			}
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, "job 3", err.Error(), "workers=%d", workers)
	}
}

func TestForEach_RecoversWorkerPanic(t *testing.T) {
	for _, workers := range []int{1, 2, 0} {
		var ran int32
		err := ForEach(6, workers, func(i int) error {
			atomic.AddInt32(&ran, 1)
			if i == 4 {
				panic("boom")
			}
			return nil
		})
		var pe *errors.PanicError
		require.True(t, errors.As(err, &pe), "workers=%d: got %v", workers, err)
		assert.Equal(t, "boom", pe.PanicValue)
		assert.Equal(t, int32(6), ran, "other jobs still run")
	}
}

func TestParallelize_Empty(t *testing.T) {
	Parallelize(0, func(start, end int) { t.Fatal("should not be called") })
}
