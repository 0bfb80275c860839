package pool

import (
	"math/bits"
	"sync"
)

const (
	// 最小缓存 64B
	minShift = 6
	// 最大缓存 64KB, 大于任何一帧
	maxShift = 16
)

// BufferPool keeps power of two sized byte slices, one sync.Pool per size class.
type BufferPool struct {
	classes [maxShift - minShift + 1]sync.Pool
}

// NewBufferPool create new BufferPool instance
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for i := range bp.classes {
		size := 1 << (i + minShift)
		bp.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return bp
}

// classOf returns the index of the smallest class holding n bytes, -1 when none does.
func classOf(n int) int {
	if n <= 1<<minShift {
		return 0
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxShift {
		return -1
	}
	return shift - minShift
}

// BufferPool.Alloc allocate a slice of length size
func (bp *BufferPool) Alloc(size int) *[]byte {
	idx := classOf(size)
	if idx < 0 {
		b := make([]byte, size)
		return &b
	}
	b := bp.classes[idx].Get().(*[]byte)
	*b = (*b)[:size]
	return b
}

// BufferPool.Free give back a slice returned by Alloc, slices of foreign capacity are dropped
func (bp *BufferPool) Free(buffer *[]byte) {
	if buffer == nil {
		return
	}
	c := cap(*buffer)
	idx := classOf(c)
	if idx < 0 || 1<<(idx+minShift) != c {
		return
	}
	*buffer = (*buffer)[:c]
	bp.classes[idx].Put(buffer)
}

var defaultBuffPool = NewBufferPool()

// GetBuffPool get default BufferPool
func GetBuffPool() *BufferPool {
	return defaultBuffPool
}

func Alloc(size int) *[]byte {
	return defaultBuffPool.Alloc(size)
}

func Free(buffer *[]byte) {
	defaultBuffPool.Free(buffer)
}
