package history

import (
	"time"

	"orderflow-viz-go/book"
)

// Sample is one tick's snapshot: the visible ladder levels plus the flow
// stats settled for that tick. The heatmap replays these.
type Sample struct {
	Ts        time.Time
	Levels    []book.PriceLevel
	CumDelta  float64
	TickDelta float64
}

// Buffer 按 tick 顺序保存快照的环形缓冲，满后淘汰最旧的（O(1) 均摊）。
type Buffer struct {
	buf  []Sample
	head int
	size int
}

// NewBuffer 创建容量为 capacity 的缓冲。
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 600
	}
	return &Buffer{buf: make([]Sample, capacity)}
}

// Append 追加一条快照；超出容量时覆盖最旧的。
func (b *Buffer) Append(s Sample) {
	if b.size < len(b.buf) {
		b.buf[(b.head+b.size)%len(b.buf)] = s
		b.size++
		return
	}
	b.buf[b.head] = s
	b.head = (b.head + 1) % len(b.buf)
}

// Len 返回当前样本数。
func (b *Buffer) Len() int { return b.size }

// Cap 返回容量。
func (b *Buffer) Cap() int { return len(b.buf) }

// At returns the i-th retained sample, 0 being the oldest.
func (b *Buffer) At(i int) Sample {
	return b.buf[(b.head+i)%len(b.buf)]
}

// Newest returns the most recent sample; ok is false when empty.
func (b *Buffer) Newest() (Sample, bool) {
	if b.size == 0 {
		return Sample{}, false
	}
	return b.At(b.size - 1), true
}

// EachNewestFirst 从最新到最旧遍历；fn 返回 false 时提前终止。
func (b *Buffer) EachNewestFirst(fn func(s Sample) bool) {
	for i := b.size - 1; i >= 0; i-- {
		if !fn(b.At(i)) {
			return
		}
	}
}
