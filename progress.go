package slice

import (
	"fmt"
	"sync/atomic"
)

// progressReporter keeps progress updates monotonic under concurrent
// workers: it publishes the highest completed index, every fifth layer
// plus the final one.
type progressReporter struct {
	fn        ProgressFunc
	total     int
	highWater int64
}

func newProgressReporter(fn ProgressFunc, total int) *progressReporter {
	return &progressReporter{fn: fn, total: total, highWater: -1}
}

func (p *progressReporter) completed(index int) {
	if p.fn == nil {
		return
	}
	for {
		old := atomic.LoadInt64(&p.highWater)
		if int64(index) <= old {
			return // a later layer already reported
		}
		if atomic.CompareAndSwapInt64(&p.highWater, old, int64(index)) {
			break
		}
	}
	if index%5 == 0 || index == p.total-1 {
		p.fn(index+1, p.total, fmt.Sprintf("Processing layer %d/%d", index+1, p.total))
	}
}

func (p *progressReporter) report(current int, message string) {
	if p.fn == nil {
		return
	}
	p.fn(current, p.total, message)
}
