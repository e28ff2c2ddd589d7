package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	changeSubmitted uint64
	changeApproved  uint64
	changeRejected  uint64
	changeCancelled uint64
	documentsStaged uint64
	pendingSwept    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RequestSubmitted() { atomic.AddUint64(&c.changeSubmitted, 1) }
func (c *Collector) RequestApproved()  { atomic.AddUint64(&c.changeApproved, 1) }
func (c *Collector) RequestRejected()  { atomic.AddUint64(&c.changeRejected, 1) }
func (c *Collector) RequestCancelled() { atomic.AddUint64(&c.changeCancelled, 1) }
func (c *Collector) DocumentStaged()   { atomic.AddUint64(&c.documentsStaged, 1) }

func (c *Collector) PendingSwept(n int) {
	if n > 0 {
		atomic.AddUint64(&c.pendingSwept, uint64(n))
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"changeRequestsTotal":    atomic.LoadUint64(&c.changeSubmitted),
		"changeApprovedTotal":    atomic.LoadUint64(&c.changeApproved),
		"changeRejectedTotal":    atomic.LoadUint64(&c.changeRejected),
		"changeCancelledTotal":   atomic.LoadUint64(&c.changeCancelled),
		"documentsStagedTotal":   atomic.LoadUint64(&c.documentsStaged),
		"pendingFilesSweptTotal": atomic.LoadUint64(&c.pendingSwept),
	}
}
