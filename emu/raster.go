package emu

import (
	"sync"
	"sync/atomic"
)

// span is one clipped scanline of a triangle.
type span struct {
	y      int32
	x0, x1 int32 // [x0, x1)
}

// workUnit is a contiguous slice of a triangle's spans holding roughly
// total/units pixels. Units never share a scanline, so workers write
// disjoint rows of the shared buffers and the partition itself is the
// synchronization.
type workUnit struct {
	first, last int // span index range, inclusive
}

// triWork is the ephemeral per-triangle work item: the span list, the work
// partition, the device whose register state the workers read, and the
// claim and completion cursors for this triangle. The cursors live here
// rather than on the pool so a worker holding a stale item can only ever
// drain that item's own exhausted cursor, never claim against a later
// triangle's.
type triWork struct {
	dev   *Device
	spans []span
	units []workUnit

	next atomic.Int64
	done atomic.Int64
}

// workerPool is a fixed set of rasterizer workers coordinated by the
// current item's atomic cursors and a single condition variable. Workers
// claim units until none remain, then sleep until the next triangle's
// dispatch. The dispatching thread claims units too and returns only after
// the completion counter reaches the unit count, so two triangles never
// overlap.
type workerPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	workers   int
	unitCount int
	started   bool
	active    bool
	wg        sync.WaitGroup

	tri *triWork
	gen uint64

	unitStats []Statistics // one per worker plus one for the caller
}

func newWorkerPool(workers, unitCount int) *workerPool {
	p := &workerPool{
		workers:   workers,
		unitCount: unitCount,
		active:    true,
		unitStats: make([]Statistics, workers+1),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// start launches the workers. Deferred to first dispatch so single-triangle
// sessions and tests without parallel work never spin up goroutines.
func (p *workerPool) start() {
	if p.started || p.workers == 0 {
		return
	}
	p.started = true
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}
}

func (p *workerPool) worker(id int) {
	p.mu.Lock()
	lastGen := uint64(0)
	for {
		for p.active && (p.gen == lastGen || p.tri == nil) {
			p.cond.Wait()
		}
		if !p.active {
			p.mu.Unlock()
			p.wg.Done()
			return
		}
		lastGen = p.gen
		tri := p.tri
		p.mu.Unlock()

		p.runUnits(tri, id)

		p.mu.Lock()
	}
}

// runUnits claims and executes units until the item's cursor passes the
// end, signalling the barrier when the last unit completes.
func (p *workerPool) runUnits(tri *triWork, statSlot int) {
	total := int64(len(tri.units))
	for {
		u := tri.next.Add(1) - 1
		if u >= total {
			return
		}
		tri.runUnit(int(u), &p.unitStats[statSlot])
		if tri.done.Add(1) == total {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		}
	}
}

// dispatch runs one triangle's units across the pool and the calling
// thread, blocking until all complete.
func (p *workerPool) dispatch(tri *triWork) {
	total := int64(len(tri.units))
	p.start()

	p.mu.Lock()
	p.tri = tri
	p.gen++
	p.cond.Broadcast()
	p.mu.Unlock()

	p.runUnits(tri, p.workers)

	p.mu.Lock()
	for tri.done.Load() < total {
		p.cond.Wait()
	}
	p.tri = nil
	p.mu.Unlock()
}

// runInline executes every unit on the calling thread.
func (p *workerPool) runInline(tri *triWork) {
	for u := range tri.units {
		tri.runUnit(u, &p.unitStats[p.workers])
	}
}

// mergeStats folds the per-worker statistics into the device totals and
// clears them for the next triangle. Runs strictly after the barrier.
func (p *workerPool) mergeStats(into *Statistics) {
	for i := range p.unitStats {
		into.add(&p.unitStats[i])
		p.unitStats[i] = Statistics{}
	}
}

// shutdown releases the workers: active flips under the lock, one broadcast
// wakes everyone, and every worker is joined before returning. The pool is
// unusable afterwards.
func (p *workerPool) shutdown() {
	p.mu.Lock()
	p.active = false
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// round16 converts a 12.4 coordinate to the first pixel whose center lies
// at or beyond it. Pixel centers sit at +8 in 12.4 units; the tie (a vertex
// exactly on a center) goes to the pixel, which is the tie-break legacy
// content depends on.
func round16(v int32) int32 {
	return (v + 7) >> 4
}

// edgeX returns the X of the edge (x0,y0)-(x1,y1) at scanline center fy,
// all in 12.4. Division truncates toward zero, matching the reference
// arithmetic.
func edgeX(x0, y0, x1, y1, fy int32) int32 {
	return x0 + int32(int64(fy-y0)*int64(x1-x0)/int64(y1-y0))
}

// triangleSpans walks the triangle's scanlines and produces the clipped
// span list plus the unclipped pixels-in total. Vertices are sorted by Y
// (X breaks ties); the active edge pair switches at the middle vertex.
func (d *Device) triangleSpans(mode fbzMode) (spans []span, pixelsIn uint64) {
	type vtx struct{ x, y int32 }
	v := [3]vtx{
		{d.fbi.ax, d.fbi.ay},
		{d.fbi.bx, d.fbi.by},
		{d.fbi.cx, d.fbi.cy},
	}
	if v[1].y < v[0].y || (v[1].y == v[0].y && v[1].x < v[0].x) {
		v[0], v[1] = v[1], v[0]
	}
	if v[2].y < v[0].y || (v[2].y == v[0].y && v[2].x < v[0].x) {
		v[0], v[2] = v[2], v[0]
	}
	if v[2].y < v[1].y || (v[2].y == v[1].y && v[2].x < v[1].x) {
		v[1], v[2] = v[2], v[1]
	}

	ystart := round16(v[0].y)
	ystop := round16(v[2].y)
	if ystart >= ystop {
		return nil, 0
	}
	ymid := round16(v[1].y)

	left, top, right, bottom := d.clipRect(mode)
	for y := ystart; y < ystop; y++ {
		fy := y<<4 + 8
		var xa, xb int32
		xa = edgeX(v[0].x, v[0].y, v[2].x, v[2].y, fy)
		if y < ymid {
			xb = edgeX(v[0].x, v[0].y, v[1].x, v[1].y, fy)
		} else {
			xb = edgeX(v[1].x, v[1].y, v[2].x, v[2].y, fy)
		}
		if xa > xb {
			xa, xb = xb, xa
		}
		x0 := round16(xa)
		x1 := round16(xb)
		if x1 <= x0 {
			continue
		}
		// Clipped-away pixels still charge the pixels-in counter.
		pixelsIn += uint64(x1 - x0)
		if int(y) < top || int(y) >= bottom {
			continue
		}
		if x0 < int32(left) {
			x0 = int32(left)
		}
		if x1 > int32(right) {
			x1 = int32(right)
		}
		if x1 <= x0 {
			continue
		}
		spans = append(spans, span{y: y, x0: x0, x1: x1})
	}
	return spans, pixelsIn
}

// partitionSpans splits the span list into at most unitCount units of
// roughly equal pixel count, at scanline granularity.
func partitionSpans(spans []span, unitCount int) []workUnit {
	if len(spans) == 0 {
		return nil
	}
	var total int64
	for _, s := range spans {
		total += int64(s.x1 - s.x0)
	}
	if unitCount > len(spans) {
		unitCount = len(spans)
	}
	target := (total + int64(unitCount) - 1) / int64(unitCount)

	var units []workUnit
	first := 0
	var acc int64
	for i, s := range spans {
		acc += int64(s.x1 - s.x0)
		if acc >= target || i == len(spans)-1 {
			units = append(units, workUnit{first: first, last: i})
			first = i + 1
			acc = 0
		}
	}
	return units
}

// drawTriangle runs full rasterization of the current register snapshot:
// span walk, partition, dispatch, barrier, statistics merge. It returns
// only when every pixel of the triangle is written, so sequential draws
// are strictly ordered.
func (d *Device) drawTriangle() {
	mode := d.fbzModeReg()

	// Texture parameters recompute lazily, once, before any sampling.
	for _, t := range d.tmus {
		if t.paramsDirty {
			t.recomputeParams()
		}
	}

	spans, pixelsIn := d.triangleSpans(mode)
	d.stats.PixelsIn += pixelsIn
	d.stats.Triangles++
	if len(spans) == 0 {
		return
	}

	tri := &triWork{
		dev:   d,
		spans: spans,
		units: partitionSpans(spans, d.pool.unitCount),
	}

	var total int64
	for _, s := range spans {
		total += int64(s.x1 - s.x0)
	}
	if d.pool.workers == 0 || total < inlinePixelCount {
		d.pool.runInline(tri)
	} else {
		d.pool.dispatch(tri)
	}
	d.pool.mergeStats(&d.stats)
}

// runUnit rasterizes one work unit's spans through the pixel pipeline.
func (t *triWork) runUnit(u int, stats *Statistics) {
	unit := t.units[u]
	for i := unit.first; i <= unit.last; i++ {
		t.dev.renderSpan(t.spans[i], stats)
	}
}
