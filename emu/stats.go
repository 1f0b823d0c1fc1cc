package emu

// Statistics counts per-stage pixel outcomes. The rasterizer accumulates one
// instance per worker and folds them into the device totals after the
// completion barrier, so workers never contend on shared counters.
type Statistics struct {
	PixelsIn     uint64 // pixels inside triangle extents, before clipping
	PixelsOut    uint64 // pixels written to the color buffer
	ChromaFail   uint64
	ZFuncFail    uint64
	AFuncFail    uint64
	StippleCount uint64 // pixels rejected by the stipple test
	Triangles    uint64
}

func (s *Statistics) add(o *Statistics) {
	s.PixelsIn += o.PixelsIn
	s.PixelsOut += o.PixelsOut
	s.ChromaFail += o.ChromaFail
	s.ZFuncFail += o.ZFuncFail
	s.AFuncFail += o.AFuncFail
	s.StippleCount += o.StippleCount
	s.Triangles += o.Triangles
}

func (s *Statistics) reset() {
	*s = Statistics{}
}
