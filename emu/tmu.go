package emu

import "fmt"

// nccTable expands 12 packed registers into Y/I/Q components. The 256-entry
// texel expansion is rebuilt lazily: writes only mark the table dirty, and
// the sampler regenerates it before first use.
type nccTable struct {
	dirty bool
	raw   [12]uint32

	y    [16]int32
	irgb [4][3]int32
	qrgb [4][3]int32

	texel [256]uint32 // packed ARGB expansion
}

// setWord stores one of the 12 table registers and reports whether the
// contents changed. Rewriting an identical value leaves the dirty state
// untouched so redundant uploads cannot force regeneration.
func (n *nccTable) setWord(index int, value uint32) bool {
	if n.raw[index] == value {
		return false
	}
	n.raw[index] = value
	n.dirty = true
	return true
}

// update rebuilds the decode table from the packed registers.
func (n *nccTable) update() {
	// 4 Y registers hold 16 unsigned 8-bit Y values.
	for i := 0; i < 4; i++ {
		n.y[i*4+0] = int32(n.raw[i]) & 0xff
		n.y[i*4+1] = int32(n.raw[i]>>8) & 0xff
		n.y[i*4+2] = int32(n.raw[i]>>16) & 0xff
		n.y[i*4+3] = int32(n.raw[i]>>24) & 0xff
	}
	// 4 I and 4 Q registers each hold three signed 9-bit components.
	signed9 := func(v uint32) int32 { return int32(v<<23) >> 23 }
	for i := 0; i < 4; i++ {
		n.irgb[i][0] = signed9(n.raw[4+i] >> 18)
		n.irgb[i][1] = signed9(n.raw[4+i] >> 9)
		n.irgb[i][2] = signed9(n.raw[4+i])
		n.qrgb[i][0] = signed9(n.raw[8+i] >> 18)
		n.qrgb[i][1] = signed9(n.raw[8+i] >> 9)
		n.qrgb[i][2] = signed9(n.raw[8+i])
	}
	for t := 0; t < 256; t++ {
		y := n.y[(t>>4)&0xf]
		i := (t >> 2) & 3
		q := t & 3
		r := clamp255(y + n.irgb[i][0] + n.qrgb[q][0])
		g := clamp255(y + n.irgb[i][1] + n.qrgb[q][1])
		b := clamp255(y + n.irgb[i][2] + n.qrgb[q][2])
		n.texel[t] = 0xff000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
	n.dirty = false
}

// tmu is one texture mapping unit.
type tmu struct {
	mem  []byte
	mask uint32 // arena size is a power of two; mask wraps every address

	reg [0x100]uint32

	ncc      [2]nccTable
	palette  [256]uint32
	palDirty bool

	// Derived layout, rebuilt by recomputeParams when paramsDirty.
	paramsDirty bool
	lodOffset   [9]uint32
	widths      [9]int32 // texels per row at each LOD
	heights     [9]int32
	lodMin      int32 // quarter-LOD units
	lodMax      int32
	lodBias     int32

	// 256-entry lookup for the current 8-bit format; nil for direct
	// 16-bit formats and reserved codes.
	lookup *[256]uint32

	// Interpolation state, 32 fractional bits.
	startS, startT, startW int64
	dSdX, dTdX, dWdX       int64
	dSdY, dTdY, dWdY       int64
}

func newTMU(memBytes int) *tmu {
	// Round the arena up to a power of two so masked addressing wraps
	// instead of escaping.
	size := 1
	for size < memBytes {
		size <<= 1
	}
	return &tmu{
		mem:         make([]byte, size),
		mask:        uint32(size - 1),
		paramsDirty: true,
	}
}

func (t *tmu) mode() textureMode { return textureMode(t.reg[RegTextureMode]) }

// static 8-bit format expansions, shared by every TMU
var (
	lutRGB332  [256]uint32
	lutAlpha8  [256]uint32
	lutIntens8 [256]uint32
	lutAI44    [256]uint32
	lutsBuilt  bool
)

func buildStaticLUTs() {
	if lutsBuilt {
		return
	}
	for i := 0; i < 256; i++ {
		r := (i >> 5) & 7
		g := (i >> 2) & 7
		b := i & 3
		r = (r << 5) | (r << 2) | (r >> 1)
		g = (g << 5) | (g << 2) | (g >> 1)
		b = (b << 6) | (b << 4) | (b << 2) | b
		lutRGB332[i] = 0xff000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)

		lutAlpha8[i] = uint32(i)<<24 | 0x00ffffff

		lutIntens8[i] = 0xff000000 | uint32(i)<<16 | uint32(i)<<8 | uint32(i)

		a := (i >> 4) & 0xf
		v := i & 0xf
		a = (a << 4) | a
		v = (v << 4) | v
		lutAI44[i] = uint32(a)<<24 | uint32(v)<<16 | uint32(v)<<8 | uint32(v)
	}
	lutsBuilt = true
}

// setNCCWord routes a write within the 12-register NCC window. Entries 4-11
// with bit 31 set are palette writes instead: bits 30-24 pick the entry
// within the half selected by the table window, and the low 24 bits carry
// the color. Rewriting identical contents reports no change, so redundant
// uploads never disturb dirty state.
func (t *tmu) setNCCWord(table, index int, value uint32) bool {
	if index >= 4 && value&0x80000000 != 0 {
		entry := (value>>24)&0x7f | uint32(table)<<7
		color := 0xff000000 | value&0x00ffffff
		if t.palette[entry] != color {
			t.palette[entry] = color
			t.palDirty = true
			return true
		}
		return false
	}
	return t.ncc[table].setWord(index, value)
}

// recomputeParams rebuilds the derived layout after texture-mode, LOD or
// base-address writes. It runs at most once per triangle, on the dispatching
// thread, before any worker samples the unit.
func (t *tmu) recomputeParams() {
	buildStaticLUTs()
	lod := tLOD(t.reg[RegTLOD])
	mode := t.mode()

	t.lodMin = lod.lodMin()
	t.lodMax = lod.lodMax()
	t.lodBias = lod.lodBias()

	// Level 0 is up to 256 texels on the wider axis; the aspect field
	// shrinks the narrower axis.
	wide, narrow := int32(256), int32(256)>>lod.lodAspect()
	w, h := wide, narrow
	if !lod.lodSIsWider() {
		w, h = narrow, wide
	}
	for l := 0; l < 9; l++ {
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		t.widths[l] = w
		t.heights[l] = h
		w >>= 1
		h >>= 1
	}

	bpp := uint32(1)
	if mode.format() >= 8 {
		bpp = 2
	}
	base := t.reg[RegTexBaseAddr]
	if !lod.multiBaseAddr() {
		off := base
		for l := 0; l < 9; l++ {
			t.lodOffset[l] = off & t.mask
			off += uint32(t.widths[l]*t.heights[l]) * bpp
		}
	} else {
		t.lodOffset[0] = base & t.mask
		t.lodOffset[1] = t.reg[RegTexBaseAddr1] & t.mask
		t.lodOffset[2] = t.reg[RegTexBaseAddr2] & t.mask
		off := t.reg[RegTexBaseAddr38]
		for l := 3; l < 9; l++ {
			t.lodOffset[l] = off & t.mask
			off += uint32(t.widths[l]*t.heights[l]) * bpp
		}
	}

	// Regenerate the format lookup table.
	switch mode.format() {
	case TexRGB332:
		t.lookup = &lutRGB332
	case TexYIQ, TexAYIQ:
		n := &t.ncc[mode.nccTableSelect()]
		if n.dirty {
			n.update()
		}
		t.lookup = &n.texel
	case TexAlpha8:
		t.lookup = &lutAlpha8
	case TexIntens8:
		t.lookup = &lutIntens8
	case TexAI44:
		t.lookup = &lutAI44
	case TexPalette8:
		t.lookup = &t.palette
		t.palDirty = false
	default:
		t.lookup = nil
	}

	t.paramsDirty = false
}

// WriteTexture copies texel data into a unit's arena at the given byte
// offset. Addresses wrap at the arena size, the same as sampling does.
func (d *Device) WriteTexture(unit int, offset uint32, data []byte) error {
	if unit < 0 || unit >= len(d.tmus) {
		return fmt.Errorf("emu: invalid texture unit %d", unit)
	}
	t := d.tmus[unit]
	for i, b := range data {
		t.mem[(offset+uint32(i))&t.mask] = b
	}
	return nil
}
