package emu

// Buffer selectors for rect access and presentation.
const (
	BufferFront = iota
	BufferBack
	BufferAux
)

// fbi is the framebuffer interface: color/aux storage, buffer layout and the
// FBI half of the triangle interpolation state.
type fbi struct {
	// Color storage. One contiguous arena holding every color buffer;
	// bufOffset gives each buffer's starting pixel. The aux (depth or
	// alpha) plane is a separate plane of the same dimensions.
	colorMem  []uint16
	auxMem    []uint16
	bufOffset [3]int
	numBufs   int
	frontBuf  int
	backBuf   int

	width     int
	height    int
	rowPixels int

	swapCount uint64

	// Fog tables, unpacked immediately on register write since the pixel
	// pipeline reads them per pixel.
	fogBlend [64]uint8
	fogDelta [64]uint8

	// Triangle interpolation state. Color and depth carry 12 fractional
	// bits; W carries 32. Written by triangle setup, read by the
	// rasterizer workers.
	startR, startG, startB, startA int32
	startZ                         int32
	startW                         int64
	dRdX, dGdX, dBdX, dAdX         int32
	dZdX                           int32
	dWdX                           int64
	dRdY, dGdY, dBdY, dAdY         int32
	dZdY                           int32
	dWdY                           int64

	// Raw 12.4 vertex coordinates.
	ax, ay, bx, by, cx, cy int32
}

func newFBI(width, height, numBufs int) *fbi {
	f := &fbi{
		width:     width,
		height:    height,
		rowPixels: width,
		numBufs:   numBufs,
		frontBuf:  0,
		backBuf:   1,
	}
	plane := f.rowPixels * height
	f.colorMem = make([]uint16, plane*numBufs)
	f.auxMem = make([]uint16, plane)
	for i := 0; i < numBufs; i++ {
		f.bufOffset[i] = plane * i
	}
	return f
}

// bufferBase returns the arena offset of the given buffer slot.
func (f *fbi) bufferBase(slot int) int {
	return f.bufOffset[slot]
}

// drawBase resolves the fbzMode draw-buffer field to an arena offset.
func (f *fbi) drawBase(mode fbzMode) int {
	if mode.drawBuffer() == 0 {
		return f.bufOffset[f.frontBuf]
	}
	return f.bufOffset[f.backBuf]
}

// row maps a scanline to a stored row honoring the Y-origin convention.
func (f *fbi) row(y int, mode fbzMode) int {
	if mode.yOriginInverted() {
		return f.height - 1 - y
	}
	return y
}

// swap advances the front/back (and triple, when allocated) buffer indices.
// The permutation invariant holds by construction: indices rotate through
// the allocated slots.
func (f *fbi) swap() {
	old := f.frontBuf
	f.frontBuf = f.backBuf
	if f.numBufs == 3 {
		third := 3 - old - f.backBuf
		f.backBuf = third
	} else {
		f.backBuf = old
	}
	f.swapCount++
}

// setFogWord unpacks one fog-table register into two table entries: delta in
// the low byte, blend in the next, then the second entry in the high half.
func (f *fbi) setFogWord(index int, value uint32) {
	f.fogDelta[index*2+0] = uint8(value)
	f.fogBlend[index*2+0] = uint8(value >> 8)
	f.fogDelta[index*2+1] = uint8(value >> 16)
	f.fogBlend[index*2+1] = uint8(value >> 24)
}

// fastfill writes a dithered fill color into the clip rectangle of the draw
// buffer, and the depth clear value into the aux plane, each gated by the
// corresponding write mask.
func (d *Device) fastfill() {
	mode := d.fbzModeReg()
	left, top, right, bottom := d.clipRect(mode)
	f := d.fbi

	if mode.rgbWriteMask() {
		fill := rgbaFromPacked(d.reg[RegColor1])
		base := f.drawBase(mode)
		matrix := &dither4x4
		if mode.dither2x2() {
			matrix = &dither2x2
		}
		for y := top; y < bottom; y++ {
			row := base + f.row(y, mode)*f.rowPixels
			for x := left; x < right; x++ {
				var pix uint16
				if mode.enableDithering() {
					dith := matrix[(y&3)<<2|(x&3)]
					pix = uint16(ditherRB[dith][fill.r])<<11 |
						uint16(ditherG[dith][fill.g])<<5 |
						uint16(ditherRB[dith][fill.b])
				} else {
					pix = uint16(fill.r>>3)<<11 | uint16(fill.g>>2)<<5 | uint16(fill.b>>3)
				}
				f.colorMem[row+x] = pix
			}
		}
	}

	if mode.auxWriteMask() {
		depth := uint16(d.reg[RegZaColor])
		for y := top; y < bottom; y++ {
			row := f.row(y, mode) * f.rowPixels
			for x := left; x < right; x++ {
				f.auxMem[row+x] = depth
			}
		}
	}
}

// clipRect returns the active clip rectangle in pixels. With clipping
// disabled it spans the full surface.
func (d *Device) clipRect(mode fbzMode) (left, top, right, bottom int) {
	if !mode.enableClipping() {
		return 0, 0, d.fbi.width, d.fbi.height
	}
	lr := d.reg[RegClipLeftRight]
	tb := d.reg[RegClipLowYHighY]
	left = int(lr>>16) & 0x3ff
	right = int(lr) & 0x3ff
	top = int(tb>>16) & 0x3ff
	bottom = int(tb) & 0x3ff
	if right > d.fbi.width {
		right = d.fbi.width
	}
	if bottom > d.fbi.height {
		bottom = d.fbi.height
	}
	if left > right {
		left = right
	}
	if top > bottom {
		top = bottom
	}
	return left, top, right, bottom
}
