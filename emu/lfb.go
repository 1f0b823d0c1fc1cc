package emu

import "fmt"

// PixelFormat identifies an external pixel layout for direct framebuffer
// access. The caller's format is independent of the buffer's internal
// storage; the device converts in both directions.
type PixelFormat int

const (
	FormatRGB565 PixelFormat = iota
	FormatARGB1555
	FormatARGB8888
)

// BytesPerPixel returns the external size of one pixel in the format.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatARGB8888 {
		return 4
	}
	return 2
}

// resolveRect validates and clips a rectangle against the surface,
// returning the adjusted origin and size plus the pixel counts clipped
// off the left and top. Callers use the skip counts to index past the
// off-surface portion of the caller's data.
func (d *Device) resolveRect(x, y, w, h int) (cx, cy, cw, ch, skipX, skipY int, err error) {
	if w < 0 || h < 0 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("emu: negative rect %dx%d", w, h)
	}
	if x < 0 {
		skipX = -x
		w += x
		x = 0
	}
	if y < 0 {
		skipY = -y
		h += y
		y = 0
	}
	if x+w > d.fbi.width {
		w = d.fbi.width - x
	}
	if y+h > d.fbi.height {
		h = d.fbi.height - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return x, y, w, h, skipX, skipY, nil
}

// bufferPlane returns the selected buffer's pixel plane, or nil for the aux
// plane (which is handled as raw 16-bit data).
func (d *Device) bufferPlane(buffer int) ([]uint16, error) {
	f := d.fbi
	switch buffer {
	case BufferFront:
		base := f.bufferBase(f.frontBuf)
		return f.colorMem[base : base+f.rowPixels*f.height], nil
	case BufferBack:
		base := f.bufferBase(f.backBuf)
		return f.colorMem[base : base+f.rowPixels*f.height], nil
	case BufferAux:
		return f.auxMem, nil
	default:
		return nil, fmt.Errorf("emu: invalid buffer selector %d", buffer)
	}
}

// ReadBuffer copies a rectangle of the named buffer into data, converting
// from the native layout to the requested format. data is row-major with no
// padding and must hold w*h pixels of the requested rect; portions of the
// rect hanging off the surface leave their data untouched.
func (d *Device) ReadBuffer(buffer, x, y, w, h int, format PixelFormat, data []byte) error {
	plane, err := d.bufferPlane(buffer)
	if err != nil {
		return err
	}
	reqW, reqH := w, h
	x, y, w, h, skipX, skipY, err := d.resolveRect(x, y, w, h)
	if err != nil {
		return err
	}
	bpp := format.BytesPerPixel()
	if len(data) < reqW*reqH*bpp {
		return fmt.Errorf("emu: buffer too small: %d bytes for %dx%d", len(data), reqW, reqH)
	}
	mode := d.fbzModeReg()
	for row := 0; row < h; row++ {
		src := d.fbi.row(y+row, mode)*d.fbi.rowPixels + x
		out := data[((row+skipY)*reqW+skipX)*bpp:]
		for col := 0; col < w; col++ {
			native := plane[src+col]
			switch format {
			case FormatRGB565:
				out[col*2] = byte(native)
				out[col*2+1] = byte(native >> 8)
			case FormatARGB1555:
				v := native
				if buffer != BufferAux {
					r := native >> 11 & 0x1f
					g := native >> 6 & 0x1f // drop the extra green bit
					b := native & 0x1f
					v = 0x8000 | r<<10 | g<<5 | b
				}
				out[col*2] = byte(v)
				out[col*2+1] = byte(v >> 8)
			case FormatARGB8888:
				var r, g, b uint32
				if buffer == BufferAux {
					r = uint32(native >> 8)
					g = uint32(native >> 8)
					b = uint32(native >> 8)
				} else {
					r5 := uint32(native>>11) & 0x1f
					g6 := uint32(native>>5) & 0x3f
					b5 := uint32(native) & 0x1f
					r = r5<<3 | r5>>2
					g = g6<<2 | g6>>4
					b = b5<<3 | b5>>2
				}
				out[col*4] = byte(b)
				out[col*4+1] = byte(g)
				out[col*4+2] = byte(r)
				out[col*4+3] = 0xff
			}
		}
	}
	return nil
}

// WritePixels performs a linear framebuffer write of a horizontal run of
// pixels starting at (x, y). The pixel format and destination buffer come
// from the lfbMode register; runs hanging off the surface are clipped.
func (d *Device) WritePixels(x, y int, data []byte) error {
	m := lfbMode(d.reg[RegLfbMode])
	format := m.writeFormat()
	bpp := format.BytesPerPixel()
	if len(data)%bpp != 0 {
		return fmt.Errorf("emu: pixel run of %d bytes is not a whole number of %d-byte pixels", len(data), bpp)
	}
	w := len(data) / bpp
	if w == 0 {
		return nil
	}
	return d.WriteBuffer(m.writeBufferSelect(), x, y, w, 1, format, data)
}

// WriteBuffer copies external pixel data into a rectangle of the named
// buffer, converting the caller's format to the native layout. data is
// laid out for the requested rect; the portion hanging off the surface
// is skipped, not shifted onto it.
func (d *Device) WriteBuffer(buffer, x, y, w, h int, format PixelFormat, data []byte) error {
	plane, err := d.bufferPlane(buffer)
	if err != nil {
		return err
	}
	reqW, reqH := w, h
	x, y, w, h, skipX, skipY, err := d.resolveRect(x, y, w, h)
	if err != nil {
		return err
	}
	bpp := format.BytesPerPixel()
	if len(data) < reqW*reqH*bpp {
		return fmt.Errorf("emu: buffer too small: %d bytes for %dx%d", len(data), reqW, reqH)
	}
	mode := d.fbzModeReg()
	for row := 0; row < h; row++ {
		dst := d.fbi.row(y+row, mode)*d.fbi.rowPixels + x
		in := data[((row+skipY)*reqW+skipX)*bpp:]
		for col := 0; col < w; col++ {
			var native uint16
			switch format {
			case FormatRGB565:
				native = uint16(in[col*2]) | uint16(in[col*2+1])<<8
			case FormatARGB1555:
				v := uint16(in[col*2]) | uint16(in[col*2+1])<<8
				if buffer == BufferAux {
					native = v
				} else {
					r := v >> 10 & 0x1f
					g := v >> 5 & 0x1f
					b := v & 0x1f
					native = r<<11 | (g<<1|g>>4)<<5 | b
				}
			case FormatARGB8888:
				b := uint32(in[col*4])
				g := uint32(in[col*4+1])
				r := uint32(in[col*4+2])
				if buffer == BufferAux {
					native = uint16(r << 8)
				} else {
					native = uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
				}
			}
			plane[dst+col] = native
		}
	}
	return nil
}
