package emu

import "testing"

// --- Format conversion tests ---

func TestLFB_WriteRGB565ReadBack(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	in := []byte{0x1f, 0xf8} // 0xf81f, magenta
	if err := d.WriteBuffer(BufferFront, 3, 4, 1, 1, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	pix, _, _, stride := d.FrontBuffer()
	if pix[4*stride+3] != 0xf81f {
		t.Errorf("native pixel = %#x, want 0xf81f", pix[4*stride+3])
	}

	out := make([]byte, 2)
	if err := d.ReadBuffer(BufferFront, 3, 4, 1, 1, FormatRGB565, out); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if out[0] != 0x1f || out[1] != 0xf8 {
		t.Errorf("read back %#x %#x", out[0], out[1])
	}
}

func TestLFB_ARGB8888RoundTrip(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	// 565-exact channel values survive the round trip bit for bit.
	in := []byte{0x00, 0xfc, 0xf8, 0xff} // b, g, r, a
	if err := d.WriteBuffer(BufferFront, 0, 0, 1, 1, FormatARGB8888, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	out := make([]byte, 4)
	if err := d.ReadBuffer(BufferFront, 0, 0, 1, 1, FormatARGB8888, out); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	wantB := byte(0x00)
	wantG := byte(0x3f<<2 | 0x3f>>4)
	wantR := byte(0x1f<<3 | 0x1f>>2)
	if out[0] != wantB || out[1] != wantG || out[2] != wantR || out[3] != 0xff {
		t.Errorf("round trip = % x, want %x %x %x ff", out, wantB, wantG, wantR)
	}
}

func TestLFB_ARGB1555Conversion(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	// Opaque mid-green: a=1, r=0, g=0x15, b=0 -> 0x82a0.
	in := []byte{0xa0, 0x82}
	if err := d.WriteBuffer(BufferFront, 0, 0, 1, 1, FormatARGB1555, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	pix, _, _, _ := d.FrontBuffer()
	// 5-bit green widens to 6 bits with the top bit replicated.
	wantG := uint16(0x15<<1 | 0x15>>4)
	if pix[0] != wantG<<5 {
		t.Errorf("native pixel = %#x, want %#x", pix[0], wantG<<5)
	}

	out := make([]byte, 2)
	if err := d.ReadBuffer(BufferFront, 0, 0, 1, 1, FormatARGB1555, out); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	got := uint16(out[0]) | uint16(out[1])<<8
	if got != 0x8000|0x15<<5 {
		t.Errorf("read back %#x, want %#x", got, 0x8000|0x15<<5)
	}
}

// --- Aux plane tests ---

func TestLFB_AuxPlaneRawAccess(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	in := []byte{0x34, 0x12}
	if err := d.WriteBuffer(BufferAux, 5, 6, 1, 1, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if d.fbi.auxMem[6*64+5] != 0x1234 {
		t.Errorf("aux value = %#x, want 0x1234", d.fbi.auxMem[6*64+5])
	}

	out := make([]byte, 2)
	if err := d.ReadBuffer(BufferAux, 5, 6, 1, 1, FormatRGB565, out); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if out[0] != 0x34 || out[1] != 0x12 {
		t.Errorf("aux read back %#x %#x", out[0], out[1])
	}
}

// --- Buffer selection tests ---

func TestLFB_BackBufferIsSeparate(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	in := []byte{0xff, 0xff}
	if err := d.WriteBuffer(BufferBack, 0, 0, 1, 1, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0 {
		t.Error("back-buffer write visible in the front buffer")
	}
	d.WriteRegister(RegSwapbufferCMD, 0)
	pix, _, _, _ = d.FrontBuffer()
	if pix[0] != 0xffff {
		t.Error("back-buffer write lost after swap")
	}
}

func TestLFB_InvalidBufferSelector(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	if err := d.ReadBuffer(7, 0, 0, 1, 1, FormatRGB565, make([]byte, 2)); err == nil {
		t.Error("expected error for invalid buffer selector")
	}
}

// --- Bounds tests ---

func TestLFB_RectClampedToSurface(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	// A rect hanging off the right edge clips; the data stays laid out
	// for the requested rect and the off-surface tail is skipped.
	in := []byte{0xff, 0xff, 0xee, 0xee, 0x11, 0x11, 0x22, 0x22}
	if err := d.WriteBuffer(BufferFront, 62, 0, 4, 1, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	pix, _, _, stride := d.FrontBuffer()
	if pix[62] != 0xffff || pix[63] != 0xeeee {
		t.Errorf("clipped rect columns = %#x, %#x, want 0xffff, 0xeeee", pix[62], pix[63])
	}
	if pix[1*stride] != 0 {
		t.Error("clipped rect escaped its row")
	}
}

func TestLFB_NegativeOriginSkipsData(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	// A rect starting off-surface drops the off-surface rows and
	// columns of the data instead of shifting them onto the surface.
	in := make([]byte, 3*2*2)
	for p := 0; p < 6; p++ {
		v := uint16(0x1110 * (p + 1))
		in[p*2] = byte(v)
		in[p*2+1] = byte(v >> 8)
	}
	if err := d.WriteBuffer(BufferFront, -1, -1, 3, 2, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	pix, _, _, stride := d.FrontBuffer()
	// Only the bottom-right 2x1 of the rect lands, at (0,0) and (1,0):
	// data pixels 4 and 5.
	if pix[0] != 0x5550 || pix[1] != 0x6660 {
		t.Errorf("row 0 = %#x, %#x, want 0x5550, 0x6660", pix[0], pix[1])
	}
	if pix[2] != 0 || pix[1*stride] != 0 {
		t.Error("clipped rect wrote outside its surviving cells")
	}

	out := make([]byte, 3*2*2)
	if err := d.ReadBuffer(BufferFront, -1, -1, 3, 2, FormatRGB565, out); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if got := uint16(out[4*2]) | uint16(out[4*2+1])<<8; got != 0x5550 {
		t.Errorf("read-back pixel 4 = %#x, want 0x5550", got)
	}
	for p := 0; p < 4; p++ {
		if out[p*2] != 0 || out[p*2+1] != 0 {
			t.Errorf("off-surface data pixel %d touched by read", p)
		}
	}
}

func TestLFB_NegativeRectRejected(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	if err := d.WriteBuffer(BufferFront, 0, 0, -1, 1, FormatRGB565, nil); err == nil {
		t.Error("expected error for negative width")
	}
}

func TestLFB_ShortDataRejected(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	if err := d.WriteBuffer(BufferFront, 0, 0, 4, 4, FormatARGB8888, make([]byte, 8)); err == nil {
		t.Error("expected error for undersized data")
	}
	if err := d.ReadBuffer(BufferFront, 0, 0, 4, 4, FormatRGB565, make([]byte, 8)); err == nil {
		t.Error("expected error for undersized read buffer")
	}
}

// --- Y-origin tests ---

func TestLFB_YOriginInverted(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9|1<<17)

	in := []byte{0xff, 0xff}
	if err := d.WriteBuffer(BufferFront, 0, 0, 1, 1, FormatRGB565, in); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	pix, _, _, stride := d.FrontBuffer()
	if pix[63*stride] != 0xffff {
		t.Error("inverted Y origin did not map row 0 to the bottom")
	}
	if pix[0] != 0 {
		t.Error("inverted Y origin also wrote the top row")
	}
}
