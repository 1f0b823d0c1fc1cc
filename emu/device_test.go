package emu

import "testing"

// --- Construction tests ---

func TestDevice_InvalidDimensions(t *testing.T) {
	cases := []Config{
		{Width: 0, Height: 240},
		{Width: 320, Height: 0},
		{Width: -1, Height: 240},
		{Width: 2048, Height: 240},
		{Width: 320, Height: 2048},
	}
	for _, cfg := range cases {
		if _, err := NewDevice(cfg); err == nil {
			t.Errorf("expected error for %dx%d", cfg.Width, cfg.Height)
		}
	}
}

func TestDevice_InvalidTMUCount(t *testing.T) {
	if _, err := NewDevice(Config{Width: 320, Height: 240, TMUs: 3}); err == nil {
		t.Error("expected error for 3 TMUs")
	}
	if _, err := NewDevice(Config{Width: 320, Height: 240, TMUs: -1}); err == nil {
		t.Error("expected error for negative TMU count")
	}
}

func TestDevice_InvalidWorkerCount(t *testing.T) {
	if _, err := NewDevice(Config{Width: 320, Height: 240, Workers: -1}); err == nil {
		t.Error("expected error for negative worker count")
	}
}

func TestDevice_ResetState(t *testing.T) {
	d, err := NewDevice(Config{Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	mode := d.fbzModeReg()
	if mode.drawBuffer() != 1 {
		t.Error("reset should draw to the back buffer")
	}
	if !mode.rgbWriteMask() || !mode.auxWriteMask() {
		t.Error("reset should enable both write masks")
	}
	if !mode.enableDepthBuf() || mode.depthFunction() != CmpLess {
		t.Error("reset should enable depth testing with LESS")
	}
	if d.ReadRegister(RegColor1) != 0xffffffff {
		t.Errorf("reset color1 = %#x, want 0xffffffff", d.ReadRegister(RegColor1))
	}
	if d.ReadRegister(RegVideoDimensions) != 320<<16|240 {
		t.Errorf("videoDimensions = %#x", d.ReadRegister(RegVideoDimensions))
	}
}

func TestDevice_FrontBuffer(t *testing.T) {
	d, err := NewDevice(Config{Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	pix, w, h, stride := d.FrontBuffer()
	if w != 320 || h != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", w, h)
	}
	if stride != 320 {
		t.Errorf("stride = %d, want 320", stride)
	}
	if len(pix) != 320*240 {
		t.Errorf("plane length = %d, want %d", len(pix), 320*240)
	}
}

// --- Status register tests ---

func TestDevice_StatusVRetrace(t *testing.T) {
	d, err := NewDevice(Config{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	if d.ReadRegister(RegStatus)&(1<<6) != 0 {
		t.Error("vretrace bit set before signal")
	}
	d.SignalVRetrace()
	if d.ReadRegister(RegStatus)&(1<<6) == 0 {
		t.Error("vretrace bit clear after signal")
	}
	// A buffer swap consumes the retrace.
	d.WriteRegister(RegSwapbufferCMD, 0)
	if d.ReadRegister(RegStatus)&(1<<6) != 0 {
		t.Error("vretrace bit survived swap")
	}
}

func TestDevice_StatusFIFOAlwaysFree(t *testing.T) {
	d, err := NewDevice(Config{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	s := d.ReadRegister(RegStatus)
	if s>>12&0x3f != 0x3f {
		t.Errorf("memory FIFO free = %d, want full", s>>12&0x3f)
	}
	if s>>28&0xf != 0xf {
		t.Errorf("command FIFO free = %d, want full", s>>28&0xf)
	}
}

// --- Buffer swap tests ---

func TestDevice_DoubleBufferSwap(t *testing.T) {
	d, err := NewDevice(Config{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	if d.fbi.frontBuf != 0 || d.fbi.backBuf != 1 {
		t.Fatalf("initial front/back = %d/%d", d.fbi.frontBuf, d.fbi.backBuf)
	}
	d.fbi.swap()
	if d.fbi.frontBuf != 1 || d.fbi.backBuf != 0 {
		t.Errorf("after swap front/back = %d/%d, want 1/0", d.fbi.frontBuf, d.fbi.backBuf)
	}
	d.fbi.swap()
	if d.fbi.frontBuf != 0 || d.fbi.backBuf != 1 {
		t.Errorf("after two swaps front/back = %d/%d, want 0/1", d.fbi.frontBuf, d.fbi.backBuf)
	}
}

func TestDevice_TripleBufferRotation(t *testing.T) {
	d, err := NewDevice(Config{Width: 64, Height: 64, TripleBuffer: true})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Close()

	// Three swaps must visit all three slots as front and return to the
	// start, with front != back at every step.
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		if d.fbi.frontBuf == d.fbi.backBuf {
			t.Fatalf("front == back == %d at step %d", d.fbi.frontBuf, i)
		}
		seen[d.fbi.frontBuf] = true
		d.fbi.swap()
	}
	if len(seen) != 3 {
		t.Errorf("front visited %d slots in 3 swaps, want 3", len(seen))
	}
	if d.fbi.frontBuf != 0 {
		t.Errorf("front = %d after full rotation, want 0", d.fbi.frontBuf)
	}
}
