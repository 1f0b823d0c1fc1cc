package emu

import "testing"

// makeTestDevice builds a 64x64 device for pipeline tests.
func makeTestDevice(t *testing.T, workers, tmus int) *Device {
	t.Helper()
	d, err := NewDevice(Config{
		Width:   64,
		Height:  64,
		TMUs:    tmus,
		TMUMem:  1 << 17,
		Workers: workers,
	})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// --- Flat triangle tests ---

func TestRender_FlatTriangle(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9) // color only, draw front, no dither
	writeRightTriangle(d, 200, 100, 50)

	pix, _, _, stride := d.FrontBuffer()
	want := uint16(200>>3)<<11 | uint16(100>>2)<<5 | uint16(50>>3)

	// Row y covers [0, 63-y).
	for y := 0; y < 63; y++ {
		for x := 0; x < 64; x++ {
			got := pix[y*stride+x]
			if x < 63-y {
				if got != want {
					t.Fatalf("pixel (%d,%d) = %#x, want %#x", x, y, got, want)
				}
			} else if got != 0 {
				t.Fatalf("pixel (%d,%d) = %#x outside the triangle", x, y, got)
			}
		}
	}

	stats := d.Stats()
	if stats.PixelsIn != 2016 || stats.PixelsOut != 2016 {
		t.Errorf("pixelsIn/out = %d/%d, want 2016/2016", stats.PixelsIn, stats.PixelsOut)
	}
	if stats.Triangles != 1 {
		t.Errorf("triangles = %d, want 1", stats.Triangles)
	}
}

func TestRender_GouraudGradient(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9)

	// Red ramps 4 counts per pixel in X from zero at the vertex-A anchor.
	d.WriteRegister(RegVertexAx, 0)
	d.WriteRegister(RegVertexAy, 0)
	d.WriteRegister(RegVertexBx, 64<<4)
	d.WriteRegister(RegVertexBy, 0)
	d.WriteRegister(RegVertexCx, 0)
	d.WriteRegister(RegVertexCy, 64<<4)
	d.WriteRegister(RegDRdX, 4<<12)
	d.WriteRegister(RegTriangleCMD, 0)

	pix, _, _, stride := d.FrontBuffer()
	for _, x := range []int{0, 10, 40, 62} {
		wantR := uint16(x*4) >> 3
		got := pix[0*stride+x] >> 11
		if got != wantR {
			t.Errorf("pixel (%d,0) red = %d, want %d", x, got, wantR)
		}
	}
}

// --- Fastfill and depth tests ---

func TestRender_FastfillColorAndDepth(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9|1<<10) // draw front, both planes, no dither
	d.WriteRegister(RegColor1, 0x00ff0000)
	d.WriteRegister(RegZaColor, 0xfff0)
	d.WriteRegister(RegFastfillCMD, 0)

	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0xf800 || pix[64*64-1] != 0xf800 {
		t.Errorf("fill color = %#x / %#x, want 0xf800", pix[0], pix[64*64-1])
	}
	if d.fbi.auxMem[0] != 0xfff0 || d.fbi.auxMem[64*64-1] != 0xfff0 {
		t.Errorf("fill depth = %#x, want 0xfff0", d.fbi.auxMem[0])
	}
}

func TestRender_FastfillHonorsWriteMasks(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<10) // aux only
	d.WriteRegister(RegColor1, 0x00ffffff)
	d.WriteRegister(RegZaColor, 0x1234)
	d.WriteRegister(RegFastfillCMD, 0)

	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0 {
		t.Error("color plane written with rgb mask off")
	}
	if d.fbi.auxMem[0] != 0x1234 {
		t.Error("aux plane not written with aux mask on")
	}
}

func TestRender_DepthTestRejects(t *testing.T) {
	d := makeTestDevice(t, 0, 0)

	// Clear depth to the far plane, then draw near and far triangles.
	d.WriteRegister(RegFbzMode, 1<<9|1<<10)
	d.WriteRegister(RegZaColor, 0xffff)
	d.WriteRegister(RegFastfillCMD, 0)

	depthMode := uint32(1<<9 | 1<<10 | 1<<4 | CmpLess<<5)
	d.WriteRegister(RegFbzMode, depthMode)

	// Near triangle at Z=0x1000 passes against 0xffff.
	d.WriteRegister(RegStartZ, 0x1000<<12)
	writeRightTriangle(d, 255, 0, 0)
	if d.stats.ZFuncFail != 0 {
		t.Fatalf("near triangle failed depth %d times", d.stats.ZFuncFail)
	}
	if d.fbi.auxMem[0] != 0x1000 {
		t.Errorf("depth write = %#x, want 0x1000", d.fbi.auxMem[0])
	}

	// Far triangle at Z=0x8000 loses everywhere.
	d.WriteRegister(RegStartZ, 0x8000<<12)
	writeRightTriangle(d, 0, 255, 0)
	if d.stats.ZFuncFail != 2016 {
		t.Errorf("far triangle zFuncFail = %d, want 2016", d.stats.ZFuncFail)
	}

	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0xf800 {
		t.Errorf("pixel (0,0) = %#x, want the near triangle's red", pix[0])
	}
}

func TestRender_DepthEqualBoundary(t *testing.T) {
	// At exactly equal depth, LESS rejects and LESSEQUAL accepts.
	for _, tc := range []struct {
		fn   uint32
		fail uint64
	}{
		{CmpLess, 2016},
		{CmpLessEqual, 0},
	} {
		d := makeTestDevice(t, 0, 0)
		d.WriteRegister(RegFbzMode, 1<<9|1<<10)
		d.WriteRegister(RegZaColor, 0x1000)
		d.WriteRegister(RegFastfillCMD, 0)

		d.WriteRegister(RegFbzMode, 1<<9|1<<10|1<<4|tc.fn<<5)
		d.WriteRegister(RegStartZ, 0x1000<<12)
		writeRightTriangle(d, 255, 255, 255)
		if d.stats.ZFuncFail != tc.fail {
			t.Errorf("fn %d zFuncFail = %d, want %d", tc.fn, d.stats.ZFuncFail, tc.fail)
		}
	}
}

// --- Swap tests ---

func TestRender_SwapPresentsBackBuffer(t *testing.T) {
	d := makeTestDevice(t, 0, 0)

	// Default mode draws to the back buffer; the front stays clear until
	// the swap.
	d.WriteRegister(RegFbzMode, 1<<14|1<<9)
	writeRightTriangle(d, 255, 255, 255)

	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0 {
		t.Fatal("draw to back buffer leaked into the front")
	}
	d.WriteRegister(RegSwapbufferCMD, 0)
	pix, _, _, _ = d.FrontBuffer()
	if pix[0] != 0xffff {
		t.Errorf("front after swap = %#x, want 0xffff", pix[0])
	}
}

// --- Textured pipeline tests ---

// setupDualTMU fills unit 0 with solid red and unit 1 with solid blue
// RGB565 textures and selects the texture output in the color path.
func setupDualTMU(t *testing.T, unit0Mode uint32) *Device {
	d := makeTestDevice(t, 0, 2)
	d.WriteRegister(RegFbzMode, 1<<9)
	d.WriteRegister(RegFbzColorPath, CCRGBTexture|CCATexture<<2)

	// Unit 1 passes its own texel downstream.
	d.WriteRegister(uint32(ChipTMU1)<<8|RegTextureMode,
		TexRGB565<<8|1<<18|1<<27)
	d.WriteRegister(uint32(ChipTMU0)<<8|RegTextureMode, unit0Mode)

	d.tmus[0].mem[0] = 0x00 // 0xf800, red
	d.tmus[0].mem[1] = 0xf8
	d.tmus[1].mem[0] = 0x1f // 0x001f, blue
	d.tmus[1].mem[1] = 0x00
	return d
}

func TestRender_DualTMUModulate(t *testing.T) {
	// Unit 0 multiplies the incoming blue by its local red: black.
	mode := uint32(TexRGB565<<8 | MselCLocal<<14 | 1<<17 | MselCLocal<<23 | 1<<26)
	d := setupDualTMU(t, mode)
	writeRightTriangle(d, 0, 0, 0)

	pix, _, _, stride := d.FrontBuffer()
	if pix[0] != 0x0000 {
		t.Errorf("modulated pixel = %#x, want black", pix[0])
	}
	if pix[10*stride+10] != 0x0000 {
		t.Errorf("modulated interior pixel = %#x, want black", pix[10*stride+10])
	}
	if d.stats.PixelsOut != 2016 {
		t.Errorf("pixelsOut = %d, want 2016", d.stats.PixelsOut)
	}
}

func TestRender_DualTMUAdd(t *testing.T) {
	// Unit 0 adds its local red to the incoming blue: magenta.
	mode := uint32(TexRGB565<<8 | 1<<18)
	d := setupDualTMU(t, mode)
	writeRightTriangle(d, 0, 0, 0)

	pix, _, _, _ := d.FrontBuffer()
	want := uint16(0xf81f)
	if pix[0] != want {
		t.Errorf("added pixel = %#x, want %#x", pix[0], want)
	}
}

func TestRender_SingleTMUDecal(t *testing.T) {
	// One unit, texel passed straight through the color path.
	d := makeTestDevice(t, 0, 1)
	d.WriteRegister(RegFbzMode, 1<<9)
	d.WriteRegister(RegFbzColorPath, CCRGBTexture|CCATexture<<2)
	d.WriteRegister(uint32(ChipTMU0)<<8|RegTextureMode, TexRGB565<<8|1<<18|1<<27)
	d.tmus[0].mem[0] = 0xe0 // 0x07e0, green
	d.tmus[0].mem[1] = 0x07

	writeRightTriangle(d, 0, 0, 0)
	pix, _, _, _ := d.FrontBuffer()
	if pix[0] != 0x07e0 {
		t.Errorf("decal pixel = %#x, want green", pix[0])
	}
}

// --- Rejection statistics tests ---

func TestRender_ChromaKeyRejects(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9|1<<1)
	d.WriteRegister(RegChromaKey, 0x00c86432) // the triangle's flat color
	writeRightTriangle(d, 200, 100, 50)

	if d.stats.ChromaFail != 2016 || d.stats.PixelsOut != 0 {
		t.Errorf("chromaFail/pixelsOut = %d/%d, want 2016/0",
			d.stats.ChromaFail, d.stats.PixelsOut)
	}
}

func TestRender_AlphaTestRejects(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9)
	// Alpha test GREATER with reference 0x80; iterated alpha stays 0.
	d.WriteRegister(RegAlphaMode, 1|CmpGreater<<1|0x80<<24)
	writeRightTriangle(d, 255, 255, 255)

	if d.stats.AFuncFail != 2016 || d.stats.PixelsOut != 0 {
		t.Errorf("aFuncFail/pixelsOut = %d/%d, want 2016/0",
			d.stats.AFuncFail, d.stats.PixelsOut)
	}
}

func TestRender_StipplePatternCheckerboard(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	// Pattern mode with alternating bits per row group.
	d.WriteRegister(RegFbzMode, 1<<9|1<<2|1<<12)
	d.WriteRegister(RegStipple, 0xaaaaaaaa)
	writeRightTriangle(d, 255, 255, 255)

	pix, _, _, _ := d.FrontBuffer()
	// Bit index (y&3)<<3 | (^x&7): even/odd X alternate within a row.
	if pix[0] == pix[1] {
		t.Error("adjacent pixels match under a checkerboard stipple")
	}
	if d.stats.StippleCount == 0 {
		t.Error("stipple rejected nothing")
	}
}

// --- Dither tests ---

func TestRender_DitherVariesWithinBlock(t *testing.T) {
	d := makeTestDevice(t, 0, 0)
	d.WriteRegister(RegFbzMode, 1<<9|1<<8)
	writeRightTriangle(d, 128, 128, 128)

	pix, _, _, stride := d.FrontBuffer()
	// A mid-gray flat fill must not be uniform under 4x4 ordered dither.
	uniform := true
	base := pix[0]
	for y := 0; y < 4 && uniform; y++ {
		for x := 0; x < 4; x++ {
			if pix[y*stride+x] != base {
				uniform = false
				break
			}
		}
	}
	if uniform {
		t.Error("dithered fill is uniform across the 4x4 block")
	}
}
