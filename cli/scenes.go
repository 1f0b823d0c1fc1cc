package cli

import (
	"math"

	"github.com/user-none/emsst/emu"
)

// A Scene is a register-level demo program. Init runs once when the scene
// becomes active and leaves every mode register it depends on in a known
// state; Frame submits one frame of geometry and ends with a buffer swap.
type Scene struct {
	Name  string
	Init  func(d *emu.Device)
	Frame func(d *emu.Device, frame int)
}

// Scenes returns the built-in demo programs in display order.
func Scenes() []Scene {
	return []Scene{gouraudScene(), multitexScene(), fogScene(), blendScene()}
}

// FindScene looks a scene up by name.
func FindScene(name string) (Scene, bool) {
	for _, s := range Scenes() {
		if s.Name == name {
			return s, true
		}
	}
	return Scene{}, false
}

// SceneNames returns the names of the built-in scenes.
func SceneNames() []string {
	var names []string
	for _, s := range Scenes() {
		names = append(names, s.Name)
	}
	return names
}

// Draw to the back buffer with RGB and aux writes enabled.
const modeDrawBack = 1<<14 | 1<<9 | 1<<10

// Triangle setup engine parameter group selects.
const (
	setupRGB   = 1 << 0
	setupAlpha = 1 << 1
	setupWb    = 1 << 3
	setupS0T0  = 1 << 5
	setupS1T1  = 1 << 7
)

func clear(d *emu.Device, color0, depth uint32) {
	d.WriteRegister(emu.RegColor0, color0)
	d.WriteRegister(emu.RegZaColor, depth)
	d.WriteRegister(emu.RegFastfillCMD, 0)
}

func swap(d *emu.Device) {
	d.WriteRegister(emu.RegSwapbufferCMD, 0)
}

func setupBegin(d *emu.Device, mode uint32) {
	d.WriteRegister(emu.RegSSetupMode, mode)
	d.WriteRegister(emu.RegSBeginTriCMD, 0)
}

func setupVertex(d *emu.Device, x, y float32, argb uint32) {
	d.WriteRegister(emu.RegSVx, math.Float32bits(x))
	d.WriteRegister(emu.RegSVy, math.Float32bits(y))
	d.WriteRegister(emu.RegSARGB, argb)
	d.WriteRegister(emu.RegSDrawTriCMD, 0)
}

// setupTexVertex mirrors the texture coordinate to both units so dual-unit
// combines sample the same spot of each texture.
func setupTexVertex(d *emu.Device, x, y, s, t float32, argb uint32) {
	d.WriteRegister(emu.RegSVx, math.Float32bits(x))
	d.WriteRegister(emu.RegSVy, math.Float32bits(y))
	d.WriteRegister(emu.RegSARGB, argb)
	d.WriteRegister(emu.RegSS0, math.Float32bits(s))
	d.WriteRegister(emu.RegST0, math.Float32bits(t))
	d.WriteRegister(emu.RegSS1, math.Float32bits(s))
	d.WriteRegister(emu.RegST1, math.Float32bits(t))
	d.WriteRegister(emu.RegSDrawTriCMD, 0)
}

func setupFogVertex(d *emu.Device, x, y, w float32, argb uint32) {
	d.WriteRegister(emu.RegSVx, math.Float32bits(x))
	d.WriteRegister(emu.RegSVy, math.Float32bits(y))
	d.WriteRegister(emu.RegSARGB, argb)
	d.WriteRegister(emu.RegSWb, math.Float32bits(w))
	d.WriteRegister(emu.RegSDrawTriCMD, 0)
}

// gouraudScene spins a color-interpolated triangle around the screen
// center.
func gouraudScene() Scene {
	return Scene{
		Name: "gouraud",
		Init: func(d *emu.Device) {
			d.WriteRegister(emu.RegFbzColorPath, 0) // iterated RGBA
			d.WriteRegister(emu.RegAlphaMode, 0)
			d.WriteRegister(emu.RegFogMode, 0)
			d.WriteRegister(emu.RegFbzMode, modeDrawBack|1<<8)
		},
		Frame: func(d *emu.Device, frame int) {
			clear(d, 0x00101020, 0xffff)
			w, h := float32(d.Width()), float32(d.Height())
			cx, cy := w/2, h/2
			r := 0.42 * minf(w, h)
			base := float64(frame) * 0.015
			colors := [3]uint32{0xffff2020, 0xff20ff20, 0xff2020ff}
			setupBegin(d, setupRGB)
			for i := 0; i < 3; i++ {
				a := base + float64(i)*2*math.Pi/3
				setupVertex(d, cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)), colors[i])
			}
			swap(d)
		},
	}
}

// multitexScene rotates a quad textured by both units. The downstream unit
// alternates between modulating and adding the upstream unit's texel.
func multitexScene() Scene {
	// Downstream combine configurations read texel and alpha from the
	// upstream unit as "other" and this unit's sample as "local".
	const passLocal = uint32(emu.TexRGB565)<<8 | 1<<18 | 1<<27
	const modulate = uint32(emu.TexRGB565)<<8 |
		emu.MselCLocal<<14 | 1<<17 | emu.MselCLocal<<23 | 1<<26
	const addLocal = uint32(emu.TexRGB565)<<8 | 1<<18

	return Scene{
		Name: "multitex",
		Init: func(d *emu.Device) {
			d.WriteRegister(emu.RegFbzColorPath, emu.CCRGBTexture|emu.CCATexture<<2)
			d.WriteRegister(emu.RegAlphaMode, 0)
			d.WriteRegister(emu.RegFogMode, 0)
			d.WriteRegister(emu.RegFbzMode, modeDrawBack|1<<8)

			d.WriteTexture(0, 0, checkerTexture())
			d.WriteRegister(uint32(emu.ChipTMU0)<<8|emu.RegTLOD, 0)
			d.WriteRegister(uint32(emu.ChipTMU0)<<8|emu.RegTexBaseAddr, 0)
			d.WriteRegister(uint32(emu.ChipTMU0)<<8|emu.RegTextureMode, passLocal)
			if d.TMUs() > 1 {
				d.WriteTexture(1, 0, gradientTexture())
				d.WriteRegister(uint32(emu.ChipTMU1)<<8|emu.RegTLOD, 0)
				d.WriteRegister(uint32(emu.ChipTMU1)<<8|emu.RegTexBaseAddr, 0)
				d.WriteRegister(uint32(emu.ChipTMU1)<<8|emu.RegTextureMode, passLocal)
			}
		},
		Frame: func(d *emu.Device, frame int) {
			if d.TMUs() > 1 {
				// Hold each combine mode for four seconds.
				mode := modulate
				if frame/240%2 == 1 {
					mode = addLocal
				}
				d.WriteRegister(uint32(emu.ChipTMU0)<<8|emu.RegTextureMode, mode)
			}

			clear(d, 0x00180c18, 0xffff)
			w, h := float32(d.Width()), float32(d.Height())
			cx, cy := w/2, h/2
			r := 0.38 * minf(w, h)
			a := float64(frame) * 0.008
			sin, cos := float32(math.Sin(a)), float32(math.Cos(a))

			// Quad corners in rotated object space, strip order.
			px := [4]float32{-r, r, -r, r}
			py := [4]float32{-r, -r, r, r}
			ts := [4]float32{0, 256, 0, 256}
			tt := [4]float32{0, 0, 256, 256}

			setupBegin(d, setupRGB|setupS0T0|setupS1T1)
			for i := 0; i < 4; i++ {
				x := cx + px[i]*cos - py[i]*sin
				y := cy + px[i]*sin + py[i]*cos
				setupTexVertex(d, x, y, ts[i], tt[i], 0xffffffff)
			}
			swap(d)
		},
	}
}

// fogScene marches a line of triangles away from the viewer; the fog table
// washes the distant ones out toward the fog color.
func fogScene() Scene {
	const fogColor = 0x00aab4c0

	return Scene{
		Name: "fog",
		Init: func(d *emu.Device) {
			d.WriteRegister(emu.RegFbzColorPath, 0) // iterated RGBA
			d.WriteRegister(emu.RegAlphaMode, 0)
			d.WriteRegister(emu.RegFogMode, 1) // fog from the table
			d.WriteRegister(emu.RegFogColor, fogColor)
			d.WriteRegister(emu.RegFbzMode, modeDrawBack|1<<8)

			// Linear ramp: blend n*4 at entry n, delta matching the
			// per-entry step of 4.
			for i := uint32(0); i < 32; i++ {
				b0 := i * 2 * 4
				b1 := (i*2 + 1) * 4
				if b1 > 255 {
					b1 = 255
				}
				d.WriteRegister(emu.RegFogTable+i, 16|b0<<8|16<<16|b1<<24)
			}
		},
		Frame: func(d *emu.Device, frame int) {
			clear(d, fogColor, 0xffff)
			w, h := float32(d.Width()), float32(d.Height())
			cx := w / 2
			bob := float32(math.Sin(float64(frame)*0.03)) * h * 0.04

			// Far to near so the near triangles paint over the far ones.
			for i := 9; i >= 0; i-- {
				// Each step doubles the distance.
				invW := float32(1) / float32(int32(1)<<uint(i))
				scale := 0.45 * invW
				x := cx + (float32(i%3)-1)*w*0.18*invW
				y := h*0.55 + bob*invW
				r := minf(w, h) * scale
				setupBegin(d, setupRGB|setupWb)
				setupFogVertex(d, x, y-r, invW, 0xffff8020)
				setupFogVertex(d, x+0.87*r, y+r/2, invW, 0xffe06010)
				setupFogVertex(d, x-0.87*r, y+r/2, invW, 0xffc04008)
			}
			swap(d)
		},
	}
}

// blendScene overlaps three translucent triangles using iterated alpha.
func blendScene() Scene {
	return Scene{
		Name: "blend",
		Init: func(d *emu.Device) {
			d.WriteRegister(emu.RegFbzColorPath, 0) // iterated RGBA
			d.WriteRegister(emu.RegFogMode, 0)
			d.WriteRegister(emu.RegAlphaMode,
				1<<4|emu.BlendSrcAlpha<<8|emu.BlendOmSrcAlpha<<12|
					emu.BlendOne<<16|emu.BlendZero<<20)
			d.WriteRegister(emu.RegFbzMode, modeDrawBack|1<<8)
		},
		Frame: func(d *emu.Device, frame int) {
			clear(d, 0x00101018, 0xffff)
			w, h := float32(d.Width()), float32(d.Height())
			cx, cy := w/2, h/2
			r := 0.40 * minf(w, h)
			colors := [3]uint32{0x90ff3030, 0x9030ff30, 0x903030ff}
			for i := 0; i < 3; i++ {
				base := float64(frame)*0.012*float64(i+1) + float64(i)*2*math.Pi/3
				setupBegin(d, setupRGB|setupAlpha)
				for v := 0; v < 3; v++ {
					a := base + float64(v)*2*math.Pi/3
					setupVertex(d, cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)), colors[i])
				}
			}
			swap(d)
		},
	}
}

// checkerTexture builds a 256x256 RGB565 checkerboard.
func checkerTexture() []byte {
	data := make([]byte, 256*256*2)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			c := uint16(0x4208) // dark gray
			if (x>>5+y>>5)&1 == 0 {
				c = 0xffff
			}
			i := (y*256 + x) * 2
			data[i] = byte(c)
			data[i+1] = byte(c >> 8)
		}
	}
	return data
}

// gradientTexture builds a 256x256 RGB565 color ramp.
func gradientTexture() []byte {
	data := make([]byte, 256*256*2)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			c := uint16(x>>3)<<11 | uint16(y>>2)<<5 | 0x10
			i := (y*256 + x) * 2
			data[i] = byte(c)
			data[i+1] = byte(c >> 8)
		}
	}
	return data
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
