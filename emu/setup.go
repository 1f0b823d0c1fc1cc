package emu

// setupVertex is one vertex accumulated by the triangle setup engine.
// Coordinates and parameters arrive as IEEE singles through the sV*
// registers; colors are in 0-255 units.
type setupVertex struct {
	x, y       float32
	r, g, b, a float32
	z          float32
	wb         float32
	w0, s0, t0 float32
	w1, s1, t1 float32
}

// beginSetupTriangle starts a new strip: the current vertex becomes the
// sole accumulated vertex.
func (d *Device) beginSetupTriangle() {
	d.sverts = 1
	d.svert[0] = d.scur
	d.svert[1] = d.scur
	d.svert[2] = d.scur
	d.sflip = false
}

// drawSetupTriangle latches the current vertex and, once three are
// accumulated, computes gradients and draws. In strip mode the oldest
// vertex is replaced; in fan mode vertex 0 is pinned.
func (d *Device) drawSetupTriangle() {
	mode := d.setupModeReg()
	if d.sverts < 3 {
		d.svert[d.sverts] = d.scur
		d.sverts++
		if d.sverts < 3 {
			return
		}
	} else {
		if mode.fanMode() {
			d.svert[1] = d.svert[2]
		} else {
			d.svert[0] = d.svert[1]
			d.svert[1] = d.svert[2]
			// Each strip step reverses the triangle's winding.
			if !mode.disablePingPong() {
				d.sflip = !d.sflip
			}
		}
		d.svert[2] = d.scur
	}
	d.setupAndDraw()
}

// setupAndDraw solves the two-equation gradient system for every parameter
// group enabled in the setup mode register and triggers the ordinary
// triangle path, so both submission protocols land on identical FBI/TMU
// start values and gradients.
func (d *Device) setupAndDraw() {
	mode := d.setupModeReg()
	v1, v2, v3 := &d.svert[0], &d.svert[1], &d.svert[2]

	// Doubled signed area of the triangle. Zero means a degenerate
	// triangle: every gradient becomes zero and no division happens.
	area := float64(v1.x-v2.x)*float64(v1.y-v3.y) - float64(v1.x-v3.x)*float64(v1.y-v2.y)

	if mode.enableCulling() {
		if area == 0 {
			return
		}
		negative := area < 0
		if d.sflip {
			negative = !negative
		}
		if negative == (!mode.cullSign()) {
			return
		}
	}

	divisor := 0.0
	if area != 0 {
		divisor = 1.0 / area
	}
	dx1 := float64(v1.y-v3.y) * divisor
	dx2 := float64(v1.y-v2.y) * divisor
	dy1 := float64(v1.x-v2.x) * divisor
	dy2 := float64(v1.x-v3.x) * divisor

	// gradient solves dP/dx and dP/dy for one parameter.
	gradient := func(p1, p2, p3 float32) (float64, float64) {
		d12 := float64(p1 - p2)
		d13 := float64(p1 - p3)
		return d12*dx1 - d13*dx2, d13*dy1 - d12*dy2
	}

	d.fbi.ax = int32(v1.x * 16)
	d.fbi.ay = int32(v1.y * 16)
	d.fbi.bx = int32(v2.x * 16)
	d.fbi.by = int32(v2.y * 16)
	d.fbi.cx = int32(v3.x * 16)
	d.fbi.cy = int32(v3.y * 16)

	// Color and depth parameters carry 12 fractional bits; W and the
	// per-unit S/T/W carry 32. Conversion truncates toward zero in both
	// families, and that direction is part of the numeric contract.
	const colorScale = 4096.0
	const wideScale = 65536.0 * 65536.0

	if mode.setupRGB() {
		dx, dy := gradient(v1.r, v2.r, v3.r)
		d.fbi.startR = int32(float64(v1.r) * colorScale)
		d.fbi.dRdX = int32(dx * colorScale)
		d.fbi.dRdY = int32(dy * colorScale)
		dx, dy = gradient(v1.g, v2.g, v3.g)
		d.fbi.startG = int32(float64(v1.g) * colorScale)
		d.fbi.dGdX = int32(dx * colorScale)
		d.fbi.dGdY = int32(dy * colorScale)
		dx, dy = gradient(v1.b, v2.b, v3.b)
		d.fbi.startB = int32(float64(v1.b) * colorScale)
		d.fbi.dBdX = int32(dx * colorScale)
		d.fbi.dBdY = int32(dy * colorScale)
	}
	if mode.setupAlpha() {
		dx, dy := gradient(v1.a, v2.a, v3.a)
		d.fbi.startA = int32(float64(v1.a) * colorScale)
		d.fbi.dAdX = int32(dx * colorScale)
		d.fbi.dAdY = int32(dy * colorScale)
	}
	if mode.setupZ() {
		dx, dy := gradient(v1.z, v2.z, v3.z)
		d.fbi.startZ = int32(float64(v1.z) * colorScale)
		d.fbi.dZdX = int32(dx * colorScale)
		d.fbi.dZdY = int32(dy * colorScale)
	}
	if mode.setupWb() {
		dx, dy := gradient(v1.wb, v2.wb, v3.wb)
		d.fbi.startW = int64(float64(v1.wb) * wideScale)
		d.fbi.dWdX = int64(dx * wideScale)
		d.fbi.dWdY = int64(dy * wideScale)
		for _, t := range d.tmus {
			t.startW = d.fbi.startW
			t.dWdX = d.fbi.dWdX
			t.dWdY = d.fbi.dWdY
		}
	}
	if len(d.tmus) > 0 {
		t := d.tmus[0]
		if mode.setupW0() {
			dx, dy := gradient(v1.w0, v2.w0, v3.w0)
			t.startW = int64(float64(v1.w0) * wideScale)
			t.dWdX = int64(dx * wideScale)
			t.dWdY = int64(dy * wideScale)
		}
		if mode.setupS0T0() {
			dx, dy := gradient(v1.s0, v2.s0, v3.s0)
			t.startS = int64(float64(v1.s0) * wideScale)
			t.dSdX = int64(dx * wideScale)
			t.dSdY = int64(dy * wideScale)
			dx, dy = gradient(v1.t0, v2.t0, v3.t0)
			t.startT = int64(float64(v1.t0) * wideScale)
			t.dTdX = int64(dx * wideScale)
			t.dTdY = int64(dy * wideScale)
		}
	}
	if len(d.tmus) > 1 {
		t := d.tmus[1]
		if mode.setupW1() {
			dx, dy := gradient(v1.w1, v2.w1, v3.w1)
			t.startW = int64(float64(v1.w1) * wideScale)
			t.dWdX = int64(dx * wideScale)
			t.dWdY = int64(dy * wideScale)
		}
		if mode.setupS1T1() {
			dx, dy := gradient(v1.s1, v2.s1, v3.s1)
			t.startS = int64(float64(v1.s1) * wideScale)
			t.dSdX = int64(dx * wideScale)
			t.dSdY = int64(dy * wideScale)
			dx, dy = gradient(v1.t1, v2.t1, v3.t1)
			t.startT = int64(float64(v1.t1) * wideScale)
			t.dTdX = int64(dx * wideScale)
			t.dTdY = int64(dy * wideScale)
		}
	}

	d.drawTriangle()
}
