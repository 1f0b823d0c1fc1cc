package emu

import "math"

// WriteRegister is the sole mutation entry point. addr is a word address:
// bits 0-7 select the register and bits 8-11 the receiving chips (zero
// broadcasts). Most registers are plain storage; the trigger registers
// run triangle setup, rasterization, fills and swaps synchronously, so the
// register file can never be observed mid-draw.
//
// Writes to read-only or unmapped registers are dropped without error,
// matching the hardware's tolerance of defensive writes.
func (d *Device) WriteRegister(addr, value uint32) {
	reg := regOf(addr)
	chips := chipsOf(addr)

	if reg == RegFbiPixelsIn {
		// A write to the pixels-in counter resets all statistics.
		d.stats.reset()
		return
	}
	if !RegWritable(reg) {
		return
	}

	// TMU-owned ranges. The chip mask routes these; the shared shadow file
	// keeps the last written value for readback.
	if reg >= RegTextureMode && reg <= RegNCCTable1+11 {
		for i, t := range d.tmus {
			if chips&(ChipTMU0<<uint(i)) == 0 {
				continue
			}
			d.writeTMUReg(t, reg, value)
		}
		d.reg[reg] = value
		return
	}

	switch {
	case reg >= RegFogTable && reg <= RegFogTable+31:
		d.reg[reg] = value
		d.fbi.setFogWord(int(reg-RegFogTable), value)
		return
	case reg >= RegStartS && reg <= RegStartW,
		reg >= RegDSdX && reg <= RegDWdX,
		reg >= RegDSdY && reg <= RegDWdY:
		// Per-unit interpolation parameters, latched by the selected TMUs.
		for i, t := range d.tmus {
			if chips&(ChipTMU0<<uint(i)) == 0 {
				continue
			}
			d.writeTMUIter(t, reg, value)
		}
		d.reg[reg] = value
		return
	}

	if chips&ChipFBI == 0 {
		return
	}
	d.reg[reg] = value

	switch reg {
	case RegVertexAx:
		d.fbi.ax = signed16(value)
	case RegVertexAy:
		d.fbi.ay = signed16(value)
	case RegVertexBx:
		d.fbi.bx = signed16(value)
	case RegVertexBy:
		d.fbi.by = signed16(value)
	case RegVertexCx:
		d.fbi.cx = signed16(value)
	case RegVertexCy:
		d.fbi.cy = signed16(value)

	case RegStartR:
		d.fbi.startR = signed24(value)
	case RegStartG:
		d.fbi.startG = signed24(value)
	case RegStartB:
		d.fbi.startB = signed24(value)
	case RegStartA:
		d.fbi.startA = signed24(value)
	case RegStartZ:
		d.fbi.startZ = int32(value)

	case RegDRdX:
		d.fbi.dRdX = signed24(value)
	case RegDGdX:
		d.fbi.dGdX = signed24(value)
	case RegDBdX:
		d.fbi.dBdX = signed24(value)
	case RegDAdX:
		d.fbi.dAdX = signed24(value)
	case RegDZdX:
		d.fbi.dZdX = int32(value)

	case RegDRdY:
		d.fbi.dRdY = signed24(value)
	case RegDGdY:
		d.fbi.dGdY = signed24(value)
	case RegDBdY:
		d.fbi.dBdY = signed24(value)
	case RegDAdY:
		d.fbi.dAdY = signed24(value)
	case RegDZdY:
		d.fbi.dZdY = int32(value)

	case RegTriangleCMD:
		d.drawTriangle()

	case RegSBeginTriCMD:
		d.beginSetupTriangle()
	case RegSDrawTriCMD:
		d.drawSetupTriangle()

	case RegSVx:
		d.scur.x = math.Float32frombits(value)
	case RegSVy:
		d.scur.y = math.Float32frombits(value)
	case RegSVz:
		d.scur.z = math.Float32frombits(value)
	case RegSARGB:
		d.scur.a = float32(value >> 24)
		d.scur.r = float32(value >> 16 & 0xff)
		d.scur.g = float32(value >> 8 & 0xff)
		d.scur.b = float32(value & 0xff)
	case RegSRed:
		d.scur.r = math.Float32frombits(value)
	case RegSGreen:
		d.scur.g = math.Float32frombits(value)
	case RegSBlue:
		d.scur.b = math.Float32frombits(value)
	case RegSAlpha:
		d.scur.a = math.Float32frombits(value)
	case RegSWb:
		d.scur.wb = math.Float32frombits(value)
	case RegSWtmu0:
		d.scur.w0 = math.Float32frombits(value)
	case RegSS0:
		d.scur.s0 = math.Float32frombits(value)
	case RegST0:
		d.scur.t0 = math.Float32frombits(value)
	case RegSWtmu1:
		d.scur.w1 = math.Float32frombits(value)
	case RegSS1:
		d.scur.s1 = math.Float32frombits(value)
	case RegST1:
		d.scur.t1 = math.Float32frombits(value)

	case RegFastfillCMD:
		d.fastfill()
	case RegSwapbufferCMD:
		d.fbi.swap()
		d.vretrace = false
	case RegNopCMD:
		// no operation
	}
}

// writeTMUIter latches a per-unit S/T/W interpolation register. S and T are
// 14.18, W is 2.30; all widen to 32 fractional bits.
func (d *Device) writeTMUIter(t *tmu, reg, value uint32) {
	switch reg {
	case RegStartS:
		t.startS = int64(int32(value)) << 14
	case RegStartT:
		t.startT = int64(int32(value)) << 14
	case RegStartW:
		t.startW = int64(int32(value)) << 2
	case RegDSdX:
		t.dSdX = int64(int32(value)) << 14
	case RegDTdX:
		t.dTdX = int64(int32(value)) << 14
	case RegDWdX:
		t.dWdX = int64(int32(value)) << 2
	case RegDSdY:
		t.dSdY = int64(int32(value)) << 14
	case RegDTdY:
		t.dTdY = int64(int32(value)) << 14
	case RegDWdY:
		t.dWdY = int64(int32(value)) << 2
	}
}

// writeTMUReg handles the TMU-owned register block. Mode, LOD and base
// address writes defer derived-state recomputation to the next use; table
// writes unpack immediately because the sampler reads them per pixel.
func (d *Device) writeTMUReg(t *tmu, reg, value uint32) {
	switch {
	case reg >= RegNCCTable0 && reg < RegNCCTable0+12:
		if t.setNCCWord(0, int(reg-RegNCCTable0), value) {
			t.paramsDirty = true
		}
	case reg >= RegNCCTable1 && reg < RegNCCTable1+12:
		if t.setNCCWord(1, int(reg-RegNCCTable1), value) {
			t.paramsDirty = true
		}
	default:
		if t.reg[reg] != value {
			t.reg[reg] = value
			t.paramsDirty = true
		}
	}
}

// ReadRegister returns status, statistics counters or the shadowed value of
// a storage register.
func (d *Device) ReadRegister(addr uint32) uint32 {
	reg := regOf(addr)
	switch reg {
	case RegStatus:
		return d.status()
	case RegFbiPixelsIn:
		return uint32(d.stats.PixelsIn)
	case RegFbiChromaFail:
		return uint32(d.stats.ChromaFail)
	case RegFbiZfuncFail:
		return uint32(d.stats.ZFuncFail)
	case RegFbiAfuncFail:
		return uint32(d.stats.AFuncFail)
	case RegFbiPixelsOut:
		return uint32(d.stats.PixelsOut)
	case RegFbiTrianglesOut:
		return uint32(d.stats.Triangles)
	}
	return d.reg[reg]
}

// signed16 sign-extends a 12.4 vertex coordinate.
func signed16(v uint32) int32 { return int32(int16(v)) }

// signed24 sign-extends a 12.12 color parameter.
func signed24(v uint32) int32 { return int32(v<<8) >> 8 }
