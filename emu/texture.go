package emu

// sentinelTexel is returned for reserved format codes: an unmistakable
// opaque magenta, so broken content renders visibly wrong instead of
// crashing or reading stale memory.
const sentinelTexel = 0xffff00ff

// sampleAndCombine samples one unit at the iterated S/T/W and runs its
// combine stage. When two units are chained, unit 1's result arrives here
// as the "other" operand for unit 0.
func (d *Device) sampleAndCombine(unit int, iters, itert, iterw int64, other rgba, haveOther bool) rgba {
	t := d.tmus[unit]
	mode := t.mode()
	local, lodFrac := d.sampleTexel(t, mode, iters, itert, iterw)
	if !haveOther {
		other = rgba{}
	}
	return combineTexels(mode, local, other, lodFrac)
}

// sampleTexel resolves one texel: perspective divide, LOD selection,
// wrap/clamp addressing, masked fetch and format decode.
func (d *Device) sampleTexel(t *tmu, mode textureMode, iters, itert, iterw int64) (rgba, int32) {
	var s8, t8 int64 // texel coordinates, 8 fractional bits
	var lodQ int32   // quarter-LOD units

	if mode.enablePerspective() {
		if iterw <= 0 && mode.clampNegW() {
			s8, t8 = 0, 0
		} else {
			recip, shift, logW := fastReciplog(iterw)
			s8 = reciprocalDivide(iters, recip, shift, 8)
			t8 = reciprocalDivide(itert, recip, shift, 8)
			// logW approximates 4*log2(iterw); W carries 32
			// fractional bits, so 1/W's LOD contribution is the
			// complement against 32.
			lodQ = 32*4 - logW
		}
	} else {
		s8 = iters >> 24
		t8 = itert >> 24
	}

	lodQ += t.lodBias
	if lodQ < t.lodMin {
		lodQ = t.lodMin
	}
	if lodQ > t.lodMax {
		lodQ = t.lodMax
	}
	level := lodQ >> 2
	if level < 0 {
		level = 0
	}
	if level > 8 {
		level = 8
	}
	lodFrac := (lodQ & 3) << 6

	sTexel := int32(s8>>8) >> uint(level)
	tTexel := int32(t8>>8) >> uint(level)

	w, h := t.widths[level], t.heights[level]
	if mode.clampS() {
		if sTexel < 0 {
			sTexel = 0
		}
		if sTexel >= w {
			sTexel = w - 1
		}
	} else {
		sTexel &= w - 1
	}
	if mode.clampT() {
		if tTexel < 0 {
			tTexel = 0
		}
		if tTexel >= h {
			tTexel = h - 1
		}
	} else {
		tTexel &= h - 1
	}

	format := mode.format()
	if format < 8 {
		addr := (t.lodOffset[level] + uint32(tTexel*w+sTexel)) & t.mask
		if t.lookup == nil {
			return rgbaFromPacked(sentinelTexel), lodFrac
		}
		return rgbaFromPacked(t.lookup[t.mem[addr]]), lodFrac
	}

	addr := (t.lodOffset[level] + uint32(tTexel*w+sTexel)*2) & t.mask
	lo := uint32(t.mem[addr])
	hi := uint32(t.mem[(addr+1)&t.mask])
	v := hi<<8 | lo

	switch format {
	case TexARGB8332:
		c := lutRGB332[v&0xff]
		return rgbaFromPacked(c&0x00ffffff | (v>>8)<<24), lodFrac
	case TexAYIQ:
		n := &t.ncc[mode.nccTableSelect()]
		c := n.texel[v&0xff]
		return rgbaFromPacked(c&0x00ffffff | (v>>8)<<24), lodFrac
	case TexRGB565:
		r := v >> 11 & 0x1f
		g := v >> 5 & 0x3f
		b := v & 0x1f
		return rgba{
			r: int32(r<<3 | r>>2),
			g: int32(g<<2 | g>>4),
			b: int32(b<<3 | b>>2),
			a: 0xff,
		}, lodFrac
	case TexARGB1555:
		r := v >> 10 & 0x1f
		g := v >> 5 & 0x1f
		b := v & 0x1f
		a := int32(0)
		if v&0x8000 != 0 {
			a = 0xff
		}
		return rgba{
			r: int32(r<<3 | r>>2),
			g: int32(g<<3 | g>>2),
			b: int32(b<<3 | b>>2),
			a: a,
		}, lodFrac
	case TexARGB4444:
		r := v >> 8 & 0xf
		g := v >> 4 & 0xf
		b := v & 0xf
		a := v >> 12 & 0xf
		return rgba{
			r: int32(r<<4 | r),
			g: int32(g<<4 | g),
			b: int32(b<<4 | b),
			a: int32(a<<4 | a),
		}, lodFrac
	case TexAI88:
		i := int32(v & 0xff)
		return rgba{r: i, g: i, b: i, a: int32(v >> 8)}, lodFrac
	}
	return rgbaFromPacked(sentinelTexel), lodFrac
}

// combineTexels is the TMU combine unit, the same zero/subtract/scale/add/
// invert lattice as the color combine with independent RGB and alpha
// controls.
func combineTexels(mode textureMode, local, other rgba, lodFrac int32) rgba {
	r, g, b, a := other.r, other.g, other.b, other.a
	if mode.tcZeroOther() {
		r, g, b = 0, 0, 0
	}
	if mode.tcaZeroOther() {
		a = 0
	}
	if mode.tcSubCLocal() {
		r -= local.r
		g -= local.g
		b -= local.b
	}
	if mode.tcaSubCLocal() {
		a -= local.a
	}

	// Blend select code 4 is the detail blend factor in the TMU combine,
	// not texture alpha as in the framebuffer color combine. Detail
	// texturing is not modeled, so code 4 resolves to a zero factor.
	var blendR, blendG, blendB int32
	switch mode.tcMSelect() {
	case MselZero:
		blendR, blendG, blendB = 0, 0, 0
	case MselCLocal:
		blendR, blendG, blendB = local.r, local.g, local.b
	case MselAOther:
		blendR, blendG, blendB = other.a, other.a, other.a
	case MselALocal:
		blendR, blendG, blendB = local.a, local.a, local.a
	case MselLODFrac:
		blendR, blendG, blendB = lodFrac, lodFrac, lodFrac
	}
	if !mode.tcReverseBlend() {
		blendR ^= 0xff
		blendG ^= 0xff
		blendB ^= 0xff
	}
	r = (r * (blendR + 1)) >> 8
	g = (g * (blendG + 1)) >> 8
	b = (b * (blendB + 1)) >> 8

	var blendA int32
	switch mode.tcaMSelect() {
	case MselZero:
		blendA = 0
	case MselCLocal, MselALocal:
		blendA = local.a
	case MselAOther:
		blendA = other.a
	case MselLODFrac:
		blendA = lodFrac
	}
	if !mode.tcaReverseBlend() {
		blendA ^= 0xff
	}
	a = (a * (blendA + 1)) >> 8

	if mode.tcAddCLocal() {
		r += local.r
		g += local.g
		b += local.b
	} else if mode.tcAddALocal() {
		r += local.a
		g += local.a
		b += local.a
	}
	if mode.tcaAddCLocal() || mode.tcaAddALocal() {
		a += local.a
	}

	out := rgba{r: clamp255(r), g: clamp255(g), b: clamp255(b), a: clamp255(a)}
	if mode.tcInvertOutput() {
		out.r ^= 0xff
		out.g ^= 0xff
		out.b ^= 0xff
	}
	if mode.tcaInvertOutput() {
		out.a ^= 0xff
	}
	return out
}
