package emu

import "math/bits"

// pixelState carries one pixel's iterated inputs through the pipeline.
type pixelState struct {
	x, y int32

	iterR, iterG, iterB, iterA int32 // 12 fractional bits
	iterZ                      int32 // 20.12
	iterW                      int64 // 32 fractional bits

	wFloat   int32 // 16-bit floating-point style depth from W
	depthVal int32 // value used for the depth test and write

	texel rgba // output of the texture stage
	color rgba // output of the color combine
}

// renderSpan runs the pixel pipeline across one clipped span. Iterated
// parameters start from the vertex-A anchor and advance by the X gradients;
// 32-bit color/depth arithmetic wraps exactly like the reference.
func (d *Device) renderSpan(s span, stats *Statistics) {
	mode := d.fbzModeReg()
	cpath := d.fbzColorPathReg()
	amode := d.alphaModeReg()
	fmode := d.fogModeReg()

	dx := s.x0 - (d.fbi.ax >> 4)
	dy := s.y - (d.fbi.ay >> 4)

	var px pixelState
	px.y = s.y
	px.iterR = d.fbi.startR + dy*d.fbi.dRdY + dx*d.fbi.dRdX
	px.iterG = d.fbi.startG + dy*d.fbi.dGdY + dx*d.fbi.dGdX
	px.iterB = d.fbi.startB + dy*d.fbi.dBdY + dx*d.fbi.dBdX
	px.iterA = d.fbi.startA + dy*d.fbi.dAdY + dx*d.fbi.dAdX
	px.iterZ = d.fbi.startZ + dy*d.fbi.dZdY + dx*d.fbi.dZdX
	px.iterW = d.fbi.startW + int64(dy)*d.fbi.dWdY + int64(dx)*d.fbi.dWdX

	var tex [2]struct{ s, t, w int64 }
	for i, t := range d.tmus {
		tex[i].s = t.startS + int64(dy)*t.dSdY + int64(dx)*t.dSdX
		tex[i].t = t.startT + int64(dy)*t.dTdY + int64(dx)*t.dTdX
		tex[i].w = t.startW + int64(dy)*t.dWdY + int64(dx)*t.dWdX
	}

	// Stipple rotation is local to the span so worker assignment never
	// changes the image: each scanline reseeds from the register.
	stipple := d.reg[RegStipple]

	base := d.fbi.drawBase(mode)
	rowOff := d.fbi.row(int(s.y), mode) * d.fbi.rowPixels
	colorRow := d.fbi.colorMem[base+rowOff : base+rowOff+d.fbi.rowPixels]
	auxRow := d.fbi.auxMem[rowOff : rowOff+d.fbi.rowPixels]

	for x := s.x0; x < s.x1; x++ {
		px.x = x
		d.renderPixel(&px, &stipple, mode, cpath, amode, fmode, &tex, colorRow, auxRow, stats)

		px.iterR += d.fbi.dRdX
		px.iterG += d.fbi.dGdX
		px.iterB += d.fbi.dBdX
		px.iterA += d.fbi.dAdX
		px.iterZ += d.fbi.dZdX
		px.iterW += d.fbi.dWdX
		for i := range d.tmus {
			tex[i].s += d.tmus[i].dSdX
			tex[i].t += d.tmus[i].dTdX
			tex[i].w += d.tmus[i].dWdX
		}
	}
}

// renderPixel executes the strictly ordered pipeline stages for one pixel.
// Each stage may discard; the discard reason lands in the statistics and no
// later stage runs.
func (d *Device) renderPixel(px *pixelState, stipple *uint32, mode fbzMode, cpath fbzColorPath,
	amode alphaMode, fmode fogMode, tex *[2]struct{ s, t, w int64 },
	colorRow, auxRow []uint16, stats *Statistics) {

	// 1. Stipple.
	if mode.enableStipple() {
		if !mode.stipplePattern() {
			*stipple = *stipple<<1 | *stipple>>31
			if *stipple&0x80000000 == 0 {
				stats.StippleCount++
				return
			}
		} else {
			bit := uint32(px.y&3)<<3 | uint32(^px.x&7)
			if *stipple>>bit&1 == 0 {
				stats.StippleCount++
				return
			}
		}
	}

	// 2. Depth compute.
	px.wFloat = wFloatFromIterW(px.iterW)
	d.computeDepth(px, mode)

	// 3. Depth test.
	if mode.enableDepthBuf() {
		depthSource := px.depthVal
		if mode.depthSourceCompare() {
			depthSource = int32(d.reg[RegZaColor] & 0xffff)
		}
		dest := int32(auxRow[px.x])
		if !comparePass(mode.depthFunction(), depthSource, dest) {
			stats.ZFuncFail++
			return
		}
	}

	// 4. Texture sample and combine, unit 1 feeding unit 0.
	if len(d.tmus) > 0 {
		var other rgba
		haveOther := false
		if len(d.tmus) > 1 {
			other = d.sampleAndCombine(1, tex[1].s, tex[1].t, tex[1].w, rgba{}, false)
			haveOther = true
		}
		px.texel = d.sampleAndCombine(0, tex[0].s, tex[0].t, tex[0].w, other, haveOther)
	}

	// 5. Color combine.
	px.color = d.combineColor(px, cpath)

	// 6. Chroma key.
	if mode.enableChromaKey() {
		if d.chromaFail(px.color) {
			stats.ChromaFail++
			return
		}
	}

	// 7. Alpha mask and alpha test.
	if mode.enableAlphaMask() {
		if px.color.a&1 == 0 {
			stats.AFuncFail++
			return
		}
	}
	if amode.alphaTest() {
		if !comparePass(amode.alphaFunction(), px.color.a, amode.alphaRef()) {
			stats.AFuncFail++
			return
		}
	}

	// 8. Fog.
	if fmode.enableFog() {
		d.applyFog(px, fmode, mode)
	}

	// 9. Alpha blend.
	if amode.alphaBlend() {
		d.alphaBlend(px, amode, mode, colorRow, auxRow)
	}

	// 10/11. Dither and write-back.
	if mode.rgbWriteMask() {
		var pix uint16
		if mode.enableDithering() {
			matrix := &dither4x4
			if mode.dither2x2() {
				matrix = &dither2x2
			}
			dith := matrix[(px.y&3)<<2|(px.x&3)]
			pix = uint16(ditherRB[dith][px.color.r])<<11 |
				uint16(ditherG[dith][px.color.g])<<5 |
				uint16(ditherRB[dith][px.color.b])
		} else {
			pix = uint16(px.color.r>>3)<<11 | uint16(px.color.g>>2)<<5 | uint16(px.color.b>>3)
		}
		colorRow[px.x] = pix
	}
	if mode.auxWriteMask() {
		if mode.enableAlphaPlanes() {
			auxRow[px.x] = uint16(px.color.a)
		} else {
			auxRow[px.x] = uint16(px.depthVal)
		}
	}
	stats.PixelsOut++
}

// wFloatFromIterW packs the 48-bit interpolated 1/W into the 16-bit
// exponent/mantissa depth format. Values at or above 1.0 clamp to the
// nearest plane, tiny values to the farthest.
func wFloatFromIterW(iterw int64) int32 {
	if uint64(iterw)&0xffff00000000 != 0 {
		return 0
	}
	temp := uint32(iterw)
	if temp&0xffff0000 == 0 {
		return 0xffff
	}
	exp := int32(bits.LeadingZeros32(temp))
	wf := exp<<12 | int32(^temp>>(19-uint(exp)))&0xfff
	if wf < 0xffff {
		wf++
	}
	return wf
}

// computeDepth selects and scales the depth value: linear Z, floating-point
// Z, or the W float, then the optional signed bias with saturation.
func (d *Device) computeDepth(px *pixelState, mode fbzMode) {
	if mode.wBufferSelect() {
		px.depthVal = px.wFloat
	} else if !mode.depthFloatSelect() {
		px.depthVal = clamp16(px.iterZ >> 12)
	} else {
		// Floating-point packing of Z, same shape as the W path.
		if uint32(px.iterZ)&0xf0000000 != 0 {
			px.depthVal = 0
		} else {
			temp := uint32(px.iterZ) << 4
			if temp&0xffff0000 == 0 {
				px.depthVal = 0xffff
			} else {
				exp := int32(bits.LeadingZeros32(temp))
				v := exp<<12 | int32(^temp>>(19-uint(exp)))&0xfff
				if v < 0xffff {
					v++
				}
				px.depthVal = v
			}
		}
	}
	if mode.enableDepthBias() {
		px.depthVal = clamp16(px.depthVal + int32(int16(d.reg[RegZaColor])))
	}
}

// comparePass evaluates one of the 8 comparison functions.
func comparePass(fn uint32, value, ref int32) bool {
	switch fn {
	case CmpNever:
		return false
	case CmpLess:
		return value < ref
	case CmpEqual:
		return value == ref
	case CmpLessEqual:
		return value <= ref
	case CmpGreater:
		return value > ref
	case CmpNotEqual:
		return value != ref
	case CmpGreaterEqual:
		return value >= ref
	default:
		return true
	}
}

// combineColor runs the color combine unit: select other and local sources,
// then the zero/subtract/scale/add/invert lattice shared with the texture
// combine.
func (d *Device) combineColor(px *pixelState, cpath fbzColorPath) rgba {
	iterated := rgba{
		r: clamp255(px.iterR >> 12),
		g: clamp255(px.iterG >> 12),
		b: clamp255(px.iterB >> 12),
		a: clamp255(px.iterA >> 12),
	}

	var other rgba
	switch cpath.rgbSelect() {
	case CCRGBIterated:
		other = iterated
	case CCRGBTexture:
		other = px.texel
	case CCRGBColor1:
		other = rgbaFromPacked(d.reg[RegColor1])
	}
	switch cpath.aSelect() {
	case CCAIterated:
		other.a = iterated.a
	case CCATexture:
		other.a = px.texel.a
	case CCAColor1:
		other.a = int32(d.reg[RegColor1]>>24) & 0xff
	}

	var local rgba
	localSel := cpath.ccLocalSelect()
	if cpath.ccLocalOverride() {
		// Texture alpha's high bit picks the local source per pixel.
		localSel = px.texel.a&0x80 != 0
	}
	if !localSel {
		local = iterated
	} else {
		local = rgbaFromPacked(d.reg[RegColor0])
	}
	switch cpath.ccaLocalSelect() {
	case 0:
		local.a = iterated.a
	case 1:
		local.a = int32(d.reg[RegColor0]>>24) & 0xff
	case 2:
		local.a = clamp255(px.iterZ >> 20)
	}

	r, g, b, a := other.r, other.g, other.b, other.a
	if cpath.ccZeroOther() {
		r, g, b = 0, 0, 0
	}
	if cpath.ccaZeroOther() {
		a = 0
	}
	if cpath.ccSubCLocal() {
		r -= local.r
		g -= local.g
		b -= local.b
	}
	if cpath.ccaSubCLocal() {
		a -= local.a
	}

	var blend int32
	switch cpath.ccMSelect() {
	case MselZero:
		blend = 0
	case MselCLocal:
		blend = local.r // per-channel below
	case MselAOther:
		blend = other.a
	case MselALocal:
		blend = local.a
	case MselTexAlpha:
		blend = px.texel.a
	}
	blendG, blendB := blend, blend
	if cpath.ccMSelect() == MselCLocal {
		blendG, blendB = local.g, local.b
	}
	if !cpath.ccReverseBlend() {
		blend ^= 0xff
		blendG ^= 0xff
		blendB ^= 0xff
	}
	r = (r * (blend + 1)) >> 8
	g = (g * (blendG + 1)) >> 8
	b = (b * (blendB + 1)) >> 8

	var blendA int32
	switch cpath.ccaMSelect() {
	case MselZero:
		blendA = 0
	case MselCLocal, MselALocal:
		blendA = local.a
	case MselAOther:
		blendA = other.a
	case MselTexAlpha:
		blendA = px.texel.a
	}
	if !cpath.ccaReverseBlend() {
		blendA ^= 0xff
	}
	a = (a * (blendA + 1)) >> 8

	if cpath.ccAddCLocal() {
		r += local.r
		g += local.g
		b += local.b
	} else if cpath.ccAddALocal() {
		r += local.a
		g += local.a
		b += local.a
	}
	if cpath.ccaAddCLocal() || cpath.ccaAddALocal() {
		a += local.a
	}

	out := rgba{r: clamp255(r), g: clamp255(g), b: clamp255(b), a: clamp255(a)}
	if cpath.ccInvertOutput() {
		out.r ^= 0xff
		out.g ^= 0xff
		out.b ^= 0xff
	}
	if cpath.ccaInvertOutput() {
		out.a ^= 0xff
	}
	return out
}

// chromaFail applies the chroma-key test to the combined color: exact match
// against the key, or the range test with per-channel exclusives and
// union/intersection composition.
func (d *Device) chromaFail(c rgba) bool {
	key := rgbaFromPacked(d.reg[RegChromaKey])
	crange := chromaRange(d.reg[RegChromaRange])
	if !crange.enabled() {
		return c.r == key.r && c.g == key.g && c.b == key.b
	}
	hi := rgbaFromPacked(d.reg[RegChromaRange])
	rIn := c.r >= key.r && c.r <= hi.r
	gIn := c.g >= key.g && c.g <= hi.g
	bIn := c.b >= key.b && c.b <= hi.b
	if crange.redExclusive() {
		rIn = !rIn
	}
	if crange.greenExclusive() {
		gIn = !gIn
	}
	if crange.blueExclusive() {
		bIn = !bIn
	}
	if crange.unionMode() {
		return rIn || gIn || bIn
	}
	return rIn && gIn && bIn
}

// applyFog blends the pixel toward the fog color. The blend factor comes
// from the 64-entry table (with delta interpolation and optional dither
// noise) or from iterated alpha, Z or W; composition is additive unless the
// multiplicative mode replaces the color outright.
func (d *Device) applyFog(px *pixelState, fmode fogMode, mode fbzMode) {
	fog := rgbaFromPacked(d.reg[RegFogColor])

	if fmode.fogConstant() {
		px.color.r = clamp255(px.color.r + fog.r)
		px.color.g = clamp255(px.color.g + fog.g)
		px.color.b = clamp255(px.color.b + fog.b)
		return
	}

	fr, fg, fb := fog.r, fog.g, fog.b
	if fmode.fogAdd() {
		fr, fg, fb = 0, 0, 0
	}
	if !fmode.fogMult() {
		fr -= px.color.r
		fg -= px.color.g
		fb -= px.color.b
	}

	var blend int32
	switch fmode.fogZAlpha() {
	case FogFromTable:
		idx := px.wFloat >> 10 & 0x3f
		delta := int32(d.fbi.fogDelta[idx])
		deltaVal := (delta * (px.wFloat >> 2 & 0xff)) >> 10
		if fmode.fogDither() {
			deltaVal += int32(dither4x4[(px.y&3)<<2|(px.x&3)]) >> 1
		}
		blend = clamp255(int32(d.fbi.fogBlend[idx]) + deltaVal)
	case FogFromIterA:
		blend = clamp255(px.iterA >> 12)
	case FogFromIterZ:
		blend = clamp255(px.iterZ >> 20)
	case FogFromIterW:
		blend = px.wFloat >> 8 & 0xff
	}

	fr = (fr * (blend + 1)) >> 8
	fg = (fg * (blend + 1)) >> 8
	fb = (fb * (blend + 1)) >> 8

	if !fmode.fogMult() {
		px.color.r = clamp255(px.color.r + fr)
		px.color.g = clamp255(px.color.g + fg)
		px.color.b = clamp255(px.color.b + fb)
	} else {
		px.color.r = clamp255(fr)
		px.color.g = clamp255(fg)
		px.color.b = clamp255(fb)
	}
}

// alphaBlend combines the pipeline color with the destination pixel using
// the full source/destination factor matrix. Factors use the hardware's
// (value*(factor+1))>>8 arithmetic in both directions.
func (d *Device) alphaBlend(px *pixelState, amode alphaMode, mode fbzMode, colorRow, auxRow []uint16) {
	dest := colorRow[px.x]
	dr := int32(dest>>11) & 0x1f
	dg := int32(dest>>5) & 0x3f
	db := int32(dest) & 0x1f
	dr = dr<<3 | dr>>2
	dg = dg<<2 | dg>>4
	db = db<<3 | db>>2

	da := int32(0xff)
	if mode.enableAlphaPlanes() {
		da = int32(auxRow[px.x]) & 0xff
	}
	sr, sg, sb, sa := px.color.r, px.color.g, px.color.b, px.color.a

	factor := func(code uint32, destFactor bool) (fr, fg, fb int32) {
		switch code {
		case BlendZero:
			return 0, 0, 0
		case BlendSrcAlpha:
			return sa, sa, sa
		case BlendColor:
			// The opposing pixel's color: destination for the source
			// factor, source for the destination factor.
			if destFactor {
				return sr, sg, sb
			}
			return dr, dg, db
		case BlendDstAlpha:
			return da, da, da
		case BlendOne:
			return 0xff, 0xff, 0xff
		case BlendOmSrcAlpha:
			return 0xff - sa, 0xff - sa, 0xff - sa
		case BlendOmColor:
			if destFactor {
				return 0xff - sr, 0xff - sg, 0xff - sb
			}
			return 0xff - dr, 0xff - dg, 0xff - db
		case BlendOmDstAlpha:
			return 0xff - da, 0xff - da, 0xff - da
		case BlendAlphaSaturate:
			f := sa
			if inv := 0xff - da; inv < f {
				f = inv
			}
			return f, f, f
		}
		return 0, 0, 0
	}

	srr, srg, srb := factor(amode.srcRGBBlend(), false)
	drr, drg, drb := factor(amode.dstRGBBlend(), true)

	r := (sr*(srr+1) + dr*(drr+1)) >> 8
	g := (sg*(srg+1) + dg*(drg+1)) >> 8
	b := (sb*(srb+1) + db*(drb+1)) >> 8

	var saf, daf int32
	switch amode.srcAlphaBlend() {
	case BlendZero:
		saf = 0
	case BlendOne:
		saf = 0xff
	case BlendSrcAlpha:
		saf = sa
	case BlendDstAlpha:
		saf = da
	case BlendOmSrcAlpha:
		saf = 0xff - sa
	case BlendOmDstAlpha:
		saf = 0xff - da
	}
	switch amode.dstAlphaBlend() {
	case BlendZero:
		daf = 0
	case BlendOne:
		daf = 0xff
	case BlendSrcAlpha:
		daf = sa
	case BlendDstAlpha:
		daf = da
	case BlendOmSrcAlpha:
		daf = 0xff - sa
	case BlendOmDstAlpha:
		daf = 0xff - da
	}
	a := (sa*(saf+1) + da*(daf+1)) >> 8

	px.color.r = clamp255(r)
	px.color.g = clamp255(g)
	px.color.b = clamp255(b)
	px.color.a = clamp255(a)
}
