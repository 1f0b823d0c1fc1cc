package emu

// Register addresses are word offsets. Bits 0-7 select the register, bits
// 8-11 select which chips latch the write (bit 0 FBI, bit 1 TMU0, bit 2
// TMU1). A zero chip field broadcasts to every unit, which is how legacy
// clients program both texture units with one write.
const (
	ChipFBI  = 1 << 0
	ChipTMU0 = 1 << 1
	ChipTMU1 = 1 << 2
	ChipAll  = ChipFBI | ChipTMU0 | ChipTMU1
)

// regOf extracts the register index from a word address.
func regOf(addr uint32) uint32 { return addr & 0xff }

// chipsOf extracts the chip-select mask from a word address.
func chipsOf(addr uint32) uint32 {
	chips := (addr >> 8) & 0xf
	if chips == 0 {
		return ChipAll
	}
	return chips
}

// Register indices.
const (
	RegStatus uint32 = 0x00

	// Triangle vertex coordinates, 12.4 signed fixed point.
	RegVertexAx = 0x02
	RegVertexAy = 0x03
	RegVertexBx = 0x04
	RegVertexBy = 0x05
	RegVertexCx = 0x06
	RegVertexCy = 0x07

	// Interpolation start values. Color components are 12.12, Z is 20.12,
	// S/T are 14.18 and W is 2.30; S/T/W are widened to 32 fractional bits
	// internally.
	RegStartR = 0x08
	RegStartG = 0x09
	RegStartB = 0x0a
	RegStartZ = 0x0b
	RegStartA = 0x0c
	RegStartS = 0x0d
	RegStartT = 0x0e
	RegStartW = 0x0f

	// X gradients, same scaling as the matching start register.
	RegDRdX = 0x10
	RegDGdX = 0x11
	RegDBdX = 0x12
	RegDZdX = 0x13
	RegDAdX = 0x14
	RegDSdX = 0x15
	RegDTdX = 0x16
	RegDWdX = 0x17

	// Y gradients.
	RegDRdY = 0x18
	RegDGdY = 0x19
	RegDBdY = 0x1a
	RegDZdY = 0x1b
	RegDAdY = 0x1c
	RegDSdY = 0x1d
	RegDTdY = 0x1e
	RegDWdY = 0x1f

	RegTriangleCMD = 0x20

	RegFbzColorPath  = 0x41
	RegFogMode       = 0x42
	RegAlphaMode     = 0x43
	RegFbzMode       = 0x44
	RegLfbMode       = 0x45
	RegClipLeftRight = 0x46
	RegClipLowYHighY = 0x47

	RegNopCMD        = 0x48
	RegFastfillCMD   = 0x49
	RegSwapbufferCMD = 0x4a

	RegFogColor    = 0x4b
	RegZaColor     = 0x4c
	RegChromaKey   = 0x4d
	RegChromaRange = 0x4e

	RegStipple = 0x50
	RegColor0  = 0x51
	RegColor1  = 0x52

	// Statistics, read only. Writing RegFbiPixelsIn resets all counters.
	RegFbiPixelsIn     = 0x53
	RegFbiChromaFail   = 0x54
	RegFbiZfuncFail    = 0x55
	RegFbiAfuncFail    = 0x56
	RegFbiPixelsOut    = 0x57
	RegFbiTrianglesOut = 0x58

	RegVideoDimensions = 0x59

	// Triangle setup engine. Vertex fields are IEEE single precision.
	RegSSetupMode = 0x80
	RegSVx        = 0x81
	RegSVy        = 0x82
	RegSARGB      = 0x83
	RegSRed       = 0x84
	RegSGreen     = 0x85
	RegSBlue      = 0x86
	RegSAlpha     = 0x87
	RegSVz        = 0x88
	RegSWb        = 0x89
	RegSWtmu0     = 0x8a
	RegSS0        = 0x8b
	RegST0        = 0x8c
	RegSWtmu1     = 0x8d
	RegSS1        = 0x8e
	RegST1        = 0x8f

	RegSDrawTriCMD  = 0x90
	RegSBeginTriCMD = 0x91

	// TMU registers. Only meaningful when the chip mask selects a TMU.
	RegTextureMode   = 0xc0
	RegTLOD          = 0xc1
	RegTDetail       = 0xc2
	RegTexBaseAddr   = 0xc3
	RegTexBaseAddr1  = 0xc4
	RegTexBaseAddr2  = 0xc5
	RegTexBaseAddr38 = 0xc6

	// NCC table 0 occupies 12 consecutive registers, table 1 the next 12.
	// Writes to entries 4-11 with bit 31 set redirect to the palette.
	RegNCCTable0 = 0xce
	RegNCCTable1 = 0xda // through 0xe5

	// Fog table, 32 registers, two entries per word.
	RegFogTable = 0x60 // through 0x7f
)

// RegWritable reports whether external writes to reg take effect. Writes to
// read-only or unmapped registers are silently dropped.
func RegWritable(reg uint32) bool {
	switch {
	case reg == RegStatus:
		return false
	case reg >= RegFbiChromaFail && reg <= RegFbiTrianglesOut:
		return false
	case reg >= RegVertexAx && reg <= RegTriangleCMD:
		return true
	case reg >= RegFbzColorPath && reg <= RegVideoDimensions:
		return true
	case reg >= RegFogTable && reg <= RegFogTable+31:
		return true
	case reg >= RegSSetupMode && reg <= RegSBeginTriCMD:
		return true
	case reg >= RegTextureMode && reg <= RegNCCTable1+11:
		return true
	}
	return false
}

// fbzMode is the framebuffer/depth control register.
type fbzMode uint32

func (m fbzMode) enableClipping() bool     { return m&(1<<0) != 0 }
func (m fbzMode) enableChromaKey() bool    { return m&(1<<1) != 0 }
func (m fbzMode) enableStipple() bool      { return m&(1<<2) != 0 }
func (m fbzMode) wBufferSelect() bool      { return m&(1<<3) != 0 }
func (m fbzMode) enableDepthBuf() bool     { return m&(1<<4) != 0 }
func (m fbzMode) depthFunction() uint32    { return uint32(m>>5) & 7 }
func (m fbzMode) enableDithering() bool    { return m&(1<<8) != 0 }
func (m fbzMode) rgbWriteMask() bool       { return m&(1<<9) != 0 }
func (m fbzMode) auxWriteMask() bool       { return m&(1<<10) != 0 }
func (m fbzMode) dither2x2() bool          { return m&(1<<11) != 0 }
func (m fbzMode) stipplePattern() bool     { return m&(1<<12) != 0 }
func (m fbzMode) enableAlphaMask() bool    { return m&(1<<13) != 0 }
func (m fbzMode) drawBuffer() uint32       { return uint32(m>>14) & 3 }
func (m fbzMode) enableDepthBias() bool    { return m&(1<<16) != 0 }
func (m fbzMode) yOriginInverted() bool    { return m&(1<<17) != 0 }
func (m fbzMode) enableAlphaPlanes() bool  { return m&(1<<18) != 0 }
func (m fbzMode) depthSourceCompare() bool { return m&(1<<20) != 0 }
func (m fbzMode) depthFloatSelect() bool   { return m&(1<<21) != 0 }

// Depth and alpha comparison functions.
const (
	CmpNever = iota
	CmpLess
	CmpEqual
	CmpLessEqual
	CmpGreater
	CmpNotEqual
	CmpGreaterEqual
	CmpAlways
)

// fbzColorPath controls the color combine unit.
type fbzColorPath uint32

func (p fbzColorPath) rgbSelect() uint32      { return uint32(p) & 3 }
func (p fbzColorPath) aSelect() uint32        { return uint32(p>>2) & 3 }
func (p fbzColorPath) ccLocalSelect() bool    { return p&(1<<4) != 0 }
func (p fbzColorPath) ccaLocalSelect() uint32 { return uint32(p>>5) & 3 }
func (p fbzColorPath) ccLocalOverride() bool  { return p&(1<<7) != 0 }
func (p fbzColorPath) ccZeroOther() bool      { return p&(1<<8) != 0 }
func (p fbzColorPath) ccSubCLocal() bool      { return p&(1<<9) != 0 }
func (p fbzColorPath) ccMSelect() uint32      { return uint32(p>>10) & 7 }
func (p fbzColorPath) ccReverseBlend() bool   { return p&(1<<13) != 0 }
func (p fbzColorPath) ccAddCLocal() bool      { return uint32(p>>14)&3 == 1 }
func (p fbzColorPath) ccAddALocal() bool      { return uint32(p>>14)&3 == 2 }
func (p fbzColorPath) ccInvertOutput() bool   { return p&(1<<16) != 0 }
func (p fbzColorPath) ccaZeroOther() bool     { return p&(1<<17) != 0 }
func (p fbzColorPath) ccaSubCLocal() bool     { return p&(1<<18) != 0 }
func (p fbzColorPath) ccaMSelect() uint32     { return uint32(p>>19) & 7 }
func (p fbzColorPath) ccaReverseBlend() bool  { return p&(1<<22) != 0 }
func (p fbzColorPath) ccaAddCLocal() bool     { return uint32(p>>23)&3 == 1 }
func (p fbzColorPath) ccaAddALocal() bool     { return uint32(p>>23)&3 == 2 }
func (p fbzColorPath) ccaInvertOutput() bool  { return p&(1<<25) != 0 }

// Color combine source selectors.
const (
	CCRGBIterated = 0
	CCRGBTexture  = 1
	CCRGBColor1   = 2

	CCAIterated = 0
	CCATexture  = 1
	CCAColor1   = 2
)

// alphaMode controls alpha test and alpha blending.
type alphaMode uint32

func (m alphaMode) alphaTest() bool       { return m&(1<<0) != 0 }
func (m alphaMode) alphaFunction() uint32 { return uint32(m>>1) & 7 }
func (m alphaMode) alphaBlend() bool      { return m&(1<<4) != 0 }
func (m alphaMode) srcRGBBlend() uint32   { return uint32(m>>8) & 0xf }
func (m alphaMode) dstRGBBlend() uint32   { return uint32(m>>12) & 0xf }
func (m alphaMode) srcAlphaBlend() uint32 { return uint32(m>>16) & 0xf }
func (m alphaMode) dstAlphaBlend() uint32 { return uint32(m>>20) & 0xf }
func (m alphaMode) alphaRef() int32       { return int32(m>>24) & 0xff }

// Blend factor codes.
const (
	BlendZero          = 0
	BlendSrcAlpha      = 1
	BlendColor         = 2
	BlendDstAlpha      = 3
	BlendOne           = 4
	BlendOmSrcAlpha    = 5
	BlendOmColor       = 6
	BlendOmDstAlpha    = 7
	BlendAlphaSaturate = 15
)

// fogMode controls the fog unit.
type fogMode uint32

func (m fogMode) enableFog() bool   { return m&(1<<0) != 0 }
func (m fogMode) fogAdd() bool      { return m&(1<<1) != 0 }
func (m fogMode) fogMult() bool     { return m&(1<<2) != 0 }
func (m fogMode) fogZAlpha() uint32 { return uint32(m>>3) & 3 }
func (m fogMode) fogConstant() bool { return m&(1<<5) != 0 }
func (m fogMode) fogDither() bool   { return m&(1<<6) != 0 }

// Fog blend factor sources.
const (
	FogFromTable = 0
	FogFromIterA = 1
	FogFromIterZ = 2
	FogFromIterW = 3
)

// textureMode controls one TMU's sampling and combine behavior.
type textureMode uint32

func (m textureMode) enablePerspective() bool { return m&(1<<0) != 0 }
func (m textureMode) clampNegW() bool         { return m&(1<<2) != 0 }
func (m textureMode) nccTableSelect() uint32  { return uint32(m>>5) & 1 }
func (m textureMode) clampS() bool            { return m&(1<<6) != 0 }
func (m textureMode) clampT() bool            { return m&(1<<7) != 0 }
func (m textureMode) format() uint32          { return uint32(m>>8) & 0xf }
func (m textureMode) tcZeroOther() bool       { return m&(1<<12) != 0 }
func (m textureMode) tcSubCLocal() bool       { return m&(1<<13) != 0 }
func (m textureMode) tcMSelect() uint32       { return uint32(m>>14) & 7 }
func (m textureMode) tcReverseBlend() bool    { return m&(1<<17) != 0 }
func (m textureMode) tcAddCLocal() bool       { return m&(1<<18) != 0 }
func (m textureMode) tcAddALocal() bool       { return m&(1<<19) != 0 }
func (m textureMode) tcInvertOutput() bool    { return m&(1<<20) != 0 }
func (m textureMode) tcaZeroOther() bool      { return m&(1<<21) != 0 }
func (m textureMode) tcaSubCLocal() bool      { return m&(1<<22) != 0 }
func (m textureMode) tcaMSelect() uint32      { return uint32(m>>23) & 7 }
func (m textureMode) tcaReverseBlend() bool   { return m&(1<<26) != 0 }
func (m textureMode) tcaAddCLocal() bool      { return m&(1<<27) != 0 }
func (m textureMode) tcaAddALocal() bool      { return m&(1<<28) != 0 }
func (m textureMode) tcaInvertOutput() bool   { return m&(1<<29) != 0 }

// Texture/color combine multiplicand selectors.
const (
	MselZero     = 0
	MselCLocal   = 1
	MselAOther   = 2
	MselALocal   = 3
	MselTexAlpha = 4
	MselLODFrac  = 5
)

// Texel format codes.
const (
	TexRGB332   = 0
	TexYIQ      = 1
	TexAlpha8   = 2
	TexIntens8  = 3
	TexAI44     = 4
	TexPalette8 = 5
	TexARGB8332 = 8
	TexAYIQ     = 9
	TexRGB565   = 10
	TexARGB1555 = 11
	TexARGB4444 = 12
	TexAI88     = 13
)

// tLOD controls mipmap selection and texture layout.
type tLOD uint32

// LOD limits and bias are in quarter-LOD units.
func (t tLOD) lodMin() int32       { return int32(t) & 0x3f }
func (t tLOD) lodMax() int32       { return int32(t>>6) & 0x3f }
func (t tLOD) lodBias() int32      { return int32(uint32(t)>>12) << 26 >> 26 } // signed 6 bit
func (t tLOD) lodAspect() uint32   { return uint32(t>>21) & 3 }
func (t tLOD) lodSIsWider() bool   { return t&(1<<20) != 0 }
func (t tLOD) multiBaseAddr() bool { return t&(1<<24) != 0 }

// lfbMode controls linear framebuffer access.
type lfbMode uint32

func (m lfbMode) writeFormat() PixelFormat {
	switch uint32(m) & 0xf {
	case 1:
		return FormatARGB1555
	case 2:
		return FormatARGB8888
	default:
		return FormatRGB565
	}
}

func (m lfbMode) writeBufferSelect() int { return int(m>>4) & 3 }

// setupMode controls the triangle setup engine.
type setupMode uint32

func (m setupMode) setupRGB() bool        { return m&(1<<0) != 0 }
func (m setupMode) setupAlpha() bool      { return m&(1<<1) != 0 }
func (m setupMode) setupZ() bool          { return m&(1<<2) != 0 }
func (m setupMode) setupWb() bool         { return m&(1<<3) != 0 }
func (m setupMode) setupW0() bool         { return m&(1<<4) != 0 }
func (m setupMode) setupS0T0() bool       { return m&(1<<5) != 0 }
func (m setupMode) setupW1() bool         { return m&(1<<6) != 0 }
func (m setupMode) setupS1T1() bool       { return m&(1<<7) != 0 }
func (m setupMode) fanMode() bool         { return m&(1<<16) != 0 }
func (m setupMode) enableCulling() bool   { return m&(1<<17) != 0 }
func (m setupMode) cullSign() bool        { return m&(1<<18) != 0 }
func (m setupMode) disablePingPong() bool { return m&(1<<19) != 0 }

// chromaRange adds range matching to the chroma key test.
type chromaRange uint32

func (c chromaRange) enabled() bool        { return c&(1<<28) != 0 }
func (c chromaRange) blueExclusive() bool  { return c&(1<<24) != 0 }
func (c chromaRange) greenExclusive() bool { return c&(1<<25) != 0 }
func (c chromaRange) redExclusive() bool   { return c&(1<<26) != 0 }
func (c chromaRange) unionMode() bool      { return c&(1<<27) != 0 }

// rgba is the pipeline's working color, 8 bits per channel.
type rgba struct {
	r, g, b, a int32
}

func rgbaFromPacked(v uint32) rgba {
	return rgba{
		r: int32(v>>16) & 0xff,
		g: int32(v>>8) & 0xff,
		b: int32(v) & 0xff,
		a: int32(v>>24) & 0xff,
	}
}

func (c rgba) packed() uint32 {
	return uint32(c.a)<<24 | uint32(c.r)<<16 | uint32(c.g)<<8 | uint32(c.b)
}

func clamp255(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clamp16(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 0xffff {
		return 0xffff
	}
	return v
}
