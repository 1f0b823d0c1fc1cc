package ui

// ExpandRGB565 converts a packed 16-bit frame into RGBA bytes for display.
// The low bits of each channel are filled by replication so full intensity
// expands to 255. dst must hold width*height*4 bytes.
func ExpandRGB565(src []uint16, width, height, stride int, dst []byte) {
	i := 0
	for y := 0; y < height; y++ {
		row := src[y*stride : y*stride+width]
		for _, p := range row {
			r := p >> 11 & 0x1f
			g := p >> 5 & 0x3f
			b := p & 0x1f
			dst[i+0] = byte(r<<3 | r>>2)
			dst[i+1] = byte(g<<2 | g>>4)
			dst[i+2] = byte(b<<3 | b>>2)
			dst[i+3] = 0xff
			i += 4
		}
	}
}
