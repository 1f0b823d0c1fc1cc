package emu

import "fmt"

// Name is the device identifier reported to front ends.
const Name = "emsst"

// Version is the core version.
const Version = "0.3.0"

// Config selects the session-wide device shape. Every field is fixed at
// construction: there is no mid-session reconfiguration, matching the
// single-context contract of the emulated part.
type Config struct {
	Width  int
	Height int

	// TripleBuffer allocates a third color buffer slot.
	TripleBuffer bool

	// TMUs is the number of texture units present (0, 1 or 2).
	TMUs int

	// TMUMem is the texel arena size per unit in bytes; rounded up to a
	// power of two. Zero selects 2 MiB.
	TMUMem int

	// Workers is the size of the rasterizer worker pool. Zero runs every
	// triangle on the calling thread.
	Workers int

	// WorkUnits is the number of pixel-count partitions per triangle.
	// Zero selects four units per worker.
	WorkUnits int
}

const (
	defaultTMUMem    = 2 << 20
	maxDimension     = 1024
	inlinePixelCount = 256
)

// Device is one emulated accelerator session: the register file, the
// framebuffer interface, the texture units and the rasterizer pool. All
// mutation flows through WriteRegister; concurrent use by multiple callers
// is not supported, matching the legacy single-caller contract.
type Device struct {
	reg [0x100]uint32

	fbi  *fbi
	tmus []*tmu

	stats Statistics

	pool *workerPool

	// Triangle setup engine vertex accumulator. sflip tracks the strip
	// winding alternation for the culling sign.
	sverts int
	svert  [3]setupVertex
	scur   setupVertex
	sflip  bool

	vretrace bool
}

// NewDevice allocates a device. Arena allocation failure or an invalid
// configuration is fatal: no partial device is ever returned.
func NewDevice(cfg Config) (*Device, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, fmt.Errorf("emu: invalid framebuffer dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TMUs < 0 || cfg.TMUs > 2 {
		return nil, fmt.Errorf("emu: invalid TMU count %d", cfg.TMUs)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("emu: invalid worker count %d", cfg.Workers)
	}
	initTables()
	buildStaticLUTs()

	numBufs := 2
	if cfg.TripleBuffer {
		numBufs = 3
	}
	tmuMem := cfg.TMUMem
	if tmuMem == 0 {
		tmuMem = defaultTMUMem
	}

	d := &Device{
		fbi: newFBI(cfg.Width, cfg.Height, numBufs),
	}
	for i := 0; i < cfg.TMUs; i++ {
		d.tmus = append(d.tmus, newTMU(tmuMem))
	}

	units := cfg.WorkUnits
	if units == 0 {
		units = 4 * cfg.Workers
	}
	if units < 1 {
		units = 1
	}
	d.pool = newWorkerPool(cfg.Workers, units)

	d.reg[RegVideoDimensions] = uint32(cfg.Width)<<16 | uint32(cfg.Height)
	// Reset state: draw to back buffer, RGB+depth writes on, depth LESS.
	d.reg[RegFbzMode] = 1<<14 | 1<<9 | 1<<10 | 1<<4 | CmpLess<<5
	d.reg[RegColor1] = 0xffffffff
	return d, nil
}

// Close shuts the worker pool down. The device must not be used afterwards.
func (d *Device) Close() {
	d.pool.shutdown()
}

// Width returns the framebuffer width in pixels.
func (d *Device) Width() int { return d.fbi.width }

// Height returns the framebuffer height in pixels.
func (d *Device) Height() int { return d.fbi.height }

// TMUs returns the number of texture units configured.
func (d *Device) TMUs() int { return len(d.tmus) }

// Stats returns a snapshot of the accumulated pipeline statistics.
func (d *Device) Stats() Statistics { return d.stats }

// FrontBuffer exposes the current front buffer in its native packed RGB565
// layout for presentation. The slice aliases device memory and is only
// valid until the next draw or swap; the presentation layer gets no other
// view of internal state.
func (d *Device) FrontBuffer() (pix []uint16, width, height, stride int) {
	base := d.fbi.bufferBase(d.fbi.frontBuf)
	plane := d.fbi.rowPixels * d.fbi.height
	return d.fbi.colorMem[base : base+plane], d.fbi.width, d.fbi.height, d.fbi.rowPixels
}

// SignalVRetrace latches vertical retrace into the status register.
func (d *Device) SignalVRetrace() {
	d.vretrace = true
}

func (d *Device) fbzModeReg() fbzMode           { return fbzMode(d.reg[RegFbzMode]) }
func (d *Device) fbzColorPathReg() fbzColorPath { return fbzColorPath(d.reg[RegFbzColorPath]) }
func (d *Device) alphaModeReg() alphaMode       { return alphaMode(d.reg[RegAlphaMode]) }
func (d *Device) fogModeReg() fogMode           { return fogMode(d.reg[RegFogMode]) }
func (d *Device) setupModeReg() setupMode       { return setupMode(d.reg[RegSSetupMode]) }

// status assembles the read value of the status register: retrace state,
// pending-swap, and permanently-free FIFO space (this re-implementation
// never queues).
func (d *Device) status() uint32 {
	var s uint32
	if d.vretrace {
		s |= 1 << 6
	}
	s |= 0x3f << 12 // memory FIFO entries free
	s |= 0xf << 28  // command FIFO entries free
	return s
}
