package ui

import (
	"sync"
	"time"
)

// SharedFramebuffer holds RGBA pixel data written by the render goroutine
// and read by Ebiten's Draw() method. Uses separate write and read buffers
// so the render goroutine can publish a new frame while Draw uses the read
// copy.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte // Written by the render goroutine under lock
	readPixels  []byte // Snapshot copied on Read for safe external use
	width       int
	height      int
	valid       bool
}

// NewSharedFramebuffer creates a pre-allocated framebuffer for frames of
// the given fixed dimensions.
func NewSharedFramebuffer(width, height int) *SharedFramebuffer {
	return &SharedFramebuffer{
		writePixels: make([]byte, width*height*4),
		readPixels:  make([]byte, width*height*4),
		width:       width,
		height:      height,
	}
}

// Update copies one RGBA frame from the render goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte) {
	sf.mu.Lock()
	n := len(sf.writePixels)
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(sf.writePixels[:n], pixels[:n])
	sf.valid = true
	sf.mu.Unlock()
}

// Read returns a snapshot of the current frame. Copies the write buffer
// into the read buffer under the lock, then returns the read buffer which
// is safe to use without holding the lock. Before the first Update the
// returned width and height are zero.
func (sf *SharedFramebuffer) Read() (pixels []byte, width, height int) {
	sf.mu.Lock()
	if !sf.valid {
		sf.mu.Unlock()
		return nil, 0, 0
	}
	copy(sf.readPixels, sf.writePixels)
	pixels = sf.readPixels
	width = sf.width
	height = sf.height
	sf.mu.Unlock()
	return
}

// EmuControl manages pause/resume/stop coordination between the Ebiten
// thread and the render goroutine.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopped  bool
	ackCh    chan struct{}
}

// NewEmuControl creates a new render control.
func NewEmuControl() *EmuControl {
	return &EmuControl{
		ackCh: make(chan struct{}, 1),
	}
}

// RequestPause asks the render goroutine to pause and blocks until it
// acknowledges the pause.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	if ec.paused || ec.pauseReq {
		ec.mu.Unlock()
		return
	}
	ec.pauseReq = true
	ec.mu.Unlock()

	// Wait for the render goroutine to acknowledge
	<-ec.ackCh
}

// RequestResume tells the render goroutine to resume.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.paused = false
	ec.mu.Unlock()
}

// CheckPause is called by the render goroutine between frames. If a pause
// has been requested, it sends an acknowledgment and waits until resumed
// or stopped. Returns false if the goroutine should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	if ec.stopped {
		ec.mu.Unlock()
		return false
	}
	if !ec.pauseReq {
		ec.mu.Unlock()
		return true
	}

	// Acknowledge pause request
	ec.paused = true
	ec.mu.Unlock()

	// Non-blocking send of ack (buffer size 1)
	select {
	case ec.ackCh <- struct{}{}:
	default:
	}

	// Wait until resumed or stopped
	for {
		ec.mu.Lock()
		if ec.stopped {
			ec.mu.Unlock()
			return false
		}
		if !ec.pauseReq {
			ec.paused = false
			ec.mu.Unlock()
			return true
		}
		ec.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the render goroutine to exit.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	// Also clear pause so CheckPause unblocks
	ec.pauseReq = false
	ec.mu.Unlock()
}

// ShouldRun returns true if the goroutine should continue running.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	r := !ec.stopped
	ec.mu.Unlock()
	return r
}

// IsPaused returns true if the render goroutine is currently paused.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	p := ec.paused
	ec.mu.Unlock()
	return p
}
