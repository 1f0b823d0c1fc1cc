package main

import (
	"flag"
	"image"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/bmp"

	"github.com/user-none/emsst/cli"
	"github.com/user-none/emsst/emu"
	"github.com/user-none/emsst/ui"
)

func main() {
	width := flag.Int("width", 640, "framebuffer width in pixels")
	height := flag.Int("height", 480, "framebuffer height in pixels")
	workers := flag.Int("workers", runtime.NumCPU(), "rasterizer worker goroutines (0 renders on the submitting goroutine)")
	tmus := flag.Int("tmus", 2, "number of texture units (0-2)")
	scene := flag.String("scene", "gouraud", "demo scene: "+strings.Join(cli.SceneNames(), ", "))
	frames := flag.Int("frames", 120, "frames to render before a headless snapshot")
	snapshot := flag.String("snapshot", "", "render headless and write a BMP of the final frame to this path")
	flag.Parse()

	scenes := cli.Scenes()
	sceneIdx := -1
	for i, s := range scenes {
		if s.Name == *scene {
			sceneIdx = i
		}
	}
	if sceneIdx < 0 {
		log.Fatalf("Unknown scene %q (available: %s)", *scene, strings.Join(cli.SceneNames(), ", "))
	}

	d, err := emu.NewDevice(emu.Config{
		Width:   *width,
		Height:  *height,
		TMUs:    *tmus,
		Workers: *workers,
	})
	if err != nil {
		log.Fatalf("Failed to initialize device: %v", err)
	}
	defer d.Close()

	if *snapshot != "" {
		if err := renderSnapshot(d, scenes[sceneIdx], *frames, *snapshot); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		return
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle(emu.Name + " " + emu.Version)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(d, sceneIdx)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}

// renderSnapshot runs the scene without a window and writes the last
// presented frame as a BMP.
func renderSnapshot(d *emu.Device, sc cli.Scene, frames int, path string) error {
	sc.Init(d)
	for f := 0; f < frames; f++ {
		d.SignalVRetrace()
		sc.Frame(d, f)
	}

	pix, w, h, stride := d.FrontBuffer()
	rgba := make([]byte, w*h*4)
	ui.ExpandRGB565(pix, w, h, stride, rgba)

	img := &image.RGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return bmp.Encode(out, img)
}
