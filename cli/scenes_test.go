package cli

import (
	"crypto/sha256"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/user-none/emsst/emu"
)

var update = flag.Bool("update", false, "record golden framebuffer hashes in testdata")

func makeSceneDevice(t *testing.T) *emu.Device {
	t.Helper()
	d, err := emu.NewDevice(emu.Config{
		Width:   160,
		Height:  120,
		TMUs:    2,
		TMUMem:  1 << 18,
		Workers: 0,
	})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// hashFrontBuffer computes SHA-256 over the visible pixels of the front
// buffer, row by row, little-endian.
func hashFrontBuffer(d *emu.Device) string {
	pix, w, h, stride := d.FrontBuffer()
	sum := sha256.New()
	rowb := make([]byte, w*2)
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w]
		for i, p := range row {
			binary.LittleEndian.PutUint16(rowb[i*2:], p)
		}
		sum.Write(rowb)
	}
	return fmt.Sprintf("%x", sum.Sum(nil))
}

// compareGoldenFrame checks the frame hash against the recorded golden.
// In update mode it rewrites the golden instead of comparing; a scene with
// no recorded golden is skipped rather than failed.
func compareGoldenFrame(t *testing.T, name, hash string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if *update {
		if err := os.MkdirAll("testdata", 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(hash+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Skipf("no golden recorded for %s; run with -update", name)
	}
	if got := hash + "\n"; got != string(want) {
		t.Errorf("%s: frame hash mismatch\n  got:  %s\n  want: %s", name, hash, string(want))
	}
}

// --- Scene golden tests ---

func TestScenes_Golden(t *testing.T) {
	for _, sc := range Scenes() {
		t.Run(sc.Name, func(t *testing.T) {
			d := makeSceneDevice(t)
			sc.Init(d)
			for f := 0; f < 30; f++ {
				d.SignalVRetrace()
				sc.Frame(d, f)
			}

			stats := d.Stats()
			if stats.Triangles == 0 {
				t.Error("scene submitted no triangles")
			}
			if stats.PixelsOut == 0 {
				t.Error("scene wrote no pixels")
			}
			compareGoldenFrame(t, sc.Name, hashFrontBuffer(d))
		})
	}
}

func TestFindScene(t *testing.T) {
	for _, name := range SceneNames() {
		if _, ok := FindScene(name); !ok {
			t.Errorf("FindScene(%q) did not find a listed scene", name)
		}
	}
	if _, ok := FindScene("nope"); ok {
		t.Error("FindScene matched an unknown name")
	}
}
