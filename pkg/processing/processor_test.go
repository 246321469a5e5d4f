package processing

import (
	"encoding/base64"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/menta2k/vision-tasks/pkg/types"
)

func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

func TestSaveLoadRoundtrip(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	src := createTestImage(64, 48)

	for _, format := range []string{"png", "jpg", "webp"} {
		path := filepath.Join(dir, "test."+format)
		if err := p.SaveImage(src, path, format, 90, false); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}

		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", format, err)
		}
		b := loaded.Bounds()
		if b.Dx() != 64 || b.Dy() != 48 {
			t.Errorf("%s roundtrip changed dimensions: %dx%d", format, b.Dx(), b.Dy())
		}
	}
}

func TestSaveImageWebPLossless(t *testing.T) {
	p := NewProcessor()
	path := filepath.Join(t.TempDir(), "lossless.webp")

	if err := p.SaveImage(createTestImage(32, 32), path, "webp", 100, true); err != nil {
		t.Fatalf("lossless webp save failed: %v", err)
	}
	if _, err := p.LoadImage(path); err != nil {
		t.Fatalf("lossless webp load failed: %v", err)
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	p := NewProcessor()
	if _, err := p.LoadImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadImageFromURLRejectsScheme(t *testing.T) {
	p := NewProcessor()
	if _, err := p.LoadImageFromURL("ftp://example.com/test.jpg"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestDecodeBytesInvalid(t *testing.T) {
	p := NewProcessor()
	if _, err := p.DecodeBytes([]byte("definitely not an image")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestPrepareImageForModelResizes(t *testing.T) {
	p := NewProcessor()
	encoded, err := p.PrepareImageForModel(createTestImage(200, 100), "jpg", 100, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	decoded, err := p.DecodeBytes(data)
	if err != nil {
		t.Fatalf("encoded payload does not decode: %v", err)
	}

	b := decoded.Bounds()
	if b.Dx() != 100 {
		t.Errorf("expected long side resized to 100, got %d", b.Dx())
	}
	if b.Dy() != 50 {
		t.Errorf("expected aspect preserved, got height %d", b.Dy())
	}
}

func TestPrepareImageForModelKeepsSmallImages(t *testing.T) {
	p := NewProcessor()
	encoded, err := p.PrepareImageForModel(createTestImage(50, 40), "png", 100, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, _ := base64.StdEncoding.DecodeString(encoded)
	decoded, err := p.DecodeBytes(data)
	if err != nil {
		t.Fatalf("encoded payload does not decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 50 || b.Dy() != 40 {
		t.Errorf("small image must pass through unresized, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropToBox(t *testing.T) {
	p := NewProcessor()
	cropped, err := p.CropToBox(createTestImage(100, 100), types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5})
	if err != nil {
		t.Fatalf("CropToBox failed: %v", err)
	}
	if b := cropped.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("expected 50x50 crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropToBoxOutsideImage(t *testing.T) {
	p := NewProcessor()
	if _, err := p.CropToBox(createTestImage(100, 100), types.Box{X: 2, Y: 2, W: 0.5, H: 0.5}); err == nil {
		t.Fatal("expected error for a crop outside the image")
	}
}
