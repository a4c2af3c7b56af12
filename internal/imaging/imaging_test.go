package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/nuclear-hardware/hms/internal/model"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessKeepsSmallImages(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeJPEG(solid(50, 40, color.RGBA{255, 0, 0, 255}))))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if photo.Width != 50 || photo.Height != 40 {
		t.Errorf("small image should not be resized: got %dx%d", photo.Width, photo.Height)
	}
}

func TestProcessDownscalesKeepingAspect(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(solid(1600, 800, color.RGBA{0, 0, 255, 255}))))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if photo.Width != MaxDimension || photo.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, photo.Width, photo.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != photo.Width || b.Dy() != photo.Height {
		t.Errorf("encoded size %dx%d does not match reported size", b.Dx(), b.Dy())
	}
}

func TestProcessTallImage(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeJPEG(solid(300, 1200, color.Black))))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if photo.Height != MaxDimension || photo.Width != MaxDimension/4 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension/4, MaxDimension, photo.Width, photo.Height)
	}
}

func TestProcessFlattensTransparency(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(solid(10, 10, color.RGBA{0, 0, 0, 0}))))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	img, _, _ := image.Decode(bytes.NewReader(photo.Data))
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected transparent pixels to become white, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := Process(bytes.NewReader(data)); !errors.Is(err, model.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	data := make([]byte, MaxUpload+10)
	copy(data, "\xff\xd8\xff")
	if _, err := Process(bytes.NewReader(data)); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
