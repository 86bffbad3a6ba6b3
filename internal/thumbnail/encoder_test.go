package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeFitsWithinBounds(t *testing.T) {
	enc := NewJPEGEncoder()

	tests := []struct {
		name           string
		srcW, srcH     int
		size           int
		wantW, wantH   int
	}{
		{"landscape downscale", 1024, 512, 256, 256, 128},
		{"portrait downscale", 300, 600, 100, 50, 100},
		{"square", 800, 800, 512, 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, w, h, err := enc.Encode(pngBytes(t, tt.srcW, tt.srcH), tt.size, 80)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}

			decoded, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not valid JPEG: %v", err)
			}
			bounds := decoded.Bounds()
			if bounds.Dx() != tt.wantW || bounds.Dy() != tt.wantH {
				t.Errorf("decoded dimensions = %dx%d, want %dx%d",
					bounds.Dx(), bounds.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodeRejectsGarbage(t *testing.T) {
	enc := NewJPEGEncoder()
	if _, _, _, err := enc.Encode([]byte("not an image"), 256, 80); err == nil {
		t.Error("expected an error for undecodable input")
	}
}

func TestFormat(t *testing.T) {
	if got := NewJPEGEncoder().Format(); got != "jpeg" {
		t.Errorf("Format = %q, want %q", got, "jpeg")
	}
}

func TestNewEncoderSelectsFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"jpeg", "jpeg"},
		{"jpg", "jpeg"},
		{"png", "png"},
	}
	for _, tt := range tests {
		enc, err := NewEncoder(tt.format)
		if err != nil {
			t.Fatalf("NewEncoder(%q) failed: %v", tt.format, err)
		}
		if enc.Format() != tt.want {
			t.Errorf("NewEncoder(%q).Format() = %q, want %q", tt.format, enc.Format(), tt.want)
		}
	}

	if _, err := NewEncoder("webp"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestPNGEncoderOutput(t *testing.T) {
	enc := NewPNGEncoder()

	data, w, h, err := enc.Encode(pngBytes(t, 1024, 512), 256, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if w != 256 || h != 128 {
		t.Errorf("dimensions = %dx%d, want 256x128", w, h)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 256 || decoded.Bounds().Dy() != 128 {
		t.Errorf("decoded dimensions = %dx%d, want 256x128",
			decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}
