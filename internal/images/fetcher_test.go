package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetchLocalFile(t *testing.T) {
	data := pngBytes(t, 4, 3)
	path := filepath.Join(t.TempDir(), "product.png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(0)
	for _, ref := range []string{path, "file://" + path} {
		got, err := f.Fetch(context.Background(), ref)
		if err != nil {
			t.Fatalf("Fetch(%q) failed: %v", ref, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Expected %d bytes, got %d", len(data), len(got))
		}
	}
}

func TestFetchURL(t *testing.T) {
	data := pngBytes(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/text" {
			_, _ = w.Write([]byte("hello"))
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := NewFetcher(0)

	got, err := f.Fetch(context.Background(), srv.URL+"/item.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Expected downloaded bytes to match")
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("Expected error for 404, got nil")
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/text"); !errors.Is(err, ErrNotImage) {
		t.Errorf("Expected ErrNotImage, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pngBytes(t, 5, 7))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info.Format != "png" || info.Width != 5 || info.Height != 7 {
		t.Errorf("Expected png 5x7, got %s %dx%d", info.Format, info.Width, info.Height)
	}

	if _, err := Inspect(nil); !errors.Is(err, ErrNotImage) {
		t.Errorf("Expected ErrNotImage for empty data, got %v", err)
	}
}

func TestMIMEType(t *testing.T) {
	if got := MIMEType(pngBytes(t, 1, 1)); got != "image/png" {
		t.Errorf("Expected image/png, got %s", got)
	}
	if got := MIMEType([]byte("AAAA")); got != "image/jpeg" {
		t.Errorf("Expected image/jpeg fallback, got %s", got)
	}
}
