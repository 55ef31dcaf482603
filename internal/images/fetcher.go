package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// MaxImageBytes caps uploads and downloads at 10MB
const MaxImageBytes = 10 * 1024 * 1024

var ErrNotImage = errors.New("data is not a supported image")

// Fetcher resolves image references (local paths, file:// and http(s) URLs) to bytes
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Info describes a decoded image header
type Info struct {
	Format string
	MIME   string
	Width  int
	Height int
}

// Fetch reads the image behind ref and validates it
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = f.download(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, perr := url.Parse(ref)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse file URL: %w", perr)
		}
		data, err = readLimited(u.Path)
	default:
		data, err = readLimited(ref)
	}
	if err != nil {
		return nil, err
	}

	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched image", "ref", ref, "format", info.Format, "width", info.Width, "height", info.Height, "bytes", len(data))

	return data, nil
}

func (f *Fetcher) download(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	return readAllLimited(resp.Body)
}

func readLimited(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return readAllLimited(file)
}

func readAllLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image too large (max %d bytes)", MaxImageBytes)
	}
	return data, nil
}

// Inspect validates data as an image and returns its header information.
// Formats without a registered decoder (webp) are accepted on content sniffing alone.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrNotImage
	}

	mime := http.DetectContentType(data)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if strings.HasPrefix(mime, "image/") {
			return Info{Format: strings.TrimPrefix(mime, "image/"), MIME: mime}, nil
		}
		return Info{}, fmt.Errorf("%w: %s", ErrNotImage, mime)
	}

	return Info{
		Format: format,
		MIME:   "image/" + format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// MIMEType returns the image MIME type of data, defaulting to image/jpeg
func MIMEType(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}
