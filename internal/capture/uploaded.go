package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"sync"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// Разрешённые типы загружаемых снимков
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// DefaultMaxPixels ограничивает размер кадра до декодирования (40 Мп).
const DefaultMaxPixels int64 = 40_000_000

var errStreamStopped = errors.New("capture: stream stopped")

// UploadedCamera играет роль камеры на стороне сервера: единственный кадр приходит
// загрузкой с устройства и проходит тот же конвейер, что и живой поток.
type UploadedCamera struct {
	data      []byte
	maxPixels int64
}

// NewUploadedCamera принимает снимок и предел width*height; maxPixels <= 0
// означает DefaultMaxPixels.
func NewUploadedCamera(data []byte, maxPixels int64) *UploadedCamera {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &UploadedCamera{data: data, maxPixels: maxPixels}
}

// Open проверяет магические байты и размеры кадра, затем декодирует изображение.
func (c *UploadedCamera) Open(ctx context.Context, _ FacingMode) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.data) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "photo is required")
	}

	kind, err := filetype.Match(c.data)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.New(apperror.ErrCodeValidation, "unable to detect photo type, only images are allowed")
	}
	if !allowedMimeTypes[kind.MIME.Value] {
		return nil, apperror.New(apperror.ErrCodeValidation, "unsupported photo type "+kind.MIME.Value)
	}

	// Заголовок читается без декодирования пикселей: сжатый PNG может
	// развернуться в гигабайты.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(c.data))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "photo is corrupted")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > c.maxPixels {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("photo dimensions %dx%d exceed the allowed %d pixels", cfg.Width, cfg.Height, c.maxPixels))
	}

	img, _, err := image.Decode(bytes.NewReader(c.data))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "photo is corrupted")
	}
	return &stillStream{frame: img}, nil
}

type stillStream struct {
	mu      sync.Mutex
	frame   image.Image
	stopped bool
}

func (s *stillStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, errStreamStopped
	}
	return s.frame, nil
}

func (s *stillStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.frame = nil
	s.mu.Unlock()
}

// FixedLocator отдаёт координату, переданную устройством вместе со снимком.
type FixedLocator struct {
	coord valueobject.Coordinate
}

func NewFixedLocator(lat, lng float64) *FixedLocator {
	return &FixedLocator{coord: valueobject.Coordinate{Latitude: lat, Longitude: lng}}
}

func (l *FixedLocator) CurrentPosition(ctx context.Context) (valueobject.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return valueobject.Coordinate{}, err
	}
	return valueobject.NewCoordinate(l.coord.Latitude, l.coord.Longitude)
}
