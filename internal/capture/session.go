// Package capture объединяет камеру и геолокацию в одно наблюдение:
// снимок JPEG, координату и подпись адреса.
package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// JPEGQuality соответствует качеству 0.8 при кодировании снимка.
const JPEGQuality = 80

type Sensor string

const (
	SensorCamera   Sensor = "camera"
	SensorLocation Sensor = "location"
)

type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Camera открывает видеопоток устройства.
type Camera interface {
	Open(ctx context.Context, facing FacingMode) (Stream, error)
}

// Stream отдаёт кадры живого потока камеры. Stop должен быть идемпотентным.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}

// Locator возвращает текущее положение устройства.
type Locator interface {
	CurrentPosition(ctx context.Context) (valueobject.Coordinate, error)
}

// AddressResolver может заменить подпись-заглушку настоящим обратным геокодированием.
type AddressResolver interface {
	Resolve(ctx context.Context, coord valueobject.Coordinate) (string, error)
}

// Observation хранит результат захвата, готовый к подаче жалобы.
type Observation struct {
	Image        []byte
	Latitude     float64
	Longitude    float64
	AddressLabel string
}

func (o Observation) Coordinate() valueobject.Coordinate {
	return valueobject.Coordinate{Latitude: o.Latitude, Longitude: o.Longitude}
}

var (
	ErrNotAcquired = apperror.New(apperror.ErrCodeBadRequest, "camera and location are not acquired")
	ErrSuperseded  = apperror.New(apperror.ErrCodeBadRequest, "capture was superseded by a retake")
	ErrClosed      = apperror.New(apperror.ErrCodeBadRequest, "capture session is closed")
)

type Option func(*Session)

// WithTimeout ограничивает ожидание разрешений камеры и геолокации.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

func WithFacing(facing FacingMode) Option {
	return func(s *Session) { s.facing = facing }
}

func WithAddressResolver(r AddressResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// Session описывает один сценарий съёмки: Acquire, Capture, при необходимости Retake, затем Observation.
// Поток камеры освобождается на каждом пути выхода; Close обязателен.
type Session struct {
	camera   Camera
	locator  Locator
	resolver AddressResolver
	timeout  time.Duration
	facing   FacingMode

	mu         sync.Mutex
	stream     Stream
	coord      *valueobject.Coordinate
	still      []byte
	generation uint64
	closed     bool
}

func NewSession(camera Camera, locator Locator, opts ...Option) *Session {
	s := &Session{
		camera:  camera,
		locator: locator,
		facing:  FacingEnvironment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire параллельно открывает камеру и запрашивает геолокацию. Нужны оба
// разрешения; при отказе камеры ошибка камеры сообщается первой.
func (s *Session) Acquire(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		stream         Stream
		coord          valueobject.Coordinate
		camErr, locErr error
		camDone        atomic.Bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stream, camErr = s.camera.Open(gctx, s.facing)
		camDone.Store(true)
		return camErr
	})
	g.Go(func() error {
		coord, locErr = s.locator.CurrentPosition(gctx)
		return locErr
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Датчик мог ответить позже: освобождаем поток, когда он придёт.
		go func() {
			<-done
			if stream != nil {
				stream.Stop()
			}
		}()
		if !camDone.Load() {
			return apperror.PermissionDenied(string(SensorCamera), ctx.Err())
		}
		// camErr записан до camDone.Store, поэтому читается без гонки.
		if camErr != nil {
			return sensorError(SensorCamera, camErr)
		}
		return apperror.PermissionDenied(string(SensorLocation), ctx.Err())
	}

	if camErr != nil || locErr != nil {
		if stream != nil {
			stream.Stop()
		}
		// Камера, отменённая из-за отказа геолокации, сама не отказывала.
		cancelledByGroup := locErr != nil && errors.Is(camErr, context.Canceled) && ctx.Err() == nil
		if camErr != nil && !cancelledByGroup {
			return sensorError(SensorCamera, camErr)
		}
		return sensorError(SensorLocation, locErr)
	}

	if _, err := valueobject.NewCoordinate(coord.Latitude, coord.Longitude); err != nil {
		stream.Stop()
		return apperror.PermissionDenied(string(SensorLocation), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		stream.Stop()
		return ErrClosed
	}
	if s.stream != nil {
		s.stream.Stop()
	}
	s.stream = stream
	s.coord = &coord
	s.still = nil
	s.generation++
	return nil
}

// Capture снимает один кадр в исходном разрешении, кодирует его в JPEG и
// сразу останавливает поток камеры.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	stream, gen := s.stream, s.generation
	s.mu.Unlock()

	if stream == nil {
		return nil, ErrNotAcquired
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, sensorError(SensorCamera, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to encode photo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.generation != gen {
		return nil, ErrSuperseded
	}
	s.still = buf.Bytes()
	s.stream.Stop()
	s.stream = nil
	return s.still, nil
}

// Retake отбрасывает прежний снимок и заново открывает камеру с той же
// ориентацией. Геолокация не запрашивается повторно.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.coord == nil {
		s.mu.Unlock()
		return ErrNotAcquired
	}
	s.generation++
	s.still = nil
	old := s.stream
	s.stream = nil
	gen := s.generation
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stream, err := s.camera.Open(ctx, s.facing)
	if err != nil {
		return sensorError(SensorCamera, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		stream.Stop()
		if s.closed {
			return ErrClosed
		}
		return ErrSuperseded
	}
	s.stream = stream
	return nil
}

// Observation собирает итог: снимок, исходную координату и подпись адреса.
func (s *Session) Observation(ctx context.Context) (*Observation, error) {
	s.mu.Lock()
	still, coord := s.still, s.coord
	s.mu.Unlock()

	if coord == nil {
		return nil, ErrNotAcquired
	}
	if still == nil {
		return nil, apperror.ErrNothingCaptured
	}

	label := AddressLabel(*coord)
	if s.resolver != nil {
		if resolved, err := s.resolver.Resolve(ctx, *coord); err == nil && resolved != "" {
			label = resolved
		}
	}

	return &Observation{
		Image:        still,
		Latitude:     coord.Latitude,
		Longitude:    coord.Longitude,
		AddressLabel: label,
	}, nil
}

// Close освобождает камеру. Повторный вызов безопасен.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	s.closed = true
}

// AddressLabel строит подпись-заглушку вместо обратного геокодирования.
func AddressLabel(coord valueobject.Coordinate) string {
	return coord.String()
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// sensorError пропускает ошибки валидации как есть, остальное считается отказом датчика.
func sensorError(sensor Sensor, err error) error {
	if apperror.IsValidation(err) {
		return err
	}
	return apperror.PermissionDenied(string(sensor), err)
}
