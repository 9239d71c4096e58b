// Package stream runs the per-viewer frame pipeline: pace, capture,
// detect, annotate, encode, emit. One Run call serves one client
// connection; capture handles are shared through the pool so several
// viewers of the same camera reuse a single device.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"
	"gocv.io/x/gocv"

	"github.com/ssilva/epivision/internal/annotate"
	"github.com/ssilva/epivision/internal/capture"
	"github.com/ssilva/epivision/internal/detector"
	"github.com/ssilva/epivision/internal/lgr"
	"github.com/ssilva/epivision/internal/store"
)

const (
	// pacerPoll is how often the loop re-checks the pacer while waiting
	// for the next frame slot.
	pacerPoll = 10 * time.Millisecond

	// inactivePoll is how often an idle loop re-checks a deactivated
	// camera for reactivation.
	inactivePoll = 100 * time.Millisecond

	// defaultReconnectMin and defaultReconnectMax bound the exponential
	// backoff between reconnect attempts on a failing source.
	defaultReconnectMin = 2 * time.Second
	defaultReconnectMax = 30 * time.Second
)

// FrameWriter receives encoded JPEG frames. A write error means the
// client is gone and the session must end.
type FrameWriter interface {
	WriteFrame(jpeg []byte) error
}

// Config carries the pipeline's collaborators and tuning knobs. Zero
// values fall back to the service defaults.
type Config struct {
	Store    *store.Store
	Pool     *capture.Pool
	Pacer    *capture.Pacer
	Detector detector.Detector

	Confidence float64
	Width      int
	Height     int
	Quality    int

	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Pipeline coordinates capture, detection, and encoding for all camera
// sessions. It is safe for concurrent use; each viewer gets its own Run
// loop while the pool and pacer keep per-camera state shared.
type Pipeline struct {
	cameras *store.CameraRepository
	pool    *capture.Pool
	pacer   *capture.Pacer

	mu  sync.RWMutex
	det detector.Detector

	confidence float64
	width      int
	height     int
	quality    int

	reconnectMin time.Duration
	reconnectMax time.Duration
}

// New creates a Pipeline from the given configuration.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		cameras:      cfg.Store.Cameras(),
		pool:         cfg.Pool,
		pacer:        cfg.Pacer,
		det:          cfg.Detector,
		confidence:   cfg.Confidence,
		width:        cfg.Width,
		height:       cfg.Height,
		quality:      cfg.Quality,
		reconnectMin: cfg.ReconnectMin,
		reconnectMax: cfg.ReconnectMax,
	}

	if p.confidence <= 0 {
		p.confidence = detector.DefaultConfidence
	}
	if p.width <= 0 {
		p.width = 640
	}
	if p.height <= 0 {
		p.height = 480
	}
	if p.quality <= 0 {
		p.quality = 80
	}
	if p.reconnectMin <= 0 {
		p.reconnectMin = defaultReconnectMin
	}
	if p.reconnectMax < p.reconnectMin {
		p.reconnectMax = defaultReconnectMax
	}

	return p
}

// SetDetector swaps the detector used for subsequent frames. A nil
// detector puts the pipeline in degraded mode: frames stream without
// overlays.
func (p *Pipeline) SetDetector(det detector.Detector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.det = det
}

// Run streams annotated frames for one camera to one client until the
// context is cancelled, the camera is deleted, or the client goes away.
// All three are normal terminations and return nil. Source failures
// never end the session; the loop reconnects with capped backoff.
func (p *Pipeline) Run(ctx context.Context, cameraID string, w FrameWriter) error {
	log := lgr.Logger.With(slog.String("camera_id", cameraID))
	backoff := p.reconnectMin
	opened := false

	log.Info("stream session started")
	defer log.Info("stream session ended")

	for {
		if ctx.Err() != nil {
			return nil
		}

		cam, err := p.cameras.GetByID(cameraID)
		if errors.Is(err, store.ErrNotFound) {
			log.Info("camera removed from registry, ending stream")
			return nil
		}
		if err != nil {
			return fmt.Errorf("load camera %s: %w", cameraID, err)
		}

		if !cam.Active {
			if !sleep(ctx, inactivePoll) {
				return nil
			}
			continue
		}

		if !p.pacer.ShouldEmit(cameraID, cam.FPS, time.Now()) {
			if !sleep(ctx, pacerPoll) {
				return nil
			}
			continue
		}

		handle, err := p.pool.Acquire(cameraID, cam.Source)
		if err != nil {
			// A source that never opened ends the session with zero
			// frames; a source that was live gets reconnect attempts.
			if !opened {
				log.Warn("source unavailable, ending stream",
					slog.Any("error", xerrors.New(err.Error())),
				)
				return nil
			}
			log.Warn("source unavailable, retrying",
				slog.Duration("backoff", backoff),
				slog.Any("error", xerrors.New(err.Error())),
			)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, p.reconnectMax)
			continue
		}
		opened = true

		frame, err := handle.ReadFrame()
		if err != nil {
			p.pool.MarkDead(cameraID)

			// One immediate reopen attempt; the cycle is skipped either
			// way and backoff only starts once that attempt fails.
			if _, rerr := p.pool.Acquire(cameraID, cam.Source); rerr == nil {
				log.Warn("frame read failed, source reopened",
					slog.Any("error", xerrors.New(err.Error())),
				)
				backoff = p.reconnectMin
				continue
			}

			log.Warn("frame read failed, reconnecting",
				slog.Duration("backoff", backoff),
				slog.Any("error", xerrors.New(err.Error())),
			)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, p.reconnectMax)
			continue
		}
		backoff = p.reconnectMin

		jpeg, err := p.process(frame, cam)
		if err != nil {
			log.Warn("frame encode failed, skipping frame",
				slog.Any("error", xerrors.New(err.Error())),
			)
			continue
		}

		if err := w.WriteFrame(jpeg); err != nil {
			log.Info("client disconnected")
			return nil
		}

		p.pacer.RecordEmit(cameraID, time.Now())
	}
}

// process turns one raw frame into an annotated JPEG. It always closes
// the input frame.
func (p *Pipeline) process(frame *gocv.Mat, cam *store.Camera) ([]byte, error) {
	defer frame.Close()

	sized := gocv.NewMat()
	defer sized.Close()
	gocv.Resize(*frame, &sized, image.Pt(p.width, p.height), 0, 0, gocv.InterpolationLinear)

	detections, ok := p.detect(&sized)
	if ok {
		annotate.Draw(&sized, detections, detector.Summarize(detections))
	}

	fps := cam.FPS
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	annotate.Caption(&sized, fmt.Sprintf("Camera: %s | FPS: %d", cam.Name, fps))

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, sized, []int{gocv.IMWriteJpegQuality, p.quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// detect runs the current detector over the frame. A nil detector or a
// detection error degrades to an unannotated frame; it never ends the
// session.
func (p *Pipeline) detect(frame *gocv.Mat) ([]detector.Detection, bool) {
	p.mu.RLock()
	det := p.det
	p.mu.RUnlock()

	if det == nil {
		return nil, false
	}

	detections, err := det.Detect(frame, p.confidence)
	if err != nil {
		lgr.Logger.Warn("detection failed, emitting raw frame",
			slog.Any("error", xerrors.New(err.Error())),
		)
		return nil, false
	}

	return detections, true
}

// ErrCameraInactive is returned for single-shot operations on a camera
// whose active flag is off. Streaming sessions idle instead.
var ErrCameraInactive = errors.New("camera is inactive")

// Event is one detection snapshot pushed over the events feed.
type Event struct {
	CameraID   string               `json:"camera_id"`
	Timestamp  time.Time            `json:"timestamp"`
	Detections []detector.Detection `json:"detections"`
	Summary    detector.Summary     `json:"summary"`
}

// DetectOnce captures and analyzes a single frame without encoding it.
// It powers the detection events feed.
func (p *Pipeline) DetectOnce(cameraID string) (*Event, error) {
	cam, err := p.cameras.GetByID(cameraID)
	if err != nil {
		return nil, err
	}
	if !cam.Active {
		return nil, ErrCameraInactive
	}

	handle, err := p.pool.Acquire(cameraID, cam.Source)
	if err != nil {
		return nil, err
	}

	frame, err := handle.ReadFrame()
	if err != nil {
		p.pool.MarkDead(cameraID)
		return nil, err
	}
	defer frame.Close()

	sized := gocv.NewMat()
	defer sized.Close()
	gocv.Resize(*frame, &sized, image.Pt(p.width, p.height), 0, 0, gocv.InterpolationLinear)

	detections, _ := p.detect(&sized)

	return &Event{
		CameraID:   cameraID,
		Timestamp:  time.Now().UTC(),
		Detections: detections,
		Summary:    detector.Summarize(detections),
	}, nil
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// sleep waits for the duration or until the context is cancelled. It
// returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
