package server

import (
	"fmt"
	"net/http"
)

// mjpegBoundary separates frames in the multipart stream. Browsers
// render the stream natively inside an <img> tag.
const mjpegBoundary = "frame"

// mjpegWriter adapts an http.ResponseWriter into a frame sink for the
// pipeline. Each WriteFrame emits one multipart part and flushes it so
// the client sees the frame immediately.
type mjpegWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newMJPEGWriter sets the multipart response headers and returns a
// writer for the connection.
func newMJPEGWriter(w http.ResponseWriter) *mjpegWriter {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	return &mjpegWriter{w: w, flusher: flusher}
}

// WriteFrame writes one JPEG frame as a multipart part. The first error
// from the connection is returned so the stream session can end.
func (m *mjpegWriter) WriteFrame(jpeg []byte) error {
	if _, err := fmt.Fprintf(m.w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := m.w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(m.w, "\r\n"); err != nil {
		return err
	}

	if m.flusher != nil {
		m.flusher.Flush()
	}
	return nil
}
