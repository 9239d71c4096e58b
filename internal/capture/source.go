package capture

import (
	"fmt"
	"strings"
)

// SourceKind classifies a camera source descriptor.
type SourceKind int

const (
	// SourceDevice is a local capture device addressed by index ("0", "1").
	SourceDevice SourceKind = iota
	// SourceRTSP is a network camera addressed by an rtsp:// URL.
	SourceRTSP
	// SourceHTTP is a network stream addressed by an http(s) URL.
	SourceHTTP
	// SourceFile is a video file on disk.
	SourceFile
)

// String returns a short name for the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceDevice:
		return "device"
	case SourceRTSP:
		return "rtsp"
	case SourceHTTP:
		return "http"
	default:
		return "file"
	}
}

// Source is a classified camera source descriptor.
type Source struct {
	Raw    string
	Kind   SourceKind
	Device int
}

// ParseSource classifies a raw source descriptor: an all-digit string is a
// local device index, rtsp:// and http(s) prefixes are network sources,
// anything else is a file path.
func ParseSource(raw string) Source {
	if isDigits(raw) {
		device := 0
		for _, r := range raw {
			device = device*10 + int(r-'0')
		}
		return Source{Raw: raw, Kind: SourceDevice, Device: device}
	}

	if strings.HasPrefix(raw, "rtsp://") {
		return Source{Raw: raw, Kind: SourceRTSP}
	}

	if strings.HasPrefix(raw, "http") {
		return Source{Raw: raw, Kind: SourceHTTP}
	}

	return Source{Raw: raw, Kind: SourceFile}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SourceError reports a failure to open a video source, with a hint
// specific to the source kind.
type SourceError struct {
	Source Source
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	var hint string
	switch e.Source.Kind {
	case SourceDevice:
		hint = fmt.Sprintf("check that webcam %d is connected", e.Source.Device)
	case SourceRTSP:
		hint = "check that the RTSP stream is reachable"
	case SourceHTTP:
		hint = "check that the URL is correct and reachable"
	default:
		hint = "check that the file exists at the given path"
	}

	return fmt.Sprintf("cannot open %s source %q: %s", e.Source.Kind, e.Source.Raw, hint)
}

// Unwrap returns the underlying open error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
