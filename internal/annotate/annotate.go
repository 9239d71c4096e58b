// Package annotate draws detection overlays onto frames. Drawing is a
// pure function of (frame, detections, summary) and is independent of the
// detection step.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ssilva/epivision/internal/detector"
)

var (
	white = color.RGBA{255, 255, 255, 0}
	black = color.RGBA{0, 0, 0, 0}
	red   = color.RGBA{255, 0, 0, 0}
	green = color.RGBA{0, 255, 0, 0}
)

// Draw renders bounding boxes, the alerts panel, and the compliance
// summary panel onto the frame in place.
func Draw(frame *gocv.Mat, detections []detector.Detection, summary detector.Summary) {
	for _, d := range detections {
		drawBox(frame, d)
	}

	drawAlertsPanel(frame, summary.Alerts())
	drawSummaryPanel(frame, summary)
}

// Caption writes a single caption line near the bottom-left corner of the
// frame (camera name and target rate).
func Caption(frame *gocv.Mat, text string) {
	gocv.PutText(frame, text, image.Pt(10, frame.Rows()-10),
		gocv.FontHersheySimplex, 0.5, white, 1)
}

// drawBox draws one labeled bounding box. Violations are drawn thicker.
func drawBox(frame *gocv.Mat, d detector.Detection) {
	info := detector.ClassByID(d.ClassID)

	thickness := 2
	if d.IsViolation {
		thickness = 3
	}

	rect := d.Rect()
	gocv.Rectangle(frame, rect, info.Color, thickness)

	label := fmt.Sprintf("%s: %.0f%%", d.Label, d.Confidence*100)
	size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.6, 2)

	// Filled chip behind the label, clamped to stay inside the frame
	labelY := rect.Min.Y - 10
	if labelY < size.Y+10 {
		labelY = size.Y + 10
	}
	chip := image.Rect(rect.Min.X, labelY-size.Y-5, rect.Min.X+size.X+5, labelY+5)
	gocv.Rectangle(frame, chip, info.Color, -1)

	gocv.PutText(frame, label, image.Pt(rect.Min.X+2, labelY),
		gocv.FontHersheySimplex, 0.6, white, 2)
}

// drawAlertsPanel renders the safety alerts list in the top-left corner.
// Nothing is drawn for a frame without violations.
func drawAlertsPanel(frame *gocv.Mat, alerts []detector.Alert) {
	if len(alerts) == 0 {
		return
	}

	panelHeight := 30 + len(alerts)*25
	panel := image.Rect(5, 5, 300, panelHeight)
	gocv.Rectangle(frame, panel, black, -1)
	gocv.Rectangle(frame, panel, red, 2)

	gocv.PutText(frame, "SAFETY ALERTS", image.Pt(10, 25),
		gocv.FontHersheySimplex, 0.5, red, 1)

	y := 50
	for _, alert := range alerts {
		gocv.PutText(frame, fmt.Sprintf("%dx %s", alert.Count, alert.Label), image.Pt(15, y),
			gocv.FontHersheySimplex, 0.5, white, 1)
		y += 25
	}
}

// drawSummaryPanel renders the persons/EPIs/status panel along the bottom
// edge of the frame.
func drawSummaryPanel(frame *gocv.Mat, summary detector.Summary) {
	h := frame.Rows()
	panelY := h - 60

	panel := image.Rect(5, panelY, 350, h-5)
	gocv.Rectangle(frame, panel, black, -1)
	gocv.Rectangle(frame, panel, white, 1)

	gocv.PutText(frame, fmt.Sprintf("Persons: %d", summary.Persons), image.Pt(15, panelY+20),
		gocv.FontHersheySimplex, 0.5, white, 1)
	gocv.PutText(frame, fmt.Sprintf("EPIs: %d", summary.EPICount()), image.Pt(130, panelY+20),
		gocv.FontHersheySimplex, 0.5, green, 1)

	statusColor := green
	statusText := "OK"
	if n := summary.ViolationCount(); n > 0 {
		statusColor = red
		statusText = fmt.Sprintf("%d VIOLATIONS", n)
	}
	gocv.PutText(frame, fmt.Sprintf("Status: %s", statusText), image.Pt(15, panelY+45),
		gocv.FontHersheySimplex, 0.5, statusColor, 2)
}
