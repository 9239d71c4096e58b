package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

const (
	yoloInputSize    = 640
	yoloNMSThreshold = 0.45
)

// YOLODetector runs the EPI ONNX model through the OpenCV DNN module.
// A per-call mutex serializes inference; the network is not reentrant.
type YOLODetector struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewYOLODetector loads the ONNX model at modelPath.
func NewYOLODetector(modelPath string) (*YOLODetector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", modelPath, err)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target: %w", err)
	}

	return &YOLODetector{net: net}, nil
}

// Detect runs one inference pass over the frame and maps the raw output
// rows to labeled detections in frame pixel coordinates.
func (d *YOLODetector) Detect(frame *gocv.Mat, confidence float64) ([]Detection, error) {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	boxes, scores, classIDs, err := decodeYOLO(output, frame.Cols(), frame.Rows(), float32(confidence))
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	// Suppress overlapping boxes of the same object
	indices := gocv.NMSBoxes(boxes, scores, float32(confidence), yoloNMSThreshold)

	detections := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		info := ClassByID(classIDs[idx])
		detections = append(detections, Detection{
			Label:       info.Label,
			ClassID:     classIDs[idx],
			Confidence:  float64(scores[idx]),
			BBox:        [4]int{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y},
			IsEPI:       info.IsEPI,
			IsViolation: info.IsViolation,
		})
	}

	return detections, nil
}

// decodeYOLO walks the [1, 4+numClasses, anchors] output tensor and keeps
// anchors whose best class score clears the threshold. Box centers and
// sizes are scaled back to frame coordinates.
func decodeYOLO(output gocv.Mat, frameW, frameH int, confidence float32) ([]image.Rectangle, []float32, []int, error) {
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, nil, nil, fmt.Errorf("unexpected model output shape %v", dims)
	}

	rows := dims[1]
	anchors := dims[2]

	flat := output.Reshape(1, rows)
	defer flat.Close()

	data, err := flat.DataPtrFloat32()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error reading model output: %w", err)
	}

	scaleX := float32(frameW) / float32(yoloInputSize)
	scaleY := float32(frameH) / float32(yoloInputSize)

	var (
		boxes    []image.Rectangle
		scores   []float32
		classIDs []int
	)

	for a := 0; a < anchors; a++ {
		classID := -1
		best := float32(0)
		for c := 4; c < rows; c++ {
			if score := data[c*anchors+a]; score > best {
				best = score
				classID = c - 4
			}
		}

		if best < confidence {
			continue
		}

		cx := data[a] * scaleX
		cy := data[anchors+a] * scaleY
		w := data[2*anchors+a] * scaleX
		h := data[3*anchors+a] * scaleY

		x1 := int(cx - w/2)
		y1 := int(cy - h/2)
		boxes = append(boxes, image.Rect(x1, y1, x1+int(w), y1+int(h)))
		scores = append(scores, best)
		classIDs = append(classIDs, classID)
	}

	return boxes, scores, classIDs, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.net.Close()
}
