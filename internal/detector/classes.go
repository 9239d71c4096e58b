package detector

import (
	"fmt"
	"image/color"
)

// ClassInfo describes one model class: display label, overlay color, and
// whether the class counts as worn equipment or as a violation.
type ClassInfo struct {
	Label       string
	Color       color.RGBA
	IsEPI       bool
	IsViolation bool
}

// Model class table. The EPI model emits eleven classes: five equipment
// classes, five violation classes, and the person class.
var classes = map[int]ClassInfo{
	0:  {Label: "helmet", Color: color.RGBA{0, 255, 0, 0}, IsEPI: true},
	1:  {Label: "gloves", Color: color.RGBA{255, 255, 0, 0}, IsEPI: true},
	2:  {Label: "vest", Color: color.RGBA{0, 165, 255, 0}, IsEPI: true},
	3:  {Label: "boots", Color: color.RGBA{255, 0, 255, 0}, IsEPI: true},
	4:  {Label: "goggles", Color: color.RGBA{0, 255, 128, 0}, IsEPI: true},
	5:  {Label: "no_epi", Color: color.RGBA{255, 0, 0, 0}, IsViolation: true},
	6:  {Label: "person", Color: color.RGBA{0, 128, 255, 0}},
	7:  {Label: "no_helmet", Color: color.RGBA{255, 0, 0, 0}, IsViolation: true},
	8:  {Label: "no_goggles", Color: color.RGBA{200, 0, 0, 0}, IsViolation: true},
	9:  {Label: "no_gloves", Color: color.RGBA{180, 0, 0, 0}, IsViolation: true},
	10: {Label: "no_boots", Color: color.RGBA{160, 0, 0, 0}, IsViolation: true},
}

// PersonLabel is the label of the person class.
const PersonLabel = "person"

// ClassByID returns the class info for a model class id. Unknown ids map
// to a neutral gray class so a model with extra classes does not break
// annotation.
func ClassByID(id int) ClassInfo {
	if info, ok := classes[id]; ok {
		return info
	}
	return ClassInfo{
		Label: fmt.Sprintf("class_%d", id),
		Color: color.RGBA{128, 128, 128, 0},
	}
}
