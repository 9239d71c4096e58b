package detector

import "sort"

// Summary is the per-frame aggregation of a detection list. Labels with a
// zero count never appear in the maps; Compliant is true iff the frame has
// no violations.
type Summary struct {
	Violations map[string]int `json:"violations"`
	EPIs       map[string]int `json:"epis"`
	Persons    int            `json:"persons"`
	Compliant  bool           `json:"compliant"`
}

// Alert pairs one violation label with its count for a single frame.
type Alert struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summarize derives the alert/compliance summary from a detection list.
// It is a pure function; detections are never stored.
func Summarize(detections []Detection) Summary {
	s := Summary{
		Violations: make(map[string]int),
		EPIs:       make(map[string]int),
	}

	for _, d := range detections {
		switch {
		case d.IsViolation:
			s.Violations[d.Label]++
		case d.IsEPI:
			s.EPIs[d.Label]++
		case d.Label == PersonLabel:
			s.Persons++
		}
	}

	s.Compliant = len(s.Violations) == 0
	return s
}

// ViolationCount returns the total number of violation detections.
func (s Summary) ViolationCount() int {
	total := 0
	for _, n := range s.Violations {
		total += n
	}
	return total
}

// EPICount returns the total number of worn-equipment detections.
func (s Summary) EPICount() int {
	total := 0
	for _, n := range s.EPIs {
		total += n
	}
	return total
}

// Alerts renders the violation set as a label-sorted alert list.
func (s Summary) Alerts() []Alert {
	if len(s.Violations) == 0 {
		return nil
	}

	alerts := make([]Alert, 0, len(s.Violations))
	for label, count := range s.Violations {
		alerts = append(alerts, Alert{Label: label, Count: count})
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Label < alerts[j].Label
	})

	return alerts
}
