package detector

import "testing"

func TestClassByID_KnownClasses(t *testing.T) {
	tests := []struct {
		id            int
		wantLabel     string
		wantEPI       bool
		wantViolation bool
	}{
		{id: 0, wantLabel: "helmet", wantEPI: true},
		{id: 4, wantLabel: "goggles", wantEPI: true},
		{id: 5, wantLabel: "no_epi", wantViolation: true},
		{id: 6, wantLabel: "person"},
		{id: 7, wantLabel: "no_helmet", wantViolation: true},
		{id: 10, wantLabel: "no_boots", wantViolation: true},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			info := ClassByID(tt.id)

			if info.Label != tt.wantLabel {
				t.Errorf("ClassByID(%d).Label = %q, want %q", tt.id, info.Label, tt.wantLabel)
			}
			if info.IsEPI != tt.wantEPI {
				t.Errorf("ClassByID(%d).IsEPI = %v, want %v", tt.id, info.IsEPI, tt.wantEPI)
			}
			if info.IsViolation != tt.wantViolation {
				t.Errorf("ClassByID(%d).IsViolation = %v, want %v", tt.id, info.IsViolation, tt.wantViolation)
			}
		})
	}
}

func TestClassByID_UnknownFallback(t *testing.T) {
	info := ClassByID(42)

	if info.Label != "class_42" {
		t.Errorf("Label = %q, want %q", info.Label, "class_42")
	}
	if info.IsEPI || info.IsViolation {
		t.Error("unknown classes must be neither EPI nor violation")
	}
}

func TestDetection_Rect(t *testing.T) {
	d := Detection{BBox: [4]int{10, 20, 110, 220}}

	r := d.Rect()
	if r.Min.X != 10 || r.Min.Y != 20 || r.Max.X != 110 || r.Max.Y != 220 {
		t.Errorf("Rect() = %v, want (10,20)-(110,220)", r)
	}
}
