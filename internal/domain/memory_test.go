package domain

import "testing"

func TestClampImportance(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below range", 0, 1},
		{"negative", -3, 1},
		{"lower bound", 1, 1},
		{"middle", 3, 3},
		{"upper bound", 5, 5},
		{"above range", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampImportance(tt.in); got != tt.want {
				t.Errorf("ClampImportance(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidEnums(t *testing.T) {
	if !ValidEmotion("nostalgic") || ValidEmotion("angry") || ValidEmotion("") {
		t.Error("ValidEmotion accepted or rejected the wrong values")
	}
	if !ValidCategory("technical") || ValidCategory("work") {
		t.Error("ValidCategory accepted or rejected the wrong values")
	}
	if !ValidLinkType("leads_to") || ValidLinkType("causes") {
		t.Error("ValidLinkType accepted or rejected the wrong values")
	}
	if !ValidSensoryType("audio") || ValidSensoryType("smell") {
		t.Error("ValidSensoryType accepted or rejected the wrong values")
	}
	if !ValidChainDirection("forward") || ValidChainDirection("sideways") {
		t.Error("ValidChainDirection accepted or rejected the wrong values")
	}
}

func TestChainDirectionLinkType(t *testing.T) {
	if ChainBackward.LinkType() != LinkCausedBy {
		t.Errorf("backward should follow caused_by, got %s", ChainBackward.LinkType())
	}
	if ChainForward.LinkType() != LinkLeadsTo {
		t.Errorf("forward should follow leads_to, got %s", ChainForward.LinkType())
	}
}

func TestCameraPositionValid(t *testing.T) {
	if !(CameraPosition{PanAngle: 90, TiltAngle: -90}).Valid() {
		t.Error("boundary angles should be valid")
	}
	if (CameraPosition{PanAngle: 91}).Valid() {
		t.Error("pan 91 should be invalid")
	}
	if (CameraPosition{TiltAngle: -100}).Valid() {
		t.Error("tilt -100 should be invalid")
	}
}

func TestFilterMatch(t *testing.T) {
	meta := map[string]string{
		"emotion":    "happy",
		"importance": "4",
		"timestamp":  "2025-03-01T10:00:00.000000Z",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", nil, true},
		{"equality hit", Filter{Eq("emotion", "happy")}, true},
		{"equality miss", Filter{Eq("emotion", "sad")}, false},
		{"numeric gte hit", Filter{GteInt("importance", 4)}, true},
		{"numeric gte miss", Filter{GteInt("importance", 5)}, false},
		{"numeric compares as integers", Filter{GteInt("importance", 10)}, false},
		{"lexical range inside", Filter{Gte("timestamp", "2025-01-01"), Lte("timestamp", "2025-12-31")}, true},
		{"lexical range outside", Filter{Gte("timestamp", "2025-04-01")}, false},
		{"missing field", Filter{Eq("category", "daily")}, false},
		{"and of hit and miss", Filter{Eq("emotion", "happy"), GteInt("importance", 5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(meta); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterEqualities(t *testing.T) {
	f := Filter{Eq("emotion", "happy"), GteInt("importance", 3), Eq("category", "daily")}
	eq := f.Equalities()
	if len(eq) != 2 || eq["emotion"] != "happy" || eq["category"] != "daily" {
		t.Errorf("unexpected equalities: %v", eq)
	}
	if (Filter{GteInt("importance", 3)}).Equalities() != nil {
		t.Error("range-only filter should have no equalities")
	}
}
