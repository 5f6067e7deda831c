package tier

import "testing"

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want Tier
	}{
		{0, Low},
		{29.999, Low},
		{30, Moderate},
		{69.999, Moderate},
		{70, High},
		{100, High},
	}

	for _, tc := range cases {
		got := Classify(tc.p)
		if got.Tier != tc.want {
			t.Errorf("Classify(%v): expected %s, got %s", tc.p, tc.want, got.Tier)
		}
	}
}

func TestClassify_Presentation(t *testing.T) {
	cases := []struct {
		p     float64
		color string
	}{
		{10, "#22c55e"},
		{50, "#facc15"},
		{90, "#ef4444"},
	}

	for _, tc := range cases {
		got := Classify(tc.p)
		if got.Color != tc.color {
			t.Errorf("Classify(%v): expected color %s, got %s", tc.p, tc.color, got.Color)
		}
		if got.Suggestion == "" {
			t.Errorf("Classify(%v): empty suggestion", tc.p)
		}
	}
}

func TestClassify_UnroundedValueDecides(t *testing.T) {
	// 29.996 rounds to 30.00 for display but is still below the boundary.
	got := Classify(29.996)
	if got.Tier != Low {
		t.Errorf("expected Low for 29.996, got %s", got.Tier)
	}
	if Round2(29.996) != 30.00 {
		t.Errorf("expected display rounding to 30.00, got %v", Round2(29.996))
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(33.33333); got != 33.33 {
		t.Errorf("expected 33.33, got %v", got)
	}
	if got := Round2(66.666); got != 66.67 {
		t.Errorf("expected 66.67, got %v", got)
	}
}
