package model

import "testing"

func TestDefaultCurveIsFreshCopy(t *testing.T) {
	c := DefaultCurve()
	c[1] = 99
	if DefaultCurve()[1] != 1 {
		t.Fatalf("DefaultCurve shares state between calls")
	}
}

func TestCurveLevelsSorted(t *testing.T) {
	levels := Curve{7: 1, 2: 3, 5: 0}.Levels()
	want := []int{2, 5, 7}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, levels)
		}
	}
}

func TestCurveValidate(t *testing.T) {
	if err := DefaultCurve().Validate(); err != nil {
		t.Fatalf("default curve invalid: %v", err)
	}
	cases := []Curve{{}, {0: 1}, {1: -1}}
	for _, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}
}

func TestRanges(t *testing.T) {
	r := DefaultRanges()
	if r.Levels() != 10 || r.Attempts() != 11 {
		t.Fatalf("unexpected dimensions: %d x %d", r.Levels(), r.Attempts())
	}
	if !r.Contains(10, 0) || r.Contains(0, 0) || r.Contains(1, 11) {
		t.Fatalf("unexpected Contains results for %s", r)
	}
	if err := (Ranges{MinLevel: 3, MaxLevel: 2}).Validate(); err == nil {
		t.Fatalf("expected inverted level range to fail")
	}
}

func TestActionString(t *testing.T) {
	if AboveCurve.String() != "ABOVE_CURVE" || Action(9).String() != "Action(9)" {
		t.Fatalf("unexpected action names")
	}
}

func TestRangesValidateCapsCells(t *testing.T) {
	ok := Ranges{MinLevel: 1, MaxLevel: 512, MinAttempts: 0, MaxAttempts: 511}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected %s to fit, got %v", ok, err)
	}
	cases := []Ranges{
		{MinLevel: 1, MaxLevel: 513, MinAttempts: 0, MaxAttempts: 511},
		{MinLevel: 1, MaxLevel: 1, MinAttempts: 0, MaxAttempts: int(^uint(0) >> 1)},
		{MinLevel: 1, MaxLevel: int(^uint(0) >> 1), MinAttempts: 0, MaxAttempts: 0},
	}
	for _, r := range cases {
		if err := r.Validate(); err == nil {
			t.Fatalf("expected %s to exceed the cell cap", r)
		}
	}
}
