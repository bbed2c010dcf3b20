package polar

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	p := New("test", Type1)
	if p.NCrit != 9.0 {
		t.Errorf("expected NCrit 9.0, got %g", p.NCrit)
	}
	if p.XTripTop != 1.0 || p.XTripBot != 1.0 {
		t.Errorf("expected free transition 1.0/1.0, got %g/%g", p.XTripTop, p.XTripBot)
	}
	if p.Len() != 0 {
		t.Errorf("expected empty polar, got %d samples", p.Len())
	}
}

func TestResizeAllocatesAllColumns(t *testing.T) {
	p := New("test", Type1)
	p.Resize(5)
	if p.Len() != 5 {
		t.Fatalf("expected 5 samples, got %d", p.Len())
	}
	for name, n := range map[string]int{
		"Alpha":     len(p.Alpha),
		"Cl":        len(p.Cl),
		"Cd":        len(p.Cd),
		"Re":        len(p.Re),
		"XTrTop":    len(p.XTrTop),
		"XTrBot":    len(p.XTrBot),
		"Converged": len(p.Converged),
	} {
		if n != 5 {
			t.Errorf("column %s has length %d, want 5", name, n)
		}
	}
}

func testPolar() *Polar {
	p := New("test", Type1)
	p.Cl = []float64{0.0, 0.5, 1.0}
	p.Cd = []float64{0.010, 0.020, 0.030}
	p.XTrTop = []float64{0.90, 0.60, 0.30}
	p.XTrBot = []float64{0.40, 0.55, 0.70}
	p.Alpha = []float64{-2, 2, 6}
	return p
}

func TestCdFromClInterpolates(t *testing.T) {
	p := testPolar()
	cd, err := p.CdFromCl(0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cd-0.015) > 1e-12 {
		t.Errorf("expected cd 0.015, got %g", cd)
	}
}

func TestCdFromClExactSample(t *testing.T) {
	p := testPolar()
	cd, err := p.CdFromCl(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cd-0.020) > 1e-12 {
		t.Errorf("expected cd 0.020, got %g", cd)
	}
}

func TestTransitionFromCl(t *testing.T) {
	p := testPolar()
	top, err := p.XTrTopFromCl(0.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(top-0.45) > 1e-12 {
		t.Errorf("expected XTrTop 0.45, got %g", top)
	}
	bot, err := p.XTrBotFromCl(0.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(bot-0.625) > 1e-12 {
		t.Errorf("expected XTrBot 0.625, got %g", bot)
	}
}

func TestInterpOutOfRange(t *testing.T) {
	p := testPolar()
	if _, err := p.CdFromCl(1.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := p.CdFromCl(-0.1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestInterpEmptyPolar(t *testing.T) {
	p := New("empty", Type1)
	if _, err := p.CdFromCl(0.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for empty table, got %v", err)
	}
}

func TestInterpDescendingColumn(t *testing.T) {
	// The lift column is only locally monotonic; a descending run must
	// still bracket.
	p := New("desc", Type1)
	p.Cl = []float64{1.0, 0.5, 0.0}
	p.Cd = []float64{0.030, 0.020, 0.010}
	cd, err := p.CdFromCl(0.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cd-0.025) > 1e-12 {
		t.Errorf("expected cd 0.025, got %g", cd)
	}
}

func TestInterpFlatSegment(t *testing.T) {
	p := New("flat", Type1)
	p.Cl = []float64{0.5, 0.5, 1.0}
	p.Cd = []float64{0.020, 0.021, 0.030}
	cd, err := p.CdFromCl(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cd != 0.020 {
		t.Errorf("expected first sample of flat segment, got %g", cd)
	}
}

func TestExportString(t *testing.T) {
	p := testPolar()
	p.Reynolds = 120000
	out := p.ExportString()
	if !strings.Contains(out, "Polar name: test") {
		t.Error("export missing polar name")
	}
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "XTr_top") {
		t.Error("export missing column header")
	}
	lines := strings.Count(out, "\n")
	// 5 header lines plus one line per sample.
	if lines != 6+p.Len() {
		t.Errorf("expected %d lines, got %d", 6+p.Len(), lines)
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	all := []Type{Type1, Type2, Type3, Type4, Type5, Type6, Type7, Type8, TypeBoat, TypeExternal}
	for _, typ := range all {
		got, err := ParseType(typ.String())
		if err != nil {
			t.Errorf("ParseType(%q): unexpected error: %v", typ.String(), err)
			continue
		}
		if got != typ {
			t.Errorf("round trip failed: %v -> %q -> %v", typ, typ.String(), got)
		}
	}
}

func TestParseTypeAliases(t *testing.T) {
	if typ, err := ParseType("fixed_speed"); err != nil || typ != Type1 {
		t.Errorf("expected fixed_speed -> T1, got %v, %v", typ, err)
	}
	if typ, err := ParseType("FIXED_LIFT"); err != nil || typ != Type2 {
		t.Errorf("expected FIXED_LIFT -> T2, got %v, %v", typ, err)
	}
	if _, err := ParseType("T9"); err == nil {
		t.Error("expected error for unknown type")
	}
}
