package geom

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	f, err := NACA("2412", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Fingerprint(FingerprintSampled) != f.Fingerprint(FingerprintSampled) {
		t.Error("sampled fingerprint not deterministic")
	}
	if f.Fingerprint(FingerprintFull) != f.Fingerprint(FingerprintFull) {
		t.Error("full fingerprint not deterministic")
	}
}

func TestFingerprintCopyEqual(t *testing.T) {
	f, err := NACA("2412", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := f.Copy()
	if f.Fingerprint(FingerprintSampled) != c.Fingerprint(FingerprintSampled) {
		t.Error("copy has different sampled fingerprint")
	}
	if f.Fingerprint(FingerprintFull) != c.Fingerprint(FingerprintFull) {
		t.Error("copy has different full fingerprint")
	}
}

func TestFingerprintSampledDetectsMidpointEdit(t *testing.T) {
	f, err := NACA("0012", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := f.Fingerprint(FingerprintSampled)
	f.Y[f.N()/2] += 0.001
	if f.Fingerprint(FingerprintSampled) == before {
		t.Error("sampled fingerprint missed a midpoint change")
	}
}

func TestFingerprintSampledDetectsPointCountChange(t *testing.T) {
	a, err := NACA("0012", 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NACA("0012", 41)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Fingerprint(FingerprintSampled) == b.Fingerprint(FingerprintSampled) {
		t.Error("sampled fingerprint missed a resolution change")
	}
}

func TestFingerprintFullDetectsInteriorEdit(t *testing.T) {
	f, err := NACA("0012", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sampledBefore := f.Fingerprint(FingerprintSampled)
	fullBefore := f.Fingerprint(FingerprintFull)

	// Index 5 is neither an endpoint nor the midpoint, so only the full
	// mode sees it.
	f.Y[5] += 0.001

	if f.Fingerprint(FingerprintSampled) != sampledBefore {
		t.Error("sampled fingerprint unexpectedly changed for an unsampled point")
	}
	if f.Fingerprint(FingerprintFull) == fullBefore {
		t.Error("full fingerprint missed an interior change")
	}
}

func TestFingerprintEmptyFoil(t *testing.T) {
	var f Foil
	if got := f.Fingerprint(FingerprintSampled); got != 0 {
		t.Errorf("expected 0 for empty foil, got %d", got)
	}
	if got := f.Fingerprint(FingerprintFull); got != 0 {
		t.Errorf("expected 0 for empty foil, got %d", got)
	}
}

func TestParseFingerprintMode(t *testing.T) {
	cases := []struct {
		in   string
		want FingerprintMode
	}{
		{"sampled", FingerprintSampled},
		{"full", FingerprintFull},
		{"FULL", FingerprintFull},
		{"", FingerprintSampled},
		{"  Sampled  ", FingerprintSampled},
	}
	for _, tc := range cases {
		got, err := ParseFingerprintMode(tc.in)
		if err != nil {
			t.Errorf("ParseFingerprintMode(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFingerprintMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseFingerprintMode("sha256"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFingerprintModeString(t *testing.T) {
	if FingerprintSampled.String() != "sampled" {
		t.Errorf("got %q", FingerprintSampled.String())
	}
	if FingerprintFull.String() != "full" {
		t.Errorf("got %q", FingerprintFull.String())
	}
}
