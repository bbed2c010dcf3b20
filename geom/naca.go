package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// naca5MeanLine holds the tabulated camber parameters for the standard
// (non-reflexed) NACA five-digit mean lines.
var naca5MeanLines = map[string]struct{ p, m, k1 float64 }{
	"210": {0.05, 0.0580, 361.40},
	"220": {0.10, 0.1260, 51.640},
	"230": {0.15, 0.2025, 15.957},
	"240": {0.20, 0.2900, 6.643},
	"250": {0.25, 0.3910, 3.230},
}

// NACA builds a four or five digit NACA series foil with 2*half+1
// cosine-spaced surface points, where half = (nPoints-1)/2. nPoints <= 0
// selects the default of 101 points. Five-digit support covers the
// standard mean lines 210..250; reflexed lines are rejected.
func NACA(digits string, nPoints int) (*Foil, error) {
	digits = strings.TrimSpace(digits)
	switch len(digits) {
	case 4:
		return naca4(digits, nPoints)
	case 5:
		return naca5(digits, nPoints)
	default:
		return nil, fmt.Errorf("naca designation %q: want 4 or 5 digits", digits)
	}
}

// NACA4 builds a four-digit series foil. See NACA for the point count
// convention.
func NACA4(digits string, nPoints int) (*Foil, error) {
	if len(digits) != 4 {
		return nil, fmt.Errorf("naca designation %q: want 4 digits", digits)
	}
	return naca4(digits, nPoints)
}

func naca4(digits string, nPoints int) (*Foil, error) {
	v, err := strconv.Atoi(digits)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("naca designation %q: not a number", digits)
	}
	m := float64(v/1000) / 100.0        // max camber
	p := float64((v/100)%10) / 10.0     // camber position
	t := float64(v%100) / 100.0         // thickness
	if t <= 0 {
		return nil, fmt.Errorf("naca %s: zero thickness", digits)
	}
	camber := func(x float64) (yc, slope float64) {
		if m == 0 || p == 0 {
			return 0, 0
		}
		if x < p {
			yc = m / (p * p) * (2*p*x - x*x)
			slope = 2 * m / (p * p) * (p - x)
		} else {
			yc = m / ((1 - p) * (1 - p)) * ((1 - 2*p) + 2*p*x - x*x)
			slope = 2 * m / ((1 - p) * (1 - p)) * (p - x)
		}
		return yc, slope
	}
	return buildNACA("NACA "+digits, t, camber, nPoints)
}

func naca5(digits string, nPoints int) (*Foil, error) {
	if _, err := strconv.Atoi(digits); err != nil {
		return nil, fmt.Errorf("naca designation %q: not a number", digits)
	}
	if digits[2] == '1' {
		return nil, fmt.Errorf("naca %s: reflexed mean lines not supported", digits)
	}
	ml, ok := naca5MeanLines[digits[:3]]
	if !ok {
		return nil, fmt.Errorf("naca %s: unknown mean line %q", digits, digits[:3])
	}
	t := float64((int(digits[3]-'0'))*10+int(digits[4]-'0')) / 100.0
	if t <= 0 {
		return nil, fmt.Errorf("naca %s: zero thickness", digits)
	}
	camber := func(x float64) (yc, slope float64) {
		if x < ml.m {
			yc = ml.k1 / 6 * (x*x*x - 3*ml.m*x*x + ml.m*ml.m*(3-ml.m)*x)
			slope = ml.k1 / 6 * (3*x*x - 6*ml.m*x + ml.m*ml.m*(3-ml.m))
		} else {
			yc = ml.k1 * ml.m * ml.m * ml.m / 6 * (1 - x)
			slope = -ml.k1 * ml.m * ml.m * ml.m / 6
		}
		return yc, slope
	}
	return buildNACA("NACA "+digits, t, camber, nPoints)
}

// buildNACA assembles the surface from a thickness distribution and a
// camber line. The closed trailing edge variant of the thickness
// polynomial is used so upper and lower surfaces meet at x=1.
func buildNACA(name string, t float64, camber func(float64) (float64, float64), nPoints int) (*Foil, error) {
	if nPoints <= 0 {
		nPoints = 101
	}
	half := (nPoints - 1) / 2
	if half < 5 {
		half = 5
	}

	thickness := func(x float64) float64 {
		return 5 * t * (0.2969*math.Sqrt(x) - 0.1260*x - 0.3516*x*x +
			0.2843*x*x*x - 0.1036*x*x*x*x)
	}

	n := 2*half + 1
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)

	// Upper surface, TE -> LE.
	for k := 0; k <= half; k++ {
		x := 0.5 * (1 + math.Cos(float64(k)*math.Pi/float64(half)))
		yc, slope := camber(x)
		yt := thickness(x)
		theta := math.Atan(slope)
		xs = append(xs, x-yt*math.Sin(theta))
		ys = append(ys, yc+yt*math.Cos(theta))
	}
	// Lower surface, LE -> TE, skipping the shared leading edge point.
	for k := half - 1; k >= 0; k-- {
		x := 0.5 * (1 + math.Cos(float64(k)*math.Pi/float64(half)))
		yc, slope := camber(x)
		yt := thickness(x)
		theta := math.Atan(slope)
		xs = append(xs, x+yt*math.Sin(theta))
		ys = append(ys, yc-yt*math.Cos(theta))
	}

	return NewFoil(name, xs, ys)
}
