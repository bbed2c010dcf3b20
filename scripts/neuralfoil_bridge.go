//go:build ignore

// Reference NeuralFoil bridge script.
//
// This file is not compiled into the application: it is evaluated by
// the embedded interpreter at runtime. Install it (or a real bridge) at
// <bridge root>/bridge/neuralfoil_bridge.go; interpreted third-party
// packages go under <bridge root>/gopath.
//
// The implementation below is a thin-airfoil surrogate intended for
// development and testing without the neural model. A production
// install replaces the bodies with calls into the actual NeuralFoil
// inference code while keeping the two exported signatures.

package main

import "math"

// surrogate coefficients, per degree
const (
	clSlope  = 0.1097 // 2*pi per radian
	alphaCap = 20.0
)

// zeroLiftAlpha estimates the zero-lift angle from the mean-line
// camber, in degrees.
func zeroLiftAlpha(x, y []float64) float64 {
	camber := 0.0
	for i := range x {
		if x[i] > 0.05 && x[i] < 0.95 {
			camber += y[i]
		}
	}
	if n := len(x); n > 0 {
		camber /= float64(n)
	}
	return -camber * 115.0
}

// profileDrag blends laminar and turbulent flat-plate friction at the
// transition point and adds a lift-dependent pressure term.
func profileDrag(re, cl, xtr float64) float64 {
	if re < 1e3 {
		re = 1e3
	}
	cfLam := 1.328 / math.Sqrt(re)
	cfTurb := 0.074 / math.Pow(re, 0.2)
	cf := xtr*cfLam + (1-xtr)*cfTurb
	return 2*cf*(1+0.3) + 0.006*cl*cl
}

// transition estimates the free transition location on one surface.
// Higher lift and lower nCrit move it forward; a forced trip caps it.
func transition(cl, nCrit, forced, sign float64) float64 {
	xtr := 0.7 - 0.25*sign*cl - 0.04*(9.0-nCrit)
	if xtr < 0.01 {
		xtr = 0.01
	}
	if xtr > 1.0 {
		xtr = 1.0
	}
	if forced > 0 && forced < xtr {
		xtr = forced
	}
	return xtr
}

func failure(msg string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": msg}
}

// AnalyzeFoilAtCls evaluates the foil at each target lift coefficient
// and paired Reynolds number.
func AnalyzeFoilAtCls(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	if len(x) != len(y) {
		return failure("x and y must have equal length")
	}
	if len(cl) != len(re) {
		return failure("cl and re must have equal length")
	}

	alpha0 := zeroLiftAlpha(x, y)
	n := len(cl)
	alpha := make([]float64, n)
	clOut := make([]float64, n)
	cd := make([]float64, n)
	top := make([]float64, n)
	bot := make([]float64, n)

	for i := 0; i < n; i++ {
		a := alpha0 + cl[i]/clSlope
		if a > alphaCap {
			a = alphaCap
		}
		if a < -alphaCap {
			a = -alphaCap
		}
		alpha[i] = a
		clOut[i] = clSlope * (a - alpha0)
		top[i] = transition(clOut[i], nCrit, xtrTop, 1)
		bot[i] = transition(clOut[i], nCrit, xtrBot, -1)
		cd[i] = profileDrag(re[i], clOut[i], 0.5*(top[i]+bot[i]))
	}

	return map[string]interface{}{
		"success": true,
		"alpha":   alpha,
		"cl":      clOut,
		"cd":      cd,
		"xtr_top": top,
		"xtr_bot": bot,
	}
}

// ComputePolarMesh sweeps angle of attack at each Reynolds number and
// returns one result block per Reynolds entry.
func ComputePolarMesh(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	if len(x) != len(y) {
		return failure("x and y must have equal length")
	}
	if len(re) == 0 {
		return failure("at least one reynolds number is required")
	}
	if alphaStep <= 0 {
		return failure("alpha step must be positive")
	}

	alpha0 := zeroLiftAlpha(x, y)
	polars := make(map[float64]map[string][]float64, len(re))
	for _, r := range re {
		var alpha, cl, cd, top, bot []float64
		for a := alphaMin; a <= alphaMax+1e-9; a += alphaStep {
			c := clSlope * (a - alpha0)
			t := transition(c, nCrit, xtrTop, 1)
			b := transition(c, nCrit, xtrBot, -1)
			alpha = append(alpha, a)
			cl = append(cl, c)
			cd = append(cd, profileDrag(r, c, 0.5*(t+b)))
			top = append(top, t)
			bot = append(bot, b)
		}
		polars[r] = map[string][]float64{
			"alpha":   alpha,
			"cl":      cl,
			"cd":      cd,
			"xtr_top": top,
			"xtr_bot": bot,
		}
	}

	return map[string]interface{}{
		"success": true,
		"polars":  polars,
	}
}
