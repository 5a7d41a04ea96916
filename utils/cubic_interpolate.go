// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate evaluates a Catmull-Rom segment between y1 and y2.
// y0 and y3 are the neighbouring samples; x is the fractional position in [0, 1].
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	// Hermite form: tangents are the central differences at y1 and y2.
	m1 := (y2 - y0) * 0.5
	m2 := (y3 - y1) * 0.5
	d := y2 - y1

	x2 := x * x
	x3 := x2 * x

	return y1 + m1*x + (3*d-2*m1-m2)*x2 + (m1+m2-2*d)*x3
}
