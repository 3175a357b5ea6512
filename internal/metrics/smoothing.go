package metrics

import "math"

// SavitzkyGolay smooths a series by fitting a least-squares polynomial of
// the given order over a sliding window and evaluating it at each point.
// Windows are clamped at the series edges and the polynomial is evaluated
// at the off-center position, so no padding values are invented.
//
// Degenerate parameters and series shorter than the window return the
// series unchanged rather than failing: a short series has nothing to
// smooth over.
func SavitzkyGolay(series []float64, window, order int) []float64 {
	out := make([]float64, len(series))
	copy(out, series)

	if window < 3 || window%2 == 0 || order < 1 || order >= window || len(series) < window {
		return out
	}

	half := window / 2
	for i := range series {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		if lo+window > len(series) {
			lo = len(series) - window
		}
		out[i] = polyFitEval(series[lo:lo+window], i-lo, order)
	}
	return out
}

// polyFitEval fits a polynomial of the given order to y (sampled at unit
// spacing) and evaluates it at index `at`. Abscissas are centered on `at`
// so the fitted constant term is the smoothed value.
func polyFitEval(y []float64, at, order int) float64 {
	n := order + 1

	// Normal equations: M b = v with M[k][l] = sum x^(k+l), v[k] = sum x^k*y.
	m := make([][]float64, n)
	for k := range m {
		m[k] = make([]float64, n+1)
	}
	for j := range y {
		x := float64(j - at)
		pow := 1.0
		powers := make([]float64, 2*n-1)
		for p := 0; p < 2*n-1; p++ {
			powers[p] = pow
			pow *= x
		}
		for k := 0; k < n; k++ {
			for l := 0; l < n; l++ {
				m[k][l] += powers[k+l]
			}
			m[k][n] += powers[k] * y[j]
		}
	}

	if !solveInPlace(m) {
		// Singular system; fall back to the raw value.
		return y[at]
	}
	return m[0][n]
}

// solveInPlace runs Gaussian elimination with partial pivoting over an
// augmented matrix, leaving the solution in the last column.
func solveInPlace(m [][]float64) bool {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}
	for col := n - 1; col >= 0; col-- {
		sum := m[col][n]
		for k := col + 1; k < n; k++ {
			sum -= m[col][k] * m[k][n]
		}
		m[col][n] = sum / m[col][col]
	}
	return true
}
