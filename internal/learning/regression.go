package learning

import (
	"math"
	"time"

	"github.com/pantrysense/grocer-core/backend/internal/domain"
)

const (
	// minRegressionEvents is the smallest history the regression will fit;
	// below this the caller should use EWMA instead
	minRegressionEvents = 7

	// featureCount covers day-of-week, weekend flag, month, item age and bias
	featureCount = 5

	// pivotEpsilon is the singularity threshold for Gaussian elimination
	pivotEpsilon = 1e-10
)

// featureVector builds the temporal feature row for one observation. Features
// are normalized to comparable magnitudes so the normal equations stay
// well-conditioned for typical data.
func featureVector(t time.Time, daysInInventory float64) []float64 {
	dayOfWeek := float64(t.Weekday())
	isWeekend := 0.0
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		isWeekend = 1.0
	}
	monthOfYear := float64(t.Month() - 1)

	return []float64{
		dayOfWeek / 6.0,
		isWeekend,
		monthOfYear / 11.0,
		daysInInventory / 30.0,
		1.0, // bias
	}
}

// RegressionRate fits a linear model of observed daily rate against temporal
// features and predicts the rate for "now". Returns ok=false when there are
// fewer than minRegressionEvents observations or the normal-equation matrix is
// singular; the caller must then fall back to EWMA on the same event set.
func RegressionRate(events []*domain.ConsumptionEvent, itemCtx domain.ItemContext, now time.Time) (float64, bool) {
	if len(events) < minRegressionEvents {
		return 0, false
	}

	// Normal equations: (XᵗX) w = Xᵗy
	xtx := make([][]float64, featureCount)
	for i := range xtx {
		xtx[i] = make([]float64, featureCount)
	}
	xty := make([]float64, featureCount)

	for _, event := range events {
		features := featureVector(event.Timestamp, event.DaysInInventory)
		target := event.ObservedDailyRate()

		for i := 0; i < featureCount; i++ {
			for j := 0; j < featureCount; j++ {
				xtx[i][j] += features[i] * features[j]
			}
			xty[i] += features[i] * target
		}
	}

	weights, ok := solveLinearSystem(xtx, xty)
	if !ok {
		return 0, false
	}

	current := featureVector(now, itemCtx.DaysInInventory)
	prediction := 0.0
	for i := 0; i < featureCount; i++ {
		prediction += weights[i] * current[i]
	}

	// Negative consumption is meaningless
	return math.Max(0, prediction), true
}

// solveLinearSystem solves a*x = b by Gaussian elimination with partial
// pivoting. Both inputs are copied, so callers keep their data. Returns
// ok=false when a pivot falls below pivotEpsilon, i.e. the matrix is singular
// or near-singular.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	if n == 0 || len(a) != n {
		return nil, false
	}

	// Build the augmented matrix so elimination can't mutate the inputs
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(a[i]) != n {
			return nil, false
		}
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		// Partial pivoting: choose the largest-magnitude entry in this column
		pivotRow := col
		for row := col + 1; row < n; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivotRow][col]) {
				pivotRow = row
			}
		}

		if math.Abs(aug[pivotRow][col]) < pivotEpsilon {
			return nil, false
		}

		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		for row := col + 1; row < n; row++ {
			factor := aug[row][col] / aug[col][col]
			for k := col; k <= n; k++ {
				aug[row][k] -= factor * aug[col][k]
			}
		}
	}

	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}

	return x, true
}
