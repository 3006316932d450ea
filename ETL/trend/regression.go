package trend

import (
	"fmt"
	"math"
	"time"
)

const epsilon = 1e-10

// Two-sided Student t critical values for 1..30 degrees of freedom.
// Larger samples use the normal quantile in the last slot.
var tTables = map[float64][]float64{
	0.90: {
		6.314, 2.920, 2.353, 2.132, 2.015, 1.943, 1.895, 1.860, 1.833, 1.812,
		1.796, 1.782, 1.771, 1.761, 1.753, 1.746, 1.740, 1.734, 1.729, 1.725,
		1.721, 1.717, 1.714, 1.711, 1.708, 1.706, 1.703, 1.701, 1.699, 1.697,
		1.645,
	},
	0.95: {
		12.706, 4.303, 3.182, 2.776, 2.571, 2.447, 2.365, 2.306, 2.262, 2.228,
		2.201, 2.179, 2.160, 2.145, 2.131, 2.120, 2.110, 2.101, 2.093, 2.086,
		2.080, 2.074, 2.069, 2.064, 2.060, 2.056, 2.052, 2.048, 2.045, 2.042,
		1.960,
	},
	0.99: {
		63.657, 9.925, 5.841, 4.604, 4.032, 3.707, 3.499, 3.355, 3.250, 3.169,
		3.106, 3.055, 3.012, 2.977, 2.947, 2.921, 2.898, 2.878, 2.861, 2.845,
		2.831, 2.819, 2.807, 2.797, 2.787, 2.779, 2.771, 2.763, 2.756, 2.750,
		2.576,
	},
}

// tCritical returns the t value for the confidence level and degrees of freedom.
// Unsupported levels fall back to 0.95.
func tCritical(confidenceLevel float64, df int) float64 {
	table, ok := tTables[confidenceLevel]
	if !ok {
		table = tTables[0.95]
	}
	switch {
	case df < 1:
		return table[0]
	case df > len(table)-1:
		return table[len(table)-1]
	}
	return table[df-1]
}

// RoundToThousandth rounds to three decimal places
func RoundToThousandth(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// moments are the centered sums of a series
type moments struct {
	n            float64
	meanX, meanY float64
	sxx, syy     float64
	sxy          float64
	start, end   time.Time
}

func summarize(points []DataPoint) moments {
	m := moments{n: float64(len(points))}
	if len(points) == 0 {
		return m
	}

	m.start, m.end = points[0].Date, points[0].Date
	for _, p := range points {
		m.meanX += p.X
		m.meanY += p.Y
		if p.Date.Before(m.start) {
			m.start = p.Date
		}
		if p.Date.After(m.end) {
			m.end = p.Date
		}
	}
	m.meanX /= m.n
	m.meanY /= m.n

	for _, p := range points {
		dx, dy := p.X-m.meanX, p.Y-m.meanY
		m.sxx += dx * dx
		m.syy += dy * dy
		m.sxy += dx * dy
	}
	return m
}

// LinearRegression fits a least-squares line through points
func LinearRegression(points []DataPoint) (*RegressionResult, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("linear regression needs at least 2 points, got %d", len(points))
	}

	m := summarize(points)
	if m.sxx < epsilon {
		return nil, fmt.Errorf("all X values are equal, slope is undefined")
	}

	slope := m.sxy / m.sxx
	intercept := m.meanY - slope*m.meanX

	// a flat series has no correlation
	var r float64
	if m.syy >= epsilon {
		r = m.sxy / math.Sqrt(m.sxx*m.syy)
	}

	return &RegressionResult{
		A:           RoundToThousandth(slope),
		B:           RoundToThousandth(intercept),
		R:           RoundToThousandth(r),
		R2:          RoundToThousandth(r * r),
		PeriodStart: m.start,
		PeriodEnd:   m.end,
		DataPoints:  points,
	}, nil
}

// Predict evaluates the fitted line at x
func Predict(result *RegressionResult, x float64) float64 {
	return RoundToThousandth(result.A*x + result.B)
}

// CalculateConfidenceInterval returns the prediction interval at x.
// With two points or fewer there are no residual degrees of freedom and the interval collapses.
func CalculateConfidenceInterval(result *RegressionResult, x float64, confidenceLevel float64) (float64, float64) {
	yPred := Predict(result, x)

	m := summarize(result.DataPoints)
	if m.n <= 2 || m.sxx < epsilon {
		return yPred, yPred
	}

	var sse float64
	for _, p := range result.DataPoints {
		residual := p.Y - Predict(result, p.X)
		sse += residual * residual
	}

	df := len(result.DataPoints) - 2
	dx := x - m.meanX
	margin := tCritical(confidenceLevel, df) * math.Sqrt(sse/float64(df)) * math.Sqrt(1+1/m.n+dx*dx/m.sxx)

	return RoundToThousandth(yPred - margin), RoundToThousandth(yPred + margin)
}

// GenerateForecasts predicts daysAhead days following the end of the period.
// Lower bounds are clamped at zero since purchase counts cannot be negative.
func GenerateForecasts(result *RegressionResult, daysAhead int, confidenceLevel float64) []ForecastPoint {
	if daysAhead <= 0 {
		return []ForecastPoint{}
	}

	lastX := 0.0
	for _, p := range result.DataPoints {
		lastX = math.Max(lastX, p.X)
	}

	forecasts := make([]ForecastPoint, 0, daysAhead)
	for day := 1; day <= daysAhead; day++ {
		x := lastX + float64(day)
		lower, upper := CalculateConfidenceInterval(result, x, confidenceLevel)

		forecasts = append(forecasts, ForecastPoint{
			Date:          result.PeriodEnd.AddDate(0, 0, day),
			ForecastValue: Predict(result, x),
			CILower:       math.Max(lower, 0),
			CIUpper:       upper,
		})
	}

	return forecasts
}
