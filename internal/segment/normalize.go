package segment

import "math"

// Standardize scales every column of points to zero mean and unit population
// variance. A column whose values are all identical becomes all zeros.
// The input is not modified.
func Standardize(points [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	if len(points) == 0 {
		return out
	}
	dims := len(points[0])
	for i := range out {
		out[i] = make([]float64, dims)
	}
	n := float64(len(points))
	for d := 0; d < dims; d++ {
		minVal, maxVal := points[0][d], points[0][d]
		var sum float64
		for _, p := range points {
			sum += p[d]
			minVal = math.Min(minVal, p[d])
			maxVal = math.Max(maxVal, p[d])
		}
		if minVal == maxVal {
			continue
		}
		mean := sum / n
		var ss float64
		for _, p := range points {
			diff := p[d] - mean
			ss += diff * diff
		}
		std := math.Sqrt(ss / n)
		if std == 0 {
			continue
		}
		for i, p := range points {
			out[i][d] = (p[d] - mean) / std
		}
	}
	return out
}
