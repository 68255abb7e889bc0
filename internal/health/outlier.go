package health

import "sort"

// minOutlierPopulation is the smallest sample size with enough spread signal
// to characterize quartiles.
const minOutlierPopulation = 4

// FilterOutliers drops values outside the Tukey fences [Q1-1.5*IQR, Q3+1.5*IQR].
// Quartiles are taken at positional indices n/4 and 3n/4 of the sorted values,
// without interpolation. Populations below four values are returned unchanged.
func FilterOutliers(values []int) []int {
	if len(values) < minOutlierPopulation {
		return values
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	q1 := float64(sorted[n/4])
	q3 := float64(sorted[3*n/4])
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	filtered := make([]int, 0, len(values))
	for _, v := range values {
		if float64(v) >= lower && float64(v) <= upper {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
