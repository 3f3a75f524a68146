package guess

import "math"

func sumInts(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func averageInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	return float64(sumInts(xs)) / float64(len(xs))
}

// varianceInts is the population variance (mean squared deviation).
func varianceInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	avg := averageInts(xs)
	var acc float64
	for _, x := range xs {
		d := float64(x) - avg
		acc += d * d
	}
	return acc / float64(len(xs))
}

// stddevInts floors the result at a tiny epsilon so a perfectly uniform
// sample yields a very large delimiter weight instead of a division fault.
func stddevInts(xs []int) float64 {
	sd := math.Sqrt(varianceInts(xs))
	if sd < 0.00000000001 {
		return 0.000000001
	}
	return sd
}
