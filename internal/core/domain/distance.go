package domain

// SquaredL2 returns the squared Euclidean distance between two vectors.
// Lower is more similar. Vectors of different length are compared over
// the shorter prefix, with the remainder of the longer counted in full.
func SquaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for _, v := range a[n:] {
		sum += float64(v) * float64(v)
	}
	for _, v := range b[n:] {
		sum += float64(v) * float64(v)
	}
	return sum
}
