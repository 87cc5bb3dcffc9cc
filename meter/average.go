package meter

// Average tracks a running sum and count and reports their mean.
type Average struct {
	sum   float64
	count int
}

// Update adds value to the sum and n to the count.
func (a *Average) Update(value float64, n int) {
	a.sum += value
	a.count += n
}

// Add records a single observation.
func (a *Average) Add(value float64) {
	a.Update(value, 1)
}

// Value returns sum / max(1, count). A fresh meter reports 0.
func (a *Average) Value() float64 {
	count := a.count
	if count < 1 {
		count = 1
	}
	return a.sum / float64(count)
}

// Count returns the accumulated count.
func (a *Average) Count() int {
	return a.count
}

// Reset resets all values to 0.
func (a *Average) Reset() {
	a.sum = 0
	a.count = 0
}
