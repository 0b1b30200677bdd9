package render

// FitRule shrinks a font from Max toward Min in Step decrements.
type FitRule struct {
	Max  float64
	Min  float64
	Step float64
}

// Fit returns the largest size on the rule's ladder whose measured width fits within
// maxWidth, or Min when nothing fits.
func (r FitRule) Fit(maxWidth float64, measure func(size float64) float64) float64 {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	size := r.Max
	if size < r.Min {
		size = r.Min
	}
	for size > r.Min && measure(size) > maxWidth {
		size -= step
	}
	if size < r.Min {
		size = r.Min
	}
	return size
}
