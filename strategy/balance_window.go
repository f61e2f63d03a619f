package strategy

// floatWindow keeps the most recent max samples in insertion order.
type floatWindow struct {
	max int
	buf []float64
}

func newFloatWindow(max int) *floatWindow {
	if max <= 0 {
		max = 16
	}
	return &floatWindow{max: max}
}

func (w *floatWindow) Add(v float64) {
	w.buf = append(w.buf, v)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
}

func (w *floatWindow) Values() []float64 {
	out := make([]float64, len(w.buf))
	copy(out, w.buf)
	return out
}

func (w *floatWindow) Last() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	return w.buf[len(w.buf)-1]
}
