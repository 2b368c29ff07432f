package apperr

// Warning records a best-effort side effect that failed after the primary
// write of an operation had already been persisted.
type Warning struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

type Warnings []Warning

// Add appends a warning for op when err is non-nil.
func (w *Warnings) Add(op string, err error) {
	if err == nil {
		return
	}
	*w = append(*w, Warning{Op: op, Error: err.Error()})
}

// Merge appends other to w.
func (w *Warnings) Merge(other Warnings) {
	*w = append(*w, other...)
}

func (w Warnings) Empty() bool {
	return len(w) == 0
}
