package events

const (
	// KindResponseDebounceElapsed identifies a completed debounce quiet period.
	KindResponseDebounceElapsed Kind = "response.debounce_elapsed"
)

// ResponseDebounceElapsed marks that the debounce quiet interval passed
// without a newer interim transcript. Generation is the timer generation the
// fire was armed with; consumers drop fires whose generation is stale.
type ResponseDebounceElapsed struct {
	Base
	Generation uint64
}

// NewResponseDebounceElapsed creates a debounce elapsed event.
func NewResponseDebounceElapsed(generation uint64) ResponseDebounceElapsed {
	return ResponseDebounceElapsed{Base: NewBase(KindResponseDebounceElapsed), Generation: generation}
}
