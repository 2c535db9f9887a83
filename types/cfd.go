package types

type BCKind uint8

const (
	// BCWeakRiemann boundary states are fed through the numerical flux like a neighbor.
	BCWeakRiemann BCKind = iota
	// BCWeakPrescribed boundary states are used directly in the analytic normal flux.
	BCWeakPrescribed
)

func (k BCKind) String() string {
	switch k {
	case BCWeakRiemann:
		return "WeakRiemann"
	case BCWeakPrescribed:
		return "WeakPrescribed"
	}
	return "Unknown"
}

// StepContext is the per-step state read by residual assembly. Only the stepper
// mutates it, and only between residual evaluations.
type StepContext struct {
	Time     float64
	ConvFlux bool // include volume and face convective terms
	Source   bool // include source terms
	// Balance is added to the assembled residual when non-nil; the Simpler splitting
	// scheme uses it to carry the frozen convective tendency across sub-steps.
	Balance *Tensor
}

func NewStepContext(time float64) *StepContext {
	return &StepContext{Time: time, ConvFlux: true, Source: true}
}

// Reset restores the full-physics switches and drops any balance term.
func (sc *StepContext) Reset() {
	sc.ConvFlux, sc.Source, sc.Balance = true, true, nil
}
