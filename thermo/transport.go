package thermo

import (
	"math"

	"github.com/notargets/dgflow/types"
)

type TransportType uint8

const (
	ConstantTransportType TransportType = iota
	SutherlandTransportType
)

var TransportNames = map[string]TransportType{
	"Constant":   ConstantTransportType,
	"Sutherland": SutherlandTransportType,
}

// Transport evaluates transport properties from a state set by a Model
type Transport interface {
	Name() string
	Viscosity(st *State) float64
	ThermalConductivity(st *State) float64
	DiffusionCoefficients(st *State, D []float64)
}

func NewTransport(label string, params map[string]float64) (tr Transport, err error) {
	tt, ok := TransportNames[label]
	if !ok {
		return nil, types.Unsupported("transport model %q", label)
	}
	get := func(name string, def float64) float64 {
		if v, ok := params[name]; ok {
			return v
		}
		return def
	}
	switch tt {
	case SutherlandTransportType:
		tr = &SutherlandTransport{
			Pr: get("PrandtlNumber", 0.7), Mu0: get("Viscosity", 1),
			S: get("s", 1), T0: get("T0", 1), Beta: get("beta", 1.5),
		}
	default:
		tr = &ConstantTransport{Pr: get("PrandtlNumber", 0.7), Mu0: get("Viscosity", 1)}
	}
	return
}

type ConstantTransport struct {
	Pr, Mu0 float64
}

func (c *ConstantTransport) Name() string                 { return "Constant" }
func (c *ConstantTransport) Viscosity(st *State) float64 { return c.Mu0 }

// ThermalConductivity is mu cp / Pr
func (c *ConstantTransport) ThermalConductivity(st *State) float64 {
	return c.Viscosity(st) * st.Cp / c.Pr
}

func (c *ConstantTransport) DiffusionCoefficients(st *State, D []float64) {
	for i := range D {
		D[i] = 0
	}
}

// SutherlandTransport is mu = mu0 (T/T0)^beta (T0+s)/(T+s)
type SutherlandTransport struct {
	Pr, Mu0, S, T0, Beta float64
}

func (s *SutherlandTransport) Name() string { return "Sutherland" }

func (s *SutherlandTransport) Viscosity(st *State) float64 {
	if st.muLaw == s && st.muBy == *s && st.muT == st.T {
		return st.mu
	}
	st.mu = s.Mu0 * math.Pow(st.T/s.T0, s.Beta) * (s.T0 + s.S) / (st.T + s.S)
	st.muT, st.muLaw, st.muBy = st.T, s, *s
	return st.mu
}

func (s *SutherlandTransport) ThermalConductivity(st *State) float64 {
	return s.Viscosity(st) * st.Cp / s.Pr
}

func (s *SutherlandTransport) DiffusionCoefficients(st *State, D []float64) {
	for i := range D {
		D[i] = 0
	}
}
