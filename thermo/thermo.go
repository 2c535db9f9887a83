package thermo

import (
	"fmt"
	"math"

	"github.com/notargets/dgflow/types"
)

type ModelType uint8

const (
	CaloricallyPerfectGasType ModelType = iota
	MixtureIdealGasType
)

var ModelNames = map[string]ModelType{
	"CaloricallyPerfectGas": CaloricallyPerfectGasType,
	"MixtureIdealGas":       MixtureIdealGasType,
}

// Model maps partial densities plus one thermodynamic variable onto a consistent State
type Model interface {
	Name() string
	NumSpecies() int
	DefaultY() []float64
	SetStateFromRhoiP(st *State, rhoi []float64, p float64) error
	SetStateFromRhoiT(st *State, rhoi []float64, T float64) error
	// SetStateFromRhoiE takes the internal energy per unit volume, rhoE minus the kinetic energy
	SetStateFromRhoiE(st *State, rhoi []float64, rhoe float64) error
	// Pressure evaluates p from positive partial densities and rhoe without any sign checks,
	// for limiters that need to see how negative it is
	Pressure(rhoi []float64, rhoe float64) float64
}

type setMode uint8

const (
	modeNone setMode = iota
	modeP
	modeT
	modeE
)

// State is the per point thermodynamic cache. Every field is consistent after a successful setter.
type State struct {
	Rho   float64
	P     float64
	T     float64
	C     float64 // speed of sound
	H     float64 // specific enthalpy
	E     float64 // specific internal energy
	Cp    float64
	Cv    float64
	Gamma float64
	R     float64
	Y     []float64
	// Inputs of the last successful setter
	mode  setMode
	key   []float64
	input float64
	// Viscosity cache, keyed on the temperature and the Sutherland law it was evaluated with
	muT, mu float64
	muLaw   *SutherlandTransport
	muBy    SutherlandTransport
}

// cached reports whether the state already holds the result of this exact setter call
func (st *State) cached(mode setMode, rhoi []float64, val float64) bool {
	if st.mode != mode || st.input != val || len(st.key) != len(rhoi) {
		return false
	}
	for i, r := range rhoi {
		if st.key[i] != r {
			return false
		}
	}
	return true
}

func (st *State) remember(mode setMode, rhoi []float64, val float64) {
	st.mode, st.input = mode, val
	st.key = append(st.key[:0], rhoi...)
}

func (st *State) invalidate() { st.mode = modeNone }

// Invalidate drops the cached inputs so the next setter recomputes
func (st *State) Invalidate() { st.invalidate() }

func checkPositive(name string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return types.NotPhysical(name, v)
	}
	return nil
}

// densityAndY sums the partial densities and fills the mass fractions
func (st *State) densityAndY(rhoi []float64) (err error) {
	var rho float64
	for i, r := range rhoi {
		if math.IsNaN(r) || r < 0 {
			return types.NotPhysical(fmt.Sprintf("rho_%d", i), r)
		}
		rho += r
	}
	if !(rho > 0) {
		return types.NotPhysical("rho", rho)
	}
	if cap(st.Y) < len(rhoi) {
		st.Y = make([]float64, len(rhoi))
	}
	st.Y = st.Y[:len(rhoi)]
	for i, r := range rhoi {
		st.Y[i] = r / rho
	}
	st.Rho = rho
	return
}

// finish derives enthalpy and sound speed once Rho, P, T, E, Cv and R are in place
func (st *State) finish() (err error) {
	st.Cp = st.Cv + st.R
	st.Gamma = st.Cp / st.Cv
	st.H = st.E + st.P/st.Rho
	c2 := st.Gamma * st.P / st.Rho
	if math.IsNaN(c2) || c2 < 0 {
		return types.NotPhysical("c^2", c2)
	}
	st.C = math.Sqrt(c2)
	return
}

func NewModel(label string, params map[string]float64) (m Model, err error) {
	mt, ok := ModelNames[label]
	if !ok {
		return nil, types.Unsupported("thermodynamic model %q", label)
	}
	get := func(name string, def float64) float64 {
		if v, ok := params[name]; ok {
			return v
		}
		return def
	}
	switch mt {
	case MixtureIdealGasType:
		// Two species of the same gas unless configured otherwise
		gamma, R := get("SpecificHeatRatio", 1.4), get("GasConstant", 287.)
		m = NewMixtureIdealGas([]Species{
			{Name: "A", R: R, Cv: R / (gamma - 1)},
			{Name: "B", R: get("GasConstantB", R), Cv: get("GasConstantB", R) / (get("SpecificHeatRatioB", gamma) - 1),
				Hf: get("FormationEnergyB", 0)},
		})
	default:
		gamma, R := get("SpecificHeatRatio", 1.4), get("GasConstant", 287.)
		if !(gamma > 1) || !(R > 0) {
			return nil, types.Unsupported("perfect gas with gamma = %v, R = %v", gamma, R)
		}
		m = NewCaloricallyPerfectGas(gamma, R)
	}
	return
}
