package thermo

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/dgflow/types"
)

type CaloricallyPerfectGas struct {
	Gamma, R float64
}

func NewCaloricallyPerfectGas(gamma, R float64) *CaloricallyPerfectGas {
	return &CaloricallyPerfectGas{Gamma: gamma, R: R}
}

func (g *CaloricallyPerfectGas) Name() string        { return "CaloricallyPerfectGas" }
func (g *CaloricallyPerfectGas) NumSpecies() int     { return 1 }
func (g *CaloricallyPerfectGas) DefaultY() []float64 { return []float64{1} }

func (g *CaloricallyPerfectGas) base(st *State, rhoi []float64) (err error) {
	if len(rhoi) != 1 {
		return types.Unsupported("%d partial densities for a single species gas", len(rhoi))
	}
	if err = st.densityAndY(rhoi); err != nil {
		return
	}
	st.R = g.R
	st.Cv = g.R / (g.Gamma - 1)
	return
}

func (g *CaloricallyPerfectGas) SetStateFromRhoiP(st *State, rhoi []float64, p float64) (err error) {
	if st.cached(modeP, rhoi, p) {
		return
	}
	st.invalidate()
	if err = g.base(st, rhoi); err != nil {
		return
	}
	if err = checkPositive("p", p); err != nil {
		return
	}
	st.P = p
	st.T = p / (st.Rho * st.R)
	st.E = st.Cv * st.T
	if err = st.finish(); err == nil {
		st.remember(modeP, rhoi, p)
	}
	return
}

func (g *CaloricallyPerfectGas) SetStateFromRhoiT(st *State, rhoi []float64, T float64) (err error) {
	if st.cached(modeT, rhoi, T) {
		return
	}
	st.invalidate()
	if err = g.base(st, rhoi); err != nil {
		return
	}
	if err = checkPositive("T", T); err != nil {
		return
	}
	st.T = T
	st.P = st.Rho * st.R * T
	st.E = st.Cv * T
	if err = st.finish(); err == nil {
		st.remember(modeT, rhoi, T)
	}
	return
}

func (g *CaloricallyPerfectGas) SetStateFromRhoiE(st *State, rhoi []float64, rhoe float64) (err error) {
	if st.cached(modeE, rhoi, rhoe) {
		return
	}
	st.invalidate()
	if err = g.base(st, rhoi); err != nil {
		return
	}
	st.P = (g.Gamma - 1) * rhoe
	if err = checkPositive("p", st.P); err != nil {
		return
	}
	st.E = rhoe / st.Rho
	st.T = st.E / st.Cv
	if err = st.finish(); err == nil {
		st.remember(modeE, rhoi, rhoe)
	}
	return
}

func (g *CaloricallyPerfectGas) Pressure(rhoi []float64, rhoe float64) float64 {
	return (g.Gamma - 1) * rhoe
}

// Species carries constant heat capacities and a formation energy
type Species struct {
	Name  string
	R, Cv float64
	Hf    float64
}

// MixtureIdealGas is a thermally perfect mixture with frozen composition
type MixtureIdealGas struct {
	Species []Species
}

func NewMixtureIdealGas(sp []Species) *MixtureIdealGas { return &MixtureIdealGas{Species: sp} }

func (g *MixtureIdealGas) Name() string    { return "MixtureIdealGas" }
func (g *MixtureIdealGas) NumSpecies() int { return len(g.Species) }

func (g *MixtureIdealGas) DefaultY() (Y []float64) {
	Y = make([]float64, len(g.Species))
	Y[0] = 1
	return
}

// base fills the mixture R, Cv and the formation energy sum_i Y_i Hf_i
func (g *MixtureIdealGas) base(st *State, rhoi []float64) (hf float64, err error) {
	if len(rhoi) != len(g.Species) {
		return 0, types.Unsupported("%d partial densities for a %d species mixture", len(rhoi), len(g.Species))
	}
	if err = st.densityAndY(rhoi); err != nil {
		return
	}
	st.R, st.Cv = 0, 0
	for i, sp := range g.Species {
		st.R += st.Y[i] * sp.R
		st.Cv += st.Y[i] * sp.Cv
		hf += st.Y[i] * sp.Hf
	}
	return
}

func (g *MixtureIdealGas) SetStateFromRhoiP(st *State, rhoi []float64, p float64) (err error) {
	if st.cached(modeP, rhoi, p) {
		return
	}
	st.invalidate()
	var hf float64
	if hf, err = g.base(st, rhoi); err != nil {
		return
	}
	if err = checkPositive("p", p); err != nil {
		return
	}
	st.P = p
	st.T = p / (st.Rho * st.R)
	st.E = st.Cv*st.T + hf
	if err = st.finish(); err == nil {
		st.remember(modeP, rhoi, p)
	}
	return
}

func (g *MixtureIdealGas) SetStateFromRhoiT(st *State, rhoi []float64, T float64) (err error) {
	if st.cached(modeT, rhoi, T) {
		return
	}
	st.invalidate()
	var hf float64
	if hf, err = g.base(st, rhoi); err != nil {
		return
	}
	if err = checkPositive("T", T); err != nil {
		return
	}
	st.T = T
	st.P = st.Rho * st.R * T
	st.E = st.Cv*T + hf
	if err = st.finish(); err == nil {
		st.remember(modeT, rhoi, T)
	}
	return
}

func (g *MixtureIdealGas) SetStateFromRhoiE(st *State, rhoi []float64, rhoe float64) (err error) {
	if st.cached(modeE, rhoi, rhoe) {
		return
	}
	st.invalidate()
	var hf float64
	if hf, err = g.base(st, rhoi); err != nil {
		return
	}
	st.E = rhoe / st.Rho
	st.T = (st.E - hf) / st.Cv
	if err = checkPositive("T", st.T); err != nil {
		return
	}
	st.P = st.Rho * st.R * st.T
	if err = st.finish(); err == nil {
		st.remember(modeE, rhoi, rhoe)
	}
	return
}

// Pressure is rho R T with T = (e - sum_i Y_i Hf_i) / Cv
func (g *MixtureIdealGas) Pressure(rhoi []float64, rhoe float64) float64 {
	var R, Cv, rhoHf float64
	for i, sp := range g.Species {
		R += rhoi[i] * sp.R
		Cv += rhoi[i] * sp.Cv
		rhoHf += rhoi[i] * sp.Hf
	}
	return R * (rhoe - rhoHf) / Cv
}

// MassFractions is a convenience for building partial densities from rho and Y
func MassFractions(rho float64, Y []float64, rhoi []float64) {
	copy(rhoi, Y)
	floats.Scale(rho, rhoi)
}
