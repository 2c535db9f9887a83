package InputParameters

import (
	"fmt"
	"io"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/dgflow/types"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title              string                  `json:"Title"`
	TimeStepping       TimeStepping            `json:"TimeStepping"`
	Numerics           Numerics                `json:"Numerics"`
	Mesh               Mesh                    `json:"Mesh"`
	Physics            Physics                 `json:"Physics"`
	InitialCondition   FunctionSpec            `json:"InitialCondition"`
	ExactSolution      *FunctionSpec           `json:"ExactSolution,omitempty"`
	BoundaryConditions map[string]BoundarySpec `json:"BoundaryConditions,omitempty"` // keyed by boundary group
	SourceTerms        []SourceSpec            `json:"SourceTerms,omitempty"`
	Output             Output                  `json:"Output"`
}

type TimeStepping struct {
	InitialTime               float64 `json:"InitialTime"`
	FinalTime                 float64 `json:"FinalTime"`
	CFL                       float64 `json:"CFL,omitempty"`
	TimeStepSize              float64 `json:"TimeStepSize,omitempty"`
	NumTimeSteps              int     `json:"NumTimeSteps,omitempty"`
	TimeStepper               string  `json:"TimeStepper"`
	OperatorSplittingExplicit string  `json:"OperatorSplittingExplicit,omitempty"`
	OperatorSplittingImplicit string  `json:"OperatorSplittingImplicit,omitempty"`
}

type Numerics struct {
	SolutionOrder     int    `json:"SolutionOrder"`
	SolutionBasis     string `json:"SolutionBasis"` // Legendre or Lagrange, the shape comes from the mesh
	ElementQuadrature string `json:"ElementQuadrature"`
	ApplyLimiters     string `json:"ApplyLimiters,omitempty"`
	ParallelDegree    int    `json:"ParallelDegree,omitempty"` // 0 picks one partition per CPU
}

type Mesh struct {
	ElementShape string  `json:"ElementShape"`
	NumElemsX    int     `json:"NumElemsX"`
	NumElemsY    int     `json:"NumElemsY,omitempty"`
	XMin         float64 `json:"xmin"`
	XMax         float64 `json:"xmax"`
	YMin         float64 `json:"ymin,omitempty"`
	YMax         float64 `json:"ymax,omitempty"`
	PeriodicX    bool    `json:"PeriodicX,omitempty"`
	PeriodicY    bool    `json:"PeriodicY,omitempty"`
}

type Physics struct {
	Type              string             `json:"Type"`
	Dim               int                `json:"Dim"`
	ConvFluxNumerical string             `json:"ConvFluxNumerical"`
	ThermoModel       string             `json:"ThermoModel,omitempty"`
	GasConstant       float64            `json:"GasConstant,omitempty"`
	SpecificHeatRatio float64            `json:"SpecificHeatRatio,omitempty"`
	ConstVelocity     []float64          `json:"ConstVelocity,omitempty"`
	Transport         string             `json:"Transport,omitempty"`
	TransportParams   map[string]float64 `json:"TransportParams,omitempty"`
}

// FunctionSpec names a registered state function and its parameters
type FunctionSpec struct {
	Function string             `json:"Function"`
	Params   map[string]float64 `json:"Params,omitempty"`
}

// BoundarySpec names a registered boundary condition. StateAll takes its exterior
// state from Function.
type BoundarySpec struct {
	BCType   string             `json:"BCType"`
	Function string             `json:"Function,omitempty"`
	Params   map[string]float64 `json:"Params,omitempty"`
}

type SourceSpec struct {
	Source string             `json:"Source"`
	Params map[string]float64 `json:"Params,omitempty"`
}

type Output struct {
	Prefix        string `json:"Prefix,omitempty"`
	WriteInterval int    `json:"WriteInterval,omitempty"`
	Restart       bool   `json:"Restart,omitempty"` // continue from <Prefix>.restart.yaml when it exists
	LogInterval   int    `json:"LogInterval,omitempty"`
	Metrics       bool   `json:"Metrics,omitempty"`
}

// NewInputParameters returns the defaults that a parsed file overrides
func NewInputParameters() *InputParameters {
	return &InputParameters{
		TimeStepping: TimeStepping{TimeStepper: "RK4"},
		Numerics: Numerics{
			SolutionOrder:     1,
			SolutionBasis:     "Legendre",
			ElementQuadrature: "GaussLegendre",
		},
		Mesh: Mesh{ElementShape: "Segment", XMin: 0, XMax: 1},
		Physics: Physics{
			Dim:               1,
			ConvFluxNumerical: "LaxFriedrichs",
			ThermoModel:       "CaloricallyPerfectGas",
			GasConstant:       287,
			SpecificHeatRatio: 1.4,
			Transport:         "Constant",
		},
		Output: Output{Prefix: "dgflow"},
	}
}

func (ip *InputParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return fmt.Errorf("input parameters: %w", err)
	}
	return ip.Validate()
}

// Validate checks ranges that do not need the registries; names are resolved by the driver
func (ip *InputParameters) Validate() error {
	var (
		ts = ip.TimeStepping
		m  = ip.Mesh
	)
	switch {
	case !(ts.FinalTime > ts.InitialTime):
		return types.Unsupported("FinalTime %v is not after InitialTime %v", ts.FinalTime, ts.InitialTime)
	case ts.NumTimeSteps < 0 || ts.TimeStepSize < 0 || ts.CFL < 0:
		return types.Unsupported("negative time step setting")
	case ts.NumTimeSteps == 0 && ts.TimeStepSize == 0 && ts.CFL == 0:
		return types.Unsupported("one of NumTimeSteps, TimeStepSize or CFL is needed")
	case ip.Numerics.SolutionOrder < 0:
		return types.Unsupported("SolutionOrder %d", ip.Numerics.SolutionOrder)
	case ip.Numerics.ParallelDegree < 0:
		return types.Unsupported("ParallelDegree %d", ip.Numerics.ParallelDegree)
	case m.NumElemsX < 1:
		return types.Unsupported("NumElemsX %d", m.NumElemsX)
	case !(m.XMax > m.XMin):
		return types.Unsupported("mesh extent [%v, %v] in x", m.XMin, m.XMax)
	case ip.Physics.Dim < 1 || ip.Physics.Dim > 2:
		return types.Unsupported("Dim %d", ip.Physics.Dim)
	case len(ip.InitialCondition.Function) == 0:
		return types.Unsupported("missing InitialCondition.Function")
	case ip.Output.WriteInterval < 0 || ip.Output.LogInterval < 0:
		return types.Unsupported("negative output interval")
	}
	if ip.Physics.Dim == 2 && (m.NumElemsY < 1 || !(m.YMax > m.YMin)) {
		return types.Unsupported("2D mesh with %d elements on [%v, %v] in y", m.NumElemsY, m.YMin, m.YMax)
	}
	for group, bc := range ip.BoundaryConditions {
		if len(bc.BCType) == 0 {
			return types.Unsupported("boundary %q without a BCType", group)
		}
	}
	return nil
}

func (ip *InputParameters) Print(w io.Writer) {
	ts, nm, ph := ip.TimeStepping, ip.Numerics, ip.Physics
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t\t= Physics\n", ph.Type)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Dimension\n", ph.Dim)
	fmt.Fprintf(w, "[%s]\t\t= Flux Type\n", ph.ConvFluxNumerical)
	fmt.Fprintf(w, "[%s]\t\t\t= Time Stepper\n", ts.TimeStepper)
	if len(ts.OperatorSplittingExplicit) != 0 {
		fmt.Fprintf(w, "[%s, %s]\t\t= Splitting Steppers\n", ts.OperatorSplittingExplicit, ts.OperatorSplittingImplicit)
	}
	fmt.Fprintf(w, "%8.5f\t\t= FinalTime\n", ts.FinalTime)
	switch {
	case ts.NumTimeSteps > 0:
		fmt.Fprintf(w, "[%d]\t\t\t\t= NumTimeSteps\n", ts.NumTimeSteps)
	case ts.TimeStepSize > 0:
		fmt.Fprintf(w, "%8.5f\t\t= TimeStepSize\n", ts.TimeStepSize)
	default:
		fmt.Fprintf(w, "%8.5f\t\t= CFL\n", ts.CFL)
	}
	fmt.Fprintf(w, "[%d]\t\t\t\t= Polynomial Order\n", nm.SolutionOrder)
	fmt.Fprintf(w, "[%s]\t\t= Basis\n", nm.SolutionBasis)
	fmt.Fprintf(w, "[%s]\t= InitialCondition\n", ip.InitialCondition.Function)
	keys := make([]string, 0, len(ip.BoundaryConditions))
	for k := range ip.BoundaryConditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		bc := ip.BoundaryConditions[key]
		fmt.Fprintf(w, "BCs[%s] = %s %v\n", key, bc.BCType, bc.Params)
	}
	for _, src := range ip.SourceTerms {
		fmt.Fprintf(w, "Source = %s %v\n", src.Source, src.Params)
	}
}
