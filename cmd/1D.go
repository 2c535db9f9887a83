/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/dgflow/InputParameters"
)

// OneDCmd represents the 1D command
var OneDCmd = &cobra.Command{
	Use:   "1D",
	Short: "One Dimensional Model Problem Solutions",
	Long: `
Executes the Discontinuous Galerkin solver for a variety of built in model problems,

dgflow 1D -m 2 -c 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m1d := &Model1D{}
		mr, _ := cmd.Flags().GetInt("model")
		m1d.ModelRun = ModelType1D(mr)
		m1d.Case, _ = cmd.Flags().GetInt("case")
		m1d.FinalTime, _ = cmd.Flags().GetFloat64("finalTime")
		m1d.CFL, _ = cmd.Flags().GetFloat64("CFL")
		m1d.N, _ = cmd.Flags().GetInt("n")
		m1d.K, _ = cmd.Flags().GetInt("k")
		m1d.Stepper, _ = cmd.Flags().GetString("stepper")
		ip, err := m1d.InputParameters()
		if err != nil {
			return err
		}
		ip.Print(cmd.OutOrStdout())
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runCase(ctx, ip, viper.GetString("metrics-addr"))
	},
}

func init() {
	rootCmd.AddCommand(OneDCmd)
	var (
		ModelRun             = M_1DEuler
		CFL, FinalTime, N, K = Defaults(ModelRun)
	)
	OneDCmd.Flags().IntP("model", "m", int(ModelRun), "model to run: 0 = Advect1D, 1 = Burgers1D, 2 = Euler1D")
	OneDCmd.Flags().IntP("k", "k", K, "Number of elements in model")
	OneDCmd.Flags().IntP("n", "n", N, "polynomial degree")
	OneDCmd.Flags().IntP("case", "c", 0, "Case to run, for Euler: 0 = SOD Shock Tube, 1 = Density Wave")
	OneDCmd.Flags().Float64("CFL", CFL, "CFL - increase for speedup, decrease for stability")
	OneDCmd.Flags().Float64("finalTime", FinalTime, "FinalTime - the target end time for the sim")
	OneDCmd.Flags().String("stepper", "SSPRK3", "time stepper: FE, RK4, LSRK4, SSPRK3 or ADER")
}

type Model1D struct {
	K, N           int // Number of elements, Polynomial Degree
	ModelRun       ModelType1D
	CFL, FinalTime float64
	Case           int
	Stepper        string
}

type ModelType1D uint8

const (
	M_1DAdvect ModelType1D = iota
	M_1DBurgers
	M_1DEuler
)

var (
	max_CFL       = []float64{1, 1, 1}
	def_K         = []int{20, 40, 200}
	def_N         = []int{3, 2, 1}
	def_CFL       = []float64{0.8, 0.5, 0.5}
	def_FinalTime = []float64{1, 0.1, 0.2}
)

// InputParameters builds the parameters of the selected model problem
func (m1d *Model1D) InputParameters() (ip *InputParameters.InputParameters, err error) {
	if int(m1d.ModelRun) >= len(def_K) {
		return nil, fmt.Errorf("unknown model %d", m1d.ModelRun)
	}
	ip = InputParameters.NewInputParameters()
	ip.TimeStepping.FinalTime = m1d.FinalTime
	ip.TimeStepping.CFL = LimitCFL(m1d.ModelRun, m1d.CFL)
	ip.TimeStepping.TimeStepper = m1d.Stepper
	ip.Numerics.SolutionOrder = m1d.N
	ip.Mesh.NumElemsX = m1d.K
	ip.Output.LogInterval = 100
	extrapolate := map[string]InputParameters.BoundarySpec{
		"x1": {BCType: "Extrapolate"},
		"x2": {BCType: "Extrapolate"},
	}
	switch m1d.ModelRun {
	case M_1DAdvect:
		ip.Title = "Advection of a sine wave"
		ip.Physics.Type = "ConstAdvScalar"
		ip.Mesh.PeriodicX = true
		ip.InitialCondition.Function = "Sine"
		ip.ExactSolution = &InputParameters.FunctionSpec{Function: "Sine"}
	case M_1DBurgers:
		ip.Title = "Burgers steepening sine wave"
		ip.Physics.Type = "Burgers1D"
		ip.Mesh.PeriodicX = true
		ip.InitialCondition.Function = "Sine"
	case M_1DEuler:
		ip.Physics.Type = "Euler"
		ip.Physics.ConvFluxNumerical = "HLLC"
		ip.Physics.GasConstant = 1
		ip.Numerics.ApplyLimiters = "PositivityPreserving"
		switch m1d.Case {
		case 1:
			ip.Title = "Density Wave"
			ip.Mesh.PeriodicX = true
			ip.InitialCondition.Function = "DensityWave"
			ip.ExactSolution = &InputParameters.FunctionSpec{Function: "DensityWave"}
		default:
			ip.Title = "SOD Shock Tube"
			ip.InitialCondition = InputParameters.FunctionSpec{
				Function: "RiemannProblem",
				Params:   map[string]float64{"xd": 0.5},
			}
			ip.BoundaryConditions = extrapolate
		}
	}
	return ip, ip.Validate()
}

func LimitCFL(model ModelType1D, CFL float64) (CFLNew float64) {
	CFLMax := max_CFL[model]
	if CFL > CFLMax {
		slog.Warn("Input CFL is higher than max CFL for this method, replacing with max CFL", "CFL", CFL, "max", CFLMax)
		return CFLMax
	}
	return CFL
}

func Defaults(model ModelType1D) (CFL, FinalTime float64, N, K int) {
	return def_CFL[model], def_FinalTime[model], def_N[model], def_K[model]
}
