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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/dgflow/InputParameters"
	"github.com/notargets/dgflow/driver"
)

const exampleFile = `
########################################
Title: "Sod Shock Tube"
TimeStepping:
  FinalTime: 0.2
  CFL: 0.5
  TimeStepper: SSPRK3
Numerics:
  SolutionOrder: 1
  ApplyLimiters: PositivityPreserving
Mesh:
  NumElemsX: 200
Physics:
  Type: Euler
  ConvFluxNumerical: HLLC
  GasConstant: 1
InitialCondition:
  Function: RiemannProblem
  Params: {xd: 0.5}
BoundaryConditions:
  x1: {BCType: Extrapolate}
  x2: {BCType: Extrapolate}
########################################
`

// RunCmd solves the case described by an input parameters file
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve the case described by a YAML input parameters file",
	Long:  `Solve the case described by a YAML input parameters file` + "\n\nExample File:" + exampleFile,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			icFile, _ = cmd.Flags().GetString("inputConditionsFile")
			ip        *InputParameters.InputParameters
		)
		if ip, err = processInput(icFile); err != nil {
			return
		}
		ip.Print(cmd.OutOrStdout())
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runCase(ctx, ip, viper.GetString("metrics-addr"))
	},
}

func processInput(icFile string) (ip *InputParameters.InputParameters, err error) {
	if len(icFile) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), for example:%s", exampleFile)
	}
	var data []byte
	if data, err = os.ReadFile(icFile); err != nil {
		return
	}
	ip = InputParameters.NewInputParameters()
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", icFile, err)
	}
	return
}

func runCase(ctx context.Context, ip *InputParameters.InputParameters, metricsAddr string) (err error) {
	var c *driver.Case
	if c, err = driver.Build(ip); err != nil {
		return
	}
	if len(metricsAddr) != 0 {
		srv := serveMetrics(metricsAddr, c.Solver.Registry)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}
	return c.Run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	RunCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address while solving, e.g. :9090")
	_ = viper.BindPFlag("metrics-addr", RunCmd.Flags().Lookup("metrics-addr"))
}
