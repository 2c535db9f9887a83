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
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/notargets/dgflow/InputParameters"
	"github.com/notargets/dgflow/driver"
)

// ConvergenceCmd runs a mesh refinement study of a case with an exact solution
var ConvergenceCmd = &cobra.Command{
	Use:   "convergence",
	Short: "Mesh refinement study against the ExactSolution of an input parameters file",
	Long: `
Runs the case once per element count and writes a CSV table of the L2 error and the
observed order of accuracy of each state variable,

dgflow convergence -I case.yaml -K 8,16,32,64`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			icFile, _ = cmd.Flags().GetString("inputConditionsFile")
			Ks, _     = cmd.Flags().GetIntSlice("elements")
			ip        *InputParameters.InputParameters
			cs        *driver.ConvergenceStudy
		)
		if ip, err = processInput(icFile); err != nil {
			return
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if cs, err = driver.Convergence(ctx, ip, Ks); err != nil {
			return
		}
		return cs.WriteCSV(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(ConvergenceCmd)
	ConvergenceCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters, with an ExactSolution")
	ConvergenceCmd.Flags().IntSliceP("elements", "K", []int{8, 16, 32}, "element counts of the refinement sequence")
}
