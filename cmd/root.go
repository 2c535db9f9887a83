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
	"fmt"
	"log/slog"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dgflow",
	Short: "Discontinuous Galerkin solver for conservation laws",
	Long: `
Discontinuous Galerkin discretizations of scalar advection, Burgers and the Euler
equations, with explicit, ADER and operator splitting time steppers.

dgflow run -I case.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetBool("verbose"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var stopper interface{ Stop() }
	cobra.OnInitialize(func() {
		switch viper.GetString("profile") {
		case "cpu":
			stopper = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		case "mem":
			stopper = profile.Start(profile.MemProfile, profile.ProfilePath("."))
		}
	})
	err := rootCmd.Execute()
	if stopper != nil {
		stopper.Stop()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dgflow.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug level logging")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile to the working directory")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".dgflow")
	}
	viper.SetEnvPrefix("dgflow")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
