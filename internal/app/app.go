// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package app is the microdata command line interface.
package app

import (
	"flag"
	"io"
	"os"

	"github.com/cristalhq/acmd"

	"codeberg.org/readeck/microdata/internal/config"
)

var commands = []acmd.Command{}

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type appFlags struct {
	ConfigFile string
	config     *config.Config
}

// Flags returns a new [flag.FlagSet] with the common flags.
func (f *appFlags) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.ConfigFile, "config", "", "configuration file path")
	fs.StringVar(&f.ConfigFile, "c", "", "configuration file path (shorthand)")

	return fs
}

// appPreRun loads the configuration and sets the logger up.
func appPreRun(flags *appFlags) error {
	cf, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	flags.config = cf
	initLogger(cf.Log, stderr)
	return nil
}

// Run starts the command line interface.
func Run() error {
	return acmd.RunnerOf(commands, acmd.Config{
		AppName:        "microdata",
		AppDescription: "Extract HTML microdata as JSON",
		Version:        config.Version,
	}).Run()
}
