// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/debtlens/internal/errors"
	"github.com/kraklabs/debtlens/pkg/config"
)

// runConfigCmd implements `debtlens config`: prints the effective
// configuration (defaults merged with any --config file) as YAML or JSON.
func runConfigCmd(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			errors.FatalError(errors.NewConfigError(
				"Cannot load configuration",
				err.Error(),
				"Check the --config path, or omit it to use defaults",
				err,
			), globals.JSON)
		}
		cfg = loaded
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(cfg)
		return
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot render configuration",
			err.Error(),
			"This is a bug; please report it",
			err,
		), globals.JSON)
	}
	fmt.Print(string(out))
}
