// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package cli implements cachectl's subcommands.
package cli

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"maas.io/core/src/filecache/internal/config"
)

// RootCmd builds cachectl's root command and wires in its subcommands.
func RootCmd(ctx context.Context) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "cachectl",
		Short: "Inspect and operate a filecache cache directory.",
		// Silence because main prints the returned error itself.
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to cachectl's YAML config file")
	cmd.PersistentFlags().BoolP("help", "h", false, "Help information about a command")

	loadConfig := func() (*config.Config, error) {
		if configFile == "" {
			return config.Default(), nil
		}

		return config.Load(afero.NewOsFs(), configFile)
	}

	cmd.AddCommand(statsCmd(ctx, loadConfig))
	cmd.AddCommand(gcCmd(ctx, loadConfig))

	cmd.InitDefaultHelpCmd()

	return cmd
}
