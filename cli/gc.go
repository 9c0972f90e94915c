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

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"maas.io/core/src/filecache/cache"
	"maas.io/core/src/filecache/internal/config"
)

func gcCmd(ctx context.Context, loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gc",
		Short:        "Force an immediate unused_max eviction sweep.",
		Example:      "cachectl gc",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			c, err := cache.New(cfg.Dir, cfg.Ext, nil,
				cache.WithUnusedMaxSize(cfg.UnusedMaxSize.Bytes),
				cache.WithOfflineMaxSize(cfg.OfflineMaxSize.Bytes))
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}

			before := c.Stats()

			if err := c.Reserve(); err != nil {
				c.Close()
				return fmt.Errorf("reserve: %w", err)
			}

			after := c.Stats()

			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d files, freed %d bytes\n",
				before.UnusedFiles-after.UnusedFiles, before.UnusedSize-after.UnusedSize)

			return c.Close()
		},
	}

	return cmd
}
