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

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"maas.io/core/src/filecache/cache"
	"maas.io/core/src/filecache/internal/config"
)

func statsCmd(ctx context.Context, loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Print cache directory counters.",
		Example:      "cachectl stats",
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

			defer c.Close()

			s := c.Stats()

			fmt.Fprintf(cmd.OutOrStdout(), "dir:            %s\n", cfg.Dir)
			fmt.Fprintf(cmd.OutOrStdout(), "total_files:    %d\n", s.TotalFiles)
			fmt.Fprintf(cmd.OutOrStdout(), "total_size:     %s\n", humanize.Bytes(uint64(s.TotalSize)))
			fmt.Fprintf(cmd.OutOrStdout(), "unused_files:   %d\n", s.UnusedFiles)
			fmt.Fprintf(cmd.OutOrStdout(), "unused_size:    %s / %s\n",
				humanize.Bytes(uint64(s.UnusedSize)), humanize.Bytes(uint64(s.UnusedMax)))
			fmt.Fprintf(cmd.OutOrStdout(), "offline_max:    %s\n", humanize.Bytes(uint64(s.OfflineMax)))
			fmt.Fprintf(cmd.OutOrStdout(), "hits/misses:    %d/%d\n", s.Hits, s.Misses)

			return nil
		},
	}

	return cmd
}
