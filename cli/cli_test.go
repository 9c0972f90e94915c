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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maas.io/core/src/filecache/internal/config"
)

func run(t *testing.T, loadConfig func() (*config.Config, error), args ...string) string {
	t.Helper()

	out := &bytes.Buffer{}

	cmd := statsCmd(context.Background(), loadConfig)
	if len(args) > 0 && args[0] == "gc" {
		cmd = gcCmd(context.Background(), loadConfig)
	}

	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args[1:])

	require.NoError(t, cmd.Execute())

	return out.String()
}

func testConfig(dir string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			Dir:            dir,
			Ext:            "bin",
			UnusedMaxSize:  config.ByteSize{Bytes: 100},
			OfflineMaxSize: config.ByteSize{Bytes: 100},
		}, nil
	}
}

func TestStatsCmdPrintsCounters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	out := run(t, testConfig(dir), "stats")

	assert.Contains(t, out, "dir:")
	assert.Contains(t, out, dir)
	assert.Contains(t, out, "total_files:")
	assert.Contains(t, out, "hits/misses:")
}

func TestGcCmdReportsEviction(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	out := run(t, testConfig(dir), "gc")

	assert.Contains(t, out, "evicted")
	assert.Contains(t, out, "freed")
}

func TestStatsCmdLoadConfigFailure(t *testing.T) {
	loadConfig := func() (*config.Config, error) {
		return nil, assert.AnError
	}

	cmd := statsCmd(context.Background(), loadConfig)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.Error(t, err)
}
