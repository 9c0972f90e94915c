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

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := "/cache/manifest"

	require.NoError(t, fs.MkdirAll("/cache", 0750))
	require.NoError(t, writeManifest(fs, path, []string{"a", "b", "c"}))

	retained, err := readManifest(fs, path)
	require.NoError(t, err)

	assert.Equal(t, map[string]struct{}{
		"a": {},
		"b": {},
		"c": {},
	}, retained)
}

func TestManifestMissingIsNotExist(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	_, err := readManifest(fs, "/cache/manifest")
	assert.True(t, os.IsNotExist(err))
}

func TestManifestWhitespaceTokenized(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := "/cache/manifest"

	require.NoError(t, fs.MkdirAll("/cache", 0750))
	require.NoError(t, afero.WriteFile(fs, path, []byte("a b\n  c  \n\nd\n"), 0640))

	retained, err := readManifest(fs, path)
	require.NoError(t, err)

	assert.Equal(t, map[string]struct{}{
		"a": {}, "b": {}, "c": {}, "d": {},
	}, retained)
}

func TestManifestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := afero.NewOsFs()
	path := filepath.Join(dir, manifestName)

	require.NoError(t, writeManifest(fs, path, []string{"a"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, manifestName, entries[0].Name())
}
