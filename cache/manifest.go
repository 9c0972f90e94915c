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
	"bufio"
	"bytes"
	"strings"

	"github.com/spf13/afero"

	"maas.io/core/src/filecache/atomicfile"
)

const manifestName = "manifest"

// readManifest returns the set of keys retained across the previous
// shutdown. A missing manifest is reported via afero's not-exist error;
// callers treat that as "directory is entirely stale" per spec.md §4.1.
func readManifest(fs afero.Fs, path string) (map[string]struct{}, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	retained := map[string]struct{}{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			retained[tok] = struct{}{}
		}
	}

	return retained, scanner.Err()
}

// writeManifest atomically (over)writes the manifest file with one key per
// line, in the given order.
func writeManifest(fs afero.Fs, path string, keys []string) error {
	var buf bytes.Buffer

	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('\n')
	}

	return atomicfile.WriteFile(fs, path, buf.Bytes(), 0640)
}
