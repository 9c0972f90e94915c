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

// Package pathutil resolves the cache's storage root the way a snap or deb
// install of this module would, so cache.New has a usable default for the
// resolve_data_path function spec.md treats as an opaque injected
// collaborator.
package pathutil

import (
	"os"
	"path/filepath"
)

const defaultCacheDir = "/var/cache/filecache"

// CachePath returns the cache root (snap or deb) with the given relative
// path appended.
func CachePath(path string) string {
	path = filepath.Clean(path)

	base := defaultCacheDir
	if snapCommon := os.Getenv("SNAP_COMMON"); snapCommon != "" {
		base = filepath.Join(filepath.Clean(snapCommon), defaultCacheDir)
	}

	return filepath.Join(base, path)
}

// CacheDir returns the root cache directory (snap or deb).
func CacheDir() string {
	return CachePath("")
}
