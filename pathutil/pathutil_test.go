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

package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCachePath(t *testing.T) {
	testcases := map[string]struct {
		setup func(t *testing.T)
		in    string
		out   string
	}{
		"snap": {
			setup: func(t *testing.T) { t.Setenv("SNAP_COMMON", "/var/snap/filecache/common") },
			in:    "foo",
			out:   "/var/snap/filecache/common/var/cache/filecache/foo",
		},
		"deb": {
			setup: func(t *testing.T) { t.Setenv("SNAP_COMMON", "") },
			in:    "foo",
			out:   "/var/cache/filecache/foo",
		},
		"clean input path": {
			setup: func(t *testing.T) { t.Setenv("SNAP_COMMON", "") },
			in:    "bar/../baz",
			out:   "/var/cache/filecache/baz",
		},
		"empty input path": {
			setup: func(t *testing.T) { t.Setenv("SNAP_COMMON", "") },
			in:    "",
			out:   "/var/cache/filecache",
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			tc.setup(t)
			assert.Equal(t, tc.out, CachePath(tc.in))
		})
	}
}

func TestCacheDir(t *testing.T) {
	t.Run("snap", func(t *testing.T) {
		t.Setenv("SNAP_COMMON", "/var/snap/filecache/common")
		assert.Equal(t, "/var/snap/filecache/common/var/cache/filecache", CacheDir())
	})

	t.Run("deb", func(t *testing.T) {
		t.Setenv("SNAP_COMMON", "")
		assert.Equal(t, "/var/cache/filecache", CacheDir())
	})
}
