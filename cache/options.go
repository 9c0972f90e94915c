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
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithLogger overrides the default global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithFilesystem injects the afero.Fs used for all directory and file
// operations. Defaults to afero.NewOsFs(). Tests typically pass
// afero.NewMemMapFs().
func WithFilesystem(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithUnusedMaxSize sets the initial unused-pool byte ceiling, clamped to
// MaxUnusedMaxSize.
func WithUnusedMaxSize(n int64) Option {
	return func(c *Cache) {
		c.unusedMax.Store(clampMaxSize(n))
	}
}

// WithOfflineMaxSize sets the initial offline (persist-across-restart) byte
// ceiling, clamped to MaxUnusedMaxSize.
func WithOfflineMaxSize(n int64) Option {
	return func(c *Cache) {
		c.offlineMax.Store(clampMaxSize(n))
	}
}

// WithCreateEntry overrides the factory hook used to construct Entry values
// from (key, filepath, length, extra). Defaults to a plain Entry.
func WithCreateEntry(fn CreateEntryFunc) Option {
	return func(c *Cache) {
		c.createEntry = fn
	}
}

// WithEvicted sets the observer hook invoked after an entry is evicted by
// reserve, before its file is unlinked. Defaults to a no-op.
func WithEvicted(fn EvictedFunc) Option {
	return func(c *Cache) {
		c.evicted = fn
	}
}

// WithDirty sets the callback invoked after state-changing operations. The
// spec treats this as a hint, not a transaction boundary: callbacks may be
// coalesced or reordered relative to each other. Defaults to a no-op.
func WithDirty(fn func()) Option {
	return func(c *Cache) {
		c.dirty = fn
	}
}

// WithIndexCapacityHint sets the starting capacity of the internal unused
// pool's backing store. Normally only needed in tests exercising growth.
func WithIndexCapacityHint(n int64) Option {
	return func(c *Cache) {
		c.unusedCap.Store(n)
	}
}
