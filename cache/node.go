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
	"sync/atomic"
)

// node is the Cache's private wrapper around an Entry. It carries the
// bookkeeping spec.md assigns to Entry itself (cache back-reference,
// lru_seq, should_persist) plus the strong-handle refcount, none of which
// the Entry interface exposes to callers.
//
// refs is set to 1 by Write before the node is published and is otherwise
// mutated only while the owning Cache's indexMu is held, which is why a
// plain int is safe here instead of an atomic.
type node struct {
	entry Entry

	// owner is the Cache that created this node. Unlike cache below, it is
	// set once and never cleared — it's what lets a Handle find its way
	// back to release/destroy logic even after the node has been detached.
	owner *Cache

	// cache is nil once the entry has been detached, either by reserve
	// (eviction) or by Close (shutdown). A detached node never re-enters
	// the unused pool, but it can still be destroyed once its last Handle
	// closes — see Cache.release.
	cache atomic.Pointer[Cache]

	lruSeq        int64
	inUnused      bool
	shouldPersist bool
	refs          int
}

// Handle is the caller-visible strong reference the spec calls Strong<Entry>.
// Dropping the last Handle to an entry returns it to the Cache's unused pool
// (resurrection) unless the entry has already been detached.
type Handle struct {
	n      *node
	closed atomic.Bool
}

// Entry returns the underlying cache entry. Valid until Close.
func (h *Handle) Entry() Entry {
	return h.n.entry
}

// Close releases this strong reference. It is safe to call more than once;
// only the first call has an effect. This always reaches Cache.release,
// even if the node has already been detached (evicted, or its Cache
// closed) — a detached node can still be holding its last reference here,
// and that reference still has to cross zero and destroy it.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	return h.n.owner.release(h.n)
}
