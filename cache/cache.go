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

// Package cache implements a persistent, on-disk, file-backed cache with
// in-memory indexing, size-bounded LRU eviction, and resurrection-on-release
// semantics: dropping the last strong Handle to an Entry does not destroy
// it, it reinstates the Entry into an unused pool, which is only evicted
// once its own byte ceiling is exceeded. A curated subset of the unused pool
// survives a graceful shutdown via a manifest file.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	Kilobyte = 1 << 10
	Megabyte = 1 << 20
	Gigabyte = 1 << 30

	// DefaultMaxSize is the unused_max / offline_max ceiling a Cache starts
	// with when no WithUnusedMaxSize/WithOfflineMaxSize option is given.
	DefaultMaxSize = 512 * Megabyte

	// MaxUnusedMaxSize is the absolute ceiling unused_files_max_size and
	// offline_files_max_size are clamped to (spec.md §6).
	MaxUnusedMaxSize = 64 * Gigabyte

	initialUnusedCap = 64
)

func clampMaxSize(n int64) int64 {
	if n < 0 {
		return 0
	}

	if n > MaxUnusedMaxSize {
		return MaxUnusedMaxSize
	}

	return n
}

type cacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Cache is a keyed store mapping a Key to at most one live Entry. It owns
// the backing directory, the in-memory index, the unused-entry LRU pool,
// and the counters and synchronization described in spec.md §3 and §5.
type Cache struct {
	dir string
	ext string
	fs  afero.Fs

	logger      zerolog.Logger
	createEntry CreateEntryFunc
	evicted     EvictedFunc
	dirty       func()

	// indexMu guards index, writing, totalFiles, totalSize, and node.refs
	// for every node reachable from index.
	indexMu sync.Mutex
	index   map[string]*node
	writing map[string]struct{}

	totalFiles atomic.Int64
	totalSize  atomic.Int64

	// unusedMu guards unused, unusedCap, unusedFiles, unusedSize, lastSeq,
	// and node.inUnused/node.lruSeq for every node currently in unused.
	//
	// Lock order when both are held: indexMu before unusedMu. reserve needs
	// the opposite order and therefore never holds both at once — see
	// reserve's comment and DESIGN.md.
	unusedMu    sync.Mutex
	unused      *lru.Cache[int64, *node]
	unusedCap   atomic.Int64
	unusedFiles atomic.Int64
	unusedSize  atomic.Int64
	lastSeq     atomic.Int64

	unusedMax  atomic.Int64
	offlineMax atomic.Int64

	stats cacheStats

	closed atomic.Bool
}

// New constructs a Cache rooted at resolveDataPath(dirname). resolveDataPath
// is the spec's injected storage-root resolver; pathutil.CachePath is the
// default a standalone process should pass. If dir does not exist it is
// created; if it exists, its manifest (if any) is consulted and every file
// not listed in it is removed (spec.md §4.1).
func New(dirname, ext string, resolveDataPath func(string) string, opts ...Option) (*Cache, error) {
	if dirname == "" {
		return nil, ErrMissingCacheDir
	}

	if resolveDataPath == nil {
		resolveDataPath = func(s string) string { return s }
	}

	c := &Cache{
		dir:         resolveDataPath(dirname),
		ext:         strings.TrimPrefix(ext, "."),
		fs:          afero.NewOsFs(),
		logger:      log.Logger,
		createEntry: defaultCreateEntry,
		evicted:     func(Entry) {},
		dirty:       func() {},
		index:       map[string]*node{},
		writing:     map[string]struct{}{},
	}
	c.unusedMax.Store(DefaultMaxSize)
	c.offlineMax.Store(DefaultMaxSize)
	c.unusedCap.Store(initialUnusedCap)

	for _, opt := range opts {
		opt(c)
	}

	unused, err := lru.New[int64, *node](int(c.unusedCap.Load()))
	if err != nil {
		return nil, err
	}

	c.unused = unused

	if err := c.bootstrap(); err != nil {
		return nil, err
	}

	return c, nil
}

// bootstrap implements the directory-creation-or-stale-sweep half of
// spec.md §4.1's "Construction and directory bootstrap". It deliberately
// does not populate index from surviving files (spec.md §9, "Bootstrap
// indexing gap" — see DESIGN.md decision 3).
func (c *Cache) bootstrap() error {
	info, err := c.fs.Stat(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.fs.MkdirAll(c.dir, 0750)
		}

		return err
	}

	if !info.IsDir() {
		return ErrNotADirectory
	}

	manifestPath := filepath.Join(c.dir, manifestName)

	retained, err := readManifest(c.fs, manifestPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		c.logger.Warn().Str("dir", c.dir).Msg("no manifest found, treating cache directory as stale")

		retained = map[string]struct{}{}
	}

	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return err
	}

	suffix := "." + c.ext

	for _, fi := range entries {
		name := fi.Name()
		if name == manifestName || fi.IsDir() {
			continue
		}

		key := strings.TrimSuffix(name, suffix)
		if _, ok := retained[key]; ok {
			continue
		}

		if err := c.fs.Remove(filepath.Join(c.dir, name)); err != nil {
			c.logger.Warn().Err(err).Str("file", name).Msg("failed to remove stale cache file")
		}
	}

	return nil
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}

	return nil
}

// Write stores length bytes read from r under key and returns a strong
// handle to the resulting Entry. If key already resolves to a live Entry,
// the write is refused (a warning is logged) and the existing handle is
// returned instead — this is not an error (spec.md §7).
func (c *Cache) Write(key string, r io.Reader, length int64, extra any) (*Handle, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	if err := validateKey(key); err != nil {
		return nil, err
	}

	if length < 0 {
		return nil, ErrNegativeSize
	}

	c.indexMu.Lock()

	if existing, ok := c.index[key]; ok {
		h, changed := c.acquireLocked(existing)
		c.indexMu.Unlock()

		c.logger.Warn().Str("key", key).Msg("write refused: key already exists")

		if changed {
			c.emitDirty()
		}

		return h, nil
	}

	if _, ok := c.writing[key]; ok {
		c.indexMu.Unlock()
		return nil, ErrWriteInProgress
	}

	c.writing[key] = struct{}{}
	c.indexMu.Unlock()

	defer func() {
		c.indexMu.Lock()
		delete(c.writing, key)
		c.indexMu.Unlock()
	}()

	filePath := filepath.Join(c.dir, key+"."+c.ext)

	// O_TRUNC, not O_EXCL: a key's file can survive a restart unindexed
	// (bootstrap doesn't pre-index, see DESIGN.md), and a Write for that key
	// must still succeed by overwriting it, matching the original's
	// unconditional fopen(path, "wb").
	//nolint:gosec // key is validated above and ext is configuration, not attacker input
	f, err := c.fs.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to create cache file")
		return nil, fmt.Errorf("create cache file: %w", err)
	}

	written, copyErr := io.CopyN(f, r, length)
	if errors.Is(copyErr, io.EOF) {
		copyErr = nil
	}

	syncErr := f.Sync()
	closeErr := f.Close()

	if err := errors.Join(copyErr, syncErr, closeErr); err != nil || written != length {
		if err == nil {
			err = fmt.Errorf("short write: %d of %d bytes", written, length)
		}

		c.logger.Warn().Err(err).Str("key", key).Msg("failed to write cache file")

		if rmErr := c.fs.Remove(filePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.logger.Warn().Err(rmErr).Str("key", key).Msg("failed to clean up partial cache file")
		}

		return nil, fmt.Errorf("write cache file: %w", err)
	}

	entry := c.createEntry(key, filePath, length, extra)
	n := &node{entry: entry, owner: c, refs: 1}
	n.cache.Store(c)

	c.indexMu.Lock()
	c.index[key] = n
	c.totalFiles.Add(1)
	c.totalSize.Add(length)
	c.indexMu.Unlock()

	c.emitDirty()

	c.logger.Info().Str("key", key).Int64("bytes", length).Msg("wrote cache file")

	return &Handle{n: n}, nil
}

// Get returns a strong handle to the Entry stored under key, lifting it out
// of the unused pool if necessary. It returns ErrKeyDoesntExist if key is
// not indexed.
func (c *Cache) Get(key string) (*Handle, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	if err := validateKey(key); err != nil {
		return nil, err
	}

	c.indexMu.Lock()

	n, ok := c.index[key]
	if !ok {
		c.indexMu.Unlock()
		c.stats.misses.Add(1)

		return nil, ErrKeyDoesntExist
	}

	h, changed := c.acquireLocked(n)
	c.indexMu.Unlock()

	c.stats.hits.Add(1)

	c.logger.Info().Str("key", key).Msg("cache hit")

	if changed {
		c.emitDirty()
	}

	return h, nil
}

// acquireLocked promotes n to in-use, lifting it out of the unused pool if
// it was there, and increments its refcount. Caller must hold indexMu.
// Returns whether the entry's pool membership actually changed (used to
// decide whether to emit dirty).
func (c *Cache) acquireLocked(n *node) (*Handle, bool) {
	changed := false

	c.unusedMu.Lock()
	if n.inUnused {
		c.unused.Remove(n.lruSeq)
		n.inUnused = false
		c.unusedFiles.Add(-1)
		c.unusedSize.Add(-n.entry.Length())
		changed = true
	}
	c.unusedMu.Unlock()

	n.refs++

	return &Handle{n: n}, changed
}

// release is invoked by every Handle.Close and drops one reference to the
// underlying node; it does nothing more while other references remain. Once
// the last one is gone: if the node is still attached to this Cache, it resurrects into the unused pool (spec.md §4.1 "release");
// otherwise the Cache has already detached it (eviction or shutdown) and
// the entry is destroyed for real.
func (c *Cache) release(n *node) error {
	c.indexMu.Lock()
	n.refs--
	refs := n.refs
	attached := n.cache.Load() != nil
	c.indexMu.Unlock()

	if refs > 0 {
		return nil
	}

	if !attached {
		return c.destroy(n)
	}

	return c.addUnused(n)
}

// addUnused implements spec.md §4.1's add_unused: reinstall the index
// entry, assign a fresh lru_seq, insert into the unused pool, and enforce
// unused_max via reserve.
func (c *Cache) addUnused(n *node) error {
	c.indexMu.Lock()
	c.index[n.entry.Key()] = n
	c.indexMu.Unlock()

	c.unusedMu.Lock()
	seq := c.lastSeq.Add(1)
	n.lruSeq = seq
	n.inUnused = true
	c.growUnusedIfNeeded()
	c.unused.Add(seq, n)
	c.unusedFiles.Add(1)
	c.unusedSize.Add(n.entry.Length())
	c.unusedMu.Unlock()

	c.emitDirty()

	c.logger.Info().Str("key", n.entry.Key()).Int64("bytes", n.entry.Length()).Msg("entry returned to unused pool")

	return c.reserve(0)
}

// growUnusedIfNeeded extends the unused pool's backing LRU so its own
// automatic capacity-based eviction never fires; reserve is the only thing
// allowed to evict. Caller must hold unusedMu.
func (c *Cache) growUnusedIfNeeded() {
	if int64(c.unused.Len())+1 > c.unusedCap.Load() {
		c.unusedCap.Add(c.unusedCap.Load())
		c.unused.Resize(int(c.unusedCap.Load()))
	}
}

// reserve implements spec.md §4.1's reserve: while the unused pool would
// exceed unusedMax (after accounting for incoming bytes not yet added to
// it), evict the LRU-oldest entry.
//
// The prose in spec.md describes erasing the unused slot only after
// reacquiring the unused lock in step 3; this implementation instead
// removes the chosen entry from the pool before releasing unusedMu to
// acquire indexMu, so two concurrent reserve calls can never pick the same
// oldest entry (see DESIGN.md) — in every other respect the two mutexes are
// still never held simultaneously, matching the mandatory lock-order rule.
func (c *Cache) reserve(incoming int64) error {
	for {
		c.unusedMu.Lock()

		if c.unused.Len() == 0 || c.unusedSize.Load()+incoming <= c.unusedMax.Load() {
			c.unusedMu.Unlock()
			return nil
		}

		seq, n, ok := c.unused.GetOldest()
		if !ok {
			c.unusedMu.Unlock()
			return nil
		}

		c.unused.Remove(seq)
		n.inUnused = false
		c.unusedFiles.Add(-1)
		c.unusedSize.Add(-n.entry.Length())
		c.unusedMu.Unlock()

		c.indexMu.Lock()
		n.cache.Store(nil)
		delete(c.index, n.entry.Key())
		c.totalFiles.Add(-1)
		c.totalSize.Add(-n.entry.Length())
		c.indexMu.Unlock()

		c.evicted(n.entry)

		c.logger.Info().Str("key", n.entry.Key()).Int64("bytes", n.entry.Length()).Msg("evicted cache entry")

		// n.refs is 0 here: it was unused, so only the pool (which we just
		// removed it from) held a strong reference. Destroying it now is
		// the Go rendering of "the strong handle is finally released".
		_ = c.destroy(n)

		c.emitDirty()
	}
}

// destroy unlinks n's on-disk file unless should_persist is set. Per
// spec.md §7, unlink failures are not reported — the destructor swallows
// them.
func (c *Cache) destroy(n *node) error {
	if n.shouldPersist {
		return nil
	}

	//nolint:errcheck // unlink failures are intentionally unreported, see spec.md §7
	c.fs.Remove(n.entry.Filepath())

	return nil
}

// SetUnusedMaxSize updates the unused-pool byte ceiling, clamps it to
// MaxUnusedMaxSize, and immediately enforces it via reserve.
func (c *Cache) SetUnusedMaxSize(n int64) error {
	c.unusedMax.Store(clampMaxSize(n))

	if err := c.reserve(0); err != nil {
		return err
	}

	c.emitDirty()

	return nil
}

// SetOfflineMaxSize updates the byte ceiling applied when selecting which
// unused entries survive Close. It has no immediate effect.
func (c *Cache) SetOfflineMaxSize(n int64) {
	c.offlineMax.Store(clampMaxSize(n))
}

// Close implements spec.md §4.1's clear(): it walks the unused pool
// oldest-first and keeps each entry whose length still fits within
// offlineMax together with the entries already kept (an entry that does not
// fit is skipped and the walk goes on), persists those files by writing the
// manifest, detaches every other live entry (their
// files are removed once their last external handle, if any, drops), and
// marks the Cache closed. See DESIGN.md decision 2 for why the selection
// here follows §8's worked example S4 rather than §4.1's prose literally.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	manifestPath := filepath.Join(c.dir, manifestName)

	c.unusedMu.Lock()

	seqs := c.unused.Keys()
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	var (
		running  int64
		retained []string
		toDrop   []*node
	)

	for _, seq := range seqs {
		n, ok := c.unused.Peek(seq)
		if !ok {
			continue
		}

		n.cache.Store(nil)
		n.inUnused = false

		if running+n.entry.Length() <= c.offlineMax.Load() {
			running += n.entry.Length()
			n.shouldPersist = true
			retained = append(retained, n.entry.Key())
		}

		toDrop = append(toDrop, n)
	}

	c.unused.Purge()
	c.unusedFiles.Store(0)
	c.unusedSize.Store(0)

	c.unusedMu.Unlock()

	if err := writeManifest(c.fs, manifestPath, retained); err != nil {
		c.logger.Warn().Err(err).Msg("failed to write cache manifest")

		for _, n := range toDrop {
			n.shouldPersist = false
		}
	}

	c.indexMu.Lock()
	for _, n := range c.index {
		n.cache.Store(nil)
	}
	c.index = map[string]*node{}
	c.indexMu.Unlock()

	// Entries that were unused at clear() time have no external holder
	// left to eventually call release; destroy them (or retain them, per
	// should_persist) right here.
	for _, n := range toDrop {
		_ = c.destroy(n)
	}

	return nil
}

// Reserve forces an immediate unused_max sweep without waiting for the
// next write or release. cachectl's gc subcommand uses this.
func (c *Cache) Reserve() error {
	return c.reserve(0)
}

// Stats is a point-in-time snapshot of the Cache's observable counters.
type Stats struct {
	TotalFiles  int64
	TotalSize   int64
	UnusedFiles int64
	UnusedSize  int64
	UnusedMax   int64
	OfflineMax  int64
	Hits        int64
	Misses      int64
}

// Stats returns a snapshot of the Cache's observable counters.
func (c *Cache) Stats() Stats {
	return Stats{
		TotalFiles:  c.totalFiles.Load(),
		TotalSize:   c.totalSize.Load(),
		UnusedFiles: c.unusedFiles.Load(),
		UnusedSize:  c.unusedSize.Load(),
		UnusedMax:   c.unusedMax.Load(),
		OfflineMax:  c.offlineMax.Load(),
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
	}
}

func (c *Cache) emitDirty() {
	c.dirty()
}
