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

import "errors"

var (
	ErrInvalidKey        = errors.New("key is empty or contains a path separator")
	ErrMissingCacheDir   = errors.New("missing cache directory")
	ErrNotADirectory     = errors.New("cache path exists and is not a directory")
	ErrKeyDoesntExist    = errors.New("key doesn't exist")
	ErrWriteInProgress   = errors.New("a write for this key is already in progress")
	ErrClosed            = errors.New("cache is closed")
	ErrNegativeSize      = errors.New("value size is negative")
)
