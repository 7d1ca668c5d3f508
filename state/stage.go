// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/crypto/blake2b"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/thor"
)

// Stage abstracts changes on the ledger state.
type Stage struct {
	changes map[string][]byte
	order   []string
	cache   *cache.LRU
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.order)
}

// Hash computes a digest over the sorted changes. Empty values mean deletions.
func (s *Stage) Hash() thor.Bytes32 {
	keys := append([]string(nil), s.order...)
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		writeWithLen(h, []byte(k))
		writeWithLen(h, s.changes[k])
	}
	var b32 thor.Bytes32
	h.Sum(b32[:0])
	return b32
}

func writeWithLen(w io.Writer, b []byte) {
	w.Write([]byte{byte(len(b) >> 8), byte(len(b))})
	w.Write(b)
}

// Commit writes all changes in one atomic bulk and refreshes the read cache.
func (s *Stage) Commit(store kv.Store) error {
	bulk := store.Bulk()
	for _, k := range s.order {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = bulk.Delete([]byte(k))
		} else {
			err = bulk.Put([]byte(k), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{errors.WithMessage(err, "commit")}
	}
	if s.cache != nil {
		for _, k := range s.order {
			s.cache.Add(k, s.changes[k])
		}
	}
	return nil
}
