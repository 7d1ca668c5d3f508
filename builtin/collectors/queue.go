// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collectors

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/thor"
)

// queue is a doubly linked list of entity ids kept in contract storage. Entity ids are
// content hashes, so the zero id marks the ends of the list.
type queue struct {
	head  *solidity.Bytes32
	tail  *solidity.Bytes32
	count *solidity.Uint256
	next  *solidity.Mapping[thor.Bytes32, thor.Bytes32]
	prev  *solidity.Mapping[thor.Bytes32, thor.Bytes32]
}

func newQueue(sctx *solidity.Context, name string) *queue {
	return &queue{
		head:  solidity.NewBytes32(sctx, solidity.Slot(name+"-head")),
		tail:  solidity.NewBytes32(sctx, solidity.Slot(name+"-tail")),
		count: solidity.NewUint256(sctx, solidity.Slot(name+"-count")),
		next:  solidity.NewMapping[thor.Bytes32, thor.Bytes32](sctx, solidity.Slot(name+"-next")),
		prev:  solidity.NewMapping[thor.Bytes32, thor.Bytes32](sctx, solidity.Slot(name+"-prev")),
	}
}

// Peek returns the oldest id, zero when empty.
func (q *queue) Peek() (thor.Bytes32, error) {
	return q.head.Get()
}

func (q *queue) Len() (uint64, error) {
	n, err := q.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (q *queue) contains(id thor.Bytes32) (bool, error) {
	head, err := q.head.Get()
	if err != nil {
		return false, err
	}
	if head == id {
		return true, nil
	}
	return q.prev.Exists(id)
}

// Add appends id to the tail.
func (q *queue) Add(id thor.Bytes32) error {
	tail, err := q.tail.Get()
	if err != nil {
		return err
	}
	if tail.IsZero() {
		q.head.Set(id)
	} else {
		if err := q.next.Set(tail, id); err != nil {
			return err
		}
		if err := q.prev.Set(id, tail); err != nil {
			return err
		}
	}
	q.tail.Set(id)
	return q.count.Add(big.NewInt(1))
}

// Remove unlinks id and reports whether it was queued.
func (q *queue) Remove(id thor.Bytes32) (bool, error) {
	ok, err := q.contains(id)
	if err != nil || !ok {
		return false, err
	}
	prev, err := q.prev.Get(id)
	if err != nil {
		return false, err
	}
	next, err := q.next.Get(id)
	if err != nil {
		return false, err
	}

	if prev.IsZero() {
		q.head.Set(next)
	} else if err := q.setOrDelete(q.next, prev, next); err != nil {
		return false, err
	}
	if next.IsZero() {
		q.tail.Set(prev)
	} else if err := q.setOrDelete(q.prev, next, prev); err != nil {
		return false, err
	}
	q.next.Delete(id)
	q.prev.Delete(id)
	return true, q.count.Sub(big.NewInt(1))
}

func (q *queue) setOrDelete(m *solidity.Mapping[thor.Bytes32, thor.Bytes32], key, value thor.Bytes32) error {
	if value.IsZero() {
		m.Delete(key)
		return nil
	}
	return m.Set(key, value)
}

// Iter walks the queue from head to tail until fn returns false.
func (q *queue) Iter(fn func(id thor.Bytes32) bool) error {
	id, err := q.head.Get()
	if err != nil {
		return err
	}
	for !id.IsZero() {
		if !fn(id) {
			return nil
		}
		if id, err = q.next.Get(id); err != nil {
			return err
		}
	}
	return nil
}
