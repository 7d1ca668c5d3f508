// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Signal announces a monotonically increasing sequence number to any number of waiters.
// Waiting is channel based, so it composes with select.
type Signal struct {
	l   sync.Mutex
	ch  chan struct{}
	seq uint64
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
}

// Broadcast publishes seq and wakes every waiter. Sequence numbers never go backwards.
func (s *Signal) Broadcast(seq uint64) {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	if seq > s.seq {
		s.seq = seq
	}
	close(s.ch)
	s.ch = make(chan struct{})
}

// Seq returns the last broadcast sequence number.
func (s *Signal) Seq() uint64 {
	s.l.Lock()
	defer s.l.Unlock()
	return s.seq
}

// Wait returns a channel closed by the next Broadcast along with the current sequence number.
func (s *Signal) Wait() (<-chan struct{}, uint64) {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	return s.ch, s.seq
}
