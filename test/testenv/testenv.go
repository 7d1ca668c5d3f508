// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testenv runs builtin contract calls against an in-memory state.
package testenv

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

type Env struct {
	t      *testing.T
	State  *state.State
	hooks  map[thor.Address]xenv.ReceiveHook
	Events []*xenv.Event
	number uint32
}

func New(t *testing.T) *Env {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Env{
		t:     t,
		State: state.New(db, nil),
		hooks: make(map[thor.Address]xenv.ReceiveHook),
	}
}

// Hook registers a receive hook on addr.
func (e *Env) Hook(addr thor.Address, hook xenv.ReceiveHook) {
	e.hooks[addr] = hook
}

// Fund adds amount to the balance of addr.
func (e *Env) Fund(addr thor.Address, amount *big.Int) {
	require.NoError(e.t, e.State.AddBalance(addr, amount))
}

func (e *Env) Balance(addr thor.Address) *big.Int {
	b, err := e.State.GetBalance(addr)
	require.NoError(e.t, err)
	return b
}

// Call runs fn as a call from origin to contract carrying value. Events of successful calls
// are appended to e.Events and also returned.
func (e *Env) Call(origin, contract thor.Address, value *big.Int, fn func(env *xenv.Environment) error) ([]*xenv.Event, error) {
	e.number++
	root := xenv.New(
		e.State,
		&xenv.BlockContext{Number: e.number, Time: uint64(e.number) * 10},
		&xenv.TransactionContext{ID: thor.Keccak256([]byte{byte(e.number >> 8), byte(e.number)}), Origin: origin},
		e.hooks,
	)
	if err := root.Call(contract, value, fn); err != nil {
		return nil, err
	}
	e.Events = append(e.Events, root.Events()...)
	return root.Events(), nil
}

// Names returns the names of events.
func Names(events []*xenv.Event) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	return names
}
