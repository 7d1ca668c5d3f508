// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var (
	origin   = thor.BytesToAddress([]byte("origin"))
	contract = thor.BytesToAddress([]byte("contract"))
	receiver = thor.BytesToAddress([]byte("receiver"))
)

func newEnv(t *testing.T, hooks map[thor.Address]ReceiveHook) *Environment {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, nil)
	require.NoError(t, st.SetBalance(origin, big.NewInt(100)))
	return New(st, &BlockContext{Number: 1}, &TransactionContext{Origin: origin}, hooks)
}

func balance(t *testing.T, env *Environment, addr thor.Address) int64 {
	b, err := env.State().GetBalance(addr)
	require.NoError(t, err)
	return b.Int64()
}

func TestCallMovesValue(t *testing.T) {
	env := newEnv(t, nil)

	err := env.Call(contract, big.NewInt(40), func(env *Environment) error {
		assert.Equal(t, origin, env.Caller())
		assert.Equal(t, contract, env.To())
		assert.Equal(t, big.NewInt(40), env.Value())
		return env.Log("Deposit", []thor.Bytes32{thor.BytesToBytes32(origin[:])}, []any{uint64(1)})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance(t, env, origin))
	assert.Equal(t, int64(40), balance(t, env, contract))

	require.Len(t, env.Events(), 1)
	ev := env.Events()[0]
	assert.Equal(t, contract, ev.Address)
	assert.Equal(t, EventID("Deposit"), ev.Topics[0])
	assert.Len(t, ev.Topics, 2)
}

func TestCallRevertsOnError(t *testing.T) {
	env := newEnv(t, nil)

	err := env.Call(contract, big.NewInt(40), func(env *Environment) error {
		require.NoError(t, env.Log("Deposit", nil, []any{}))
		return reverts.New(reverts.InvalidState, "nope")
	})
	assert.True(t, reverts.Is(err, reverts.InvalidState))
	assert.Equal(t, int64(100), balance(t, env, origin))
	assert.Equal(t, int64(0), balance(t, env, contract))
	assert.Empty(t, env.Events())
}

func TestCallInsufficientValue(t *testing.T) {
	env := newEnv(t, nil)
	err := env.Call(contract, big.NewInt(101), func(*Environment) error { return nil })
	assert.True(t, reverts.Is(err, reverts.InsufficientFunds))
}

func TestTransferRunsHook(t *testing.T) {
	var hookCaller thor.Address
	hooks := map[thor.Address]ReceiveHook{
		receiver: func(env *Environment) error {
			hookCaller = env.Caller()
			assert.Equal(t, big.NewInt(10), env.Value())
			return nil
		},
	}
	env := newEnv(t, hooks)

	err := env.Call(contract, big.NewInt(50), func(env *Environment) error {
		return env.Transfer(receiver, big.NewInt(10))
	})
	require.NoError(t, err)
	assert.Equal(t, contract, hookCaller)
	assert.Equal(t, int64(10), balance(t, env, receiver))
	assert.Equal(t, int64(40), balance(t, env, contract))
}

func TestTransferHookFailureReverts(t *testing.T) {
	hooks := map[thor.Address]ReceiveHook{
		receiver: func(*Environment) error { return errors.New("rejected") },
	}
	env := newEnv(t, hooks)

	err := env.Call(contract, big.NewInt(50), func(env *Environment) error {
		return env.Transfer(receiver, big.NewInt(10))
	})
	assert.Error(t, err)
	assert.Equal(t, int64(100), balance(t, env, origin))
	assert.Equal(t, int64(0), balance(t, env, receiver))
}

func TestCallDepth(t *testing.T) {
	env := newEnv(t, nil)
	var recurse func(env *Environment) error
	recurse = func(env *Environment) error {
		return env.Call(contract, nil, recurse)
	}
	err := recurse(env)
	assert.True(t, reverts.Is(err, reverts.InvalidState))
}
