// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposits

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testenv"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

func TestDeposits(t *testing.T) {
	env := testenv.New(t)
	r := roles.New(thor.BytesToAddress([]byte("Roles")), env.State)
	d := New(thor.BytesToAddress([]byte("Deposits")), env.State, r.Checker())

	collector := datagen.RandAddress()
	require.NoError(t, r.Setup(roles.Collector, collector))

	entity := thor.EntityID(collector, 0)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()

	add := func(from, sender, recipient thor.Address, amount int64) error {
		_, err := env.Call(from, d.Address(), nil, func(e *xenv.Environment) error {
			return d.AddDeposit(e, entity, sender, recipient, big.NewInt(amount))
		})
		return err
	}
	cancel := func(from, sender, recipient thor.Address, amount int64) error {
		_, err := env.Call(from, d.Address(), nil, func(e *xenv.Environment) error {
			return d.CancelDeposit(e, entity, sender, recipient, big.NewInt(amount))
		})
		return err
	}

	assert.True(t, reverts.Is(add(alice, alice, alice, 1), reverts.PermissionDenied))

	require.NoError(t, add(collector, alice, alice, 10))
	require.NoError(t, add(collector, alice, bob, 5))
	require.NoError(t, add(collector, bob, bob, 7))
	require.NoError(t, add(collector, alice, alice, 3))

	amount, err := d.AmountOf(entity, alice, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(13), amount)

	total, err := d.EntityTotal(entity)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), total)

	assert.True(t, reverts.Is(cancel(collector, alice, bob, 6), reverts.InsufficientFunds))
	assert.True(t, reverts.Is(cancel(collector, alice, bob, 0), reverts.InvalidArgument))
	require.NoError(t, cancel(collector, alice, bob, 5))

	amount, err = d.AmountOf(entity, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Sign())
	total, err = d.EntityTotal(entity)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), total)

	assert.Equal(t,
		[]string{EventDepositAdded, EventDepositAdded, EventDepositAdded, EventDepositAdded, EventDepositCanceled},
		testenv.Names(env.Events))
	assert.Equal(t, entity, env.Events[0].Topics[1])
}
