// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/deposits"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/validators"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testenv"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

// milli returns n/1000 ether.
func milli(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

func eth(n int64) *big.Int {
	return milli(n * 1000)
}

type fixture struct {
	env        *testenv.Env
	settings   *settings.Settings
	deposits   *deposits.Deposits
	validators *validators.Validators
	transfers  *Transfers
	collector  thor.Address
	wallets    thor.Address
	admin      thor.Address
}

func setup(t *testing.T) *fixture {
	env := testenv.New(t)
	r := roles.New(thor.BytesToAddress([]byte("Roles")), env.State)
	f := &fixture{
		env:       env,
		collector: datagen.RandAddress(),
		wallets:   datagen.RandAddress(),
		admin:     datagen.RandAddress(),
	}
	s := settings.New(thor.BytesToAddress([]byte("Settings")), env.State, r.Checker())
	require.NoError(t, s.Initialize(settings.DefaultParams()))
	f.settings = s
	f.deposits = deposits.New(thor.BytesToAddress([]byte("Deposits")), env.State, r.Checker())
	f.validators = validators.New(thor.BytesToAddress([]byte("Validators")), env.State, r.Checker(), s)
	f.transfers = New(thor.BytesToAddress([]byte("Transfers")), env.State, r.Checker(), s, f.deposits, f.validators)

	require.NoError(t, r.Setup(roles.Collector, f.collector))
	require.NoError(t, r.Setup(roles.Wallets, f.wallets))
	require.NoError(t, r.Setup(roles.Transfers, f.transfers.Address()))
	require.NoError(t, r.Setup(roles.Admin, f.admin))

	env.Fund(f.collector, eth(1000))
	env.Fund(f.wallets, eth(1000))
	return f
}

func (f *fixture) deposit(t *testing.T, entity thor.Bytes32, user thor.Address, amount *big.Int) {
	_, err := f.env.Call(f.collector, f.deposits.Address(), nil, func(e *xenv.Environment) error {
		return f.deposits.AddDeposit(e, entity, user, user, amount)
	})
	require.NoError(t, err)
}

func (f *fixture) register(t *testing.T, entity thor.Bytes32) thor.Bytes32 {
	var id thor.Bytes32
	_, err := f.env.Call(f.collector, f.validators.Address(), nil, func(e *xenv.Environment) (err error) {
		id, err = f.validators.Register(e, datagen.RandPubKey(), entity, eth(32))
		return
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) transfer(id, prev, next thor.Bytes32, reward *big.Int) error {
	_, err := f.env.Call(f.collector, f.transfers.Address(), eth(32), func(e *xenv.Environment) error {
		return f.transfers.RegisterTransfer(e, id, prev, next, reward)
	})
	return err
}

func (f *fixture) resolve(from thor.Address, id thor.Bytes32, value *big.Int) error {
	_, err := f.env.Call(from, f.transfers.Address(), value, func(e *xenv.Environment) error {
		return f.transfers.ResolveDebt(e, id)
	})
	return err
}

func (f *fixture) pause(t *testing.T, paused bool) {
	_, err := f.env.Call(f.admin, f.settings.Address(), nil, func(e *xenv.Environment) error {
		return f.settings.SetPaused(e, f.transfers.Address(), paused)
	})
	require.NoError(t, err)
}

func (f *fixture) withdraw(user thor.Address, entity thor.Bytes32) error {
	_, err := f.env.Call(user, f.transfers.Address(), nil, func(e *xenv.Environment) error {
		return f.transfers.Withdraw(e, entity, user)
	})
	return err
}

func TestTransferMidLife(t *testing.T) {
	f := setup(t)
	e1, e2, e3 := thor.EntityID(f.collector, 0), thor.EntityID(f.collector, 1), thor.EntityID(f.collector, 2)
	alice, bob := datagen.RandAddress(), datagen.RandAddress()
	f.deposit(t, e1, alice, eth(20))
	f.deposit(t, e1, bob, eth(12))
	id := f.register(t, e1)

	_, err := f.env.Call(alice, f.transfers.Address(), nil, func(e *xenv.Environment) error {
		return f.transfers.RegisterTransfer(e, id, e1, e2, eth(10))
	})
	assert.True(t, reverts.Is(err, reverts.PermissionDenied))
	assert.True(t, reverts.Is(f.transfer(datagen.RandomHash(), e1, e2, eth(10)), reverts.NotFound))

	require.NoError(t, f.transfer(id, e1, e2, eth(10)))

	debt, err := f.transfers.Debt(id)
	require.NoError(t, err)
	assert.Equal(t, eth(9), debt.UserDebt)
	assert.Equal(t, eth(1), debt.MaintainerDebt)

	val, err := f.validators.Get(id)
	require.NoError(t, err)
	assert.Equal(t, e2, val.EntityID)

	// e1 no longer owns the validator
	assert.True(t, reverts.Is(f.transfer(id, e1, e3, eth(10)), reverts.InvalidState))

	require.NoError(t, f.transfer(id, e2, e3, eth(5)))
	debt, err = f.transfers.Debt(id)
	require.NoError(t, err)
	assert.Equal(t, milli(13500), debt.UserDebt)
	assert.Equal(t, milli(1500), debt.MaintainerDebt)

	reward, err := f.transfers.EntityReward(e1)
	require.NoError(t, err)
	assert.Equal(t, eth(9), reward.Amount)
	reward, err = f.transfers.EntityReward(e2)
	require.NoError(t, err)
	assert.Equal(t, milli(4500), reward.Amount)

	// principal is paid right away, the reward only after resolution
	require.NoError(t, f.withdraw(alice, e1))
	assert.Equal(t, eth(20), f.env.Balance(alice))
	assert.True(t, reverts.Is(f.withdraw(alice, e1), reverts.AlreadyProcessed))

	assert.True(t, reverts.Is(f.resolve(alice, id, milli(13500)), reverts.PermissionDenied))
	assert.True(t, reverts.Is(f.resolve(f.wallets, id, eth(14)), reverts.InvalidArgument))
	require.NoError(t, f.resolve(f.wallets, id, milli(13500)))
	assert.True(t, reverts.Is(f.resolve(f.wallets, id, nil), reverts.AlreadyProcessed))

	debt, err = f.transfers.Debt(id)
	require.NoError(t, err)
	assert.True(t, debt.Resolved)
	assert.Equal(t, 0, debt.UserDebt.Sign())
	assert.Equal(t, 0, debt.MaintainerDebt.Sign())
	assert.Equal(t, milli(13500), debt.ResolvedUserDebt)

	assert.True(t, reverts.Is(f.transfer(id, e3, thor.EntityID(f.collector, 3), eth(1)), reverts.InvalidState))

	require.NoError(t, f.withdraw(alice, e1))
	assert.Equal(t, milli(25625), f.env.Balance(alice))
	require.NoError(t, f.withdraw(bob, e1))
	assert.Equal(t, milli(15375), f.env.Balance(bob))
	assert.True(t, reverts.Is(f.withdraw(bob, e1), reverts.AlreadyProcessed))

	assert.True(t, reverts.Is(f.withdraw(datagen.RandAddress(), e1), reverts.NotFound))
	assert.True(t, reverts.Is(f.withdraw(alice, e3), reverts.NotFound))
}

func TestPartialResolution(t *testing.T) {
	f := setup(t)
	e1, e2 := thor.EntityID(f.collector, 0), thor.EntityID(f.collector, 1)
	alice := datagen.RandAddress()
	f.deposit(t, e1, alice, eth(32))
	id := f.register(t, e1)
	require.NoError(t, f.transfer(id, e1, e2, eth(10)))

	// the wallet could only cover half of the user debt
	require.NoError(t, f.resolve(f.wallets, id, milli(4500)))
	require.NoError(t, f.withdraw(alice, e1))
	assert.Equal(t, milli(36500), f.env.Balance(alice))
}

func TestPaused(t *testing.T) {
	f := setup(t)
	e1, e2 := thor.EntityID(f.collector, 0), thor.EntityID(f.collector, 1)
	alice := datagen.RandAddress()
	f.deposit(t, e1, alice, eth(32))
	id := f.register(t, e1)
	require.NoError(t, f.transfer(id, e1, e2, eth(10)))

	f.pause(t, true)
	assert.True(t, reverts.Is(f.withdraw(alice, e1), reverts.Paused))
	assert.True(t, reverts.Is(f.resolve(f.wallets, id, milli(9000)), reverts.Paused))
	assert.True(t, reverts.Is(f.transfer(id, e2, thor.EntityID(f.collector, 2), eth(1)), reverts.Paused))
	assert.Equal(t, 0, f.env.Balance(alice).Sign())

	f.pause(t, false)
	require.NoError(t, f.withdraw(alice, e1))
	assert.Equal(t, eth(32), f.env.Balance(alice))
}

func TestEntityRewardOverwrite(t *testing.T) {
	f := setup(t)
	e1 := thor.EntityID(f.collector, 0)
	a := f.register(t, e1)
	b := f.register(t, e1)

	require.NoError(t, f.transfer(a, e1, thor.EntityID(f.collector, 1), eth(10)))
	require.NoError(t, f.transfer(b, e1, thor.EntityID(f.collector, 2), eth(20)))

	reward, err := f.transfers.EntityReward(e1)
	require.NoError(t, err)
	assert.Equal(t, b, reward.ValidatorID)
	assert.Equal(t, eth(18), reward.Amount)

	// debts stay per validator
	debt, err := f.transfers.Debt(a)
	require.NoError(t, err)
	assert.Equal(t, eth(9), debt.UserDebt)
}
