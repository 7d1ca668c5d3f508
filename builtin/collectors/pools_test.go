// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collectors_test

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/fixture"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

func entity(t *testing.T, c interface {
	Entity(thor.Bytes32) (*collectors.Entity, error)
}, id thor.Bytes32,
) *collectors.Entity {
	e, err := c.Entity(id)
	require.NoError(t, err)
	return e
}

func TestPoolsAddDeposit(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice, bob := f.User(fixture.Ether(100)), f.User(fixture.Ether(100))
	e0, e1, e2 := thor.EntityID(pools.Address(), 0), thor.EntityID(pools.Address(), 1), thor.EntityID(pools.Address(), 2)

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(50)))
	assert.Equal(t, collectors.StatusReady, entity(t, pools, e0).Status)
	assert.Equal(t, collectors.StatusCollecting, entity(t, pools, e1).Status)
	assert.Equal(t, fixture.Ether(18), entity(t, pools, e1).Collected)

	current, err := pools.Current()
	require.NoError(t, err)
	assert.Equal(t, e1, current)

	require.NoError(t, f.PoolDeposit(bob, fixture.Ether(20)))
	assert.Equal(t, collectors.StatusReady, entity(t, pools, e1).Status)
	assert.Equal(t, fixture.Ether(6), entity(t, pools, e2).Collected)

	ready, err := pools.ReadyEntities(10)
	require.NoError(t, err)
	assert.Equal(t, []thor.Bytes32{e0, e1}, ready)

	amount, err := f.B.Deposits.AmountOf(e1, bob, bob)
	require.NoError(t, err)
	assert.Equal(t, fixture.Ether(14), amount)
	amount, err = f.B.Deposits.AmountOf(e2, bob, bob)
	require.NoError(t, err)
	assert.Equal(t, fixture.Ether(6), amount)

	assert.Equal(t, fixture.Ether(70), f.Balance(pools.Address()))
	assert.Equal(t, fixture.Ether(50), f.Balance(alice))
}

func TestPoolsAddDepositValidation(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice := f.User(fixture.Ether(2000))

	deposit := func(recipient thor.Address, value *big.Int) error {
		return f.Exec(alice, pools.Address(), value, func(e *xenv.Environment) error {
			return pools.AddDeposit(e, recipient)
		})
	}

	tests := []struct {
		name      string
		recipient thor.Address
		value     *big.Int
	}{
		{"zero recipient", thor.Address{}, fixture.Ether(1)},
		{"zero value", alice, big.NewInt(0)},
		{"below unit", alice, big.NewInt(1)},
		{"not a multiple of unit", alice, new(big.Int).Add(thor.Ether, big.NewInt(1))},
		{"above max", alice, fixture.Ether(1001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, reverts.Is(deposit(tt.recipient, tt.value), reverts.InvalidArgument))
		})
	}
	assert.Equal(t, 0, f.Balance(pools.Address()).Sign())
	assert.Empty(t, f.Events)

	f.Pause(pools.Address(), true)
	assert.True(t, reverts.Is(deposit(alice, fixture.Ether(1)), reverts.Paused))
	f.Pause(pools.Address(), false)
	require.NoError(t, deposit(alice, fixture.Ether(1)))
}

func TestPoolsCancelDeposit(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice, bob := f.User(fixture.Ether(100)), f.User(fixture.Ether(100))

	cancel := func(user thor.Address, amount *big.Int) error {
		return f.Exec(user, pools.Address(), nil, func(e *xenv.Environment) error {
			return pools.CancelDeposit(e, user, amount)
		})
	}

	assert.True(t, reverts.Is(cancel(alice, fixture.Ether(1)), reverts.InvalidState))

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(10)))
	require.NoError(t, f.PoolDeposit(bob, fixture.Ether(5)))

	assert.True(t, reverts.Is(cancel(bob, fixture.Ether(6)), reverts.InsufficientFunds))
	require.NoError(t, cancel(bob, fixture.Ether(2)))
	assert.Equal(t, fixture.Ether(97), f.Balance(bob))

	e0 := thor.EntityID(pools.Address(), 0)
	assert.Equal(t, fixture.Ether(13), entity(t, pools, e0).Collected)
	total, err := f.B.Deposits.EntityTotal(e0)
	require.NoError(t, err)
	assert.Equal(t, fixture.Ether(13), total)

	// a filled entity no longer accepts cancellations
	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(19)))
	assert.True(t, reverts.Is(cancel(alice, fixture.Ether(1)), reverts.InvalidState))
}

func TestPoolsRegisterValidator(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice := f.User(fixture.Ether(100))
	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(40)))
	e0, e1 := thor.EntityID(pools.Address(), 0), thor.EntityID(pools.Address(), 1)

	_, err := f.Register(pools, e1)
	assert.True(t, reverts.Is(err, reverts.InvalidState))
	assert.EqualError(t, err, "entity not ready")
	_, err = f.Register(pools, datagen.RandomHash())
	assert.True(t, reverts.Is(err, reverts.NotFound))

	err = f.Exec(alice, pools.Address(), nil, func(e *xenv.Environment) error {
		_, err := pools.RegisterValidator(e, e0, datagen.RandPubKey(), datagen.RandSignature(), datagen.RandomHash())
		return err
	})
	assert.True(t, reverts.Is(err, reverts.PermissionDenied))

	// a bad deposit data root reverts the whole registration
	err = f.Exec(f.Operator, pools.Address(), nil, func(e *xenv.Environment) error {
		_, err := pools.RegisterValidator(e, e0, datagen.RandPubKey(), datagen.RandSignature(), datagen.RandomHash())
		return err
	})
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
	assert.Equal(t, collectors.StatusReady, entity(t, pools, e0).Status)
	count, err := f.B.Validators.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	id, err := f.Register(pools, e0)
	require.NoError(t, err)

	e := entity(t, pools, e0)
	assert.Equal(t, collectors.StatusStaked, e.Status)
	assert.Equal(t, id, e.ValidatorID)
	val, err := f.B.Validators.Get(id)
	require.NoError(t, err)
	assert.Equal(t, e0, val.EntityID)
	assert.Equal(t, pools.Address(), val.Collector)

	assert.Equal(t, fixture.Ether(32), f.Balance(f.B.BeaconDeposit.Address()))
	assert.Equal(t, fixture.Ether(8), f.Balance(pools.Address()))

	ready, err := pools.ReadyCount()
	require.NoError(t, err)
	assert.Zero(t, ready)

	_, err = f.Register(pools, e0)
	assert.True(t, reverts.Is(err, reverts.InvalidState))

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(24)))
	f.Pause(pools.Address(), true)
	_, err = f.Register(pools, e1)
	assert.True(t, reverts.Is(err, reverts.Paused))
}

func TestPoolsDepositAmountChange(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice := f.User(fixture.Ether(100))
	e0, e1 := thor.EntityID(pools.Address(), 0), thor.EntityID(pools.Address(), 1)

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(20)))
	require.NoError(t, f.Exec(f.Admin, f.B.Settings.Address(), nil, func(e *xenv.Environment) error {
		return f.B.Settings.SetUint(e, settings.KeyValidatorDepositAmount, fixture.Ether(16))
	}))

	// the collecting entity keeps filling up to the amount it was opened with
	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(1)))
	assert.Equal(t, fixture.Ether(21), entity(t, pools, e0).Collected)
	assert.Equal(t, fixture.Ether(32), entity(t, pools, e0).Target)

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(27)))
	assert.Equal(t, collectors.StatusReady, entity(t, pools, e0).Status)
	assert.Equal(t, collectors.StatusReady, entity(t, pools, e1).Status)
	assert.Equal(t, fixture.Ether(16), entity(t, pools, e1).Collected)
	assert.Equal(t, fixture.Ether(16), entity(t, pools, e1).Target)

	id0, err := f.Register(pools, e0)
	require.NoError(t, err)
	id1, err := f.Register(pools, e1)
	require.NoError(t, err)

	val, err := f.B.Validators.Get(id0)
	require.NoError(t, err)
	assert.Equal(t, fixture.Ether(32), val.DepositAmount)
	val, err = f.B.Validators.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, fixture.Ether(16), val.DepositAmount)

	assert.Equal(t, fixture.Ether(48), f.Balance(f.B.BeaconDeposit.Address()))
	assert.Equal(t, 0, f.Balance(pools.Address()).Sign())
}

func TestPoolsTransferValidator(t *testing.T) {
	f := fixture.New(t)
	pools := f.B.Pools
	alice, bob := f.User(fixture.Ether(100)), f.User(fixture.Ether(100))
	e0, e1 := thor.EntityID(pools.Address(), 0), thor.EntityID(pools.Address(), 1)

	require.NoError(t, f.PoolDeposit(alice, fixture.Ether(32)))
	id, err := f.Register(pools, e0)
	require.NoError(t, err)

	transfer := func(from thor.Address, id thor.Bytes32) error {
		return f.Exec(from, pools.Address(), nil, func(e *xenv.Environment) error {
			return pools.TransferValidator(e, id, fixture.Ether(2))
		})
	}

	assert.True(t, reverts.Is(transfer(f.Operator, id), reverts.InvalidState))
	require.NoError(t, f.PoolDeposit(bob, fixture.Ether(32)))
	assert.True(t, reverts.Is(transfer(bob, id), reverts.PermissionDenied))
	assert.True(t, reverts.Is(transfer(f.Operator, datagen.RandomHash()), reverts.NotFound))

	require.NoError(t, transfer(f.Operator, id))

	e := entity(t, pools, e1)
	assert.Equal(t, collectors.StatusStaked, e.Status)
	assert.Equal(t, id, e.ValidatorID)
	val, err := f.B.Validators.Get(id)
	require.NoError(t, err)
	assert.Equal(t, e1, val.EntityID)

	assert.Equal(t, fixture.Ether(32), f.Balance(f.B.Transfers.Address()))
	assert.Equal(t, 0, f.Balance(pools.Address()).Sign())

	debt, err := f.B.Transfers.Debt(id)
	require.NoError(t, err)
	assert.Equal(t, fixture.Milli(1800), debt.UserDebt)
	assert.Equal(t, fixture.Milli(200), debt.MaintainerDebt)

	// alice gets her principal back from the new entity's deposit
	require.NoError(t, f.Exec(alice, f.B.Transfers.Address(), nil, func(e *xenv.Environment) error {
		return f.B.Transfers.Withdraw(e, e0, alice)
	}))
	assert.Equal(t, fixture.Ether(100), f.Balance(alice))
}

// TestPoolsConservation checks that the deposits booked for every entity always add up
// to what the entity collected, and that the pool holds exactly the unstaked funds.
func TestPoolsConservation(t *testing.T) {
	type op struct {
		User   uint8
		Amount uint16
		Cancel bool
	}

	for seed := int64(1); seed <= 5; seed++ {
		f := fixture.New(t)
		pools := f.B.Pools
		users := make([]thor.Address, 4)
		for i := range users {
			users[i] = f.User(fixture.Ether(1000))
		}

		var ops []op
		fuzz.NewWithSeed(seed).NilChance(0).NumElements(30, 60).Fuzz(&ops)

		for _, o := range ops {
			user := users[int(o.User)%len(users)]
			// amounts in 0.1 ether steps up to 50 ether
			amount := fixture.Milli(int64(o.Amount%500+1) * 100)
			if o.Cancel {
				_ = f.Exec(user, pools.Address(), nil, func(e *xenv.Environment) error {
					return pools.CancelDeposit(e, user, amount)
				})
			} else {
				require.NoError(t, f.PoolDeposit(user, amount))
			}
		}

		counter, err := pools.Counter()
		require.NoError(t, err)
		held := new(big.Int)
		for n := uint64(0); n < counter; n++ {
			id := thor.EntityID(pools.Address(), n)
			e := entity(t, pools, id)

			sum := new(big.Int)
			for _, u := range users {
				amount, err := f.B.Deposits.AmountOf(id, u, u)
				require.NoError(t, err)
				sum.Add(sum, amount)
			}
			assert.Equal(t, 0, sum.Cmp(e.Collected), "seed %d entity %d", seed, n)
			if n+1 < counter {
				assert.Equal(t, collectors.StatusReady, e.Status)
			}
			held.Add(held, e.Collected)
		}
		assert.Equal(t, 0, held.Cmp(f.Balance(pools.Address())), "seed %d", seed)

		total := new(big.Int)
		for _, u := range users {
			total.Add(total, f.Balance(u))
		}
		total.Add(total, held)
		assert.Equal(t, 0, total.Cmp(fixture.Ether(4000)), "seed %d", seed)
	}
}
