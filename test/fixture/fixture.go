// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixture wires every builtin contract on an in-memory state for tests.
package fixture

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/beacondeposit"
	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testenv"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

// Ether returns n ether in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Ether)
}

// Milli returns n/1000 ether in wei.
func Milli(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

type Fixture struct {
	*testenv.Env
	t          *testing.T
	B          *builtin.Builtins
	Params     *settings.Params
	Admin      thor.Address
	Operator   thor.Address
	Manager    thor.Address
	Maintainer thor.Address
}

// New returns a fixture using the default settings with a 10% maintainer fee.
func New(t *testing.T) *Fixture {
	env := testenv.New(t)
	f := &Fixture{
		Env:        env,
		t:          t,
		B:          builtin.New(env.State),
		Params:     settings.DefaultParams(),
		Admin:      datagen.RandAddress(),
		Operator:   datagen.RandAddress(),
		Manager:    datagen.RandAddress(),
		Maintainer: datagen.RandAddress(),
	}
	f.Params.Maintainer = f.Maintainer
	f.Params.WithdrawalCredentials = datagen.RandomHash()
	require.NoError(t, f.B.Setup(f.Params))
	require.NoError(t, f.B.Roles.Setup(roles.Admin, f.Admin))
	require.NoError(t, f.B.Roles.Setup(roles.Operator, f.Operator))
	require.NoError(t, f.B.Roles.Setup(roles.Manager, f.Manager))
	return f
}

// User returns a fresh funded account.
func (f *Fixture) User(balance *big.Int) thor.Address {
	addr := datagen.RandAddress()
	f.Fund(addr, balance)
	return addr
}

func (f *Fixture) Exec(origin, contract thor.Address, value *big.Int, fn func(env *xenv.Environment) error) error {
	_, err := f.Call(origin, contract, value, fn)
	return err
}

func (f *Fixture) PoolDeposit(user thor.Address, amount *big.Int) error {
	return f.Exec(user, f.B.Pools.Address(), amount, func(e *xenv.Environment) error {
		return f.B.Pools.AddDeposit(e, user)
	})
}

// Register registers a validator with random keys from a ready entity of c.
func (f *Fixture) Register(c interface {
	RegisterValidator(*xenv.Environment, thor.Bytes32, []byte, []byte, thor.Bytes32) (thor.Bytes32, error)
	Address() thor.Address
	Entity(thor.Bytes32) (*collectors.Entity, error)
}, entityID thor.Bytes32) (thor.Bytes32, error) {
	e, err := c.Entity(entityID)
	require.NoError(f.t, err)
	credentials := e.WithdrawalCredentials
	if credentials.IsZero() {
		credentials = f.Params.WithdrawalCredentials
	}
	pubKey, sig := datagen.RandPubKey(), datagen.RandSignature()
	root, err := beacondeposit.DepositDataRoot(pubKey, credentials, sig, e.Target)
	require.NoError(f.t, err)

	var id thor.Bytes32
	err = f.Exec(f.Operator, c.Address(), nil, func(e *xenv.Environment) (err error) {
		id, err = c.RegisterValidator(e, entityID, pubKey, sig, root)
		return
	})
	return id, err
}

// AssignWallet assigns a wallet to a validator and funds it with its exit balance.
func (f *Fixture) AssignWallet(validatorID thor.Bytes32, balance *big.Int) thor.Address {
	var addr thor.Address
	require.NoError(f.t, f.Exec(f.Manager, f.B.Wallets.Address(), nil, func(e *xenv.Environment) (err error) {
		addr, err = f.B.Wallets.AssignWallet(e, validatorID)
		return
	}))
	if balance != nil {
		f.Fund(addr, balance)
	}
	return addr
}

func (f *Fixture) EnableWithdrawals(wallet thor.Address) error {
	return f.Exec(f.Manager, f.B.Wallets.Address(), nil, func(e *xenv.Environment) error {
		return f.B.Wallets.EnableWithdrawals(e, wallet)
	})
}

func (f *Fixture) Withdraw(user, wallet thor.Address) error {
	return f.Exec(user, f.B.Wallets.Address(), nil, func(e *xenv.Environment) error {
		return f.B.Wallets.Withdraw(e, wallet, user)
	})
}

func (f *Fixture) Pause(contract thor.Address, paused bool) {
	require.NoError(f.t, f.Exec(f.Admin, f.B.Settings.Address(), nil, func(e *xenv.Environment) error {
		return f.B.Settings.SetPaused(e, contract, paused)
	}))
}
