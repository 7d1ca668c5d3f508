// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collectors_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/test/fixture"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

func TestGroups(t *testing.T) {
	f := fixture.New(t)
	groups := f.B.Groups
	alice, bob, carol := f.User(fixture.Ether(100)), f.User(fixture.Ether(100)), f.User(fixture.Ether(100))

	var id thor.Bytes32
	err := f.Exec(alice, groups.Address(), nil, func(e *xenv.Environment) error {
		_, err := groups.CreateGroup(e, []thor.Address{bob, {}})
		return err
	})
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	require.NoError(t, f.Exec(alice, groups.Address(), nil, func(e *xenv.Environment) (err error) {
		id, err = groups.CreateGroup(e, []thor.Address{bob, bob, alice})
		return
	}))
	assert.Equal(t, thor.EntityID(groups.Address(), 0), id)
	for addr, member := range map[thor.Address]bool{alice: true, bob: true, carol: false} {
		ok, err := groups.IsMember(id, addr)
		require.NoError(t, err)
		assert.Equal(t, member, ok)
	}

	deposit := func(user thor.Address, value *big.Int) error {
		return f.Exec(user, groups.Address(), value, func(e *xenv.Environment) error {
			return groups.AddDeposit(e, id, user)
		})
	}
	cancel := func(user thor.Address, amount *big.Int) error {
		return f.Exec(user, groups.Address(), nil, func(e *xenv.Environment) error {
			return groups.CancelDeposit(e, id, user, amount)
		})
	}

	assert.True(t, reverts.Is(deposit(carol, fixture.Ether(1)), reverts.PermissionDenied))
	require.NoError(t, deposit(alice, fixture.Ether(20)))
	assert.True(t, reverts.Is(deposit(bob, fixture.Ether(13)), reverts.InvalidArgument))
	require.NoError(t, deposit(bob, fixture.Ether(10)))

	require.NoError(t, cancel(bob, fixture.Ether(4)))
	assert.Equal(t, fixture.Ether(94), f.Balance(bob))
	assert.Equal(t, fixture.Ether(26), entity(t, groups, id).Collected)

	require.NoError(t, deposit(bob, fixture.Ether(6)))
	assert.Equal(t, collectors.StatusReady, entity(t, groups, id).Status)
	assert.True(t, reverts.Is(deposit(alice, fixture.Ether(1)), reverts.InvalidState))
	assert.True(t, reverts.Is(cancel(alice, fixture.Ether(1)), reverts.InvalidState))

	_, err = f.Register(groups, id)
	require.NoError(t, err)
	assert.Equal(t, collectors.StatusStaked, entity(t, groups, id).Status)
}
