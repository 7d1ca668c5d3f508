// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collectors

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

type groupCreatedEvent struct {
	GroupID thor.Bytes32
	Creator thor.Address
	Members []thor.Address
}

// Groups are private pools. Each group is one entity and only its members may deposit.
type Groups struct {
	*collector
	members *solidity.Mapping[thor.Bytes32, bool]
}

func NewGroups(addr thor.Address, state *state.State, deps *Deps) *Groups {
	c := newCollector(addr, state, deps)
	return &Groups{
		collector: c,
		members:   solidity.NewMapping[thor.Bytes32, bool](c.sctx, solidity.Slot("members")),
	}
}

func memberKey(groupID thor.Bytes32, member thor.Address) thor.Bytes32 {
	return thor.Keccak256(groupID.Bytes(), member.Bytes())
}

func (g *Groups) IsMember(groupID thor.Bytes32, addr thor.Address) (bool, error) {
	return g.members.Get(memberKey(groupID, addr))
}

// CreateGroup opens a group owned by the caller. The caller is always a member.
func (g *Groups) CreateGroup(env *xenv.Environment, members []thor.Address) (thor.Bytes32, error) {
	if err := g.requireNotPaused(); err != nil {
		return thor.Bytes32{}, err
	}
	creator := env.Caller()
	seen := map[thor.Address]bool{creator: true}
	list := []thor.Address{creator}
	for _, m := range members {
		if m.IsZero() {
			return thor.Bytes32{}, reverts.New(reverts.InvalidArgument, "zero member")
		}
		if !seen[m] {
			seen[m] = true
			list = append(list, m)
		}
	}

	id, _, err := g.newEntity(creator, thor.Bytes32{})
	if err != nil {
		return thor.Bytes32{}, err
	}
	for _, m := range list {
		if err := g.members.Set(memberKey(id, m), true); err != nil {
			return thor.Bytes32{}, err
		}
	}

	logger.Debug("group created", "group", id, "creator", creator, "members", len(list))
	return id, env.Log(EventGroupCreated, []thor.Bytes32{id, thor.BytesToBytes32(creator[:])}, &groupCreatedEvent{id, creator, list})
}

func (g *Groups) collecting(groupID thor.Bytes32) (*Entity, error) {
	e, err := g.entity(groupID)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusCollecting {
		return nil, reverts.New(reverts.InvalidState, "group not collecting")
	}
	return e, nil
}

// AddDeposit adds the value of env to a group, which becomes ready when full.
func (g *Groups) AddDeposit(env *xenv.Environment, groupID thor.Bytes32, recipient thor.Address) error {
	if err := g.requireNotPaused(); err != nil {
		return err
	}
	if recipient.IsZero() {
		return reverts.New(reverts.InvalidArgument, "zero recipient")
	}
	sender := env.Caller()
	e, err := g.entity(groupID)
	if err != nil {
		return err
	}
	member, err := g.IsMember(groupID, sender)
	if err != nil {
		return err
	}
	if !member {
		return reverts.New(reverts.PermissionDenied, "not a group member")
	}
	if e.Status != StatusCollecting {
		return reverts.New(reverts.InvalidState, "group not collecting")
	}
	amount := env.Value()
	if err := g.checkUnit(amount); err != nil {
		return err
	}
	if amount.Cmp(new(big.Int).Sub(e.Target, e.Collected)) > 0 {
		return reverts.New(reverts.InvalidArgument, "amount exceeds remaining amount")
	}

	if err := g.addDeposit(env, groupID, e, sender, recipient, amount); err != nil {
		return err
	}
	if e.Collected.Cmp(e.Target) == 0 {
		return g.fill(env, groupID, e)
	}
	return nil
}

// CancelDeposit returns amount of the sender's deposit while the group is collecting.
func (g *Groups) CancelDeposit(env *xenv.Environment, groupID thor.Bytes32, recipient thor.Address, amount *big.Int) error {
	if err := g.requireNotPaused(); err != nil {
		return err
	}
	e, err := g.collecting(groupID)
	if err != nil {
		return err
	}
	if err := g.checkUnit(amount); err != nil {
		return err
	}
	sender := env.Caller()
	if err := g.cancelDeposit(env, groupID, e, sender, recipient, amount); err != nil {
		return err
	}
	if err := g.entities.Set(groupID, e); err != nil {
		return err
	}
	return env.Transfer(sender, amount)
}
