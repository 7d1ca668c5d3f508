// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collectors

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

// Solos lets a single depositor stake whole validators with its own withdrawal credentials.
type Solos struct {
	*collector
}

func NewSolos(addr thor.Address, state *state.State, deps *Deps) *Solos {
	return &Solos{newCollector(addr, state, deps)}
}

// AddDeposit splits the value of env into one ready entity per validator deposit amount.
func (s *Solos) AddDeposit(env *xenv.Environment, recipient thor.Address, credentials thor.Bytes32) ([]thor.Bytes32, error) {
	if err := s.requireNotPaused(); err != nil {
		return nil, err
	}
	if recipient.IsZero() {
		return nil, reverts.New(reverts.InvalidArgument, "zero recipient")
	}
	if credentials.IsZero() {
		return nil, reverts.New(reverts.InvalidArgument, "zero withdrawal credentials")
	}
	amount := env.Value()
	depositAmount, err := s.depositAmount()
	if err != nil {
		return nil, err
	}
	n, rem := new(big.Int).QuoRem(amount, depositAmount, new(big.Int))
	if n.Sign() == 0 || rem.Sign() != 0 {
		return nil, reverts.New(reverts.InvalidArgument, "amount must be a multiple of validator deposit amount")
	}
	if err := s.checkMax(amount); err != nil {
		return nil, err
	}

	sender := env.Caller()
	ids := make([]thor.Bytes32, 0, n.Uint64())
	for i := uint64(0); i < n.Uint64(); i++ {
		id, e, err := s.newEntity(sender, credentials)
		if err != nil {
			return nil, err
		}
		if err := s.addDeposit(env, id, e, sender, recipient, depositAmount); err != nil {
			return nil, err
		}
		if err := s.fill(env, id, e); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CancelDeposit returns the whole deposit of a ready entity to its owner and removes the entity.
func (s *Solos) CancelDeposit(env *xenv.Environment, entityID thor.Bytes32, recipient thor.Address) error {
	if err := s.requireNotPaused(); err != nil {
		return err
	}
	e, err := s.entity(entityID)
	if err != nil {
		return err
	}
	sender := env.Caller()
	if e.Owner != sender {
		return reverts.New(reverts.PermissionDenied, "not the entity owner")
	}
	if e.Status != StatusReady {
		return reverts.New(reverts.InvalidState, "entity not ready")
	}

	amount := e.Collected
	if err := s.cancelDeposit(env, entityID, e, sender, recipient, amount); err != nil {
		return err
	}
	if _, err := s.ready.Remove(entityID); err != nil {
		return err
	}
	s.entities.Delete(entityID)
	return env.Transfer(sender, amount)
}
