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

// Pools collects deposits of any size into a single collecting entity at a time.
type Pools struct {
	*collector
	current *solidity.Bytes32
}

func NewPools(addr thor.Address, state *state.State, deps *Deps) *Pools {
	c := newCollector(addr, state, deps)
	return &Pools{
		collector: c,
		current:   solidity.NewBytes32(c.sctx, solidity.Slot("current")),
	}
}

// Current returns the collecting entity, zero when the next deposit opens a new one.
func (p *Pools) Current() (thor.Bytes32, error) {
	return p.current.Get()
}

// AddDeposit routes the value of env into the collecting entity, filling as many
// entities as needed.
func (p *Pools) AddDeposit(env *xenv.Environment, recipient thor.Address) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if recipient.IsZero() {
		return reverts.New(reverts.InvalidArgument, "zero recipient")
	}
	amount := env.Value()
	if err := p.checkUnit(amount); err != nil {
		return err
	}
	if err := p.checkMax(amount); err != nil {
		return err
	}

	sender := env.Caller()
	for amount.Sign() > 0 {
		id, err := p.current.Get()
		if err != nil {
			return err
		}
		var e *Entity
		if id.IsZero() {
			if id, e, err = p.newEntity(thor.Address{}, thor.Bytes32{}); err != nil {
				return err
			}
			p.current.Set(id)
		} else if e, err = p.entity(id); err != nil {
			return err
		}

		part := thor.Min(amount, new(big.Int).Sub(e.Target, e.Collected))
		if part.Sign() <= 0 {
			return reverts.New(reverts.InvalidState, "collecting entity overfilled")
		}
		if err := p.addDeposit(env, id, e, sender, recipient, part); err != nil {
			return err
		}
		amount = new(big.Int).Sub(amount, part)

		if e.Collected.Cmp(e.Target) == 0 {
			if err := p.fill(env, id, e); err != nil {
				return err
			}
			p.current.Set(thor.Bytes32{})
		}
	}
	return nil
}

// CancelDeposit returns amount of the sender's deposit in the collecting entity.
func (p *Pools) CancelDeposit(env *xenv.Environment, recipient thor.Address, amount *big.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	id, err := p.current.Get()
	if err != nil {
		return err
	}
	if id.IsZero() {
		return reverts.New(reverts.InvalidState, "no collecting entity")
	}
	e, err := p.entity(id)
	if err != nil {
		return err
	}
	if e.Status != StatusCollecting {
		return reverts.New(reverts.InvalidState, "entity not collecting")
	}
	if err := p.checkUnit(amount); err != nil {
		return err
	}

	sender := env.Caller()
	if err := p.cancelDeposit(env, id, e, sender, recipient, amount); err != nil {
		return err
	}
	if err := p.entities.Set(id, e); err != nil {
		return err
	}
	return env.Transfer(sender, amount)
}

// TransferValidator moves an already staked validator to the oldest ready pool entity,
// whose collected deposit repays the validator's current owner.
func (p *Pools) TransferValidator(env *xenv.Environment, validatorID thor.Bytes32, validatorReward *big.Int) error {
	if err := p.requireOperator(env); err != nil {
		return err
	}
	val, err := p.deps.Validators.Get(validatorID)
	if err != nil {
		return err
	}
	if val.IsEmpty() {
		return reverts.New(reverts.NotFound, "validator not found")
	}
	id, err := p.ready.Peek()
	if err != nil {
		return err
	}
	if id.IsZero() {
		return reverts.New(reverts.InvalidState, "no ready entity")
	}
	e, err := p.entity(id)
	if err != nil {
		return err
	}

	if err := p.stake(env, id, e, validatorID, true); err != nil {
		return err
	}
	transfers := p.deps.Transfers
	if err := env.Call(transfers.Address(), e.Collected, func(te *xenv.Environment) error {
		return transfers.RegisterTransfer(te, validatorID, val.EntityID, id, validatorReward)
	}); err != nil {
		return err
	}

	logger.Info("validator transferred", "validator", validatorID, "from", val.EntityID, "to", id)
	return nil
}
