// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfers

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/deposits"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/builtin/validators"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "transfers")

const (
	EventValidatorTransferred = "ValidatorTransferred"
	EventDebtResolved         = "DebtResolved"
	EventUserWithdrawn        = "UserWithdrawn"
)

// Debt is what a validator owes to the entities it was transferred away from.
// UserDebt and MaintainerDebt accumulate until the validator's wallet is unlocked.
type Debt struct {
	UserDebt         *big.Int
	MaintainerDebt   *big.Int
	TotalUserDebt    *big.Int // user debt ever registered, kept after resolution
	ResolvedUserDebt *big.Int // user debt actually paid on resolution
	Resolved         bool
}

func (d *Debt) normalize() *Debt {
	for _, v := range []**big.Int{&d.UserDebt, &d.MaintainerDebt, &d.TotalUserDebt, &d.ResolvedUserDebt} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
	return d
}

// EntityReward is the reward owed to the participants of an entity that handed over a validator.
type EntityReward struct {
	ValidatorID thor.Bytes32
	Amount      *big.Int
}

func (r *EntityReward) IsEmpty() bool {
	return r.ValidatorID.IsZero()
}

// Withdrawal tracks what a previous-entity participant already claimed.
type Withdrawal struct {
	DepositWithdrawn bool
	RewardWithdrawn  bool
}

type transferredEvent struct {
	ValidatorID        thor.Bytes32
	PrevEntityID       thor.Bytes32
	NewEntityID        thor.Bytes32
	UserDebt           *big.Int
	MaintainerDebt     *big.Int
	NewMaintainerFee   uint64
	NewStakingDuration uint64
}

type debtResolvedEvent struct {
	ValidatorID    thor.Bytes32
	UserDebt       *big.Int
	Paid           *big.Int
	MaintainerDebt *big.Int
}

type withdrawnEvent struct {
	EntityID  thor.Bytes32
	Sender    thor.Address
	Recipient thor.Address
	Deposit   *big.Int
	Reward    *big.Int
}

// Transfers keeps the debt ledger of validators moved between entities and pays
// out the participants of the entities they were moved away from.
type Transfers struct {
	addr        thor.Address
	check       roles.Checker
	settings    *settings.Settings
	deposits    *deposits.Deposits
	validators  *validators.Validators
	debts       *solidity.Mapping[thor.Bytes32, *Debt]
	rewards     *solidity.Mapping[thor.Bytes32, *EntityReward]
	withdrawals *solidity.Mapping[thor.Bytes32, *Withdrawal]
}

func New(
	addr thor.Address,
	state *state.State,
	check roles.Checker,
	settings *settings.Settings,
	deposits *deposits.Deposits,
	validators *validators.Validators,
) *Transfers {
	sctx := solidity.NewContext(addr, state)
	return &Transfers{
		addr:        addr,
		check:       check,
		settings:    settings,
		deposits:    deposits,
		validators:  validators,
		debts:       solidity.NewMapping[thor.Bytes32, *Debt](sctx, solidity.Slot("debts")),
		rewards:     solidity.NewMapping[thor.Bytes32, *EntityReward](sctx, solidity.Slot("entity-rewards")),
		withdrawals: solidity.NewMapping[thor.Bytes32, *Withdrawal](sctx, solidity.Slot("withdrawals")),
	}
}

func (t *Transfers) Address() thor.Address {
	return t.addr
}

func (t *Transfers) Debt(validatorID thor.Bytes32) (*Debt, error) {
	d, err := t.debts.Get(validatorID)
	if err != nil {
		return nil, err
	}
	return d.normalize(), nil
}

func (t *Transfers) EntityReward(entityID thor.Bytes32) (*EntityReward, error) {
	r, err := t.rewards.Get(entityID)
	if err != nil {
		return nil, err
	}
	if r.Amount == nil {
		r.Amount = new(big.Int)
	}
	return r, nil
}

func (t *Transfers) Withdrawal(userID thor.Bytes32) (*Withdrawal, error) {
	return t.withdrawals.Get(userID)
}

// RegisterTransfer hands validatorID over from prevEntityID to newEntityID. The value of
// env is the principal collected by the new entity and is kept to repay the previous one.
func (t *Transfers) RegisterTransfer(
	env *xenv.Environment,
	validatorID, prevEntityID, newEntityID thor.Bytes32,
	validatorReward *big.Int,
) error {
	if err := t.settings.RequireNotPaused(t.addr); err != nil {
		return err
	}
	collector := env.Caller()
	if err := roles.Require(t.check, collector, roles.Collector); err != nil {
		return err
	}
	if validatorReward.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "negative validator reward")
	}
	val, err := t.validators.Get(validatorID)
	if err != nil {
		return err
	}
	if val.IsEmpty() {
		return reverts.New(reverts.NotFound, "validator not found")
	}
	debt, err := t.Debt(validatorID)
	if err != nil {
		return err
	}
	if debt.Resolved {
		return reverts.New(reverts.InvalidState, "wallet unlocked")
	}
	if val.EntityID != prevEntityID {
		return reverts.New(reverts.InvalidState, "previous entity does not own validator")
	}
	if env.Value().Cmp(val.DepositAmount) != 0 {
		return reverts.New(reverts.InvalidArgument, "transfer value must equal validator deposit amount")
	}

	maintainerDebt, err := thor.FeeOf(validatorReward, val.MaintainerFee)
	if err != nil {
		return err
	}
	userDebt := new(big.Int).Sub(validatorReward, maintainerDebt)

	debt.UserDebt.Add(debt.UserDebt, userDebt)
	debt.TotalUserDebt.Add(debt.TotalUserDebt, userDebt)
	debt.MaintainerDebt.Add(debt.MaintainerDebt, maintainerDebt)
	if err := t.debts.Set(validatorID, debt); err != nil {
		return err
	}
	if err := t.rewards.Set(prevEntityID, &EntityReward{ValidatorID: validatorID, Amount: userDebt}); err != nil {
		return err
	}

	var updated *validators.Validator
	if err := env.Call(t.validators.Address(), nil, func(e *xenv.Environment) (err error) {
		updated, err = t.validators.Update(e, validatorID, newEntityID, collector)
		return
	}); err != nil {
		return err
	}

	logger.Info("validator transferred", "id", validatorID, "prev", prevEntityID, "new", newEntityID, "userDebt", userDebt)
	return env.Log(EventValidatorTransferred, []thor.Bytes32{validatorID, prevEntityID, newEntityID}, &transferredEvent{
		ValidatorID:        validatorID,
		PrevEntityID:       prevEntityID,
		NewEntityID:        newEntityID,
		UserDebt:           userDebt,
		MaintainerDebt:     maintainerDebt,
		NewMaintainerFee:   updated.MaintainerFee,
		NewStakingDuration: updated.StakingDuration,
	})
}

// ResolveDebt settles the debt of a validator whose wallet is being unlocked. The value of
// env is the user debt the wallet could cover and may be below the outstanding amount.
func (t *Transfers) ResolveDebt(env *xenv.Environment, validatorID thor.Bytes32) error {
	if err := t.settings.RequireNotPaused(t.addr); err != nil {
		return err
	}
	if err := roles.Require(t.check, env.Caller(), roles.Wallets); err != nil {
		return err
	}
	debt, err := t.Debt(validatorID)
	if err != nil {
		return err
	}
	if debt.Resolved {
		return reverts.New(reverts.AlreadyProcessed, "debt already resolved")
	}
	paid := env.Value()
	if paid.Cmp(debt.UserDebt) > 0 {
		return reverts.New(reverts.InvalidArgument, "payment exceeds user debt")
	}

	owed, maintainerDebt := debt.UserDebt, debt.MaintainerDebt
	debt.Resolved = true
	debt.ResolvedUserDebt = paid
	debt.UserDebt = new(big.Int)
	debt.MaintainerDebt = new(big.Int)
	if err := t.debts.Set(validatorID, debt); err != nil {
		return err
	}

	logger.Debug("debt resolved", "id", validatorID, "owed", owed, "paid", paid)
	return env.Log(EventDebtResolved, []thor.Bytes32{validatorID}, &debtResolvedEvent{
		ValidatorID:    validatorID,
		UserDebt:       owed,
		Paid:           paid,
		MaintainerDebt: maintainerDebt,
	})
}

// Withdraw pays a participant of a previous owner entity its principal and, once the
// validator debt is resolved, its share of the entity reward.
func (t *Transfers) Withdraw(env *xenv.Environment, entityID thor.Bytes32, recipient thor.Address) error {
	if err := t.settings.RequireNotPaused(t.addr); err != nil {
		return err
	}
	sender := env.Caller()
	reward, err := t.EntityReward(entityID)
	if err != nil {
		return err
	}
	if reward.IsEmpty() {
		return reverts.New(reverts.NotFound, "no transfer record")
	}
	userID := thor.UserID(entityID, sender, recipient)
	deposit, err := t.deposits.Amount(userID)
	if err != nil {
		return err
	}
	if deposit.Sign() == 0 {
		return reverts.New(reverts.NotFound, "no share")
	}
	w, err := t.withdrawals.Get(userID)
	if err != nil {
		return err
	}
	debt, err := t.Debt(reward.ValidatorID)
	if err != nil {
		return err
	}

	principal, share := new(big.Int), new(big.Int)
	if !w.DepositWithdrawn {
		w.DepositWithdrawn = true
		principal = deposit
	}
	if debt.Resolved && !w.RewardWithdrawn && debt.TotalUserDebt.Sign() > 0 {
		w.RewardWithdrawn = true
		if share, err = t.rewardShare(entityID, reward, debt, deposit); err != nil {
			return err
		}
	}
	payout := new(big.Int).Add(principal, share)
	if payout.Sign() == 0 {
		return reverts.New(reverts.AlreadyProcessed, "already withdrawn")
	}
	if err := t.withdrawals.Set(userID, w); err != nil {
		return err
	}
	if err := env.Log(EventUserWithdrawn, []thor.Bytes32{entityID, thor.BytesToBytes32(sender[:]), thor.BytesToBytes32(recipient[:])}, &withdrawnEvent{
		EntityID:  entityID,
		Sender:    sender,
		Recipient: recipient,
		Deposit:   principal,
		Reward:    share,
	}); err != nil {
		return err
	}
	return env.Transfer(recipient, payout)
}

// rewardShare scales the entity reward by what the wallet actually paid and by the
// user's part of the entity.
func (t *Transfers) rewardShare(entityID thor.Bytes32, reward *EntityReward, debt *Debt, deposit *big.Int) (*big.Int, error) {
	total, err := t.deposits.EntityTotal(entityID)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return new(big.Int), nil
	}
	paid, err := thor.MulDiv(reward.Amount, debt.ResolvedUserDebt, debt.TotalUserDebt)
	if err != nil {
		return nil, err
	}
	return thor.MulDiv(paid, deposit, total)
}
