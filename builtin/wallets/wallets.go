// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wallets

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/deposits"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/builtin/transfers"
	"github.com/vechain/stakepool/builtin/validators"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "wallets")

const (
	EventWalletAssigned      = "WalletAssigned"
	EventWalletUnlocked      = "WalletUnlocked"
	EventMaintainerWithdrawn = "MaintainerWithdrawn"
	EventUserWithdrawn       = "UserWithdrawn"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusLocked
	StatusUnlocked
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusUnlocked:
		return "unlocked"
	default:
		return "none"
	}
}

// Settlement is the outcome decided when withdrawals are enabled.
type Settlement uint8

const (
	SettlementNone Settlement = iota
	SettlementPenalized
	SettlementProfitable
)

func (s Settlement) String() string {
	switch s {
	case SettlementPenalized:
		return "penalized"
	case SettlementProfitable:
		return "profitable"
	default:
		return "none"
	}
}

// Wallet receives the exited balance of one validator. Penalty is set when penalized,
// LeftDeposit when profitable.
type Wallet struct {
	ValidatorID thor.Bytes32
	Status      Status
	Settlement  Settlement
	Penalty     *big.Int
	LeftDeposit *big.Int
}

func (w *Wallet) IsEmpty() bool {
	return w.Status == StatusNone
}

type assignedEvent struct {
	Wallet      thor.Address
	ValidatorID thor.Bytes32
}

type unlockedEvent struct {
	Wallet           thor.Address
	ValidatorID      thor.Bytes32
	Settlement       uint8
	Balance          *big.Int
	EntityBalance    *big.Int
	Penalty          *big.Int
	LeftDeposit      *big.Int
	UserDebt         *big.Int
	MaintainerReward *big.Int
}

type maintainerEvent struct {
	Wallet     thor.Address
	Maintainer thor.Address
	Amount     *big.Int
}

type withdrawnEvent struct {
	Wallet     thor.Address
	Sender     thor.Address
	Withdrawer thor.Address
	Deposit    *big.Int
	Payout     *big.Int
}

// Wallets assigns withdrawal wallets to validators and splits their balances.
type Wallets struct {
	addr        thor.Address
	state       *state.State
	check       roles.Checker
	settings    *settings.Settings
	deposits    *deposits.Deposits
	validators  *validators.Validators
	transfers   *transfers.Transfers
	wallets     *solidity.Mapping[thor.Address, *Wallet]
	byValidator *solidity.Mapping[thor.Bytes32, thor.Address]
	withdrawn   *solidity.Mapping[thor.Bytes32, bool]
}

func New(
	addr thor.Address,
	state *state.State,
	check roles.Checker,
	settings *settings.Settings,
	deposits *deposits.Deposits,
	validators *validators.Validators,
	transfers *transfers.Transfers,
) *Wallets {
	sctx := solidity.NewContext(addr, state)
	return &Wallets{
		addr:        addr,
		state:       state,
		check:       check,
		settings:    settings,
		deposits:    deposits,
		validators:  validators,
		transfers:   transfers,
		wallets:     solidity.NewMapping[thor.Address, *Wallet](sctx, solidity.Slot("wallets")),
		byValidator: solidity.NewMapping[thor.Bytes32, thor.Address](sctx, solidity.Slot("validator-wallets")),
		withdrawn:   solidity.NewMapping[thor.Bytes32, bool](sctx, solidity.Slot("withdrawn-users")),
	}
}

func (w *Wallets) Address() thor.Address {
	return w.addr
}

func (w *Wallets) Wallet(addr thor.Address) (*Wallet, error) {
	wallet, err := w.wallets.Get(addr)
	if err != nil {
		return nil, err
	}
	if wallet.Penalty == nil {
		wallet.Penalty = new(big.Int)
	}
	if wallet.LeftDeposit == nil {
		wallet.LeftDeposit = new(big.Int)
	}
	return wallet, nil
}

// WalletOf returns the wallet assigned to a validator, zero when none.
func (w *Wallets) WalletOf(validatorID thor.Bytes32) (thor.Address, error) {
	return w.byValidator.Get(validatorID)
}

// Withdrawn reports whether a user completed a wallet withdrawal.
func (w *Wallets) Withdrawn(userID thor.Bytes32) (bool, error) {
	return w.withdrawn.Get(userID)
}

func (w *Wallets) requireManager(env *xenv.Environment) error {
	if err := roles.Require(w.check, env.Caller(), roles.Manager); err != nil {
		return err
	}
	return w.settings.RequireNotPaused(w.addr)
}

// AssignWallet derives the wallet address of a validator and locks it.
func (w *Wallets) AssignWallet(env *xenv.Environment, validatorID thor.Bytes32) (thor.Address, error) {
	if err := w.requireManager(env); err != nil {
		return thor.Address{}, err
	}
	val, err := w.validators.Get(validatorID)
	if err != nil {
		return thor.Address{}, err
	}
	if val.IsEmpty() {
		return thor.Address{}, reverts.New(reverts.NotFound, "validator not found")
	}
	assigned, err := w.byValidator.Get(validatorID)
	if err != nil {
		return thor.Address{}, err
	}
	if !assigned.IsZero() {
		return thor.Address{}, reverts.New(reverts.AlreadyProcessed, "wallet already assigned")
	}

	addr := thor.WalletAddress(w.addr, validatorID)
	if err := w.wallets.Set(addr, &Wallet{ValidatorID: validatorID, Status: StatusLocked}); err != nil {
		return thor.Address{}, err
	}
	if err := w.byValidator.Set(validatorID, addr); err != nil {
		return thor.Address{}, err
	}

	logger.Info("wallet assigned", "wallet", addr, "validator", validatorID)
	return addr, env.Log(EventWalletAssigned, []thor.Bytes32{validatorID, thor.BytesToBytes32(addr[:])}, &assignedEvent{addr, validatorID})
}

// pay moves amount out of a wallet.
func (w *Wallets) pay(env *xenv.Environment, wallet, to thor.Address, amount *big.Int) error {
	return env.Call(wallet, nil, func(we *xenv.Environment) error {
		return we.Transfer(to, amount)
	})
}

// EnableWithdrawals unlocks a wallet once the validator balance has arrived. Outstanding
// transfer debts are carved out first, then the rest is settled as penalized or profitable.
func (w *Wallets) EnableWithdrawals(env *xenv.Environment, addr thor.Address) error {
	if err := w.requireManager(env); err != nil {
		return err
	}
	wallet, err := w.Wallet(addr)
	if err != nil {
		return err
	}
	if wallet.IsEmpty() {
		return reverts.New(reverts.NotFound, "wallet not found")
	}
	if wallet.Status == StatusUnlocked {
		return reverts.New(reverts.AlreadyProcessed, "wallet already unlocked")
	}
	balance, err := w.state.GetBalance(addr)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return reverts.New(reverts.InvalidState, "empty wallet")
	}
	val, err := w.validators.Get(wallet.ValidatorID)
	if err != nil {
		return err
	}
	debt, err := w.transfers.Debt(wallet.ValidatorID)
	if err != nil {
		return err
	}

	rest := new(big.Int).Set(balance)
	userDebt := new(big.Int).Set(thor.Min(debt.UserDebt, rest))
	rest.Sub(rest, userDebt)
	maintainerDebt := new(big.Int).Set(thor.Min(debt.MaintainerDebt, rest))
	entityBalance := rest.Sub(rest, maintainerDebt)

	depositAmount := val.DepositAmount
	maintainerReward := maintainerDebt
	if entityBalance.Cmp(depositAmount) < 0 {
		wallet.Settlement = SettlementPenalized
		if wallet.Penalty, err = thor.MulDiv(entityBalance, thor.RatioUnit, depositAmount); err != nil {
			return err
		}
	} else {
		wallet.Settlement = SettlementProfitable
		wallet.LeftDeposit = new(big.Int).Set(depositAmount)
		fee, err := thor.FeeOf(new(big.Int).Sub(entityBalance, depositAmount), val.MaintainerFee)
		if err != nil {
			return err
		}
		maintainerReward = new(big.Int).Add(maintainerDebt, fee)
	}
	wallet.Status = StatusUnlocked
	if err := w.wallets.Set(addr, wallet); err != nil {
		return err
	}

	logger.Info("wallet unlocked", "wallet", addr, "settlement", wallet.Settlement, "balance", balance)
	if err := env.Log(EventWalletUnlocked, []thor.Bytes32{wallet.ValidatorID, thor.BytesToBytes32(addr[:])}, &unlockedEvent{
		Wallet:           addr,
		ValidatorID:      wallet.ValidatorID,
		Settlement:       uint8(wallet.Settlement),
		Balance:          balance,
		EntityBalance:    entityBalance,
		Penalty:          wallet.Penalty,
		LeftDeposit:      wallet.LeftDeposit,
		UserDebt:         userDebt,
		MaintainerReward: maintainerReward,
	}); err != nil {
		return err
	}

	// the debt is always resolved so no transfer can happen after unlock
	if err := w.pay(env, addr, w.addr, userDebt); err != nil {
		return err
	}
	if err := env.Call(w.transfers.Address(), userDebt, func(te *xenv.Environment) error {
		return w.transfers.ResolveDebt(te, wallet.ValidatorID)
	}); err != nil {
		return err
	}

	dust, err := w.settings.DustThreshold()
	if err != nil {
		return err
	}
	if maintainerReward.Cmp(dust) <= 0 {
		return nil
	}
	maintainer, err := w.settings.Maintainer()
	if err != nil {
		return err
	}
	if maintainer.IsZero() {
		return reverts.New(reverts.InvalidState, "maintainer not set")
	}
	if err := env.Log(EventMaintainerWithdrawn, []thor.Bytes32{thor.BytesToBytes32(addr[:])}, &maintainerEvent{addr, maintainer, maintainerReward}); err != nil {
		return err
	}
	return w.pay(env, addr, maintainer, maintainerReward)
}

// Withdraw pays the caller's share of an unlocked wallet to withdrawer.
func (w *Wallets) Withdraw(env *xenv.Environment, addr, withdrawer thor.Address) error {
	if err := w.settings.RequireNotPaused(w.addr); err != nil {
		return err
	}
	sender := env.Caller()
	wallet, err := w.Wallet(addr)
	if err != nil {
		return err
	}
	if wallet.IsEmpty() {
		return reverts.New(reverts.NotFound, "wallet not found")
	}
	if wallet.Status != StatusUnlocked {
		return reverts.New(reverts.InvalidState, "wallet locked")
	}
	val, err := w.validators.Get(wallet.ValidatorID)
	if err != nil {
		return err
	}
	userID := thor.UserID(val.EntityID, sender, withdrawer)
	done, err := w.withdrawn.Get(userID)
	if err != nil {
		return err
	}
	if done {
		return reverts.New(reverts.AlreadyProcessed, "already withdrawn")
	}
	deposit, err := w.deposits.Amount(userID)
	if err != nil {
		return err
	}
	if deposit.Sign() == 0 {
		return reverts.New(reverts.NotFound, "no share")
	}

	var payout *big.Int
	switch wallet.Settlement {
	case SettlementPenalized:
		if payout, err = thor.MulDiv(deposit, wallet.Penalty, thor.RatioUnit); err != nil {
			return err
		}
	case SettlementProfitable:
		// guard: unreachable while LeftDeposit equals the unpaid entity deposits
		if deposit.Cmp(wallet.LeftDeposit) > 0 {
			return reverts.New(reverts.InvalidState, "share exceeds left deposit")
		}
		balance, err := w.state.GetBalance(addr)
		if err != nil {
			return err
		}
		reward, err := thor.MulDiv(new(big.Int).Sub(balance, wallet.LeftDeposit), deposit, wallet.LeftDeposit)
		if err != nil {
			return err
		}
		wallet.LeftDeposit.Sub(wallet.LeftDeposit, deposit)
		payout = reward.Add(reward, deposit)
	default:
		return reverts.New(reverts.InvalidState, "wallet not settled")
	}

	if err := w.withdrawn.Set(userID, true); err != nil {
		return err
	}
	if err := w.wallets.Set(addr, wallet); err != nil {
		return err
	}

	logger.Debug("user withdrawn", "wallet", addr, "sender", sender, "withdrawer", withdrawer, "payout", payout)
	if err := env.Log(EventUserWithdrawn, []thor.Bytes32{val.EntityID, thor.BytesToBytes32(sender[:]), thor.BytesToBytes32(withdrawer[:])}, &withdrawnEvent{
		Wallet:     addr,
		Sender:     sender,
		Withdrawer: withdrawer,
		Deposit:    deposit,
		Payout:     payout,
	}); err != nil {
		return err
	}
	return w.pay(env, addr, withdrawer, payout)
}
