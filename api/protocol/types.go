// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protocol

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/transfers"
	"github.com/vechain/stakepool/builtin/validators"
	"github.com/vechain/stakepool/builtin/wallets"
	"github.com/vechain/stakepool/thor"
)

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return (*math.HexOrDecimal256)(new(big.Int))
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

type Settings struct {
	ValidatorDepositAmount *math.HexOrDecimal256 `json:"validatorDepositAmount"`
	MinDepositUnit         *math.HexOrDecimal256 `json:"minDepositUnit"`
	MaxDepositAmount       *math.HexOrDecimal256 `json:"maxDepositAmount"`
	MaintainerFee          uint64                `json:"maintainerFee"`
	DustThreshold          *math.HexOrDecimal256 `json:"dustThreshold"`
	Maintainer             thor.Address          `json:"maintainer"`
	WithdrawalCredentials  thor.Bytes32          `json:"withdrawalCredentials"`
	StakingDurations       map[string]uint64     `json:"stakingDurations"`
	Paused                 map[string]bool       `json:"paused"`
}

func convertSettings(p *settings.Params, names map[thor.Address]string, paused map[string]bool) *Settings {
	durations := make(map[string]uint64, len(p.StakingDurations))
	for addr, d := range p.StakingDurations {
		durations[names[addr]] = d
	}
	return &Settings{
		ValidatorDepositAmount: amount(p.ValidatorDepositAmount),
		MinDepositUnit:         amount(p.MinDepositUnit),
		MaxDepositAmount:       amount(p.MaxDepositAmount),
		MaintainerFee:          p.MaintainerFee,
		DustThreshold:          amount(p.DustThreshold),
		Maintainer:             p.Maintainer,
		WithdrawalCredentials:  p.WithdrawalCredentials,
		StakingDurations:       durations,
		Paused:                 paused,
	}
}

type Collector struct {
	Address    thor.Address  `json:"address"`
	Counter    uint64        `json:"counter"`
	ReadyCount uint64        `json:"readyCount"`
	Current    *thor.Bytes32 `json:"current,omitempty"`
}

type Entity struct {
	ID                    thor.Bytes32          `json:"id"`
	Collector             thor.Address          `json:"collector"`
	Counter               uint64                `json:"counter"`
	Status                string                `json:"status"`
	Collected             *math.HexOrDecimal256 `json:"collected"`
	Target                *math.HexOrDecimal256 `json:"target"`
	WithdrawalCredentials *thor.Bytes32         `json:"withdrawalCredentials,omitempty"`
	Owner                 *thor.Address         `json:"owner,omitempty"`
	ValidatorID           *thor.Bytes32         `json:"validatorId,omitempty"`
}

func convertEntity(id thor.Bytes32, e *collectors.Entity) *Entity {
	out := &Entity{
		ID:        id,
		Collector: e.Collector,
		Counter:   e.Counter,
		Status:    e.Status.String(),
		Collected: amount(e.Collected),
		Target:    amount(e.Target),
	}
	if !e.WithdrawalCredentials.IsZero() {
		wc := e.WithdrawalCredentials
		out.WithdrawalCredentials = &wc
	}
	if !e.Owner.IsZero() {
		owner := e.Owner
		out.Owner = &owner
	}
	if !e.ValidatorID.IsZero() {
		vid := e.ValidatorID
		out.ValidatorID = &vid
	}
	return out
}

type Validator struct {
	ID              thor.Bytes32          `json:"id"`
	PubKey          hexutil.Bytes         `json:"pubKey"`
	EntityID        thor.Bytes32          `json:"entityId"`
	Collector       thor.Address          `json:"collector"`
	DepositAmount   *math.HexOrDecimal256 `json:"depositAmount"`
	MaintainerFee   uint64                `json:"maintainerFee"`
	StakingDuration uint64                `json:"stakingDuration"`
	Seq             uint64                `json:"seq"`
	RegisteredAt    uint32                `json:"registeredAt"`
	Wallet          *thor.Address         `json:"wallet,omitempty"`
}

func convertValidator(id thor.Bytes32, v *validators.Validator, wallet thor.Address) *Validator {
	out := &Validator{
		ID:              id,
		PubKey:          v.PubKey,
		EntityID:        v.EntityID,
		Collector:       v.Collector,
		DepositAmount:   amount(v.DepositAmount),
		MaintainerFee:   v.MaintainerFee,
		StakingDuration: v.StakingDuration,
		Seq:             v.Seq,
		RegisteredAt:    v.RegisteredAt,
	}
	if !wallet.IsZero() {
		out.Wallet = &wallet
	}
	return out
}

type Debt struct {
	UserDebt         *math.HexOrDecimal256 `json:"userDebt"`
	MaintainerDebt   *math.HexOrDecimal256 `json:"maintainerDebt"`
	TotalUserDebt    *math.HexOrDecimal256 `json:"totalUserDebt"`
	ResolvedUserDebt *math.HexOrDecimal256 `json:"resolvedUserDebt"`
	Resolved         bool                  `json:"resolved"`
}

func convertDebt(d *transfers.Debt) *Debt {
	return &Debt{
		UserDebt:         amount(d.UserDebt),
		MaintainerDebt:   amount(d.MaintainerDebt),
		TotalUserDebt:    amount(d.TotalUserDebt),
		ResolvedUserDebt: amount(d.ResolvedUserDebt),
		Resolved:         d.Resolved,
	}
}

type EntityReward struct {
	ValidatorID thor.Bytes32          `json:"validatorId"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
}

type Withdrawal struct {
	DepositWithdrawn bool `json:"depositWithdrawn"`
	RewardWithdrawn  bool `json:"rewardWithdrawn"`
}

type Wallet struct {
	Address     thor.Address          `json:"address"`
	ValidatorID thor.Bytes32          `json:"validatorId"`
	Status      string                `json:"status"`
	Settlement  string                `json:"settlement"`
	Penalty     *math.HexOrDecimal256 `json:"penalty,omitempty"`
	LeftDeposit *math.HexOrDecimal256 `json:"leftDeposit,omitempty"`
	Balance     *math.HexOrDecimal256 `json:"balance"`
}

func convertWallet(addr thor.Address, w *wallets.Wallet, balance *big.Int) *Wallet {
	out := &Wallet{
		Address:     addr,
		ValidatorID: w.ValidatorID,
		Status:      w.Status.String(),
		Settlement:  w.Settlement.String(),
		Balance:     amount(balance),
	}
	switch w.Settlement {
	case wallets.SettlementPenalized:
		out.Penalty = amount(w.Penalty)
	case wallets.SettlementProfitable:
		out.LeftDeposit = amount(w.LeftDeposit)
	}
	return out
}

type Deposit struct {
	UserID    thor.Bytes32          `json:"userId"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Withdrawn bool                  `json:"withdrawn"`
}

type EntityDeposits struct {
	EntityID thor.Bytes32          `json:"entityId"`
	Total    *math.HexOrDecimal256 `json:"total"`
}

type Oracles struct {
	Nonce               uint64                `json:"nonce"`
	Members             uint64                `json:"members"`
	TotalRewards        *math.HexOrDecimal256 `json:"totalRewards"`
	ActivatedValidators uint64                `json:"activatedValidators"`
	MerkleRoot          thor.Bytes32          `json:"merkleRoot"`
	Proofs              hexutil.Bytes         `json:"proofs"`
}
