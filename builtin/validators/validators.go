// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "validators")

const (
	EventValidatorRegistered = "ValidatorRegistered"
	EventValidatorUpdated    = "ValidatorUpdated"
)

// Validator is the registry record of a staked validator. DepositAmount is fixed at
// registration, the remaining settings snapshot is refreshed on transfer.
type Validator struct {
	PubKey          []byte
	EntityID        thor.Bytes32
	Collector       thor.Address
	DepositAmount   *big.Int
	MaintainerFee   uint64
	StakingDuration uint64
	Seq             uint64
	RegisteredAt    uint32
}

func (v *Validator) IsEmpty() bool {
	return len(v.PubKey) == 0
}

type registeredEvent struct {
	ValidatorID     thor.Bytes32
	PubKey          []byte
	EntityID        thor.Bytes32
	Collector       thor.Address
	DepositAmount   *big.Int
	MaintainerFee   uint64
	StakingDuration uint64
	Seq             uint64
}

type updatedEvent struct {
	ValidatorID     thor.Bytes32
	PrevEntityID    thor.Bytes32
	EntityID        thor.Bytes32
	Collector       thor.Address
	MaintainerFee   uint64
	StakingDuration uint64
}

// Validators is the registry of every validator ever registered. Records are never deleted.
type Validators struct {
	addr       thor.Address
	check      roles.Checker
	settings   *settings.Settings
	validators *solidity.Mapping[thor.Bytes32, *Validator]
	count      *solidity.Uint256
}

func New(addr thor.Address, state *state.State, check roles.Checker, settings *settings.Settings) *Validators {
	sctx := solidity.NewContext(addr, state)
	return &Validators{
		addr:       addr,
		check:      check,
		settings:   settings,
		validators: solidity.NewMapping[thor.Bytes32, *Validator](sctx, solidity.Slot("validators")),
		count:      solidity.NewUint256(sctx, solidity.Slot("count")),
	}
}

func (v *Validators) Address() thor.Address {
	return v.addr
}

// Get returns the validator, which is empty when not registered.
func (v *Validators) Get(id thor.Bytes32) (*Validator, error) {
	return v.validators.Get(id)
}

// Count returns the number of registered validators.
func (v *Validators) Count() (uint64, error) {
	n, err := v.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Register records a validator for entityID on behalf of the calling collector.
// depositAmount is the principal the entity collected for it.
func (v *Validators) Register(env *xenv.Environment, pubKey []byte, entityID thor.Bytes32, depositAmount *big.Int) (thor.Bytes32, error) {
	collector := env.Caller()
	if err := roles.Require(v.check, collector, roles.Collector); err != nil {
		return thor.Bytes32{}, err
	}
	if len(pubKey) != thor.BLSPubKeyLength {
		return thor.Bytes32{}, reverts.Newf(reverts.InvalidArgument, "public key must be %d bytes", thor.BLSPubKeyLength)
	}
	id := thor.ValidatorID(pubKey)
	exists, err := v.validators.Exists(id)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if exists {
		return thor.Bytes32{}, reverts.New(reverts.InvalidState, "duplicate validator")
	}

	if depositAmount == nil || depositAmount.Sign() <= 0 {
		return thor.Bytes32{}, reverts.New(reverts.InvalidArgument, "non-positive deposit amount")
	}
	fee, err := v.settings.MaintainerFee()
	if err != nil {
		return thor.Bytes32{}, err
	}
	duration, err := v.settings.StakingDuration(collector)
	if err != nil {
		return thor.Bytes32{}, err
	}
	seq, err := v.count.Increment()
	if err != nil {
		return thor.Bytes32{}, err
	}

	val := &Validator{
		PubKey:          pubKey,
		EntityID:        entityID,
		Collector:       collector,
		DepositAmount:   depositAmount,
		MaintainerFee:   fee,
		StakingDuration: duration,
		Seq:             seq,
		RegisteredAt:    env.BlockContext().Number,
	}
	if err := v.validators.Set(id, val); err != nil {
		return thor.Bytes32{}, err
	}

	logger.Info("validator registered", "id", id, "entity", entityID, "collector", collector)
	return id, env.Log(EventValidatorRegistered, []thor.Bytes32{id, entityID}, &registeredEvent{
		ValidatorID:     id,
		PubKey:          pubKey,
		EntityID:        entityID,
		Collector:       collector,
		DepositAmount:   depositAmount,
		MaintainerFee:   fee,
		StakingDuration: duration,
		Seq:             seq,
	})
}

// Update rebinds a validator to entityID of collector and refreshes its fee and
// staking duration from the current settings.
func (v *Validators) Update(env *xenv.Environment, id, entityID thor.Bytes32, collector thor.Address) (*Validator, error) {
	if err := roles.Require(v.check, env.Caller(), roles.Transfers); err != nil {
		return nil, err
	}
	val, err := v.validators.Get(id)
	if err != nil {
		return nil, err
	}
	if val.IsEmpty() {
		return nil, reverts.New(reverts.NotFound, "validator not found")
	}
	fee, err := v.settings.MaintainerFee()
	if err != nil {
		return nil, err
	}
	duration, err := v.settings.StakingDuration(collector)
	if err != nil {
		return nil, err
	}

	prev := val.EntityID
	val.EntityID = entityID
	val.Collector = collector
	val.MaintainerFee = fee
	val.StakingDuration = duration
	if err := v.validators.Set(id, val); err != nil {
		return nil, err
	}

	logger.Debug("validator updated", "id", id, "prev", prev, "entity", entityID)
	return val, env.Log(EventValidatorUpdated, []thor.Bytes32{id, entityID}, &updatedEvent{
		ValidatorID:     id,
		PrevEntityID:    prev,
		EntityID:        entityID,
		Collector:       collector,
		MaintainerFee:   fee,
		StakingDuration: duration,
	})
}
