// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package collectors aggregates user deposits into validator sized entities.
//
// Pools, Solos and Groups share one core. An entity is created Collecting, becomes
// Ready once it holds the validator deposit amount and Staked when a validator is
// registered from it or it funds a validator transfer. Ready entities wait in a
// per-collector queue in the order they were filled.
package collectors

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/beacondeposit"
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

var logger = log.WithContext("pkg", "collectors")

const (
	EventEntityReady  = "EntityReady"
	EventEntityStaked = "EntityStaked"
	EventGroupCreated = "GroupCreated"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusCollecting
	StatusReady
	StatusStaked
)

func (s Status) String() string {
	switch s {
	case StatusCollecting:
		return "collecting"
	case StatusReady:
		return "ready"
	case StatusStaked:
		return "staked"
	default:
		return "none"
	}
}

// Entity is a validator sized batch of deposits. Target is the validator deposit
// amount at creation; later changes of the setting only apply to new entities.
type Entity struct {
	Collector             thor.Address
	Counter               uint64
	Status                Status
	Collected             *big.Int
	Target                *big.Int
	WithdrawalCredentials thor.Bytes32
	Owner                 thor.Address
	ValidatorID           thor.Bytes32
}

func (e *Entity) IsEmpty() bool {
	return e.Status == StatusNone
}

// Deps are the contracts every collector talks to.
type Deps struct {
	Check      roles.Checker
	Settings   *settings.Settings
	Deposits   *deposits.Deposits
	Validators *validators.Validators
	Transfers  *transfers.Transfers
	Locker     beacondeposit.Locker
}

type readyEvent struct {
	EntityID  thor.Bytes32
	Collector thor.Address
	Collected *big.Int
}

type stakedEvent struct {
	EntityID    thor.Bytes32
	ValidatorID thor.Bytes32
	Transferred bool
}

type collector struct {
	addr     thor.Address
	deps     *Deps
	sctx     *solidity.Context
	entities *solidity.Mapping[thor.Bytes32, *Entity]
	counter  *solidity.Uint256
	ready    *queue
}

func newCollector(addr thor.Address, state *state.State, deps *Deps) *collector {
	sctx := solidity.NewContext(addr, state)
	return &collector{
		addr:     addr,
		deps:     deps,
		sctx:     sctx,
		entities: solidity.NewMapping[thor.Bytes32, *Entity](sctx, solidity.Slot("entities")),
		counter:  solidity.NewUint256(sctx, solidity.Slot("counter")),
		ready:    newQueue(sctx, "ready"),
	}
}

func (c *collector) Address() thor.Address {
	return c.addr
}

// Entity returns the entity with the given id, empty when unknown.
func (c *collector) Entity(id thor.Bytes32) (*Entity, error) {
	e, err := c.entities.Get(id)
	if err != nil {
		return nil, err
	}
	if e.Collected == nil {
		e.Collected = new(big.Int)
	}
	if e.Target == nil {
		e.Target = new(big.Int)
	}
	return e, nil
}

// Counter returns the number of entities ever created.
func (c *collector) Counter() (uint64, error) {
	n, err := c.counter.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// ReadyEntities returns up to limit ready entity ids, oldest first.
func (c *collector) ReadyEntities(limit int) ([]thor.Bytes32, error) {
	ids := make([]thor.Bytes32, 0)
	err := c.ready.Iter(func(id thor.Bytes32) bool {
		ids = append(ids, id)
		return len(ids) < limit
	})
	return ids, err
}

func (c *collector) ReadyCount() (uint64, error) {
	return c.ready.Len()
}

func (c *collector) requireNotPaused() error {
	return c.deps.Settings.RequireNotPaused(c.addr)
}

func (c *collector) requireOperator(env *xenv.Environment) error {
	if err := roles.Require(c.deps.Check, env.Caller(), roles.Operator); err != nil {
		return err
	}
	return c.requireNotPaused()
}

func (c *collector) newEntity(owner thor.Address, credentials thor.Bytes32) (thor.Bytes32, *Entity, error) {
	target, err := c.deps.Settings.ValidatorDepositAmount()
	if err != nil {
		return thor.Bytes32{}, nil, err
	}
	n, err := c.counter.Increment()
	if err != nil {
		return thor.Bytes32{}, nil, err
	}
	e := &Entity{
		Collector:             c.addr,
		Counter:               n,
		Status:                StatusCollecting,
		Collected:             new(big.Int),
		Target:                target,
		WithdrawalCredentials: credentials,
		Owner:                 owner,
	}
	return thor.EntityID(c.addr, n), e, c.entities.Set(thor.EntityID(c.addr, n), e)
}

// entity loads an existing entity, NotFound otherwise.
func (c *collector) entity(id thor.Bytes32) (*Entity, error) {
	e, err := c.Entity(id)
	if err != nil {
		return nil, err
	}
	if e.IsEmpty() {
		return nil, reverts.New(reverts.NotFound, "entity not found")
	}
	return e, nil
}

// addDeposit books amount for the user and the entity. The value is already held by the collector.
func (c *collector) addDeposit(env *xenv.Environment, id thor.Bytes32, e *Entity, sender, recipient thor.Address, amount *big.Int) error {
	e.Collected = new(big.Int).Add(e.Collected, amount)
	if err := c.entities.Set(id, e); err != nil {
		return err
	}
	return env.Call(c.deps.Deposits.Address(), nil, func(de *xenv.Environment) error {
		return c.deps.Deposits.AddDeposit(de, id, sender, recipient, amount)
	})
}

// cancelDeposit unbooks amount. The caller saves the entity and refunds the sender.
func (c *collector) cancelDeposit(env *xenv.Environment, id thor.Bytes32, e *Entity, sender, recipient thor.Address, amount *big.Int) error {
	if amount.Cmp(e.Collected) > 0 {
		return reverts.New(reverts.InsufficientFunds, "insufficient balance")
	}
	e.Collected = new(big.Int).Sub(e.Collected, amount)
	return env.Call(c.deps.Deposits.Address(), nil, func(de *xenv.Environment) error {
		return c.deps.Deposits.CancelDeposit(de, id, sender, recipient, amount)
	})
}

// fill marks a complete entity Ready and queues it for registration.
func (c *collector) fill(env *xenv.Environment, id thor.Bytes32, e *Entity) error {
	e.Status = StatusReady
	if err := c.entities.Set(id, e); err != nil {
		return err
	}
	if err := c.ready.Add(id); err != nil {
		return err
	}
	logger.Debug("entity ready", "collector", c.addr, "entity", id)
	return env.Log(EventEntityReady, []thor.Bytes32{id}, &readyEvent{id, c.addr, e.Collected})
}

// stake takes a ready entity out of the queue for good.
func (c *collector) stake(env *xenv.Environment, id thor.Bytes32, e *Entity, validatorID thor.Bytes32, transferred bool) error {
	e.Status = StatusStaked
	e.ValidatorID = validatorID
	if err := c.entities.Set(id, e); err != nil {
		return err
	}
	if _, err := c.ready.Remove(id); err != nil {
		return err
	}
	return env.Log(EventEntityStaked, []thor.Bytes32{id, validatorID}, &stakedEvent{id, validatorID, transferred})
}

func (c *collector) depositAmount() (*big.Int, error) {
	return c.deps.Settings.ValidatorDepositAmount()
}

// checkUnit fails unless amount is a positive multiple of the minimum deposit unit.
func (c *collector) checkUnit(amount *big.Int) error {
	unit, err := c.deps.Settings.MinDepositUnit()
	if err != nil {
		return err
	}
	if amount.Cmp(unit) < 0 {
		return reverts.New(reverts.InvalidArgument, "amount below minimum deposit unit")
	}
	if new(big.Int).Rem(amount, unit).Sign() != 0 {
		return reverts.New(reverts.InvalidArgument, "amount not a multiple of minimum deposit unit")
	}
	return nil
}

func (c *collector) checkMax(amount *big.Int) error {
	maxAmount, err := c.deps.Settings.MaxDepositAmount()
	if err != nil {
		return err
	}
	if amount.Cmp(maxAmount) > 0 {
		return reverts.New(reverts.InvalidArgument, "amount above maximum deposit amount")
	}
	return nil
}

// RegisterValidator registers a validator from a ready entity and locks its collateral.
func (c *collector) RegisterValidator(env *xenv.Environment, entityID thor.Bytes32, pubKey, signature []byte, root thor.Bytes32) (thor.Bytes32, error) {
	if err := c.requireOperator(env); err != nil {
		return thor.Bytes32{}, err
	}
	e, err := c.entity(entityID)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if e.Status != StatusReady {
		return thor.Bytes32{}, reverts.New(reverts.InvalidState, "entity not ready")
	}
	if e.Collected.Cmp(e.Target) != 0 {
		return thor.Bytes32{}, reverts.New(reverts.InvalidState, "entity deposit does not match its target")
	}
	credentials := e.WithdrawalCredentials
	if credentials.IsZero() {
		if credentials, err = c.deps.Settings.WithdrawalCredentials(); err != nil {
			return thor.Bytes32{}, err
		}
		if credentials.IsZero() {
			return thor.Bytes32{}, reverts.New(reverts.InvalidState, "withdrawal credentials not set")
		}
	}

	validatorID := thor.ValidatorID(pubKey)
	if err := c.stake(env, entityID, e, validatorID, false); err != nil {
		return thor.Bytes32{}, err
	}
	if err := env.Call(c.deps.Validators.Address(), nil, func(ve *xenv.Environment) error {
		_, err := c.deps.Validators.Register(ve, pubKey, entityID, e.Target)
		return err
	}); err != nil {
		return thor.Bytes32{}, err
	}
	if err := env.Call(c.deps.Locker.Address(), e.Collected, func(le *xenv.Environment) error {
		return c.deps.Locker.Deposit(le, pubKey, credentials, signature, root, e.Collected)
	}); err != nil {
		return thor.Bytes32{}, err
	}

	logger.Info("validator registered", "collector", c.addr, "entity", entityID, "validator", validatorID)
	return validatorID, nil
}
