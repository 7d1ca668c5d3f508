// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// MaxCallDepth limits nested calls, receive hooks included.
const MaxCallDepth = 64

// BlockContext is the position of the executing transaction in the global log.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     thor.Bytes32
	Origin thor.Address
	Op     string
}

// Event is an audit log entry emitted by a builtin contract.
// Topics[0] is the event id, further topics are indexed fields.
type Event struct {
	Address thor.Address
	Name    string
	Topics  []thor.Bytes32
	Data    []byte
}

// EventID returns the first topic of the named event.
func EventID(name string) thor.Bytes32 {
	return thor.Keccak256([]byte(name))
}

// ReceiveHook runs in the recipient's frame after value was transferred to it.
type ReceiveHook func(env *Environment) error

type shared struct {
	events []*Event
	hooks  map[thor.Address]ReceiveHook
}

// Environment an env to execute native method.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	caller   thor.Address
	to       thor.Address
	value    *big.Int
	depth    int
	shared   *shared
}

// New create a new root env executing as the transaction origin.
func New(
	state *state.State,
	blockCtx *BlockContext,
	txCtx *TransactionContext,
	hooks map[thor.Address]ReceiveHook,
) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
		to:       txCtx.Origin,
		value:    new(big.Int),
		shared:   &shared{hooks: hooks},
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) Caller() thor.Address                    { return env.caller }
func (env *Environment) To() thor.Address                        { return env.to }
func (env *Environment) Value() *big.Int                         { return new(big.Int).Set(env.value) }
func (env *Environment) Events() []*Event                        { return env.shared.events }

// Call runs fn in a new frame at address to, with the current frame as caller. value is moved
// from the current frame to to before fn runs. If fn fails every state change and event of
// the frame is reverted.
func (env *Environment) Call(to thor.Address, value *big.Int, fn func(env *Environment) error) error {
	return env.call(to, value, true, fn)
}

func (env *Environment) call(to thor.Address, value *big.Int, move bool, fn func(env *Environment) error) error {
	if env.depth >= MaxCallDepth {
		return reverts.New(reverts.InvalidState, "call depth exceeded")
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "negative value")
	}

	frame := &Environment{
		state:    env.state,
		blockCtx: env.blockCtx,
		txCtx:    env.txCtx,
		caller:   env.to,
		to:       to,
		value:    new(big.Int).Set(value),
		depth:    env.depth + 1,
		shared:   env.shared,
	}

	revision := env.state.NewCheckpoint()
	nEvents := len(env.shared.events)

	err := func() error {
		if move && value.Sign() > 0 {
			if err := env.move(env.to, to, value); err != nil {
				return err
			}
		}
		return fn(frame)
	}()
	if err != nil {
		env.state.RevertTo(revision)
		env.shared.events = env.shared.events[:nEvents]
		return err
	}
	return nil
}

func (env *Environment) move(from, to thor.Address, amount *big.Int) error {
	ok, err := env.state.SubBalance(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.InsufficientFunds, "insufficient balance")
	}
	return env.state.AddBalance(to, amount)
}

// Transfer sends amount from the current frame to recipient, then runs the recipient's
// receive hook if one is registered. Callers must have written their state before.
func (env *Environment) Transfer(recipient thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := env.move(env.to, recipient, amount); err != nil {
		return err
	}
	hook := env.shared.hooks[recipient]
	if hook == nil {
		return nil
	}
	return env.call(recipient, amount, false, func(frame *Environment) error {
		return hook(frame)
	})
}

// Log emits an event from the current frame with body rlp encoded.
func (env *Environment) Log(name string, topics []thor.Bytes32, body any) error {
	data, err := rlp.EncodeToBytes(body)
	if err != nil {
		return errors.WithMessage(err, "encode event")
	}
	env.shared.events = append(env.shared.events, &Event{
		Address: env.to,
		Name:    name,
		Topics:  append([]thor.Bytes32{EventID(name)}, topics...),
		Data:    data,
	})
	return nil
}
