// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// Builder helper to build genesis.
type Builder struct {
	chainTag   byte
	timestamp  uint64
	stateProcs []func(state *state.State) error
}

// ChainTag set the tag every transaction of the ledger carries.
func (b *Builder) ChainTag(tag byte) *Builder {
	b.chainTag = tag
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build computes the genesis id by running the state processes on an empty state.
func (b *Builder) Build() (*Genesis, error) {
	g := &Genesis{
		chainTag:   b.chainTag,
		launchTime: b.timestamp,
		stateProcs: append([]func(*state.State) error(nil), b.stateProcs...),
	}

	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	st := state.New(db, nil)
	if err := g.Build(st); err != nil {
		return nil, err
	}
	stateHash := st.Stage().Hash()

	var launchTime [8]byte
	binary.BigEndian.PutUint64(launchTime[:], b.timestamp)
	g.id = thor.Blake2b([]byte{b.chainTag}, launchTime[:], stateHash[:])
	return g, nil
}

// Genesis describes the initial state of a ledger.
type Genesis struct {
	id         thor.Bytes32
	chainTag   byte
	launchTime uint64
	stateProcs []func(state *state.State) error
}

// ID returns the genesis id.
func (g *Genesis) ID() thor.Bytes32 {
	return g.id
}

// ChainTag returns chain tag.
func (g *Genesis) ChainTag() byte {
	return g.chainTag
}

func (g *Genesis) LaunchTime() uint64 {
	return g.launchTime
}

// Build writes the initial state into st.
func (g *Genesis) Build(st *state.State) error {
	for _, proc := range g.stateProcs {
		if err := proc(st); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	return nil
}
