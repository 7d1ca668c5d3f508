// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger executes signed transactions one at a time against the committed state.
package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "ledger")

// metaAddr keeps ledger bookkeeping inside the state, so it commits with the changes it describes.
var (
	metaAddr   = thor.BytesToAddress([]byte("ledger"))
	headKey    = thor.BytesToBytes32([]byte("head"))
	genesisKey = thor.BytesToBytes32([]byte("genesis"))
)

// Options options for creating a ledger.
type Options struct {
	ChainTag  byte
	CacheSize int
	// Clock returns the unix time stamped on executed transactions, time.Now if nil.
	Clock func() uint64
}

// Receipt describes a committed transaction.
type Receipt struct {
	Seq    uint64
	Time   uint64
	TxID   thor.Bytes32
	Origin thor.Address
	Op     string
	Output any
	Events []*xenv.Event
}

// Ledger is the single global transaction log.
type Ledger struct {
	lock     sync.RWMutex
	db       kv.Store
	cache    *cache.LRU
	logDB    *logdb.LogDB
	chainTag byte
	clock    func() uint64
	hooks    map[thor.Address]xenv.ReceiveHook
	seq      uint64
	signal   co.Signal
}

// New opens the ledger stored in db. Events of committed transactions go to logDB.
func New(db kv.Store, logDB *logdb.LogDB, opts Options) (*Ledger, error) {
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	l := &Ledger{
		db:       db,
		cache:    c,
		logDB:    logDB,
		chainTag: opts.ChainTag,
		clock:    clock,
		hooks:    make(map[thor.Address]xenv.ReceiveHook),
	}
	head, err := state.New(db, c).GetStorage(metaAddr, headKey)
	if err != nil {
		return nil, err
	}
	l.seq = binary.BigEndian.Uint64(head[24:])
	l.signal.Broadcast(l.seq)
	metricHead().Set(int64(l.seq))
	return l, nil
}

// ChainTag returns the tag transactions must carry.
func (l *Ledger) ChainTag() byte {
	return l.chainTag
}

// Head returns the sequence number of the last committed transaction.
func (l *Ledger) Head() uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.seq
}

// Subscribe returns a channel closed when the next transaction commits, along with the current head.
func (l *Ledger) Subscribe() (<-chan struct{}, uint64) {
	return l.signal.Wait()
}

// Hook registers a receive hook run whenever addr is paid by a builtin contract.
func (l *Ledger) Hook(addr thor.Address, hook xenv.ReceiveHook) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.hooks[addr] = hook
}

// Initialize builds the initial state unless the store already holds one.
// A store initialized from a different genesis id is rejected.
func (l *Ledger) Initialize(id thor.Bytes32, build func(st *state.State) error) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	st := state.New(l.db, l.cache)
	stored, err := st.GetStorage(metaAddr, genesisKey)
	if err != nil {
		return err
	}
	if !stored.IsZero() {
		if stored != id {
			return errors.WithMessagef(errGenesisMismatch, "want %v, stored %v", id, stored)
		}
		return nil
	}
	if err := build(st); err != nil {
		return errors.WithMessage(err, "build genesis")
	}
	st.SetStorage(metaAddr, genesisKey, id)
	if err := st.Stage().Commit(l.db); err != nil {
		return err
	}
	logger.Info("ledger initialized", "genesis", id)
	return nil
}

// View runs fn against the committed state. Changes made by fn are discarded.
func (l *Ledger) View(fn func(b *builtin.Builtins, st *state.State) error) error {
	l.lock.RLock()
	defer l.lock.RUnlock()

	st := state.New(l.db, l.cache)
	return fn(builtin.New(st), st)
}

// Nonce returns the nonce the next transaction of addr must carry.
func (l *Ledger) Nonce(addr thor.Address) (nonce uint64, err error) {
	err = l.View(func(_ *builtin.Builtins, st *state.State) error {
		nonce, err = st.GetNonce(addr)
		return err
	})
	return
}

// Execute runs trx and commits its changes. A failed operation leaves no state changes and no
// events, and does not consume the nonce.
func (l *Ledger) Execute(ctx context.Context, trx *tx.Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op := trx.Op()
	if _, ok := ops[op]; !ok {
		op = "unknown"
	}

	startTime := time.Now()
	receipt, err := l.execute(trx)
	metricOpDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"op": op})

	result := "ok"
	switch {
	case err == nil:
	case IsBadTx(err):
		result = "rejected"
	case reverts.IsRevertErr(err):
		result = "reverted"
	default:
		result = "error"
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "result": result})

	if err != nil {
		logger.Debug("tx failed", "id", trx.ID(), "op", trx.Op(), "result", result, "err", err)
		return nil, err
	}
	logger.Debug("tx committed", "id", receipt.TxID, "op", receipt.Op, "seq", receipt.Seq, "events", len(receipt.Events))
	return receipt, nil
}

func (l *Ledger) execute(trx *tx.Transaction) (*Receipt, error) {
	if trx.ChainTag() != l.chainTag {
		return nil, badTxError{"chain tag mismatch"}
	}
	origin, err := trx.Origin()
	if err != nil {
		return nil, badTxError{"invalid signature"}
	}
	h, ok := ops[trx.Op()]
	if !ok {
		return nil, badTxError{fmt.Sprintf("unknown op %q", trx.Op())}
	}
	if !h.payable && trx.Value().Sign() != 0 {
		return nil, badTxError{fmt.Sprintf("op %q is not payable", trx.Op())}
	}

	st := state.New(l.db, l.cache)
	nonce, err := st.GetNonce(origin)
	if err != nil {
		return nil, err
	}
	if trx.Nonce() != nonce {
		return nil, badTxError{fmt.Sprintf("nonce mismatch: want %v, got %v", nonce, trx.Nonce())}
	}

	var (
		seq  = l.seq + 1
		now  = l.clock()
		txID = trx.ID()
		env  = xenv.New(
			st,
			&xenv.BlockContext{Number: uint32(seq), Time: now},
			&xenv.TransactionContext{ID: txID, Origin: origin, Op: trx.Op()},
			l.hooks,
		)
	)
	output, err := h.exec(builtin.New(st), env, trx)
	if err != nil {
		return nil, err
	}

	var head thor.Bytes32
	binary.BigEndian.PutUint64(head[24:], seq)
	st.SetNonce(origin, nonce+1)
	st.SetStorage(metaAddr, headKey, head)
	if err := st.Stage().Commit(l.db); err != nil {
		return nil, err
	}
	l.seq = seq
	metricHead().Set(int64(seq))

	events := env.Events()
	if err := l.logDB.Prepare(seq, now).Insert(txID, origin, trx.Op(), events).Commit(); err != nil {
		logger.Error("failed to write events", "seq", seq, "err", err)
	}
	l.signal.Broadcast(seq)

	return &Receipt{
		Seq:    seq,
		Time:   now,
		TxID:   txID,
		Origin: origin,
		Op:     trx.Op(),
		Output: output,
		Events: events,
	}, nil
}
