// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/stackedmap"
	"github.com/vechain/stakepool/thor"
)

// Buckets of the committed state in the kv store.
const (
	BalanceBucket = kv.Bucket("b")
	NonceBucket   = kv.Bucket("n")
	StorageBucket = kv.Bucket("s")
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	balanceKey thor.Address
	nonceKey   thor.Address
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
)

// State manages the ledger world state: account balances, account nonces and contract storage.
// Changes are kept in memory with checkpoints until staged and committed.
type State struct {
	db    kv.Getter
	cache *cache.LRU // committed raw values keyed by full db key, may be nil
	sm    *stackedmap.StackedMap[any, any]
}

// New create state object reading committed values from db.
func New(db kv.Getter, c *cache.LRU) *State {
	s := &State{db: db, cache: c}
	s.sm = stackedmap.New(s.load)
	s.sm.Push()
	return s
}

func dbKey(key any) []byte {
	switch k := key.(type) {
	case balanceKey:
		return BalanceBucket.Key(k[:])
	case nonceKey:
		return NonceBucket.Key(k[:])
	case storageKey:
		return StorageBucket.Key(append(k.addr.Bytes(), k.key[:]...))
	default:
		panic(fmt.Sprintf("state: unknown key type %T", key))
	}
}

func (s *State) loadRaw(key []byte) ([]byte, error) {
	get := func(any) (any, error) {
		v, err := s.db.Get(key)
		if err != nil {
			if s.db.IsNotFound(err) {
				return []byte(nil), nil
			}
			return nil, err
		}
		return v, nil
	}
	if s.cache == nil {
		v, err := get(nil)
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
	v, err := s.cache.GetOrLoad(string(key), get)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// load implements stackedmap.MapGetter.
func (s *State) load(key any) (any, bool, error) {
	raw, err := s.loadRaw(dbKey(key))
	if err != nil {
		return nil, false, err
	}
	switch key.(type) {
	case balanceKey:
		return new(big.Int).SetBytes(raw), true, nil
	case nonceKey:
		if len(raw) == 0 {
			return uint64(0), true, nil
		}
		return binary.BigEndian.Uint64(raw), true, nil
	default:
		return rlp.RawValue(raw), true, nil
	}
}

// GetBalance returns a copy of the balance of the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
	return nil
}

// AddBalance adds amount to the balance of addr.
func (s *State) AddBalance(addr thor.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, bal.Add(bal, amount))
}

// SubBalance subtracts amount from the balance of addr.
// It returns false without any change if the balance is insufficient.
func (s *State) SubBalance(addr thor.Address, amount *big.Int) (bool, error) {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	return true, s.SetBalance(addr, bal.Sub(bal, amount))
}

// GetNonce returns the account nonce of addr.
func (s *State) GetNonce(addr thor.Address) (uint64, error) {
	v, _, err := s.sm.Get(nonceKey(addr))
	if err != nil {
		return 0, &Error{err}
	}
	return v.(uint64), nil
}

// SetNonce set the account nonce of addr.
func (s *State) SetNonce(addr thor.Address, nonce uint64) {
	s.sm.Put(nonceKey(addr), nonce)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects all changes made since the state was created, ready to be committed.
func (s *State) Stage() *Stage {
	changes := make(map[string][]byte)
	var order []string

	s.sm.Journal(func(k, v any) bool {
		key := string(dbKey(k))
		if _, ok := changes[key]; !ok {
			order = append(order, key)
		}
		switch val := v.(type) {
		case *big.Int:
			changes[key] = val.Bytes()
		case uint64:
			if val == 0 {
				changes[key] = nil
			} else {
				var b [8]byte
				binary.BigEndian.PutUint64(b[:], val)
				changes[key] = b[:]
			}
		case rlp.RawValue:
			changes[key] = val
		}
		return true
	})
	return &Stage{changes: changes, order: order, cache: s.cache}
}
