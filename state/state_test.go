// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/thor"
)

func M(a ...any) []any {
	return a
}

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), db
}

func TestStateReadWrite(t *testing.T) {
	st, _ := newTestState(t)

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	assert.Equal(t, M(big.NewInt(0), nil), M(st.GetBalance(addr)))
	assert.Equal(t, M(uint64(0), nil), M(st.GetNonce(addr)))
	assert.Equal(t, M(thor.Bytes32{}, nil), M(st.GetStorage(addr, storageKey)))

	require.NoError(t, st.SetBalance(addr, big.NewInt(1)))
	st.SetNonce(addr, 7)
	st.SetStorage(addr, storageKey, thor.BytesToBytes32([]byte("value")))

	assert.Equal(t, M(big.NewInt(1), nil), M(st.GetBalance(addr)))
	assert.Equal(t, M(uint64(7), nil), M(st.GetNonce(addr)))
	assert.Equal(t, M(thor.BytesToBytes32([]byte("value")), nil), M(st.GetStorage(addr, storageKey)))

	assert.Error(t, st.SetBalance(addr, big.NewInt(-1)))
}

func TestStateRevert(t *testing.T) {
	st, _ := newTestState(t)

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	values := []struct {
		balance *big.Int
		storage thor.Bytes32
	}{
		{big.NewInt(1), thor.BytesToBytes32([]byte("v1"))},
		{big.NewInt(2), thor.BytesToBytes32([]byte("v2"))},
		{big.NewInt(3), thor.BytesToBytes32([]byte("v3"))},
	}

	var chk []int
	for _, v := range values {
		chk = append(chk, st.NewCheckpoint())
		require.NoError(t, st.SetBalance(addr, v.balance))
		st.SetStorage(addr, storageKey, v.storage)
	}

	for i := range chk {
		i = len(chk) - 1 - i
		assert.Equal(t, M(values[i].balance, nil), M(st.GetBalance(addr)))
		assert.Equal(t, M(values[i].storage, nil), M(st.GetStorage(addr, storageKey)))
		st.RevertTo(chk[i])
	}
	assert.Equal(t, M(big.NewInt(0), nil), M(st.GetBalance(addr)))
	assert.Equal(t, M(thor.Bytes32{}, nil), M(st.GetStorage(addr, storageKey)))

	// still writable after reverting everything
	st.RevertTo(0)
	require.NoError(t, st.SetBalance(addr, big.NewInt(9)))
	assert.Equal(t, M(big.NewInt(9), nil), M(st.GetBalance(addr)))
}

func TestSubBalance(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("a"))

	require.NoError(t, st.AddBalance(addr, big.NewInt(10)))
	ok, err := st.SubBalance(addr, big.NewInt(11))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.SubBalance(addr, big.NewInt(4))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, M(big.NewInt(6), nil), M(st.GetBalance(addr)))
}

func TestStageCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	lru, err := cache.NewLRU(128)
	require.NoError(t, err)

	addr := thor.BytesToAddress([]byte("acc"))
	key := thor.BytesToBytes32([]byte("k"))

	st := New(db, lru)
	// warm the cache with the empty value
	_, err = st.GetBalance(addr)
	require.NoError(t, err)

	require.NoError(t, st.SetBalance(addr, big.NewInt(100)))
	st.SetNonce(addr, 1)
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint{1, 2})
	}))

	stage := st.Stage()
	assert.Equal(t, 3, stage.Len())
	h := stage.Hash()
	require.NoError(t, stage.Commit(db))

	st2 := New(db, lru)
	assert.Equal(t, M(big.NewInt(100), nil), M(st2.GetBalance(addr)))
	assert.Equal(t, M(uint64(1), nil), M(st2.GetNonce(addr)))

	var decoded []uint
	require.NoError(t, st2.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, []uint{1, 2}, decoded)

	// same changes give the same digest
	st3 := New(db, nil)
	st3.SetNonce(addr, 1)
	require.NoError(t, st3.SetBalance(addr, big.NewInt(100)))
	require.NoError(t, st3.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint{1, 2})
	}))
	assert.Equal(t, h, st3.Stage().Hash())

	// deletion
	st4 := New(db, lru)
	require.NoError(t, st4.SetBalance(addr, big.NewInt(0)))
	require.NoError(t, st4.Stage().Commit(db))
	has, err := db.Has(BalanceBucket.Key(addr[:]))
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, M(big.NewInt(0), nil), M(New(db, lru).GetBalance(addr)))
}
