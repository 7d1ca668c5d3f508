// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

func newEvent(addr thor.Address, name string, topics ...thor.Bytes32) *xenv.Event {
	return &xenv.Event{
		Address: addr,
		Name:    name,
		Topics:  append([]thor.Bytes32{xenv.EventID(name)}, topics...),
		Data:    []byte(name),
	}
}

func fill(t *testing.T, db *logdb.LogDB, pools, wallets thor.Address, entity thor.Bytes32) {
	origin := datagen.RandAddress()
	for i := 1; i <= 10; i++ {
		batch := db.Prepare(uint64(i), uint64(1000+i))
		batch.Insert(datagen.RandomHash(), origin, "pools.addDeposit", []*xenv.Event{
			newEvent(pools, "DepositAdded", entity),
			newEvent(pools, "EntityReady", entity),
		})
		if i%2 == 0 {
			batch.Insert(datagen.RandomHash(), origin, "wallets.withdraw", []*xenv.Event{
				newEvent(wallets, "UserWithdrawn", datagen.RandomHash()),
			})
		}
		require.NoError(t, batch.Commit())
	}
}

func TestFilterEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	var (
		ctx     = context.Background()
		pools   = datagen.RandAddress()
		wallets = datagen.RandAddress()
		entity  = datagen.RandomHash()
	)
	fill(t, db, pools, wallets, entity)

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 25)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, "pools.addDeposit", all[0].Op)
	assert.Equal(t, xenv.EventID("DepositAdded"), *all[0].Topics[0])
	assert.Equal(t, entity, *all[0].Topics[1])
	assert.Nil(t, all[0].Topics[2])
	assert.Equal(t, []byte("DepositAdded"), all[0].Data)

	maxSeq, err := db.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), maxSeq)

	eventID := xenv.EventID("UserWithdrawn")
	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   int
	}{
		{"address", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &wallets}}}, 5},
		{"name", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "EntityReady"}}}, 10},
		{"topic", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Topics: [5]*thor.Bytes32{&eventID}}}}, 5},
		{"entity topic", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Topics: [5]*thor.Bytes32{nil, &entity}}}}, 20},
		{"criteria union", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "EntityReady"}, {Address: &wallets}}}, 15},
		{"seq range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Seq, From: 3, To: 4}}, 5},
		{"time range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Time, From: 1009, To: 1010}}, 5},
		{"open range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Seq, From: 9}}, 5},
		{"limit", &logdb.EventFilter{Options: &logdb.Options{Offset: 0, Limit: 3}}, 3},
		{"offset past end", &logdb.EventFilter{Options: &logdb.Options{Offset: 30, Limit: 3}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}
}

func TestFilterOrder(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	fill(t, db, datagen.RandAddress(), datagen.RandAddress(), datagen.RandomHash())

	desc, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		Order:   logdb.DESC,
		Options: &logdb.Options{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, uint64(10), desc[0].Seq)
	assert.Equal(t, uint32(2), desc[0].Index)
	assert.Equal(t, "UserWithdrawn", desc[0].Name)
	assert.Equal(t, uint32(1), desc[1].Index)
}

func TestFilterCanceled(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	fill(t, db, datagen.RandAddress(), datagen.RandAddress(), datagen.RandomHash())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.FilterEvents(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := logdb.New(path)
	require.NoError(t, err)

	fill(t, db, datagen.RandAddress(), datagen.RandAddress(), datagen.RandomHash())
	assert.NotEmpty(t, db.DriverVersion())
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	maxSeq, err := db.MaxSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), maxSeq)
}
