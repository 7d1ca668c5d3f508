// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracles

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/test/datagen"
	"github.com/vechain/stakepool/test/testenv"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

type fixture struct {
	env     *testenv.Env
	oracles *Oracles
	keys    []*ecdsa.PrivateKey
	members []thor.Address
}

func setup(t *testing.T, n int) *fixture {
	env := testenv.New(t)
	r := roles.New(thor.BytesToAddress([]byte("Roles")), env.State)
	s := settings.New(thor.BytesToAddress([]byte("Settings")), env.State, r.Checker())
	require.NoError(t, s.Initialize(settings.DefaultParams()))

	f := &fixture{env: env, oracles: New(thor.BytesToAddress([]byte("Oracles")), env.State, r, s)}
	for range n {
		key, addr := datagen.RandKey()
		require.NoError(t, r.Setup(roles.Oracle, addr))
		f.keys = append(f.keys, key)
		f.members = append(f.members, addr)
	}
	return f
}

func sign(t *testing.T, hash thor.Bytes32, keys ...*ecdsa.PrivateKey) [][]byte {
	sigs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		sig, err := crypto.Sign(hash[:], key)
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	return sigs
}

func (f *fixture) submitRewards(from thor.Address, total *big.Int, activated uint64, sigs [][]byte) error {
	_, err := f.env.Call(from, f.oracles.Address(), nil, func(e *xenv.Environment) error {
		return f.oracles.SubmitRewards(e, total, activated, sigs)
	})
	return err
}

func TestSubmitRewards(t *testing.T) {
	f := setup(t, 4)
	total := big.NewInt(1e18)
	hash := f.oracles.RewardsHash(0, total, 10)

	tests := []struct {
		name string
		from thor.Address
		sigs [][]byte
		kind reverts.Kind
	}{
		{"not an oracle", datagen.RandAddress(), sign(t, hash, f.keys[:3]...), reverts.PermissionDenied},
		{"below quorum", f.members[0], sign(t, hash, f.keys[:2]...), reverts.InvalidState},
		{"duplicate signer", f.members[0], sign(t, hash, f.keys[0], f.keys[1], f.keys[1]), reverts.InvalidArgument},
		{"foreign signer", f.members[0], sign(t, hash, f.keys[0], f.keys[1], func() *ecdsa.PrivateKey { k, _ := datagen.RandKey(); return k }()), reverts.PermissionDenied},
		{"short signature", f.members[0], [][]byte{make([]byte, 64)}, reverts.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.submitRewards(tt.from, total, 10, tt.sigs)
			assert.True(t, reverts.Is(err, tt.kind), "got %v", err)
		})
	}

	sigs := sign(t, hash, f.keys[1:]...)
	require.NoError(t, f.submitRewards(f.members[0], total, 10, sigs))

	got, activated, err := f.oracles.Rewards()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(total))
	assert.Equal(t, uint64(10), activated)

	nonce, err := f.oracles.Nonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// the same signatures no longer match the bumped nonce
	err = f.submitRewards(f.members[0], total, 10, sigs)
	assert.True(t, reverts.Is(err, reverts.PermissionDenied))
}

func TestRewardsOutOfRange(t *testing.T) {
	f := setup(t, 3)
	tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
	for _, total := range []*big.Int{big.NewInt(-1), tooWide} {
		err := f.submitRewards(f.members[0], total, 1, sign(t, f.oracles.RewardsHash(0, total, 1), f.keys...))
		assert.True(t, reverts.Is(err, reverts.InvalidArgument), "got %v", err)
	}
	nonce, err := f.oracles.Nonce()
	require.NoError(t, err)
	assert.Zero(t, nonce)
}

func TestSignaturesBoundToContract(t *testing.T) {
	f := setup(t, 3)
	total := big.NewInt(1e18)
	other := &Oracles{addr: thor.BytesToAddress([]byte("OtherOracles"))}
	assert.NotEqual(t, other.RewardsHash(0, total, 1), f.oracles.RewardsHash(0, total, 1))

	err := f.submitRewards(f.members[0], total, 1, sign(t, other.RewardsHash(0, total, 1), f.keys...))
	assert.True(t, reverts.Is(err, reverts.PermissionDenied), "got %v", err)
	require.NoError(t, f.submitRewards(f.members[0], total, 1, sign(t, f.oracles.RewardsHash(0, total, 1), f.keys...)))
}

func TestSubmitMerkleRoot(t *testing.T) {
	f := setup(t, 3)
	root, proofs := datagen.RandomHash(), []byte("proofs")

	submit := func(sigs [][]byte) error {
		_, err := f.env.Call(f.members[2], f.oracles.Address(), nil, func(e *xenv.Environment) error {
			return f.oracles.SubmitMerkleRoot(e, root, proofs, sigs)
		})
		return err
	}

	hash := f.oracles.MerkleRootHash(0, root, proofs)
	assert.True(t, reverts.Is(submit(sign(t, hash, f.keys[:2]...)), reverts.InvalidState))
	require.NoError(t, submit(sign(t, hash, f.keys...)))

	gotRoot, gotProofs, err := f.oracles.MerkleRoot()
	require.NoError(t, err)
	assert.Equal(t, root, gotRoot)
	assert.Equal(t, proofs, gotProofs)
	assert.Equal(t, []string{EventMerkleRootUpdated}, testenv.Names(f.env.Events))
}
