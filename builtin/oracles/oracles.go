// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracles

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "oracles")

const (
	EventRewardsUpdated    = "RewardsUpdated"
	EventMerkleRootUpdated = "MerkleRootUpdated"

	SignatureLength = crypto.SignatureLength

	tagRewards    = "stakepool.rewards"
	tagMerkleRoot = "stakepool.merkle-root"
)

type rewardsEvent struct {
	Nonce               uint64
	TotalRewards        *big.Int
	ActivatedValidators uint64
	Signers             []thor.Address
}

type merkleRootEvent struct {
	Nonce      uint64
	MerkleRoot thor.Bytes32
	ProofsHash thor.Bytes32
	Signers    []thor.Address
}

// Oracles accepts reports agreed on by a two thirds majority of oracle accounts.
type Oracles struct {
	addr                thor.Address
	roles               *roles.Roles
	settings            *settings.Settings
	nonce               *solidity.Uint256
	totalRewards        *solidity.Uint256
	activatedValidators *solidity.Uint256
	merkleRoot          *solidity.Bytes32
	proofs              *solidity.Mapping[thor.Bytes32, []byte]
}

func New(addr thor.Address, state *state.State, roles *roles.Roles, settings *settings.Settings) *Oracles {
	sctx := solidity.NewContext(addr, state)
	return &Oracles{
		addr:                addr,
		roles:               roles,
		settings:            settings,
		nonce:               solidity.NewUint256(sctx, solidity.Slot("nonce")),
		totalRewards:        solidity.NewUint256(sctx, solidity.Slot("total-rewards")),
		activatedValidators: solidity.NewUint256(sctx, solidity.Slot("activated-validators")),
		merkleRoot:          solidity.NewBytes32(sctx, solidity.Slot("merkle-root")),
		proofs:              solidity.NewMapping[thor.Bytes32, []byte](sctx, solidity.Slot("proofs")),
	}
}

func (o *Oracles) Address() thor.Address {
	return o.addr
}

// signingHash binds a message to this contract so signatures do not carry over to other deployments.
func (o *Oracles) signingHash(tag string, nonce uint64, payload ...[]byte) thor.Bytes32 {
	var n [32]byte
	binary.BigEndian.PutUint64(n[24:], nonce)
	return thor.Keccak256(append([][]byte{[]byte(tag), o.addr.Bytes(), n[:]}, payload...)...)
}

// RewardsHash is the message oracles sign to submit rewards. totalRewards must fit in 256 bits.
func (o *Oracles) RewardsHash(nonce uint64, totalRewards *big.Int, activatedValidators uint64) thor.Bytes32 {
	var a [8]byte
	binary.BigEndian.PutUint64(a[:], activatedValidators)
	return o.signingHash(tagRewards, nonce, thor.BytesToBytes32(totalRewards.Bytes()).Bytes(), a[:])
}

// MerkleRootHash is the message oracles sign to submit a merkle root.
func (o *Oracles) MerkleRootHash(nonce uint64, merkleRoot thor.Bytes32, proofs []byte) thor.Bytes32 {
	return o.signingHash(tagMerkleRoot, nonce, merkleRoot.Bytes(), thor.Keccak256(proofs).Bytes())
}

// Nonce returns the nonce the next submission must be signed with.
func (o *Oracles) Nonce() (uint64, error) {
	n, err := o.nonce.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Rewards returns the last agreed reward total and activated validator count.
func (o *Oracles) Rewards() (*big.Int, uint64, error) {
	total, err := o.totalRewards.Get()
	if err != nil {
		return nil, 0, err
	}
	activated, err := o.activatedValidators.Get()
	if err != nil {
		return nil, 0, err
	}
	return total, activated.Uint64(), nil
}

// MerkleRoot returns the last agreed merkle root and its proofs.
func (o *Oracles) MerkleRoot() (thor.Bytes32, []byte, error) {
	root, err := o.merkleRoot.Get()
	if err != nil {
		return thor.Bytes32{}, nil, err
	}
	proofs, err := o.proofs.Get(root)
	if err != nil {
		return thor.Bytes32{}, nil, err
	}
	return root, proofs, nil
}

// begin checks the submitter and returns the current nonce.
func (o *Oracles) begin(env *xenv.Environment) (uint64, error) {
	if err := roles.Require(o.roles.Checker(), env.Caller(), roles.Oracle); err != nil {
		return 0, err
	}
	if err := o.settings.RequireNotPaused(o.addr); err != nil {
		return 0, err
	}
	return o.Nonce()
}

// verify recovers the signers of hash and checks they form a quorum.
func (o *Oracles) verify(hash thor.Bytes32, signatures [][]byte) ([]thor.Address, error) {
	signers := make([]thor.Address, 0, len(signatures))
	seen := make(map[thor.Address]bool, len(signatures))
	for _, sig := range signatures {
		if len(sig) != SignatureLength {
			return nil, reverts.New(reverts.InvalidArgument, "invalid signature length")
		}
		pub, err := crypto.SigToPub(hash[:], sig)
		if err != nil {
			return nil, reverts.Newf(reverts.InvalidArgument, "invalid signature: %v", err)
		}
		signer := thor.Address(crypto.PubkeyToAddress(*pub))
		if seen[signer] {
			return nil, reverts.New(reverts.InvalidArgument, "duplicate signer")
		}
		ok, err := o.roles.HasRole(roles.Oracle, signer)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, reverts.New(reverts.PermissionDenied, "signer is not an oracle")
		}
		seen[signer] = true
		signers = append(signers, signer)
	}
	count, err := o.roles.Count(roles.Oracle)
	if err != nil {
		return nil, err
	}
	if uint64(len(signers))*3 <= count*2 {
		return nil, reverts.Newf(reverts.InvalidState, "quorum not reached: %d of %d oracles", len(signers), count)
	}
	return signers, nil
}

// SubmitRewards stores the reward total and activated validator count agreed by the oracles.
func (o *Oracles) SubmitRewards(env *xenv.Environment, totalRewards *big.Int, activatedValidators uint64, signatures [][]byte) error {
	nonce, err := o.begin(env)
	if err != nil {
		return err
	}
	if totalRewards == nil || totalRewards.Sign() < 0 || totalRewards.BitLen() > 256 {
		return reverts.New(reverts.InvalidArgument, "total rewards out of range")
	}
	signers, err := o.verify(o.RewardsHash(nonce, totalRewards, activatedValidators), signatures)
	if err != nil {
		return err
	}
	if err := o.totalRewards.Set(totalRewards); err != nil {
		return err
	}
	if err := o.activatedValidators.Set(new(big.Int).SetUint64(activatedValidators)); err != nil {
		return err
	}
	if _, err := o.nonce.Increment(); err != nil {
		return err
	}

	logger.Info("rewards updated", "nonce", nonce, "total", totalRewards, "activated", activatedValidators)
	return env.Log(EventRewardsUpdated, nil, &rewardsEvent{nonce, totalRewards, activatedValidators, signers})
}

// SubmitMerkleRoot stores the merkle root and proofs agreed by the oracles.
func (o *Oracles) SubmitMerkleRoot(env *xenv.Environment, merkleRoot thor.Bytes32, proofs []byte, signatures [][]byte) error {
	nonce, err := o.begin(env)
	if err != nil {
		return err
	}
	signers, err := o.verify(o.MerkleRootHash(nonce, merkleRoot, proofs), signatures)
	if err != nil {
		return err
	}
	o.merkleRoot.Set(merkleRoot)
	if err := o.proofs.Set(merkleRoot, proofs); err != nil {
		return err
	}
	if _, err := o.nonce.Increment(); err != nil {
		return err
	}

	logger.Info("merkle root updated", "nonce", nonce, "root", merkleRoot)
	return env.Log(EventMerkleRootUpdated, []thor.Bytes32{merkleRoot}, &merkleRootEvent{nonce, merkleRoot, thor.Keccak256(proofs), signers})
}
