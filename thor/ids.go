// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "encoding/binary"

// EntityID returns the id of the counter-th entity of a collector.
func EntityID(collector Address, counter uint64) Bytes32 {
	var c [8]byte
	binary.BigEndian.PutUint64(c[:], counter)
	return Keccak256(collector[:], c[:])
}

// UserID identifies the stake a sender holds for a recipient inside an entity.
func UserID(entityID Bytes32, sender, recipient Address) Bytes32 {
	return Keccak256(entityID[:], sender[:], recipient[:])
}

// ValidatorID is the content address of a validator public key.
func ValidatorID(pubKey []byte) Bytes32 {
	return Keccak256(pubKey)
}

// WalletAddress derives the withdrawal wallet of a validator from the wallets registry address.
func WalletAddress(registry Address, validatorID Bytes32) Address {
	h := Keccak256(registry[:], validatorID[:])
	return BytesToAddress(h[12:])
}
