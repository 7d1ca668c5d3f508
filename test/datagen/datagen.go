// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/ecdsa"
	"crypto/rand"
	mathrand "math/rand/v2"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakepool/thor"
)

func RandomHash() thor.Bytes32 {
	var b32 thor.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() (addr thor.Address) {
	rand.Read(addr[:])
	return
}

// RandPubKey returns a random byte string with the length of a validator public key.
func RandPubKey() []byte {
	b := make([]byte, thor.BLSPubKeyLength)
	rand.Read(b)
	return b
}

// RandSignature returns a random byte string with the length of a deposit signature.
func RandSignature() []byte {
	b := make([]byte, thor.BLSSignatureLength)
	rand.Read(b)
	return b
}

// RandKey returns a secp256k1 key and its address.
func RandKey() (*ecdsa.PrivateKey, thor.Address) {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return key, thor.Address(crypto.PubkeyToAddress(key.PublicKey))
}

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}
