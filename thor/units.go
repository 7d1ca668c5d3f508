// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// FeeDenominator is the basis-point denominator of maintainer fees.
	FeeDenominator = 10000
	// BLSPubKeyLength is the length of a validator public key.
	BLSPubKeyLength = 48
	// BLSSignatureLength is the length of a deposit signature.
	BLSSignatureLength = 96
)

var (
	// Gwei is 1e9 wei.
	Gwei = big.NewInt(1e9)
	// Ether is 1e18 wei.
	Ether = big.NewInt(1e18)
	// RatioUnit is the fixed point unit of penalty ratios.
	RatioUnit = big.NewInt(1e18)

	bigFeeDenominator = big.NewInt(FeeDenominator)

	errNegative = errors.New("negative operand")
)

// MulDiv computes x*y/d with a 512-bit intermediate, truncating toward zero.
// It fails on division by zero, negative operands or a result above 2^256-1.
func MulDiv(x, y, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, errors.New("division by zero")
	}
	if x.Sign() < 0 || y.Sign() < 0 || d.Sign() < 0 {
		return nil, errNegative
	}
	ux, overflow := uint256.FromBig(x)
	if overflow {
		return nil, errors.New("operand overflow")
	}
	uy, overflow := uint256.FromBig(y)
	if overflow {
		return nil, errors.New("operand overflow")
	}
	ud, overflow := uint256.FromBig(d)
	if overflow {
		return nil, errors.New("operand overflow")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud)
	if overflow {
		return nil, errors.New("result overflow")
	}
	return z.ToBig(), nil
}

// FeeOf returns amount*fee/10000.
func FeeOf(amount *big.Int, fee uint64) (*big.Int, error) {
	return MulDiv(amount, new(big.Int).SetUint64(fee), bigFeeDenominator)
}

// Min returns the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}
