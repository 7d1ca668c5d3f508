// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/pkg/errors"

var errGenesisMismatch = errors.New("genesis mismatch")

// badTxError is returned for transactions rejected before execution.
type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// IsBadTx returns whether err reports a rejected transaction.
func IsBadTx(err error) bool {
	_, ok := errors.Cause(err).(badTxError)
	return ok
}

// IsGenesisMismatch returns whether the store was initialized with another genesis.
func IsGenesisMismatch(err error) bool {
	return errors.Cause(err) == errGenesisMismatch
}
