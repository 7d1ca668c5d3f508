// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// Account for marshal account
type Account struct {
	Balance math.HexOrDecimal256 `json:"balance"`
	Nonce   uint64               `json:"nonce"`
}

type Accounts struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Accounts {
	return &Accounts{ledger}
}

func (a *Accounts) getAccount(addr thor.Address) (*Account, error) {
	var (
		balance *big.Int
		nonce   uint64
	)
	err := a.ledger.View(func(_ *builtin.Builtins, st *state.State) (err error) {
		if balance, err = st.GetBalance(addr); err != nil {
			return err
		}
		nonce, err = st.GetNonce(addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Account{
		Balance: math.HexOrDecimal256(*balance),
		Nonce:   nonce,
	}, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	acc, err := a.getAccount(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
