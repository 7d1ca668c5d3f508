// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/ledger"
)

type Transactions struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Transactions {
	return &Transactions{ledger}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var raw *RawTx
	if err := utils.ParseJSON(req.Body, &raw); err != nil {
		return utils.BadRequest(err, "body")
	}
	if raw == nil {
		return utils.BadRequest(errors.New("empty"), "body")
	}
	trx, err := raw.decode()
	if err != nil {
		return utils.BadRequest(err, "raw")
	}

	receipt, err := t.ledger.Execute(req.Context(), trx)
	if err != nil {
		if ledger.IsBadTx(err) {
			return utils.BadRequest(err, "bad tx")
		}
		return err
	}
	return utils.WriteJSON(w, convertReceipt(receipt))
}

func (t *Transactions) handleGetOps(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, utils.M{
		"chainTag": t.ledger.ChainTag(),
		"ops":      ledger.Ops(),
	})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/ops").
		Methods(http.MethodGet).
		Name("GET /transactions/ops").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetOps))
}
