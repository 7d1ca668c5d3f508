// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
	"github.com/vechain/stakepool/xenv"
)

type RawTx struct {
	Raw string `json:"raw"`
}

func (rtx *RawTx) decode() (*tx.Transaction, error) {
	data, err := hexutil.Decode(rtx.Raw)
	if err != nil {
		return nil, err
	}
	var trx tx.Transaction
	if err := trx.UnmarshalBinary(data); err != nil {
		return nil, errors.WithMessage(err, "rlp")
	}
	return &trx, nil
}

// Event is an event emitted by an executed transaction.
type Event struct {
	Address thor.Address   `json:"address"`
	Name    string         `json:"name"`
	Topics  []thor.Bytes32 `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// Receipt for json marshal
type Receipt struct {
	Seq    uint64       `json:"seq"`
	Time   uint64       `json:"time"`
	TxID   thor.Bytes32 `json:"txId"`
	Origin thor.Address `json:"origin"`
	Op     string       `json:"op"`
	Output any          `json:"output,omitempty"`
	Events []*Event     `json:"events"`
}

func convertOutput(out any) any {
	switch v := out.(type) {
	case thor.Bytes32:
		return v.String()
	case thor.Address:
		return v.String()
	case []thor.Bytes32:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			ids = append(ids, id.String())
		}
		return ids
	default:
		return v
	}
}

func convertReceipt(r *ledger.Receipt) *Receipt {
	events := make([]*Event, 0, len(r.Events))
	for _, ev := range r.Events {
		events = append(events, convertEvent(ev))
	}
	return &Receipt{
		Seq:    r.Seq,
		Time:   r.Time,
		TxID:   r.TxID,
		Origin: r.Origin,
		Op:     r.Op,
		Output: convertOutput(r.Output),
		Events: events,
	}
}

func convertEvent(ev *xenv.Event) *Event {
	return &Event{
		Address: ev.Address,
		Name:    ev.Name,
		Topics:  ev.Topics,
		Data:    ev.Data,
	}
}
