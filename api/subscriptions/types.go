// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/thor"
)

type LogMeta struct {
	Seq      uint64       `json:"seq"`
	Time     uint64       `json:"time"`
	TxID     thor.Bytes32 `json:"txID"`
	TxOrigin thor.Address `json:"txOrigin"`
	Op       string       `json:"op"`
}

type EventMessage struct {
	Address thor.Address    `json:"address"`
	Name    string          `json:"name"`
	Topics  []*thor.Bytes32 `json:"topics"`
	Data    hexutil.Bytes   `json:"data"`
	Meta    LogMeta         `json:"meta"`
}

func convertEvent(event *logdb.Event) *EventMessage {
	msg := &EventMessage{
		Address: event.Address,
		Name:    event.Name,
		Topics:  make([]*thor.Bytes32, 0, len(event.Topics)),
		Data:    event.Data,
		Meta: LogMeta{
			Seq:      event.Seq,
			Time:     event.Time,
			TxID:     event.TxID,
			TxOrigin: event.TxOrigin,
			Op:       event.Op,
		},
	}
	for _, topic := range event.Topics {
		if topic != nil {
			msg.Topics = append(msg.Topics, topic)
		}
	}
	return msg
}
