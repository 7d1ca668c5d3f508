// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

// Event represents xenv.Event that can be stored in db.
type Event struct {
	Seq      uint64
	Index    uint32
	Time     uint64
	TxID     thor.Bytes32
	TxOrigin thor.Address
	Op       string
	Address  thor.Address // always a contract address
	Name     string
	Topics   [5]*thor.Bytes32
	Data     []byte
}

// newEvent converts xenv.Event to Event.
func newEvent(seq uint64, time uint64, index uint32, txID thor.Bytes32, txOrigin thor.Address, op string, ev *xenv.Event) *Event {
	e := &Event{
		Seq:      seq,
		Index:    index,
		Time:     time,
		TxID:     txID,
		TxOrigin: txOrigin,
		Op:       op,
		Address:  ev.Address,
		Name:     ev.Name,
		Data:     ev.Data,
	}
	for i := 0; i < len(ev.Topics) && i < len(e.Topics); i++ {
		topic := ev.Topics[i]
		e.Topics[i] = &topic
	}
	return e
}

type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type EventCriteria struct {
	Address *thor.Address // always a contract address
	Name    string
	Topics  [5]*thor.Bytes32
}

// EventFilter filter
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
