// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

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

type FilteredEvent struct {
	Address thor.Address    `json:"address"`
	Name    string          `json:"name"`
	Topics  []*thor.Bytes32 `json:"topics"`
	Data    hexutil.Bytes   `json:"data"`
	Meta    LogMeta         `json:"meta"`
}

// convert a logdb.Event into a json format Event
func convertEvent(event *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: event.Address,
		Name:    event.Name,
		Data:    event.Data,
		Meta: LogMeta{
			Seq:      event.Seq,
			Time:     event.Time,
			TxID:     event.TxID,
			TxOrigin: event.TxOrigin,
			Op:       event.Op,
		},
	}
	fe.Topics = make([]*thor.Bytes32, 0)
	for i := range event.Topics {
		if event.Topics[i] != nil {
			fe.Topics = append(fe.Topics, event.Topics[i])
		}
	}
	return fe
}

type EventCriteria struct {
	Address *thor.Address `json:"address"`
	Name    string        `json:"name"`
	TopicSet
}

type TopicSet struct {
	Topic0 *thor.Bytes32 `json:"topic0"`
	Topic1 *thor.Bytes32 `json:"topic1"`
	Topic2 *thor.Bytes32 `json:"topic2"`
	Topic3 *thor.Bytes32 `json:"topic3"`
	Topic4 *thor.Bytes32 `json:"topic4"`
}

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

func convertRange(r *Range) *logdb.Range {
	if r == nil {
		return nil
	}
	out := &logdb.Range{Unit: logdb.Seq, To: math.MaxInt64}
	if r.Unit == logdb.Time {
		out.Unit = logdb.Time
	}
	if r.From != nil {
		out.From = *r.From
	}
	if r.To != nil {
		out.To = *r.To
	}
	return out
}

func convertEventFilter(filter *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Range: convertRange(filter.Range),
		Order: filter.Order,
	}
	if filter.Options != nil {
		f.Options = &logdb.Options{Offset: filter.Options.Offset, Limit: filter.Options.Limit}
	}
	for _, c := range filter.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Address: c.Address,
			Name:    c.Name,
			Topics:  [5]*thor.Bytes32{c.Topic0, c.Topic1, c.Topic2, c.Topic3, c.Topic4},
		})
	}
	return f
}
