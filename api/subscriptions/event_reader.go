// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/vechain/stakepool/logdb"
)

// eventReader reads matched events committed after its position.
type eventReader struct {
	logDB    *logdb.LogDB
	criteria *logdb.EventCriteria
	pos      uint64
}

func newEventReader(logDB *logdb.LogDB, pos uint64, criteria *logdb.EventCriteria) *eventReader {
	return &eventReader{
		logDB:    logDB,
		criteria: criteria,
		pos:      pos,
	}
}

// Read returns the events within (pos, head] and moves the position to head.
func (er *eventReader) Read(ctx context.Context, head uint64) ([]any, error) {
	if head <= er.pos {
		return nil, nil
	}
	filter := &logdb.EventFilter{
		Range: &logdb.Range{Unit: logdb.Seq, From: er.pos + 1, To: head},
		Order: logdb.ASC,
	}
	if er.criteria != nil {
		filter.CriteriaSet = []*logdb.EventCriteria{er.criteria}
	}
	events, err := er.logDB.FilterEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	msgs := make([]any, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, convertEvent(ev))
	}
	er.pos = head
	return msgs, nil
}
