// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for contract events
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	txID BLOB(32),
	txOrigin BLOB(20),
	op TEXT,
	address BLOB(20),
	name TEXT,
	topic0 BLOB(32),
	topic1 BLOB(32),
	topic2 BLOB(32),
	topic3 BLOB(32),
	topic4 BLOB(32),
	data BLOB,
	PRIMARY KEY (seq, eventIndex)
);

CREATE INDEX IF NOT EXISTS idx_event_time ON event(time);
CREATE INDEX IF NOT EXISTS idx_event_address ON event(address);
CREATE INDEX IF NOT EXISTS idx_event_topic0 ON event(topic0);
CREATE INDEX IF NOT EXISTS idx_event_topic1 ON event(topic1);
CREATE INDEX IF NOT EXISTS idx_event_topic2 ON event(topic2);
CREATE INDEX IF NOT EXISTS idx_event_topic3 ON event(topic3);
`
