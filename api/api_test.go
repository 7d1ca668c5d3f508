// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/genesis"
	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
)

const logsLimit = 5

type testServer struct {
	*httptest.Server
	t      *testing.T
	ledger *ledger.Ledger
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)

	gen := genesis.NewDevnet()
	l, err := ledger.New(db, logDB, ledger.Options{ChainTag: gen.ChainTag()})
	require.NoError(t, err)
	require.NoError(t, l.Initialize(gen.ID(), gen.Build))

	handler, closeAPI := api.New(l, logDB, api.Options{
		AllowedOrigins: "*",
		BacktraceLimit: 100,
		EnableMetrics:  true,
		LogsLimit:      logsLimit,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeAPI()
		ts.Close()
		logDB.Close()
		db.Close()
	})
	return &testServer{ts, t, l}
}

func (ts *testServer) get(path string) (int, []byte) {
	res, err := http.Get(ts.URL + path)
	require.NoError(ts.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(ts.t, err)
	return res.StatusCode, body
}

func (ts *testServer) post(path string, obj any) (int, []byte) {
	data, err := json.Marshal(obj)
	require.NoError(ts.t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(ts.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(ts.t, err)
	return res.StatusCode, body
}

func (ts *testServer) rawTx(chainTag byte, from genesis.DevAccount, op string, value *big.Int, args any) map[string]string {
	nonce, err := ts.ledger.Nonce(from.Address)
	require.NoError(ts.t, err)
	b := tx.NewBuilder().ChainTag(chainTag).Nonce(nonce).Op(op).Args(args)
	if value != nil {
		b.Value(value)
	}
	trx, err := b.Build()
	require.NoError(ts.t, err)
	trx, err = tx.Sign(trx, from.PrivateKey)
	require.NoError(ts.t, err)
	raw, err := trx.MarshalBinary()
	require.NoError(ts.t, err)
	return map[string]string{"raw": hexutil.Encode(raw)}
}

func (ts *testServer) send(from genesis.DevAccount, op string, value *big.Int, args any) (int, []byte) {
	return ts.post("/transactions", ts.rawTx(genesis.DevChainTag, from, op, value, args))
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Ether)
}

func decodeAmount(t *testing.T, raw json.RawMessage) *big.Int {
	var v math.HexOrDecimal256
	require.NoError(t, json.Unmarshal(raw, &v))
	return (*big.Int)(&v)
}

func TestTransactions(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	user := accs[6]

	status, body := ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
	require.Equal(t, http.StatusOK, status, string(body))

	var receipt struct {
		Seq    uint64       `json:"seq"`
		Op     string       `json:"op"`
		Origin thor.Address `json:"origin"`
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, uint64(1), receipt.Seq)
	assert.Equal(t, "pools.addDeposit", receipt.Op)
	assert.Equal(t, user.Address, receipt.Origin)
	assert.NotEmpty(t, receipt.Events)

	// a second deposit with the next nonce joins the same entity
	status, body = ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = ts.get("/accounts/" + user.Address.String())
	require.Equal(t, http.StatusOK, status)
	var acc struct {
		Balance json.RawMessage `json:"balance"`
		Nonce   uint64          `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, uint64(2), acc.Nonce)
	assert.Equal(t, ether(9998), decodeAmount(t, acc.Balance))

	status, body = ts.get("/collectors/pools")
	require.Equal(t, http.StatusOK, status)
	var collector struct {
		Address thor.Address  `json:"address"`
		Current *thor.Bytes32 `json:"current"`
	}
	require.NoError(t, json.Unmarshal(body, &collector))
	assert.Equal(t, builtin.Pools.Address, collector.Address)
	require.NotNil(t, collector.Current)

	status, body = ts.get("/deposits/" + collector.Current.String())
	require.Equal(t, http.StatusOK, status)
	var deposits struct {
		Total json.RawMessage `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &deposits))
	assert.Equal(t, ether(2), decodeAmount(t, deposits.Total))
}

func TestRejectedTransactions(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	admin, user, depositor := accs[0], accs[6], accs[7]

	status, body := ts.send(depositor, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: depositor.Address})
	require.Equal(t, http.StatusOK, status, string(body))

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"empty body", nil, http.StatusBadRequest},
		{"bad hex", map[string]string{"raw": "0xzz"}, http.StatusBadRequest},
		{"wrong chain tag", ts.rawTx(0x01, user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address}), http.StatusBadRequest},
		{"unknown op", ts.rawTx(genesis.DevChainTag, user, "pools.nothing", nil, &ledger.RecipientArgs{}), http.StatusBadRequest},
		{"not permitted", ts.rawTx(genesis.DevChainTag, user, "settings.setUint", nil, &ledger.SetUintArgs{Key: settings.KeyMaintainerFee, Value: big.NewInt(1)}), http.StatusForbidden},
		{"over cancel", ts.rawTx(genesis.DevChainTag, depositor, "pools.cancelDeposit", nil, &ledger.CancelArgs{Recipient: depositor.Address, Amount: ether(2)}), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.post("/transactions", tt.body)
			assert.Equal(t, tt.status, status, string(body))
		})
	}

	status, body = ts.send(admin, "settings.setPaused", nil, &ledger.PauseArgs{Contract: builtin.Pools.Address, Paused: true})
	require.Equal(t, http.StatusOK, status, string(body))
	status, _ = ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, body = ts.get("/settings")
	require.Equal(t, http.StatusOK, status)
	var s struct {
		Paused map[string]bool `json:"paused"`
	}
	require.NoError(t, json.Unmarshal(body, &s))
	assert.True(t, s.Paused[builtin.Pools.Name])

	// rejected transactions do not consume nonces
	nonce, err := ts.ledger.Nonce(user.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestReadEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, tt := range []struct {
		path   string
		status int
	}{
		{"/settings", http.StatusOK},
		{"/oracles", http.StatusOK},
		{"/collectors/solos", http.StatusOK},
		{"/collectors/groups/ready?limit=10", http.StatusOK},
		{"/collectors/unknown", http.StatusNotFound},
		{"/accounts/0xzz", http.StatusBadRequest},
		{"/transactions/ops", http.StatusOK},
	} {
		status, body := ts.get(tt.path)
		assert.Equal(t, tt.status, status, "%s: %s", tt.path, body)
	}

	_, body := ts.get("/transactions/ops")
	var ops struct {
		ChainTag byte     `json:"chainTag"`
		Ops      []string `json:"ops"`
	}
	require.NoError(t, json.Unmarshal(body, &ops))
	assert.Equal(t, byte(genesis.DevChainTag), ops.ChainTag)
	assert.Equal(t, ledger.Ops(), ops.Ops)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	user := genesis.DevAccounts()[6]
	for i := 0; i < 6; i++ {
		status, body := ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
		require.Equal(t, http.StatusOK, status, string(body))
	}

	status, body := ts.get("/logs/event?name=DepositAdded&order=desc&limit=5")
	require.Equal(t, http.StatusOK, status, string(body))
	var events []struct {
		Name string `json:"name"`
		Meta struct {
			Seq uint64 `json:"seq"`
			Op  string `json:"op"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 5)
	assert.Equal(t, uint64(6), events[0].Meta.Seq)
	assert.Equal(t, "pools.addDeposit", events[0].Meta.Op)

	status, body = ts.post("/logs/event", map[string]any{
		"criteriaSet": []any{map[string]any{"address": builtin.Deposits.Address.String(), "name": "DepositAdded"}},
		"range":       map[string]any{"unit": "seq", "from": 2, "to": 3},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &events))
	assert.Len(t, events, 2)

	status, _ = ts.post("/logs/event", map[string]any{"options": map[string]any{"limit": logsLimit + 1}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.post("/logs/event", map[string]any{"range": map[string]any{"from": 3, "to": 2}})
	assert.Equal(t, http.StatusBadRequest, status)

	// more logs than the limit without pagination
	status, _ = ts.get("/logs/event")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSubscribeEvents(t *testing.T) {
	ts := newTestServer(t)
	user := genesis.DevAccounts()[6]

	status, body := ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
	require.Equal(t, http.StatusOK, status, string(body))

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: "pos=0&name=DepositAdded"}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	type message struct {
		Name string `json:"name"`
		Meta struct {
			Seq uint64 `json:"seq"`
		} `json:"meta"`
	}
	read := func() message {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// backlog first
	msg := read()
	assert.Equal(t, "DepositAdded", msg.Name)
	assert.Equal(t, uint64(1), msg.Meta.Seq)

	// then live events
	status, body = ts.send(user, "pools.addDeposit", ether(1), &ledger.RecipientArgs{Recipient: user.Address})
	require.Equal(t, http.StatusOK, status, string(body))
	msg = read()
	assert.Equal(t, uint64(2), msg.Meta.Seq)

	_, resp, err = websocket.DefaultDialer.DialContext(context.Background(),
		"ws"+strings.TrimPrefix(ts.URL, "http")+"/subscriptions/event?pos=100", nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
