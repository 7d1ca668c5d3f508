// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/thor"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
)

var logger = log.WithContext("pkg", "subscriptions")

type Subscriptions struct {
	backtraceLimit uint64
	ledger         *ledger.Ledger
	logDB          *logdb.LogDB
	upgrader       *websocket.Upgrader
	done           chan struct{}
	wg             sync.WaitGroup
}

type msgReader interface {
	Read(ctx context.Context, head uint64) ([]any, error)
}

func New(l *ledger.Ledger, logDB *logdb.LogDB, allowedOrigins []string, backtraceLimit uint64) *Subscriptions {
	sub := &Subscriptions{
		backtraceLimit: backtraceLimit,
		ledger:         l,
		logDB:          logDB,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
	return sub
}

func (s *Subscriptions) parseCriteria(req *http.Request) (*logdb.EventCriteria, error) {
	q := req.URL.Query()
	var (
		criteria logdb.EventCriteria
		set      bool
	)
	if v := q.Get("addr"); v != "" {
		addr, err := thor.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(err, "addr")
		}
		criteria.Address = &addr
		set = true
	}
	if v := q.Get("name"); v != "" {
		criteria.Name = v
		set = true
	}
	for i := range criteria.Topics {
		key := "t" + strconv.Itoa(i)
		if v := q.Get(key); v != "" {
			topic, err := thor.ParseBytes32(v)
			if err != nil {
				return nil, utils.BadRequest(err, key)
			}
			criteria.Topics[i] = &topic
			set = true
		}
	}
	if !set {
		return nil, nil
	}
	return &criteria, nil
}

// parsePosition returns the sequence number streaming starts after.
// Without pos the stream begins at the current head.
func (s *Subscriptions) parsePosition(posStr string) (uint64, error) {
	head := s.ledger.Head()
	if posStr == "" {
		return head, nil
	}
	pos, err := strconv.ParseUint(posStr, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(err, "pos")
	}
	if pos > head {
		return 0, utils.BadRequest(errors.New("pos is ahead of head"), "pos")
	}
	if head-pos > s.backtraceLimit {
		return 0, utils.Forbidden(errors.New("pos is too far behind"), "pos")
	}
	return pos, nil
}

func (s *Subscriptions) handleEventSub(w http.ResponseWriter, req *http.Request) error {
	criteria, err := s.parseCriteria(req)
	if err != nil {
		return err
	}
	pos, err := s.parsePosition(req.URL.Query().Get("pos"))
	if err != nil {
		return err
	}

	conn, closed, err := s.setupConn(w, req)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	defer func() { s.closeConn(conn, err) }()

	err = s.pipe(req.Context(), conn, newEventReader(s.logDB, pos, criteria), closed)
	return nil
}

func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}
	s.wg.Add(1)

	closed := make(chan struct{})
	// start read loop to handle close event
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read err", "err", err)
				break
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	defer s.wg.Done()
	var msg []byte
	if err != nil {
		msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		msg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}

	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		logger.Debug("failed to send close message", "err", err)
	}

	if err := conn.Close(); err != nil {
		logger.Debug("failed to close websocket", "err", err)
	}
}

func (s *Subscriptions) pipe(ctx context.Context, conn *websocket.Conn, reader msgReader, closed chan struct{}) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		// take the channel before reading so a commit landing in between is not missed
		ch, head := s.ledger.Subscribe()
		msgs, err := reader.Read(ctx, head)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-ch:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// Close terminates open streams and waits for their connections to be released.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleEventSub))
}
