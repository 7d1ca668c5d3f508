// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/logdb"
	"github.com/vechain/stakepool/thor"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

// Filter query events with option
func (e *Events) filter(ctx context.Context, ef *EventFilter) ([]*FilteredEvent, error) {
	events, err := e.db.FilterEvents(ctx, convertEventFilter(ef))
	if err != nil {
		return nil, err
	}
	fes := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		fes[i] = convertEvent(ev)
	}
	return fes, nil
}

func (e *Events) serve(w http.ResponseWriter, req *http.Request, filter *EventFilter) error {
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit), "options")
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", math.MaxInt64), "options")
	}
	if filter.Range != nil && filter.Range.From != nil && filter.Range.To != nil && *filter.Range.From > *filter.Range.To {
		return utils.BadRequest(errors.New("to must be greater than or equal to from"), "range")
	}
	if filter.Order != "" && filter.Order != logdb.ASC && filter.Order != logdb.DESC {
		return utils.BadRequest(fmt.Errorf("unknown order %q", filter.Order), "order")
	}
	// reject null element in CriteriaSet, {} will be unmarshaled to default value and will be accepted/handled by the filter engine
	for i, criterion := range filter.CriteriaSet {
		if criterion == nil {
			return utils.BadRequest(fmt.Errorf("criteriaSet[%d]: null not allowed", i), "criteriaSet")
		}
	}
	if filter.Options == nil {
		// if filter.Options is nil, set to the default limit +1
		// to detect whether there are more logs than the default limit
		filter.Options = &Options{
			Offset: 0,
			Limit:  e.limit + 1,
		}
	}

	fes, err := e.filter(req.Context(), filter)
	if err != nil {
		return err
	}

	// ensure the result size is less than the configured limit
	if len(fes) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered logs exceeds the maximum allowed value of %d", e.limit), "please use pagination")
	}

	return utils.WriteJSON(w, fes)
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(err, "body")
	}
	return e.serve(w, req, &filter)
}

func (e *Events) handleQuery(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseQuery(req.URL.Query())
	if err != nil {
		return err
	}
	return e.serve(w, req, filter)
}

// parseQuery builds a single criteria filter from query parameters.
func parseQuery(q url.Values) (*EventFilter, error) {
	var (
		filter   EventFilter
		criteria EventCriteria
		set      bool
	)
	if s := q.Get("address"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(err, "address")
		}
		criteria.Address = &addr
		set = true
	}
	if s := q.Get("name"); s != "" {
		criteria.Name = s
		set = true
	}
	topics := []**thor.Bytes32{&criteria.Topic0, &criteria.Topic1, &criteria.Topic2, &criteria.Topic3, &criteria.Topic4}
	for i, topic := range topics {
		key := "topic" + strconv.Itoa(i)
		if s := q.Get(key); s != "" {
			b32, err := thor.ParseBytes32(s)
			if err != nil {
				return nil, utils.BadRequest(err, key)
			}
			*topic = &b32
			set = true
		}
	}
	if set {
		filter.CriteriaSet = []*EventCriteria{&criteria}
	}

	parseUint := func(key string) (*uint64, error) {
		s := q.Get(key)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, utils.BadRequest(err, key)
		}
		return &n, nil
	}
	from, err := parseUint("from")
	if err != nil {
		return nil, err
	}
	to, err := parseUint("to")
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		filter.Range = &Range{Unit: logdb.RangeType(q.Get("unit")), From: from, To: to}
	}
	offset, err := parseUint("offset")
	if err != nil {
		return nil, err
	}
	limit, err := parseUint("limit")
	if err != nil {
		return nil, err
	}
	if limit != nil {
		filter.Options = &Options{Limit: *limit}
		if offset != nil {
			filter.Options.Offset = *offset
		}
	}
	filter.Order = logdb.Order(q.Get("order"))
	return &filter, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /logs/event").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /logs/event").
		HandlerFunc(utils.WrapHandlerFunc(e.handleQuery))
}
