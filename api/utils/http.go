// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/thor"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error, msg string) error {
	return &httpError{
		cause:  errors.WithMessage(cause, msg),
		status: http.StatusBadRequest,
	}
}

// Forbidden convenience method to create http forbidden error.
func Forbidden(cause error, msg string) error {
	return &httpError{
		cause:  errors.WithMessage(cause, msg),
		status: http.StatusForbidden,
	}
}

// NotFound convenience method to create http not found error.
func NotFound(msg string) error {
	return &httpError{
		cause:  errors.New(msg),
		status: http.StatusNotFound,
	}
}

var revertStatus = map[reverts.Kind]int{
	reverts.PermissionDenied:  http.StatusForbidden,
	reverts.InvalidState:      http.StatusConflict,
	reverts.InsufficientFunds: http.StatusBadRequest,
	reverts.AlreadyProcessed:  http.StatusConflict,
	reverts.NotFound:          http.StatusNotFound,
	reverts.Paused:            http.StatusServiceUnavailable,
	reverts.InvalidArgument:   http.StatusBadRequest,
}

// RevertStatus returns the http status reporting a failed operation, 500 for non revert errors.
func RevertStatus(err error) int {
	if !reverts.IsRevertErr(err) {
		return http.StatusInternalServerError
	}
	if status, ok := revertStatus[reverts.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// if it is a revert the status follows its kind, otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
			return
		}
		http.Error(w, err.Error(), RevertStatus(err))
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any

// AddressVar parses the named path variable as an address.
func AddressVar(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, BadRequest(err, name)
	}
	return addr, nil
}

// Bytes32Var parses the named path variable as a 32 bytes hash.
func Bytes32Var(req *http.Request, name string) (thor.Bytes32, error) {
	b32, err := thor.ParseBytes32(mux.Vars(req)[name])
	if err != nil {
		return thor.Bytes32{}, BadRequest(err, name)
	}
	return b32, nil
}
