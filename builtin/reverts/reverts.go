// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why a contract operation reverted.
type Kind uint8

const (
	Unknown Kind = iota
	PermissionDenied
	InvalidState
	InsufficientFunds
	AlreadyProcessed
	NotFound
	Paused
	InvalidArgument
)

var kindNames = [...]string{
	Unknown:           "unknown",
	PermissionDenied:  "permission denied",
	InvalidState:      "invalid state",
	InsufficientFunds: "insufficient funds",
	AlreadyProcessed:  "already processed",
	NotFound:          "not found",
	Paused:            "paused",
	InvalidArgument:   "invalid argument",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrRevert is a domain failure of a builtin contract. Everything the operation did is reverted.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return &ErrRevert{kind: kind, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var re *ErrRevert
	if errors.As(e, &re) {
		return re != nil
	}
	return false
}

// KindOf returns the kind of a revert error, Unknown for any other error.
func KindOf(err error) Kind {
	var re *ErrRevert
	if errors.As(err, &re) && re != nil {
		return re.kind
	}
	return Unknown
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	return IsRevertErr(err) && KindOf(err) == kind
}
