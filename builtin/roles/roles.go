// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "roles")

var (
	Admin     = thor.Keccak256([]byte("ADMIN_ROLE"))
	Operator  = thor.Keccak256([]byte("OPERATOR_ROLE"))
	Manager   = thor.Keccak256([]byte("MANAGER_ROLE"))
	Oracle    = thor.Keccak256([]byte("ORACLE_ROLE"))
	Collector = thor.Keccak256([]byte("COLLECTOR_ROLE"))
	// Transfers and Wallets are held by the builtin contracts of the same name.
	Transfers = thor.Keccak256([]byte("TRANSFERS_ROLE"))
	Wallets   = thor.Keccak256([]byte("WALLETS_ROLE"))
)

var names = map[thor.Bytes32]string{
	Admin:     "admin",
	Operator:  "operator",
	Manager:   "manager",
	Oracle:    "oracle",
	Collector: "collector",
	Transfers: "transfers",
	Wallets:   "wallets",
}

// Name returns the short name of a known role.
func Name(role thor.Bytes32) string {
	if n, ok := names[role]; ok {
		return n
	}
	return role.AbbrevString()
}

// ByName returns the role with the given short name.
func ByName(name string) (thor.Bytes32, bool) {
	for role, n := range names {
		if n == name {
			return role, true
		}
	}
	return thor.Bytes32{}, false
}

// Checker answers whether addr holds role.
type Checker func(addr thor.Address, role thor.Bytes32) (bool, error)

// Require fails with PermissionDenied unless addr holds role.
func Require(check Checker, addr thor.Address, role thor.Bytes32) error {
	ok, err := check(addr, role)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Newf(reverts.PermissionDenied, "%s role required", Name(role))
	}
	return nil
}

const (
	EventRoleGranted = "RoleGranted"
	EventRoleRevoked = "RoleRevoked"
)

type roleEvent struct {
	Role    thor.Bytes32
	Account thor.Address
	Sender  thor.Address
}

// Roles is the capability registry.
type Roles struct {
	addr    thor.Address
	members *solidity.Mapping[thor.Bytes32, bool]
	counts  *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State) *Roles {
	sctx := solidity.NewContext(addr, state)
	return &Roles{
		addr:    addr,
		members: solidity.NewMapping[thor.Bytes32, bool](sctx, solidity.Slot("members")),
		counts:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, solidity.Slot("counts")),
	}
}

func (r *Roles) Address() thor.Address {
	return r.addr
}

func memberKey(role thor.Bytes32, account thor.Address) thor.Bytes32 {
	return thor.Keccak256(role[:], account[:])
}

// HasRole returns whether account holds role.
func (r *Roles) HasRole(role thor.Bytes32, account thor.Address) (bool, error) {
	return r.members.Get(memberKey(role, account))
}

// Checker returns the capability check backed by this registry.
func (r *Roles) Checker() Checker {
	return func(addr thor.Address, role thor.Bytes32) (bool, error) {
		return r.HasRole(role, addr)
	}
}

// Count returns the number of members of role.
func (r *Roles) Count(role thor.Bytes32) (uint64, error) {
	n, err := r.counts.Get(role)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Setup grants role without permission checks. Only used when building genesis.
func (r *Roles) Setup(role thor.Bytes32, account thor.Address) error {
	_, err := r.grant(role, account)
	return err
}

func (r *Roles) grant(role thor.Bytes32, account thor.Address) (bool, error) {
	has, err := r.HasRole(role, account)
	if err != nil || has {
		return false, err
	}
	if err := r.members.Set(memberKey(role, account), true); err != nil {
		return false, err
	}
	n, err := r.counts.Get(role)
	if err != nil {
		return false, err
	}
	return true, r.counts.Set(role, n.Add(n, big.NewInt(1)))
}

// Grant gives role to account. Granting a held role is a no-op.
func (r *Roles) Grant(env *xenv.Environment, role thor.Bytes32, account thor.Address) error {
	if err := Require(r.Checker(), env.Caller(), Admin); err != nil {
		return err
	}
	if account.IsZero() {
		return reverts.New(reverts.InvalidArgument, "zero account")
	}
	granted, err := r.grant(role, account)
	if err != nil || !granted {
		return err
	}
	logger.Debug("role granted", "role", Name(role), "account", account)
	return env.Log(EventRoleGranted, []thor.Bytes32{role, thor.BytesToBytes32(account[:])}, &roleEvent{role, account, env.Caller()})
}

// Revoke removes role from account. The last admin cannot be revoked.
func (r *Roles) Revoke(env *xenv.Environment, role thor.Bytes32, account thor.Address) error {
	if err := Require(r.Checker(), env.Caller(), Admin); err != nil {
		return err
	}
	has, err := r.HasRole(role, account)
	if err != nil {
		return err
	}
	if !has {
		return reverts.Newf(reverts.NotFound, "account has no %s role", Name(role))
	}
	n, err := r.counts.Get(role)
	if err != nil {
		return err
	}
	if role == Admin && n.Cmp(big.NewInt(1)) <= 0 {
		return reverts.New(reverts.InvalidState, "cannot revoke last admin")
	}
	r.members.Delete(memberKey(role, account))
	if err := r.counts.Set(role, n.Sub(n, big.NewInt(1))); err != nil {
		return err
	}
	logger.Debug("role revoked", "role", Name(role), "account", account)
	return env.Log(EventRoleRevoked, []thor.Bytes32{role, thor.BytesToBytes32(account[:])}, &roleEvent{role, account, env.Caller()})
}
