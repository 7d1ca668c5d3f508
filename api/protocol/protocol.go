// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package protocol serves read only views of the builtin contracts.
package protocol

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/ledger"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

const maxReadyLimit = 256

type collector interface {
	Address() thor.Address
	Entity(id thor.Bytes32) (*collectors.Entity, error)
	Counter() (uint64, error)
	ReadyEntities(limit int) ([]thor.Bytes32, error)
	ReadyCount() (uint64, error)
}

type Protocol struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Protocol {
	return &Protocol{ledger}
}

func pickCollector(b *builtin.Builtins, name string) (collector, error) {
	switch strings.ToLower(name) {
	case "pools":
		return b.Pools, nil
	case "solos":
		return b.Solos, nil
	case "groups":
		return b.Groups, nil
	}
	return nil, utils.NotFound("unknown collector " + name)
}

// view runs fn on the committed state and writes its result as JSON.
func (p *Protocol) view(w http.ResponseWriter, fn func(b *builtin.Builtins, st *state.State) (any, error)) error {
	var out any
	if err := p.ledger.View(func(b *builtin.Builtins, st *state.State) (err error) {
		out, err = fn(b, st)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Protocol) handleGetSettings(w http.ResponseWriter, _ *http.Request) error {
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		names := make(map[thor.Address]string)
		for _, c := range builtin.All {
			names[c.Address] = c.Name
		}
		params, err := b.Settings.Params(builtin.Pools.Address, builtin.Solos.Address, builtin.Groups.Address)
		if err != nil {
			return nil, err
		}
		paused := make(map[string]bool)
		for _, c := range builtin.All {
			ok, err := b.Settings.Paused(c.Address)
			if err != nil {
				return nil, err
			}
			if ok {
				paused[c.Name] = true
			}
		}
		return convertSettings(params, names, paused), nil
	})
}

func (p *Protocol) handleGetCollector(w http.ResponseWriter, req *http.Request) error {
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		c, err := pickCollector(b, mux.Vars(req)["collector"])
		if err != nil {
			return nil, err
		}
		counter, err := c.Counter()
		if err != nil {
			return nil, err
		}
		ready, err := c.ReadyCount()
		if err != nil {
			return nil, err
		}
		out := &Collector{Address: c.Address(), Counter: counter, ReadyCount: ready}
		if c.Address() == builtin.Pools.Address {
			current, err := b.Pools.Current()
			if err != nil {
				return nil, err
			}
			if !current.IsZero() {
				out.Current = &current
			}
		}
		return out, nil
	})
}

func (p *Protocol) handleGetReady(w http.ResponseWriter, req *http.Request) error {
	limit := maxReadyLimit
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return utils.BadRequest(errors.New("positive integer expected"), "limit")
		}
		if n < limit {
			limit = n
		}
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		c, err := pickCollector(b, mux.Vars(req)["collector"])
		if err != nil {
			return nil, err
		}
		return c.ReadyEntities(limit)
	})
}

func (p *Protocol) handleGetEntity(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "id")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		c, err := pickCollector(b, mux.Vars(req)["collector"])
		if err != nil {
			return nil, err
		}
		e, err := c.Entity(id)
		if err != nil {
			return nil, err
		}
		if e.IsEmpty() {
			return nil, utils.NotFound("entity not found")
		}
		return convertEntity(id, e), nil
	})
}

func (p *Protocol) handleGetGroupMember(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "id")
	if err != nil {
		return err
	}
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		ok, err := b.Groups.IsMember(id, addr)
		if err != nil {
			return nil, err
		}
		return utils.M{"member": ok}, nil
	})
}

func (p *Protocol) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "id")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		v, err := b.Validators.Get(id)
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			return nil, utils.NotFound("validator not found")
		}
		wallet, err := b.Wallets.WalletOf(id)
		if err != nil {
			return nil, err
		}
		return convertValidator(id, v, wallet), nil
	})
}

func (p *Protocol) handleGetDebt(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "id")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		d, err := b.Transfers.Debt(id)
		if err != nil {
			return nil, err
		}
		return convertDebt(d), nil
	})
}

func (p *Protocol) handleGetWallet(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, st *state.State) (any, error) {
		wallet, err := b.Wallets.Wallet(addr)
		if err != nil {
			return nil, err
		}
		if wallet.IsEmpty() {
			return nil, utils.NotFound("wallet not found")
		}
		balance, err := st.GetBalance(addr)
		if err != nil {
			return nil, err
		}
		return convertWallet(addr, wallet, balance), nil
	})
}

func (p *Protocol) handleGetEntityDeposits(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "entityId")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		total, err := b.Deposits.EntityTotal(id)
		if err != nil {
			return nil, err
		}
		return &EntityDeposits{EntityID: id, Total: amount(total)}, nil
	})
}

func (p *Protocol) handleGetDeposit(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "entityId")
	if err != nil {
		return err
	}
	sender, err := utils.AddressVar(req, "sender")
	if err != nil {
		return err
	}
	recipient, err := utils.AddressVar(req, "recipient")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		userID := thor.UserID(id, sender, recipient)
		amt, err := b.Deposits.Amount(userID)
		if err != nil {
			return nil, err
		}
		withdrawn, err := b.Wallets.Withdrawn(userID)
		if err != nil {
			return nil, err
		}
		return &Deposit{UserID: userID, Amount: amount(amt), Withdrawn: withdrawn}, nil
	})
}

func (p *Protocol) handleGetEntityReward(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "entityId")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		r, err := b.Transfers.EntityReward(id)
		if err != nil {
			return nil, err
		}
		if r.IsEmpty() {
			return nil, utils.NotFound("no transfer record")
		}
		return &EntityReward{ValidatorID: r.ValidatorID, Amount: amount(r.Amount)}, nil
	})
}

func (p *Protocol) handleGetTransferWithdrawal(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Bytes32Var(req, "userId")
	if err != nil {
		return err
	}
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		wd, err := b.Transfers.Withdrawal(id)
		if err != nil {
			return nil, err
		}
		return &Withdrawal{DepositWithdrawn: wd.DepositWithdrawn, RewardWithdrawn: wd.RewardWithdrawn}, nil
	})
}

func (p *Protocol) handleGetOracles(w http.ResponseWriter, _ *http.Request) error {
	return p.view(w, func(b *builtin.Builtins, _ *state.State) (any, error) {
		nonce, err := b.Oracles.Nonce()
		if err != nil {
			return nil, err
		}
		members, err := b.Roles.Count(roles.Oracle)
		if err != nil {
			return nil, err
		}
		total, activated, err := b.Oracles.Rewards()
		if err != nil {
			return nil, err
		}
		root, proofs, err := b.Oracles.MerkleRoot()
		if err != nil {
			return nil, err
		}
		return &Oracles{
			Nonce:               nonce,
			Members:             members,
			TotalRewards:        amount(total),
			ActivatedValidators: activated,
			MerkleRoot:          root,
			Proofs:              proofs,
		}, nil
	})
}

func (p *Protocol) Mount(root *mux.Router) {
	routes := []struct {
		path    string
		handler utils.HandlerFunc
	}{
		{"/settings", p.handleGetSettings},
		{"/collectors/{collector}", p.handleGetCollector},
		{"/collectors/{collector}/ready", p.handleGetReady},
		{"/collectors/{collector}/entities/{id}", p.handleGetEntity},
		{"/collectors/groups/entities/{id}/members/{address}", p.handleGetGroupMember},
		{"/validators/{id}", p.handleGetValidator},
		{"/validators/{id}/debt", p.handleGetDebt},
		{"/wallets/{address}", p.handleGetWallet},
		{"/deposits/{entityId}", p.handleGetEntityDeposits},
		{"/deposits/{entityId}/{sender}/{recipient}", p.handleGetDeposit},
		{"/transfers/rewards/{entityId}", p.handleGetEntityReward},
		{"/transfers/withdrawals/{userId}", p.handleGetTransferWithdrawal},
		{"/oracles", p.handleGetOracles},
	}
	for _, r := range routes {
		root.Path(r.path).
			Methods(http.MethodGet).
			Name("GET " + r.path).
			HandlerFunc(utils.WrapHandlerFunc(r.handler))
	}
}
