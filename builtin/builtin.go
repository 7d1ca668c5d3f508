// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/stakepool/builtin/beacondeposit"
	"github.com/vechain/stakepool/builtin/collectors"
	"github.com/vechain/stakepool/builtin/deposits"
	"github.com/vechain/stakepool/builtin/oracles"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/builtin/transfers"
	"github.com/vechain/stakepool/builtin/validators"
	"github.com/vechain/stakepool/builtin/wallets"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// Builtin contracts binding.
var (
	Roles         = newContract("Roles")
	Settings      = newContract("Settings")
	Deposits      = newContract("Deposits")
	Validators    = newContract("Validators")
	BeaconDeposit = newContract("BeaconDeposit")
	Transfers     = newContract("Transfers")
	Wallets       = newContract("Wallets")
	Pools         = newContract("Pools")
	Solos         = newContract("Solos")
	Groups        = newContract("Groups")
	Oracles       = newContract("Oracles")
)

// All lists every builtin contract.
var All = []*contract{Roles, Settings, Deposits, Validators, BeaconDeposit, Transfers, Wallets, Pools, Solos, Groups, Oracles}

// ByName returns the builtin contract with the given name.
func ByName(name string) (thor.Address, bool) {
	for _, c := range All {
		if c.Name == name {
			return c.Address, true
		}
	}
	return thor.Address{}, false
}

// Builtins is the set of contracts bound to one state.
type Builtins struct {
	Roles         *roles.Roles
	Settings      *settings.Settings
	Deposits      *deposits.Deposits
	Validators    *validators.Validators
	BeaconDeposit *beacondeposit.Contract
	Transfers     *transfers.Transfers
	Wallets       *wallets.Wallets
	Pools         *collectors.Pools
	Solos         *collectors.Solos
	Groups        *collectors.Groups
	Oracles       *oracles.Oracles
}

// New binds every builtin contract to state.
func New(state *state.State) *Builtins {
	b := &Builtins{}
	b.Roles = roles.New(Roles.Address, state)
	check := b.Roles.Checker()

	b.Settings = settings.New(Settings.Address, state, check)
	b.Deposits = deposits.New(Deposits.Address, state, check)
	b.Validators = validators.New(Validators.Address, state, check, b.Settings)
	b.BeaconDeposit = beacondeposit.New(BeaconDeposit.Address, state)
	b.Transfers = transfers.New(Transfers.Address, state, check, b.Settings, b.Deposits, b.Validators)
	b.Wallets = wallets.New(Wallets.Address, state, check, b.Settings, b.Deposits, b.Validators, b.Transfers)

	deps := &collectors.Deps{
		Check:      check,
		Settings:   b.Settings,
		Deposits:   b.Deposits,
		Validators: b.Validators,
		Transfers:  b.Transfers,
		Locker:     b.BeaconDeposit,
	}
	b.Pools = collectors.NewPools(Pools.Address, state, deps)
	b.Solos = collectors.NewSolos(Solos.Address, state, deps)
	b.Groups = collectors.NewGroups(Groups.Address, state, deps)
	b.Oracles = oracles.New(Oracles.Address, state, b.Roles, b.Settings)
	return b
}

// Setup grants the builtin contracts the roles they act with and initializes settings.
// It is only used when building genesis.
func (b *Builtins) Setup(params *settings.Params) error {
	grants := []struct {
		role thor.Bytes32
		addr thor.Address
	}{
		{roles.Collector, Pools.Address},
		{roles.Collector, Solos.Address},
		{roles.Collector, Groups.Address},
		{roles.Transfers, Transfers.Address},
		{roles.Wallets, Wallets.Address},
	}
	for _, g := range grants {
		if err := b.Roles.Setup(g.role, g.addr); err != nil {
			return err
		}
	}
	if params.StakingDurations == nil {
		params.StakingDurations = make(map[thor.Address]uint64)
	}
	return b.Settings.Initialize(params)
}
