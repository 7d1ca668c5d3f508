// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/settings"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// Config is the yaml genesis file. Amounts are decimal ether strings.
type Config struct {
	ChainTag   uint8               `yaml:"chainTag"`
	LaunchTime uint64              `yaml:"launchTime"`
	Settings   SettingsConfig      `yaml:"settings"`
	Roles      map[string][]string `yaml:"roles"`
	Accounts   []Account           `yaml:"accounts"`
}

// SettingsConfig overrides the default settings. Empty fields keep the defaults.
type SettingsConfig struct {
	ValidatorDepositAmount string `yaml:"validatorDepositAmount"`
	MinDepositUnit         string `yaml:"minDepositUnit"`
	MaxDepositAmount       string `yaml:"maxDepositAmount"`
	// MaintainerFee in basis points.
	MaintainerFee         *uint64 `yaml:"maintainerFee"`
	DustThreshold         string  `yaml:"dustThreshold"`
	Maintainer            string  `yaml:"maintainer"`
	WithdrawalCredentials string  `yaml:"withdrawalCredentials"`
	// StakingDurations keyed by collector name (Pools, Solos, Groups) or address.
	StakingDurations map[string]uint64 `yaml:"stakingDurations"`
}

// Account is a pre-funded account.
type Account struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// LoadConfig reads a yaml genesis file. Unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return &cfg, nil
}

// ParseEther converts a decimal ether amount into wei. Fractions below one wei are rejected.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %v", s)
	}
	wei := d.Shift(18)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %v has more than 18 decimals", s)
	}
	return wei.BigInt(), nil
}

func parseEtherOr(s string, def *big.Int) (*big.Int, error) {
	if s == "" {
		return def, nil
	}
	return ParseEther(s)
}

func parseCollector(s string) (thor.Address, error) {
	if addr, ok := builtin.ByName(s); ok {
		return addr, nil
	}
	return thor.ParseAddress(s)
}

func (c *SettingsConfig) params() (p *settings.Params, err error) {
	p = settings.DefaultParams()
	if p.ValidatorDepositAmount, err = parseEtherOr(c.ValidatorDepositAmount, p.ValidatorDepositAmount); err != nil {
		return nil, errors.WithMessage(err, "validatorDepositAmount")
	}
	if p.MinDepositUnit, err = parseEtherOr(c.MinDepositUnit, p.MinDepositUnit); err != nil {
		return nil, errors.WithMessage(err, "minDepositUnit")
	}
	if p.MaxDepositAmount, err = parseEtherOr(c.MaxDepositAmount, p.MaxDepositAmount); err != nil {
		return nil, errors.WithMessage(err, "maxDepositAmount")
	}
	if p.DustThreshold, err = parseEtherOr(c.DustThreshold, p.DustThreshold); err != nil {
		return nil, errors.WithMessage(err, "dustThreshold")
	}
	if c.MaintainerFee != nil {
		p.MaintainerFee = *c.MaintainerFee
	}
	if c.Maintainer != "" {
		if p.Maintainer, err = thor.ParseAddress(c.Maintainer); err != nil {
			return nil, errors.WithMessage(err, "maintainer")
		}
	}
	if c.WithdrawalCredentials != "" {
		if p.WithdrawalCredentials, err = thor.ParseBytes32(c.WithdrawalCredentials); err != nil {
			return nil, errors.WithMessage(err, "withdrawalCredentials")
		}
	}
	for name, duration := range c.StakingDurations {
		collector, err := parseCollector(name)
		if err != nil {
			return nil, errors.WithMessagef(err, "stakingDurations: %v", name)
		}
		p.StakingDurations[collector] = duration
	}
	return p, nil
}

// NewFromConfig creates genesis from a parsed genesis file.
func NewFromConfig(cfg *Config) (*Genesis, error) {
	params, err := cfg.Settings.params()
	if err != nil {
		return nil, errors.WithMessage(err, "settings")
	}

	type member struct {
		role thor.Bytes32
		addr thor.Address
	}
	var members []member
	for name, addrs := range cfg.Roles {
		role, ok := roles.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		for _, s := range addrs {
			addr, err := thor.ParseAddress(s)
			if err != nil {
				return nil, errors.WithMessagef(err, "role %v", name)
			}
			members = append(members, member{role, addr})
		}
	}

	type alloc struct {
		addr    thor.Address
		balance *big.Int
	}
	var allocs []alloc
	for _, a := range cfg.Accounts {
		addr, err := thor.ParseAddress(a.Address)
		if err != nil {
			return nil, errors.WithMessage(err, "account address")
		}
		balance, err := ParseEther(a.Balance)
		if err != nil {
			return nil, errors.WithMessagef(err, "%v: balance", a.Address)
		}
		if balance.Sign() < 1 {
			return nil, fmt.Errorf("%v: balance must be a non-zero amount", a.Address)
		}
		allocs = append(allocs, alloc{addr, balance})
	}

	return new(Builder).
		ChainTag(cfg.ChainTag).
		Timestamp(cfg.LaunchTime).
		State(func(st *state.State) error {
			b := builtin.New(st)
			if err := b.Setup(params); err != nil {
				return err
			}
			for _, m := range members {
				if err := b.Roles.Setup(m.role, m.addr); err != nil {
					return err
				}
			}
			for _, a := range allocs {
				if err := st.AddBalance(a.addr, a.balance); err != nil {
					return err
				}
			}
			return nil
		}).
		Build()
}
