// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settings

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "settings")

// Keys of numeric settings.
var (
	KeyValidatorDepositAmount = thor.BytesToBytes32([]byte("validator-deposit-amount"))
	KeyMinDepositUnit         = thor.BytesToBytes32([]byte("min-deposit-unit"))
	KeyMaxDepositAmount       = thor.BytesToBytes32([]byte("max-deposit-amount"))
	KeyMaintainerFee          = thor.BytesToBytes32([]byte("maintainer-fee"))
	KeyDustThreshold          = thor.BytesToBytes32([]byte("dust-threshold"))
)

var keyNames = map[thor.Bytes32]string{
	KeyValidatorDepositAmount: "validator-deposit-amount",
	KeyMinDepositUnit:         "min-deposit-unit",
	KeyMaxDepositAmount:       "max-deposit-amount",
	KeyMaintainerFee:          "maintainer-fee",
	KeyDustThreshold:          "dust-threshold",
}

// KeyByName returns the numeric setting key with the given name.
func KeyByName(name string) (thor.Bytes32, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return thor.Bytes32{}, false
}

const (
	EventSettingChanged = "SettingChanged"
	EventPauseChanged   = "PauseChanged"
)

// subject keys of non numeric settings in SettingChanged events
var (
	subjectMaintainer  = thor.BytesToBytes32([]byte("maintainer"))
	subjectCredentials = thor.BytesToBytes32([]byte("withdrawal-credentials"))
	subjectDuration    = thor.BytesToBytes32([]byte("staking-duration"))
)

type settingChanged struct {
	Key     thor.Bytes32
	Subject thor.Address
	Value   []byte
}

type pauseChanged struct {
	Contract thor.Address
	Paused   bool
	Sender   thor.Address
}

// Params is the full set of settings.
type Params struct {
	ValidatorDepositAmount *big.Int
	MinDepositUnit         *big.Int
	MaxDepositAmount       *big.Int
	MaintainerFee          uint64
	DustThreshold          *big.Int
	Maintainer             thor.Address
	WithdrawalCredentials  thor.Bytes32
	StakingDurations       map[thor.Address]uint64
}

// DefaultParams returns the settings of a fresh deployment.
func DefaultParams() *Params {
	return &Params{
		ValidatorDepositAmount: new(big.Int).Mul(big.NewInt(32), thor.Ether),
		MinDepositUnit:         new(big.Int).Set(thor.Gwei),
		MaxDepositAmount:       new(big.Int).Mul(big.NewInt(1000), thor.Ether),
		MaintainerFee:          1000,
		DustThreshold:          new(big.Int).Set(thor.Gwei),
		StakingDurations:       map[thor.Address]uint64{},
	}
}

// Settings holds protocol parameters changed only by admins.
type Settings struct {
	addr        thor.Address
	check       roles.Checker
	uints       *solidity.Mapping[thor.Bytes32, *big.Int]
	maintainer  *solidity.Address
	credentials *solidity.Bytes32
	durations   *solidity.Mapping[thor.Address, uint64]
	paused      *solidity.Mapping[thor.Address, bool]
}

func New(addr thor.Address, state *state.State, check roles.Checker) *Settings {
	sctx := solidity.NewContext(addr, state)
	return &Settings{
		addr:        addr,
		check:       check,
		uints:       solidity.NewMapping[thor.Bytes32, *big.Int](sctx, solidity.Slot("uints")),
		maintainer:  solidity.NewAddress(sctx, solidity.Slot("maintainer")),
		credentials: solidity.NewBytes32(sctx, solidity.Slot("withdrawal-credentials")),
		durations:   solidity.NewMapping[thor.Address, uint64](sctx, solidity.Slot("staking-durations")),
		paused:      solidity.NewMapping[thor.Address, bool](sctx, solidity.Slot("paused")),
	}
}

func (s *Settings) Address() thor.Address {
	return s.addr
}

// Get returns a numeric setting.
func (s *Settings) Get(key thor.Bytes32) (*big.Int, error) {
	return s.uints.Get(key)
}

func (s *Settings) ValidatorDepositAmount() (*big.Int, error) {
	return s.Get(KeyValidatorDepositAmount)
}

func (s *Settings) MinDepositUnit() (*big.Int, error) {
	return s.Get(KeyMinDepositUnit)
}

func (s *Settings) MaxDepositAmount() (*big.Int, error) {
	return s.Get(KeyMaxDepositAmount)
}

func (s *Settings) DustThreshold() (*big.Int, error) {
	return s.Get(KeyDustThreshold)
}

// MaintainerFee returns the fee in basis points.
func (s *Settings) MaintainerFee() (uint64, error) {
	fee, err := s.Get(KeyMaintainerFee)
	if err != nil {
		return 0, err
	}
	return fee.Uint64(), nil
}

func (s *Settings) Maintainer() (thor.Address, error) {
	return s.maintainer.Get()
}

func (s *Settings) WithdrawalCredentials() (thor.Bytes32, error) {
	return s.credentials.Get()
}

// StakingDuration returns the staking duration of validators registered by collector.
func (s *Settings) StakingDuration(collector thor.Address) (uint64, error) {
	return s.durations.Get(collector)
}

func (s *Settings) Paused(contract thor.Address) (bool, error) {
	return s.paused.Get(contract)
}

// RequireNotPaused fails with Paused if contract is paused.
func (s *Settings) RequireNotPaused(contract thor.Address) error {
	paused, err := s.Paused(contract)
	if err != nil {
		return err
	}
	if paused {
		return reverts.New(reverts.Paused, "contract is paused")
	}
	return nil
}

// Params returns all settings, staking durations of the given collectors included.
func (s *Settings) Params(collectors ...thor.Address) (*Params, error) {
	p := &Params{StakingDurations: make(map[thor.Address]uint64)}
	var err error
	if p.ValidatorDepositAmount, err = s.ValidatorDepositAmount(); err != nil {
		return nil, err
	}
	if p.MinDepositUnit, err = s.MinDepositUnit(); err != nil {
		return nil, err
	}
	if p.MaxDepositAmount, err = s.MaxDepositAmount(); err != nil {
		return nil, err
	}
	if p.MaintainerFee, err = s.MaintainerFee(); err != nil {
		return nil, err
	}
	if p.DustThreshold, err = s.DustThreshold(); err != nil {
		return nil, err
	}
	if p.Maintainer, err = s.Maintainer(); err != nil {
		return nil, err
	}
	if p.WithdrawalCredentials, err = s.WithdrawalCredentials(); err != nil {
		return nil, err
	}
	for _, c := range collectors {
		d, err := s.StakingDuration(c)
		if err != nil {
			return nil, err
		}
		p.StakingDurations[c] = d
	}
	return p, nil
}

// Initialize writes p without permission checks. Only used when building genesis.
func (s *Settings) Initialize(p *Params) error {
	values := map[thor.Bytes32]*big.Int{
		KeyValidatorDepositAmount: p.ValidatorDepositAmount,
		KeyMinDepositUnit:         p.MinDepositUnit,
		KeyMaxDepositAmount:       p.MaxDepositAmount,
		KeyMaintainerFee:          new(big.Int).SetUint64(p.MaintainerFee),
		KeyDustThreshold:          p.DustThreshold,
	}
	if err := validateAll(values); err != nil {
		return err
	}
	for k, v := range values {
		if err := s.uints.Set(k, v); err != nil {
			return err
		}
	}
	s.maintainer.Set(p.Maintainer)
	s.credentials.Set(p.WithdrawalCredentials)
	for c, d := range p.StakingDurations {
		if err := s.durations.Set(c, d); err != nil {
			return err
		}
	}
	return nil
}

func validateAll(values map[thor.Bytes32]*big.Int) error {
	for k, v := range values {
		if v == nil {
			return reverts.Newf(reverts.InvalidArgument, "%s not set", keyNames[k])
		}
		if err := validate(k, v, values); err != nil {
			return err
		}
	}
	return nil
}

// validate checks value for key against the other numeric settings in current.
func validate(key thor.Bytes32, value *big.Int, current map[thor.Bytes32]*big.Int) error {
	if value.Sign() < 0 {
		return reverts.Newf(reverts.InvalidArgument, "negative %s", keyNames[key])
	}
	depositAmount := current[KeyValidatorDepositAmount]
	unit := current[KeyMinDepositUnit]
	switch key {
	case KeyValidatorDepositAmount:
		if value.Cmp(thor.Ether) < 0 || new(big.Int).Mod(value, thor.Gwei).Sign() != 0 {
			return reverts.New(reverts.InvalidArgument, "validator deposit amount must be at least 1 ether in whole gwei")
		}
		if unit != nil && unit.Sign() > 0 && new(big.Int).Mod(value, unit).Sign() != 0 {
			return reverts.New(reverts.InvalidArgument, "validator deposit amount must be a multiple of the deposit unit")
		}
	case KeyMinDepositUnit:
		if value.Sign() == 0 {
			return reverts.New(reverts.InvalidArgument, "zero deposit unit")
		}
		if depositAmount != nil && new(big.Int).Mod(depositAmount, value).Sign() != 0 {
			return reverts.New(reverts.InvalidArgument, "deposit unit must divide the validator deposit amount")
		}
	case KeyMaxDepositAmount:
		if value.Sign() == 0 {
			return reverts.New(reverts.InvalidArgument, "zero max deposit amount")
		}
	case KeyMaintainerFee:
		if value.Cmp(big.NewInt(thor.FeeDenominator)) > 0 {
			return reverts.New(reverts.InvalidArgument, "maintainer fee above 100%")
		}
	case KeyDustThreshold:
	default:
		return reverts.New(reverts.InvalidArgument, "unknown setting")
	}
	return nil
}

func (s *Settings) requireAdmin(env *xenv.Environment) error {
	return roles.Require(s.check, env.Caller(), roles.Admin)
}

func (s *Settings) logChange(env *xenv.Environment, key thor.Bytes32, subject thor.Address, value []byte) error {
	logger.Debug("setting changed", "key", key, "subject", subject)
	return env.Log(EventSettingChanged, []thor.Bytes32{key}, &settingChanged{key, subject, value})
}

// SetUint changes a numeric setting.
func (s *Settings) SetUint(env *xenv.Environment, key thor.Bytes32, value *big.Int) error {
	if err := s.requireAdmin(env); err != nil {
		return err
	}
	current := make(map[thor.Bytes32]*big.Int)
	for _, k := range []thor.Bytes32{KeyValidatorDepositAmount, KeyMinDepositUnit} {
		v, err := s.Get(k)
		if err != nil {
			return err
		}
		current[k] = v
	}
	if err := validate(key, value, current); err != nil {
		return err
	}
	if err := s.uints.Set(key, value); err != nil {
		return err
	}
	return s.logChange(env, key, thor.Address{}, value.Bytes())
}

func (s *Settings) SetMaintainer(env *xenv.Environment, maintainer thor.Address) error {
	if err := s.requireAdmin(env); err != nil {
		return err
	}
	if maintainer.IsZero() {
		return reverts.New(reverts.InvalidArgument, "zero maintainer")
	}
	s.maintainer.Set(maintainer)
	return s.logChange(env, subjectMaintainer, maintainer, nil)
}

func (s *Settings) SetWithdrawalCredentials(env *xenv.Environment, credentials thor.Bytes32) error {
	if err := s.requireAdmin(env); err != nil {
		return err
	}
	if credentials.IsZero() {
		return reverts.New(reverts.InvalidArgument, "zero withdrawal credentials")
	}
	s.credentials.Set(credentials)
	return s.logChange(env, subjectCredentials, thor.Address{}, credentials.Bytes())
}

func (s *Settings) SetStakingDuration(env *xenv.Environment, collector thor.Address, duration uint64) error {
	if err := s.requireAdmin(env); err != nil {
		return err
	}
	if err := s.durations.Set(collector, duration); err != nil {
		return err
	}
	return s.logChange(env, subjectDuration, collector, new(big.Int).SetUint64(duration).Bytes())
}

// SetPaused pauses or resumes every mutating entry point of contract.
func (s *Settings) SetPaused(env *xenv.Environment, contract thor.Address, paused bool) error {
	if err := s.requireAdmin(env); err != nil {
		return err
	}
	if err := s.paused.Set(contract, paused); err != nil {
		return err
	}
	logger.Info("pause changed", "contract", contract, "paused", paused)
	return env.Log(EventPauseChanged, []thor.Bytes32{thor.BytesToBytes32(contract[:])}, &pauseChanged{contract, paused, env.Caller()})
}
