// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sort"

	"github.com/vechain/stakepool/builtin"
	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
	"github.com/vechain/stakepool/xenv"
)

// Arguments of the ledger operations, rlp encoded into tx args.
type (
	TransferArgs struct {
		To thor.Address
	}
	RecipientArgs struct {
		Recipient thor.Address
	}
	CancelArgs struct {
		Recipient thor.Address
		Amount    *big.Int
	}
	RegisterValidatorArgs struct {
		EntityID        thor.Bytes32
		PubKey          []byte
		Signature       []byte
		DepositDataRoot thor.Bytes32
	}
	TransferValidatorArgs struct {
		ValidatorID thor.Bytes32
		Reward      *big.Int
	}
	SoloDepositArgs struct {
		Recipient             thor.Address
		WithdrawalCredentials thor.Bytes32
	}
	SoloCancelArgs struct {
		EntityID  thor.Bytes32
		Recipient thor.Address
	}
	CreateGroupArgs struct {
		Members []thor.Address
	}
	GroupDepositArgs struct {
		GroupID   thor.Bytes32
		Recipient thor.Address
	}
	GroupCancelArgs struct {
		GroupID   thor.Bytes32
		Recipient thor.Address
		Amount    *big.Int
	}
	EntityWithdrawArgs struct {
		EntityID  thor.Bytes32
		Recipient thor.Address
	}
	ValidatorArgs struct {
		ValidatorID thor.Bytes32
	}
	WalletArgs struct {
		Wallet thor.Address
	}
	WalletWithdrawArgs struct {
		Wallet     thor.Address
		Withdrawer thor.Address
	}
	SubmitRewardsArgs struct {
		TotalRewards        *big.Int
		ActivatedValidators uint64
		Signatures          [][]byte
	}
	SubmitMerkleRootArgs struct {
		MerkleRoot thor.Bytes32
		Proofs     []byte
		Signatures [][]byte
	}
	SetUintArgs struct {
		Key   thor.Bytes32
		Value *big.Int
	}
	AddressArgs struct {
		Address thor.Address
	}
	Bytes32Args struct {
		Value thor.Bytes32
	}
	StakingDurationArgs struct {
		Collector thor.Address
		Duration  uint64
	}
	PauseArgs struct {
		Contract thor.Address
		Paused   bool
	}
	RoleArgs struct {
		Role    thor.Bytes32
		Account thor.Address
	}
)

type handler struct {
	payable bool
	exec    func(b *builtin.Builtins, env *xenv.Environment, trx *tx.Transaction) (any, error)
}

// bind makes a handler that decodes args and runs fn in a frame of the contract returned by to.
func bind[A any](payable bool, to func(args *A) thor.Address, fn func(b *builtin.Builtins, env *xenv.Environment, args *A) (any, error)) *handler {
	return &handler{
		payable: payable,
		exec: func(b *builtin.Builtins, env *xenv.Environment, trx *tx.Transaction) (any, error) {
			var args A
			if err := trx.DecodeArgs(&args); err != nil {
				return nil, reverts.Newf(reverts.InvalidArgument, "decode args: %v", err)
			}
			var out any
			err := env.Call(to(&args), trx.Value(), func(env *xenv.Environment) error {
				var err error
				out, err = fn(b, env, &args)
				return err
			})
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

func at[A any](addr thor.Address) func(*A) thor.Address {
	return func(*A) thor.Address { return addr }
}

func registerValidator(addr thor.Address) *handler {
	return bind(false, at[RegisterValidatorArgs](addr),
		func(b *builtin.Builtins, env *xenv.Environment, a *RegisterValidatorArgs) (any, error) {
			var register func(*xenv.Environment, thor.Bytes32, []byte, []byte, thor.Bytes32) (thor.Bytes32, error)
			switch addr {
			case builtin.Solos.Address:
				register = b.Solos.RegisterValidator
			case builtin.Groups.Address:
				register = b.Groups.RegisterValidator
			default:
				register = b.Pools.RegisterValidator
			}
			return register(env, a.EntityID, a.PubKey, a.Signature, a.DepositDataRoot)
		})
}

var ops = map[string]*handler{
	"transfer": bind(true, func(a *TransferArgs) thor.Address { return a.To },
		func(_ *builtin.Builtins, env *xenv.Environment, a *TransferArgs) (any, error) {
			if a.To.IsZero() {
				return nil, reverts.New(reverts.InvalidArgument, "zero recipient")
			}
			if env.Value().Sign() == 0 {
				return nil, reverts.New(reverts.InvalidArgument, "zero value")
			}
			return nil, nil
		}),

	"pools.addDeposit": bind(true, at[RecipientArgs](builtin.Pools.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *RecipientArgs) (any, error) {
			return nil, b.Pools.AddDeposit(env, a.Recipient)
		}),
	"pools.cancelDeposit": bind(false, at[CancelArgs](builtin.Pools.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *CancelArgs) (any, error) {
			return nil, b.Pools.CancelDeposit(env, a.Recipient, a.Amount)
		}),
	"pools.registerValidator": registerValidator(builtin.Pools.Address),
	"pools.transferValidator": bind(false, at[TransferValidatorArgs](builtin.Pools.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *TransferValidatorArgs) (any, error) {
			return nil, b.Pools.TransferValidator(env, a.ValidatorID, a.Reward)
		}),

	"solos.addDeposit": bind(true, at[SoloDepositArgs](builtin.Solos.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *SoloDepositArgs) (any, error) {
			return b.Solos.AddDeposit(env, a.Recipient, a.WithdrawalCredentials)
		}),
	"solos.cancelDeposit": bind(false, at[SoloCancelArgs](builtin.Solos.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *SoloCancelArgs) (any, error) {
			return nil, b.Solos.CancelDeposit(env, a.EntityID, a.Recipient)
		}),
	"solos.registerValidator": registerValidator(builtin.Solos.Address),

	"groups.createGroup": bind(false, at[CreateGroupArgs](builtin.Groups.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *CreateGroupArgs) (any, error) {
			return b.Groups.CreateGroup(env, a.Members)
		}),
	"groups.addDeposit": bind(true, at[GroupDepositArgs](builtin.Groups.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *GroupDepositArgs) (any, error) {
			return nil, b.Groups.AddDeposit(env, a.GroupID, a.Recipient)
		}),
	"groups.cancelDeposit": bind(false, at[GroupCancelArgs](builtin.Groups.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *GroupCancelArgs) (any, error) {
			return nil, b.Groups.CancelDeposit(env, a.GroupID, a.Recipient, a.Amount)
		}),
	"groups.registerValidator": registerValidator(builtin.Groups.Address),

	"transfers.withdraw": bind(false, at[EntityWithdrawArgs](builtin.Transfers.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *EntityWithdrawArgs) (any, error) {
			return nil, b.Transfers.Withdraw(env, a.EntityID, a.Recipient)
		}),

	"wallets.assignWallet": bind(false, at[ValidatorArgs](builtin.Wallets.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *ValidatorArgs) (any, error) {
			return b.Wallets.AssignWallet(env, a.ValidatorID)
		}),
	"wallets.enableWithdrawals": bind(false, at[WalletArgs](builtin.Wallets.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *WalletArgs) (any, error) {
			return nil, b.Wallets.EnableWithdrawals(env, a.Wallet)
		}),
	"wallets.withdraw": bind(false, at[WalletWithdrawArgs](builtin.Wallets.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *WalletWithdrawArgs) (any, error) {
			return nil, b.Wallets.Withdraw(env, a.Wallet, a.Withdrawer)
		}),

	"oracles.submitRewards": bind(false, at[SubmitRewardsArgs](builtin.Oracles.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *SubmitRewardsArgs) (any, error) {
			return nil, b.Oracles.SubmitRewards(env, a.TotalRewards, a.ActivatedValidators, a.Signatures)
		}),
	"oracles.submitMerkleRoot": bind(false, at[SubmitMerkleRootArgs](builtin.Oracles.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *SubmitMerkleRootArgs) (any, error) {
			return nil, b.Oracles.SubmitMerkleRoot(env, a.MerkleRoot, a.Proofs, a.Signatures)
		}),

	"settings.setUint": bind(false, at[SetUintArgs](builtin.Settings.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *SetUintArgs) (any, error) {
			return nil, b.Settings.SetUint(env, a.Key, a.Value)
		}),
	"settings.setMaintainer": bind(false, at[AddressArgs](builtin.Settings.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *AddressArgs) (any, error) {
			return nil, b.Settings.SetMaintainer(env, a.Address)
		}),
	"settings.setWithdrawalCredentials": bind(false, at[Bytes32Args](builtin.Settings.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *Bytes32Args) (any, error) {
			return nil, b.Settings.SetWithdrawalCredentials(env, a.Value)
		}),
	"settings.setStakingDuration": bind(false, at[StakingDurationArgs](builtin.Settings.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *StakingDurationArgs) (any, error) {
			return nil, b.Settings.SetStakingDuration(env, a.Collector, a.Duration)
		}),
	"settings.setPaused": bind(false, at[PauseArgs](builtin.Settings.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *PauseArgs) (any, error) {
			return nil, b.Settings.SetPaused(env, a.Contract, a.Paused)
		}),

	"roles.grant": bind(false, at[RoleArgs](builtin.Roles.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *RoleArgs) (any, error) {
			return nil, b.Roles.Grant(env, a.Role, a.Account)
		}),
	"roles.revoke": bind(false, at[RoleArgs](builtin.Roles.Address),
		func(b *builtin.Builtins, env *xenv.Environment, a *RoleArgs) (any, error) {
			return nil, b.Roles.Revoke(env, a.Role, a.Account)
		}),
}

// Ops returns the sorted names of every operation.
func Ops() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
