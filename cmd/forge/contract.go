// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/blinklabs-io/forge"
	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/api"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/internal/config"
	"github.com/blinklabs-io/forge/internal/node"
	"github.com/spf13/cobra"
)

const witnessFlag = "witness"

// nodeFunc performs one operation against an opened node and returns the
// value to print
type nodeFunc func(
	ctx context.Context,
	n *forge.Node,
	witness auth.WitnessSet,
	args []string,
) (any, error)

// runWithNode opens the node, runs fn and prints its result as JSON. Logs
// go to stderr so that stdout only carries the result.
func runWithNode(cmd *cobra.Command, args []string, fn nodeFunc) (err error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	witness, err := witnessFromFlags(cmd)
	if err != nil {
		return err
	}
	n, err := node.Open(cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.Stop())
	}()
	ret, err := fn(cmd.Context(), n, witness, args)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(ret)
}

func addWitnessFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray(
		witnessFlag,
		nil,
		"account address or script hash that witnessed the invocation (repeatable)",
	)
}

func witnessFromFlags(cmd *cobra.Command) (auth.WitnessSet, error) {
	if cmd.Flags().Lookup(witnessFlag) == nil {
		return auth.NewWitnessSet(), nil
	}
	values, err := cmd.Flags().GetStringArray(witnessFlag)
	if err != nil {
		return nil, err
	}
	ids := make([]account.Identity, 0, len(values))
	for _, value := range values {
		id, err := account.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid witness %q: %w", value, err)
		}
		ids = append(ids, id)
	}
	return auth.NewWitnessSet(ids...), nil
}

func parseAmount(value string) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return ret, nil
}

func parseAccounts(values ...string) ([]account.Identity, error) {
	ret := make([]account.Identity, 0, len(values))
	for _, value := range values {
		id, err := account.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid account %q: %w", value, err)
		}
		ret = append(ret, id)
	}
	return ret, nil
}

func nodeCommand(
	use string,
	short string,
	args cobra.PositionalArgs,
	withWitness bool,
	fn nodeFunc,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		Args:         args,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, args, fn)
		},
	}
	if withWitness {
		addWitnessFlag(cmd)
	}
	return cmd
}

func contractCommands() []*cobra.Command {
	updateCmd := nodeCommand(
		"update",
		"Replace the contract code and manifest",
		cobra.NoArgs,
		true,
		nil,
	)
	updateCmd.Flags().String("code", "", "path to the new contract code")
	updateCmd.Flags().String("manifest", "", "contract manifest")
	updateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		codePath, _ := cmd.Flags().GetString("code")
		manifest, _ := cmd.Flags().GetString("manifest")
		var code []byte
		if codePath != "" {
			var err error
			code, err = os.ReadFile(codePath)
			if err != nil {
				return fmt.Errorf("failed to read contract code: %w", err)
			}
		}
		return runWithNode(cmd, args, func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, _ []string) (any, error) {
			receipt, err := n.Ledger().Update(ctx, witness, code, manifest)
			if err != nil {
				return nil, err
			}
			return api.NewReceiptResponse(receipt), nil
		})
	}

	return []*cobra.Command{
		nodeCommand(
			"deploy",
			"Perform the genesis deployment",
			cobra.NoArgs,
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, _ []string) (any, error) {
				receipt, err := n.Ledger().Deploy(ctx)
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"mint <account> <amount>",
			"Create tokens in an account",
			cobra.ExactArgs(2),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Ledger().Mint(ctx, witness, ids[0], amount)
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"burn <account> <amount>",
			"Destroy tokens held by an account",
			cobra.ExactArgs(2),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Ledger().Burn(ctx, witness, ids[0], amount)
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"transfer <from> <to> <amount>",
			"Move tokens between accounts",
			cobra.ExactArgs(3),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0], args[1])
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(args[2])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Ledger().Transfer(ctx, witness, ids[0], ids[1], amount)
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"set-owner <account>",
			"Hand the owner role to another account",
			cobra.ExactArgs(1),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Ledger().SetOwner(ctx, witness, ids[0])
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		updateCmd,
		nodeCommand(
			"destroy",
			"Permanently destroy the contract and its state",
			cobra.NoArgs,
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, _ []string) (any, error) {
				receipt, err := n.Ledger().Destroy(ctx, witness)
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"balance-of <account>",
			"Show the balance of an account",
			cobra.ExactArgs(1),
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				balance, err := n.Ledger().BalanceOf(ctx, ids[0])
				if err != nil {
					return nil, err
				}
				return api.BalanceResponse{
					Account: ids[0].String(),
					Balance: strconv.FormatUint(balance, 10),
				}, nil
			},
		),
		nodeCommand(
			"total-supply",
			"Show the total token supply",
			cobra.NoArgs,
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, _ []string) (any, error) {
				supply, err := n.Ledger().TotalSupply(ctx)
				if err != nil {
					return nil, err
				}
				return api.SupplyResponse{
					TotalSupply: strconv.FormatUint(supply, 10),
				}, nil
			},
		),
		nodeCommand(
			"status",
			"Show the contract roles and lifecycle state",
			cobra.NoArgs,
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, _ []string) (any, error) {
				return contractStatus(ctx, n)
			},
		),
	}
}

func contractStatus(ctx context.Context, n *forge.Node) (api.ContractResponse, error) {
	l := n.Ledger()
	status, err := l.Status(ctx)
	if err != nil {
		return api.ContractResponse{}, err
	}
	owner, admin, err := l.Roles(ctx)
	if err != nil {
		return api.ContractResponse{}, err
	}
	supply, err := l.TotalSupply(ctx)
	if err != nil {
		return api.ContractResponse{}, err
	}
	ret := api.ContractResponse{
		Symbol:      l.Symbol(),
		Decimals:    l.Decimals(),
		TotalSupply: strconv.FormatUint(supply, 10),
		Deployed:    status.Deployed,
		Destroyed:   status.Destroyed,
		Version:     status.Version,
	}
	if !owner.IsZero() {
		ret.Owner = owner.String()
	}
	if !admin.IsZero() {
		ret.Administrator = admin.String()
	}
	return ret, nil
}
