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
	"fmt"
	"strconv"

	"github.com/blinklabs-io/forge"
	"github.com/blinklabs-io/forge/api"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/governance"
	"github.com/spf13/cobra"
)

func parseLocationId(value string) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid location id %q: %w", value, err)
	}
	return ret, nil
}

func governanceCommands() []*cobra.Command {
	postCmd := nodeCommand(
		"post <sender>",
		"Register a new location",
		cobra.ExactArgs(1),
		true,
		nil,
	)
	postFlags := postCmd.Flags()
	postFlags.Int64("map", 0, "map the location belongs to")
	postFlags.String("name", "", "location name")
	postFlags.String("description", "", "location description")
	postFlags.String("x", "", "x coordinate")
	postFlags.String("y", "", "y coordinate")
	postFlags.String("tags", "", "location tags")
	postFlags.String("image", "", "image reference")
	postCmd.RunE = func(cmd *cobra.Command, args []string) error {
		req := governance.PostRequest{}
		req.Map, _ = postFlags.GetInt64("map")
		req.Name, _ = postFlags.GetString("name")
		req.Description, _ = postFlags.GetString("description")
		req.X, _ = postFlags.GetString("x")
		req.Y, _ = postFlags.GetString("y")
		req.Tags, _ = postFlags.GetString("tags")
		req.Image, _ = postFlags.GetString("image")
		return runWithNode(cmd, args, func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
			ids, err := parseAccounts(args[0])
			if err != nil {
				return nil, err
			}
			req.Sender = ids[0]
			receipt, locationId, err := n.Registry().Post(ctx, witness, req)
			if err != nil {
				return nil, err
			}
			return api.PostResponse{
				ReceiptResponse: api.NewReceiptResponse(receipt),
				LocationID:      locationId,
			}, nil
		})
	}

	notificationsCmd := nodeCommand(
		"notifications",
		"Show the notification journal",
		cobra.NoArgs,
		false,
		nil,
	)
	notificationsCmd.Flags().Int("limit", 100, "maximum entries to show")
	notificationsCmd.Flags().Int("offset", 0, "entries to skip")
	notificationsCmd.Flags().String("type", "", "only show this notification type")
	notificationsCmd.Flags().String("account", "", "only show entries involving this account")
	notificationsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		notificationType, _ := cmd.Flags().GetString("type")
		accountValue, _ := cmd.Flags().GetString("account")
		filter := models.NotificationFilter{
			Type:   models.NotificationType(notificationType),
			Limit:  limit,
			Offset: offset,
		}
		if accountValue != "" {
			ids, err := parseAccounts(accountValue)
			if err != nil {
				return err
			}
			filter.Account = ids[0].Bytes()
		}
		return runWithNode(cmd, args, func(_ context.Context, n *forge.Node, _ auth.WitnessSet, _ []string) (any, error) {
			notifications, err := n.Database().GetNotifications(filter)
			if err != nil {
				return nil, err
			}
			ret := make([]api.NotificationResponse, 0, len(notifications))
			for _, notification := range notifications {
				ret = append(ret, api.NewNotificationResponse(notification))
			}
			return ret, nil
		})
	}

	return []*cobra.Command{
		nodeCommand(
			"enroll <voter>",
			"Grant an account its vote",
			cobra.ExactArgs(1),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Registry().Enroll(ctx, witness, ids[0])
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"vote <location-id> <voter>",
			"Cast a voter's single vote for a location",
			cobra.ExactArgs(2),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				locationId, err := parseLocationId(args[0])
				if err != nil {
					return nil, err
				}
				ids, err := parseAccounts(args[1])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Registry().Vote(ctx, witness, locationId, ids[0])
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		postCmd,
		nodeCommand(
			"set-admin <account>",
			"Hand the administrator role to another account",
			cobra.ExactArgs(1),
			true,
			func(ctx context.Context, n *forge.Node, witness auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				receipt, err := n.Registry().SetAdministrator(ctx, witness, ids[0])
				if err != nil {
					return nil, err
				}
				return api.NewReceiptResponse(receipt), nil
			},
		),
		nodeCommand(
			"owner-of <location-id>",
			"Show the owner of a location",
			cobra.ExactArgs(1),
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, args []string) (any, error) {
				locationId, err := parseLocationId(args[0])
				if err != nil {
					return nil, err
				}
				owner, err := n.Registry().OwnerOf(ctx, locationId)
				if err != nil {
					return nil, err
				}
				return api.OwnerResponse{Owner: owner.String()}, nil
			},
		),
		nodeCommand(
			"detail-of <location-id>",
			"Show a location record",
			cobra.ExactArgs(1),
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, args []string) (any, error) {
				locationId, err := parseLocationId(args[0])
				if err != nil {
					return nil, err
				}
				location, err := n.Registry().DetailOf(ctx, locationId)
				if err != nil {
					return nil, err
				}
				return api.NewLocationResponse(location), nil
			},
		),
		nodeCommand(
			"location-count",
			"Show the number of registered locations",
			cobra.NoArgs,
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, _ []string) (any, error) {
				count, err := n.Registry().LocationCount(ctx)
				if err != nil {
					return nil, err
				}
				return api.CountResponse{Count: count}, nil
			},
		),
		nodeCommand(
			"voter <account>",
			"Show the voting record of an account",
			cobra.ExactArgs(1),
			false,
			func(ctx context.Context, n *forge.Node, _ auth.WitnessSet, args []string) (any, error) {
				ids, err := parseAccounts(args[0])
				if err != nil {
					return nil, err
				}
				voter, err := n.Registry().Voter(ctx, ids[0])
				if err != nil {
					return nil, err
				}
				return api.VoterResponse{
					Account:      ids[0].String(),
					Weight:       voter.Weight,
					Votes:        voter.Votes,
					Enfranchised: voter.Enfranchised,
				}, nil
			},
		),
		notificationsCmd,
	}
}
