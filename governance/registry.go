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

// Package governance implements the location voting registry. The
// administrator enrolls voters and posts locations, and each enrolled voter
// may cast a single vote that raises a location's vote count by the voter's
// weight.
package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpEnroll           = "enroll"
	OpVote             = "vote"
	OpPost             = "post"
	OpSetAdministrator = "setAdministrator"
)

var ErrNilEngine = errors.New("governance: engine must not be nil")

type RegistryConfig struct {
	Engine       *engine.Engine
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// LegacyEnrollmentGate rejects enrollment of any account whose stored
	// weight is zero, before the administrator check. Since every new voter
	// has zero weight this makes enrollment impossible.
	LegacyEnrollmentGate bool
	// RequireVoterWitness makes vote require the voter's own witness
	RequireVoterWitness bool
}

type Registry struct {
	config  RegistryConfig
	engine  *engine.Engine
	db      *database.Database
	metrics registryMetrics
}

// PostRequest holds the attributes of a new location
type PostRequest struct {
	Sender      account.Identity
	Map         int64
	Name        string
	Description string
	X           string
	Y           string
	Tags        string
	Image       string
}

func New(cfg RegistryConfig) (*Registry, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r := &Registry{
		config: cfg,
		engine: cfg.Engine,
		db:     cfg.Engine.Database(),
	}
	r.metrics.init(cfg.PromRegistry)
	count, err := r.db.GetLocationCount(nil)
	if err != nil {
		return nil, fmt.Errorf("load location count: %w", err)
	}
	r.metrics.locationCount.Set(float64(count))
	if cfg.LegacyEnrollmentGate {
		cfg.Logger.Warn(
			"legacy enrollment gate enabled, new voters cannot be enrolled",
			"component", "governance",
		)
	}
	return r, nil
}

// Enroll grants voter a voting weight of one
func (r *Registry) Enroll(
	ctx context.Context,
	witness auth.Authorizer,
	voter account.Identity,
) (*engine.Receipt, error) {
	return r.engine.Invoke(ctx, OpEnroll, witness, func(inv *engine.Invocation) error {
		txn := inv.Txn()
		current, err := r.db.GetVoter(voter, txn)
		if err != nil {
			return err
		}
		if r.config.LegacyEnrollmentGate && current.Weight == 0 {
			return contract.ErrNotEnfranchised
		}
		if err := inv.RequireAdministrator(); err != nil {
			return err
		}
		if voter.IsZero() {
			return contract.ErrInvalidIdentity
		}
		if current.HasVoted() {
			return contract.ErrAlreadyVoted
		}
		err = r.db.UpdateVoter(voter, func(v *models.Voter) error {
			v.Weight = 1
			v.Enfranchised = true
			return nil
		}, txn)
		if err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeVoterEnrolled, account.Zero, voter, 1, nil)
		txn.OnCommit(func() {
			r.metrics.votersEnrolled.Inc()
		})
		return nil
	})
}

// Vote casts voter's single vote for a location
func (r *Registry) Vote(
	ctx context.Context,
	witness auth.Authorizer,
	locationId uint64,
	voter account.Identity,
) (*engine.Receipt, error) {
	return r.engine.Invoke(ctx, OpVote, witness, func(inv *engine.Invocation) error {
		if r.config.RequireVoterWitness && !inv.CheckWitness(voter) {
			return contract.ErrUnauthorized
		}
		txn := inv.Txn()
		current, err := r.db.GetVoter(voter, txn)
		if err != nil {
			return err
		}
		if !current.CanVote() {
			return contract.ErrNotEnfranchised
		}
		if current.HasVoted() {
			return contract.ErrAlreadyVoted
		}
		location, err := r.getLocation(locationId, txn)
		if err != nil {
			return err
		}
		if _, ok := addUint64(location.VoteCount, current.Weight); !ok {
			return contract.ErrOverflow
		}
		err = r.db.UpdateVoter(voter, func(v *models.Voter) error {
			v.Votes = 1
			return nil
		}, txn)
		if err != nil {
			return err
		}
		err = r.db.UpdateLocation(locationId, func(l *models.Location) error {
			l.VoteCount += current.Weight
			return nil
		}, txn)
		if err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeVote, voter, location.Owner, current.Weight, &locationId)
		txn.OnCommit(func() {
			r.metrics.votesCast.Inc()
		})
		return nil
	})
}

// Post registers a new location under the next free id
func (r *Registry) Post(
	ctx context.Context,
	witness auth.Authorizer,
	req PostRequest,
) (*engine.Receipt, uint64, error) {
	var locationId uint64
	receipt, err := r.engine.Invoke(ctx, OpPost, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireAdministrator(); err != nil {
			return err
		}
		txn := inv.Txn()
		count, err := r.db.GetLocationCount(txn)
		if err != nil {
			return err
		}
		nextCount, ok := addUint64(count, 1)
		if !ok {
			return contract.ErrOverflow
		}
		location := &models.Location{
			ID:          count,
			Owner:       req.Sender,
			Map:         req.Map,
			Name:        req.Name,
			Description: req.Description,
			X:           req.X,
			Y:           req.Y,
			Tags:        req.Tags,
			Image:       req.Image,
		}
		if err := r.db.SetLocation(location, txn); err != nil {
			return err
		}
		if err := r.db.SetLocationCount(nextCount, txn); err != nil {
			return err
		}
		locationId = count
		inv.Notify(models.NotificationTypeLocation, account.Zero, req.Sender, 0, &locationId)
		txn.OnCommit(func() {
			r.metrics.locationsPosted.Inc()
			r.metrics.locationCount.Set(float64(nextCount))
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return receipt, locationId, nil
}

// SetAdministrator hands the administrator role to newAdmin. Only the
// current administrator may do this.
func (r *Registry) SetAdministrator(
	ctx context.Context,
	witness auth.Authorizer,
	newAdmin account.Identity,
) (*engine.Receipt, error) {
	return r.engine.Invoke(ctx, OpSetAdministrator, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireAdministrator(); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return contract.ErrInvalidIdentity
		}
		txn := inv.Txn()
		oldAdmin, err := r.db.GetAdministrator(txn)
		if err != nil {
			return err
		}
		if err := r.db.SetAdministrator(newAdmin, txn); err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeAdminChanged, oldAdmin, newAdmin, 0, nil)
		return nil
	})
}

func (r *Registry) getLocation(
	id uint64,
	txn *database.Txn,
) (*models.Location, error) {
	location, err := r.db.GetLocation(id, txn)
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return nil, fmt.Errorf("%w: location %d", contract.ErrNotFound, id)
		}
		return nil, err
	}
	return location, nil
}

func addUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
