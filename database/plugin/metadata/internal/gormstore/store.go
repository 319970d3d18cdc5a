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

// Package gormstore holds the notification journal and commit timestamp
// logic shared by the SQL metadata plugins
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"
)

const (
	commitTimestampRowId = 1

	metadataMetricNamePrefix = "database_metadata_"
)

// CommitTimestamp represents the table used to track the current commit timestamp
type CommitTimestamp struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (CommitTimestamp) TableName() string {
	return "commit_timestamp"
}

type Store struct {
	db            *gorm.DB
	logger        *slog.Logger
	notifications prometheus.Counter
}

// New wraps an open gorm handle, enables tracing and migrates the schema
func New(
	db *gorm.DB,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	if promRegistry != nil {
		s.notifications = promauto.With(promRegistry).NewCounter(
			prometheus.CounterOpts{
				Name: metadataMetricNamePrefix + "notifications_total",
				Help: "Total notifications written to the journal",
			},
		)
	}
	s.logger.Debug(fmt.Sprintf("creating table: %#v", &CommitTimestamp{}))
	if err := db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying SQL connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) GetCommitTimestamp() (int64, error) {
	var tmpCommitTimestamp CommitTimestamp
	result := s.db.First(&tmpCommitTimestamp)
	if result.Error != nil {
		// It's not an error if there's no records found
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return tmpCommitTimestamp.Timestamp, nil
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpCommitTimestamp := CommitTimestamp{
		ID:        commitTimestampRowId,
		Timestamp: timestamp,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timestamp"}),
	}).Create(&tmpCommitTimestamp)
	return result.Error
}

// AddNotifications appends entries to the journal
func (s *Store) AddNotifications(
	notifications []models.Notification,
	txn types.Txn,
) error {
	if len(notifications) == 0 {
		return nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(&notifications); result.Error != nil {
		return fmt.Errorf("create notifications: %w", result.Error)
	}
	if s.notifications != nil {
		s.notifications.Add(float64(len(notifications)))
	}
	return nil
}

// GetNotifications returns journal entries matching the filter, ordered by
// insertion
func (s *Store) GetNotifications(
	filter models.NotificationFilter,
	txn types.Txn,
) ([]models.Notification, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Notification{})
	if len(filter.Account) > 0 {
		query = query.Where(
			"(from_account = ? OR to_account = ?)",
			filter.Account,
			filter.Account,
		)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", types.Uint64(*filter.LocationID))
	}
	if filter.Descending {
		query = query.Order("id DESC")
	} else {
		query = query.Order("id ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var ret []models.Notification
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
