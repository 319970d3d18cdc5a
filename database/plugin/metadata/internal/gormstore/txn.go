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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/forge/database/types"
	"gorm.io/gorm"
)

var errTxnFinished = errors.New("transaction already finished")

// Txn wraps a gorm transaction and implements types.Txn
type Txn struct {
	store    *Store
	db       *gorm.DB
	beginErr error
	finished bool
}

// DB returns the transaction-scoped gorm handle
func (t *Txn) DB() *gorm.DB {
	return t.db
}

func (t *Txn) Commit() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.db.Commit(); result.Error != nil {
		return result.Error
	}
	return nil
}

func (t *Txn) Rollback() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.db.Rollback(); result.Error != nil {
		return result.Error
	}
	return nil
}

// Transaction begins a new metadata transaction. A failure to begin is
// reported by Commit and Rollback.
func (s *Store) Transaction() types.Txn {
	tx := s.db.Begin()
	if tx.Error != nil {
		return &Txn{store: s, beginErr: tx.Error}
	}
	return &Txn{store: s, db: tx}
}

// resolveDB returns the gorm handle for a caller-supplied transaction, or the
// base handle when no transaction is given
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.db, nil
	}
	t, ok := txn.(*Txn)
	if !ok || t.store != s {
		return nil, types.ErrTxnWrongType
	}
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	if t.finished {
		return nil, errTxnFinished
	}
	return t.db, nil
}
