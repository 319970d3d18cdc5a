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

package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/forge/database/types"
)

// ErrPartialCommit is returned when the blob store committed but the
// metadata store did not. Contract state is durable while its journal
// entries are lost.
var ErrPartialCommit = errors.New("partial commit")

// Txn coordinates a blob transaction and a metadata transaction so that
// contract state and the notification journal commit together
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	onCommit    []func()
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil {
		t.metadataTxn = ms.Transaction()
	}
	return t
}

// NewBlobOnlyTxn returns a read-only transaction over the blob store
func NewBlobOnlyTxn(db *Database) *Txn {
	t := &Txn{db: db}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(false)
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

func (t *Txn) ReadWrite() bool {
	return t.readWrite
}

// OnCommit registers a function to run after a successful commit. Hooks do
// not run when the transaction is rolled back.
func (t *Txn) OnCommit(fn func()) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.onCommit = append(t.onCommit, fn)
}

// Do executes the specified function in the context of the transaction. Any
// errors returned will result in the transaction being rolled back
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	if t.finished {
		t.lock.Unlock()
		return nil
	}
	// No need to commit for read-only, but we do want to free up resources
	if !t.readWrite {
		err := t.rollback()
		t.lock.Unlock()
		return err
	}
	if t.blobTxn == nil || t.metadataTxn == nil {
		_ = t.rollback()
		t.lock.Unlock()
		return types.ErrNoStoreAvailable
	}
	if err := t.commit(); err != nil {
		t.lock.Unlock()
		return err
	}
	hooks := t.onCommit
	t.onCommit = nil
	t.lock.Unlock()
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (t *Txn) commit() error {
	t.finished = true
	if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
		_ = t.blobTxn.Rollback()
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf("failed to update commit timestamp: %w", err)
	}
	// Commit blob first, so that a failure here leaves neither store changed
	if err := t.blobTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf("blob commit failed: %w", err)
	}
	if err := t.metadataTxn.Commit(); err != nil {
		// The stores now disagree, which is reported as a
		// CommitTimestampError the next time the database is opened
		t.db.logger.Error(
			"partial commit: blob committed, metadata failed",
			"component", "database",
			"error", err,
		)
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf(
			"%w: metadata commit failed after blob commit: %w",
			ErrPartialCommit,
			err,
		)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.onCommit = nil
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("blob rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Release discards the transaction if it has not finished. It is meant for
// defer statements, and logs rather than returns errors.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}

// requireWrite rejects writes through a read-only transaction
func (t *Txn) requireWrite() error {
	if !t.readWrite {
		return types.ErrReadOnlyTxn
	}
	return nil
}
