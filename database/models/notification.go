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

package models

import (
	"github.com/blinklabs-io/forge/database/types"
)

type NotificationType string

const (
	NotificationTypeTransfer      NotificationType = "Transfer"
	NotificationTypeDeploy        NotificationType = "Deploy"
	NotificationTypeUpdate        NotificationType = "Update"
	NotificationTypeDestroy       NotificationType = "Destroy"
	NotificationTypeOwnerChanged  NotificationType = "OwnerChanged"
	NotificationTypeAdminChanged  NotificationType = "AdministratorChanged"
	NotificationTypeVoterEnrolled NotificationType = "VoterEnrolled"
	NotificationTypeVote          NotificationType = "Vote"
	NotificationTypeLocation      NotificationType = "LocationPosted"
)

// Notification is a journal entry for a committed state change. For
// Transfer, a nil From marks a mint and a nil To marks a burn.
type Notification struct {
	InvocationID string           `gorm:"index;size:36"`
	Type         NotificationType `gorm:"index;size:32"`
	From         []byte           `gorm:"column:from_account;index;size:20"`
	To           []byte           `gorm:"column:to_account;index;size:20"`
	LocationID   *types.Uint64    `gorm:"index"`
	ID           uint             `gorm:"primarykey"`
	Timestamp    int64            `gorm:"index"`
	Amount       types.Uint64
}

func (Notification) TableName() string {
	return "notification"
}

// NotificationFilter narrows a journal query. Zero values match everything.
type NotificationFilter struct {
	Account    []byte
	Type       NotificationType
	LocationID *uint64
	Limit      int
	Offset     int
	Descending bool
}
