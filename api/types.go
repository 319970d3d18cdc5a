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

package api

import (
	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type RootResponse struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type ContractResponse struct {
	Owner         string `json:"owner"`
	Administrator string `json:"administrator"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	TotalSupply   string `json:"total_supply"`
	Deployed      bool   `json:"deployed"`
	Destroyed     bool   `json:"destroyed"`
	Version       uint64 `json:"version"`
}

type SupplyResponse struct {
	TotalSupply string `json:"total_supply"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type OwnerResponse struct {
	Owner string `json:"owner"`
}

type LocationResponse struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	Map         int64  `json:"map"`
	Name        string `json:"name"`
	Description string `json:"description"`
	X           string `json:"x"`
	Y           string `json:"y"`
	Tags        string `json:"tags"`
	Image       string `json:"image"`
	VoteCount   uint64 `json:"vote_count"`
}

type VoterResponse struct {
	Account      string `json:"account"`
	Weight       uint64 `json:"weight"`
	Votes        uint64 `json:"votes"`
	Enfranchised bool   `json:"enfranchised"`
}

type NotificationResponse struct {
	ID           uint    `json:"id"`
	InvocationID string  `json:"invocation_id"`
	Type         string  `json:"type"`
	From         string  `json:"from,omitempty"`
	To           string  `json:"to,omitempty"`
	Amount       string  `json:"amount"`
	LocationID   *uint64 `json:"location_id,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

type ReceiptResponse struct {
	InvocationID  string                 `json:"invocation_id"`
	Operation     string                 `json:"operation"`
	Notifications []NotificationResponse `json:"notifications"`
}

type PostResponse struct {
	ReceiptResponse
	LocationID uint64 `json:"location_id"`
}

// Amounts are decimal strings so that values beyond 2^53 survive JSON
// clients that decode numbers as floats

type AmountRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount,string"`
}

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount,string"`
}

type AccountRequest struct {
	Account string `json:"account"`
}

type UpdateRequest struct {
	// Code is hex encoded
	Code     string `json:"code"`
	Manifest string `json:"manifest"`
}

type VoteRequest struct {
	Voter string `json:"voter"`
}

type PostRequest struct {
	Sender      string `json:"sender"`
	Map         int64  `json:"map"`
	Name        string `json:"name"`
	Description string `json:"description"`
	X           string `json:"x"`
	Y           string `json:"y"`
	Tags        string `json:"tags"`
	Image       string `json:"image"`
}

func identityString(id []byte) string {
	if len(id) == 0 {
		return ""
	}
	tmpId, err := account.FromBytes(id)
	if err != nil {
		return ""
	}
	return tmpId.String()
}

func NewNotificationResponse(n models.Notification) NotificationResponse {
	ret := NotificationResponse{
		ID:           n.ID,
		InvocationID: n.InvocationID,
		Type:         string(n.Type),
		From:         identityString(n.From),
		To:           identityString(n.To),
		Amount:       formatUint(uint64(n.Amount)),
		Timestamp:    n.Timestamp,
	}
	if n.LocationID != nil {
		tmpId := uint64(*n.LocationID)
		ret.LocationID = &tmpId
	}
	return ret
}

func NewReceiptResponse(receipt *engine.Receipt) ReceiptResponse {
	ret := ReceiptResponse{
		InvocationID:  receipt.InvocationID,
		Operation:     receipt.Operation,
		Notifications: make([]NotificationResponse, 0, len(receipt.Notifications)),
	}
	for _, n := range receipt.Notifications {
		ret.Notifications = append(ret.Notifications, NewNotificationResponse(n))
	}
	return ret
}

func NewLocationResponse(l *models.Location) LocationResponse {
	return LocationResponse{
		ID:          l.ID,
		Owner:       l.Owner.String(),
		Map:         l.Map,
		Name:        l.Name,
		Description: l.Description,
		X:           l.X,
		Y:           l.Y,
		Tags:        l.Tags,
		Image:       l.Image,
		VoteCount:   l.VoteCount,
	}
}
