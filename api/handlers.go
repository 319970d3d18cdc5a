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
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
	"github.com/blinklabs-io/forge/governance"
	"github.com/blinklabs-io/forge/internal/version"
	"github.com/google/uuid"
)

const maxRequestBodySize = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func parseIdentity(input string) (account.Identity, error) {
	return account.Parse(input)
}

func parseLocationId(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid location id", errBadRequest)
	}
	return id, nil
}

// invoke resolves the request witnesses and runs fn under a fresh
// invocation id, which is returned in the response headers
func (s *Server) invoke(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, auth.Authorizer) (*engine.Receipt, error),
) (*engine.Receipt, bool) {
	witness, err := s.resolveWitness(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return nil, false
	}
	invocationId := uuid.NewString()
	w.Header().Set(InvocationIdHeader, invocationId)
	ctx := engine.WithInvocationID(r.Context(), invocationId)
	receipt, err := fn(ctx, witness)
	if err != nil {
		s.writeContractError(w, r, err)
		return nil, false
	}
	return receipt, true
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:     "forge",
		Version:  version.GetVersionString(),
		Symbol:   s.ledger.Symbol(),
		Decimals: s.ledger.Decimals(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, admin, err := s.ledger.Roles(ctx)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	status, err := s.ledger.Status(ctx)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	supply, err := s.ledger.TotalSupply(ctx)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	resp := ContractResponse{
		Symbol:      s.ledger.Symbol(),
		Decimals:    s.ledger.Decimals(),
		TotalSupply: formatUint(supply),
		Deployed:    status.Deployed,
		Destroyed:   status.Destroyed,
		Version:     status.Version,
	}
	if !owner.IsZero() {
		resp.Owner = owner.String()
	}
	if !admin.IsZero() {
		resp.Administrator = admin.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := s.ledger.TotalSupply(r.Context())
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SupplyResponse{TotalSupply: formatUint(supply)})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdentity(r.PathValue("account"))
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	balance, err := s.ledger.BalanceOf(r.Context(), id)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Account: id.String(),
		Balance: formatUint(balance),
	})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	s.handleAmount(w, r, s.ledger.Mint)
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	s.handleAmount(w, r, s.ledger.Burn)
}

func (s *Server) handleAmount(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, auth.Authorizer, account.Identity, uint64) (*engine.Receipt, error),
) {
	var req AmountRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	id, err := parseIdentity(req.Account)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return op(ctx, witness, id, req.Amount)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	from, err := parseIdentity(req.From)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	to, err := parseIdentity(req.To)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return s.ledger.Transfer(ctx, witness, from, to, req.Amount)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleSetOwner(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, s.ledger.SetOwner)
}

func (s *Server) handleSetAdministrator(w http.ResponseWriter, r *http.Request) {
	s.handleRoleChange(w, r, s.registry.SetAdministrator)
}

func (s *Server) handleRoleChange(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, auth.Authorizer, account.Identity) (*engine.Receipt, error),
) {
	var req AccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	id, err := parseIdentity(req.Account)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return op(ctx, witness, id)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	code, err := hex.DecodeString(req.Code)
	if err != nil {
		s.writeContractError(w, r, fmt.Errorf("%w: code must be hex", errBadRequest))
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return s.ledger.Update(ctx, witness, code, req.Manifest)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	receipt, ok := s.invoke(w, r, s.ledger.Destroy)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	ctx := r.Context()
	count, err := s.registry.LocationCount(ctx)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	// Locations are never deleted, so the count doubles as the id range
	offset := params.Offset()
	limit := params.Count
	if params.Descending() {
		// Walk the id range from the top
		end := int(count) - offset
		offset = max(end-limit, 0)
		limit = max(end-offset, 0)
	}
	locations := []models.Location{}
	if limit > 0 {
		locations, err = s.registry.Locations(ctx, offset, limit)
		if err != nil {
			s.writeContractError(w, r, err)
			return
		}
	}
	resp := make([]LocationResponse, 0, len(locations))
	for i := range locations {
		resp = append(resp, NewLocationResponse(&locations[i]))
	}
	if params.Descending() {
		for i, j := 0, len(resp)-1; i < j; i, j = i+1, j-1 {
			resp[i], resp[j] = resp[j], resp[i]
		}
	}
	SetPaginationHeaders(w, int(count), params)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocationCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.registry.LocationCount(r.Context())
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseLocationId(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	location, err := s.registry.DetailOf(r.Context(), id)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewLocationResponse(location))
}

func (s *Server) handleLocationOwner(w http.ResponseWriter, r *http.Request) {
	id, err := parseLocationId(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	owner, err := s.registry.OwnerOf(r.Context(), id)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OwnerResponse{Owner: owner.String()})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	sender, err := parseIdentity(req.Sender)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	var locationId uint64
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		receipt, id, err := s.registry.Post(ctx, witness, governance.PostRequest{
			Sender:      sender,
			Map:         req.Map,
			Name:        req.Name,
			Description: req.Description,
			X:           req.X,
			Y:           req.Y,
			Tags:        req.Tags,
			Image:       req.Image,
		})
		locationId = id
		return receipt, err
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, PostResponse{
		ReceiptResponse: NewReceiptResponse(receipt),
		LocationID:      locationId,
	})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	locationId, err := parseLocationId(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	var req VoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeContractError(w, r, err)
		return
	}
	voter, err := parseIdentity(req.Voter)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return s.registry.Vote(ctx, witness, locationId, voter)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleVoter(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdentity(r.PathValue("account"))
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	voter, err := s.registry.Voter(r.Context(), id)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VoterResponse{
		Account:      id.String(),
		Weight:       voter.Weight,
		Votes:        voter.Votes,
		Enfranchised: voter.Enfranchised,
	})
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdentity(r.PathValue("account"))
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	receipt, ok := s.invoke(w, r, func(ctx context.Context, witness auth.Authorizer) (*engine.Receipt, error) {
		return s.registry.Enroll(ctx, witness, id)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(receipt))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := models.NotificationFilter{
		Type:       models.NotificationType(query.Get("type")),
		Limit:      params.Count,
		Offset:     params.Offset(),
		Descending: params.Descending(),
	}
	if accountParam := query.Get("account"); accountParam != "" {
		id, err := parseIdentity(accountParam)
		if err != nil {
			s.writeContractError(w, r, err)
			return
		}
		filter.Account = id.Bytes()
	}
	if locationParam := query.Get("location"); locationParam != "" {
		locationId, err := strconv.ParseUint(locationParam, 10, 64)
		if err != nil {
			s.writeContractError(w, r, fmt.Errorf("%w: invalid location id", errBadRequest))
			return
		}
		filter.LocationID = &locationId
	}
	notifications, err := s.journal.GetNotifications(filter)
	if err != nil {
		s.writeContractError(w, r, err)
		return
	}
	resp := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, NewNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}
