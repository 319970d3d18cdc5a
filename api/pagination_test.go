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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaultValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaginationCount, params.Count)
	assert.Equal(t, DefaultPaginationPage, params.Page)
	assert.Equal(t, DefaultPaginationOrderAsc, params.Order)
	assert.Equal(t, 0, params.Offset())
}

func TestParsePaginationValid(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/test?count=25&page=3&order=DESC",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 25, params.Count)
	assert.Equal(t, 3, params.Page)
	assert.True(t, params.Descending())
	assert.Equal(t, 50, params.Offset())
}

func TestParsePaginationClampBounds(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/test?count=999&page=0",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, MaxPaginationCount, params.Count)
	assert.Equal(t, 1, params.Page)
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, query := range []string{"count=x", "page=y", "order=sideways"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/test?"+query, nil)
		_, err := ParsePagination(req)
		require.ErrorIs(t, err, ErrInvalidPaginationParameters, query)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetPaginationHeaders(rec, 101, PaginationParams{Count: 50})
	assert.Equal(t, "101", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Page-Total"))
}
