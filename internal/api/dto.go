package api

import (
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recentservice"
)

// RecentsResponse wraps the full snapshot.
type RecentsResponse struct {
	Items       []models.RecentItem `json:"items" validate:"required"`
	Count       int                 `json:"count" example:"42" validate:"required"`
	Fingerprint string              `json:"fingerprint" example:"9f2c1a7e04b3d816" validate:"required"`
}

// SearchRequest is the request body for starting a search.
type SearchRequest struct {
	Query string `json:"query" example:"*.docx"`
}

// SearchResponse carries the token that pages the new search.
type SearchResponse struct {
	Token query.Token `json:"token" example:"0b6e1a52-3c0f-4f7e-9d55-2f4a1c9b8e10" validate:"required"`
	Query string      `json:"query" example:"*.docx"`
}

// PageResponse is one page of search results (aliased from the domain layer).
type PageResponse = recentservice.Page

// StatusResponse describes the cache and current query (aliased from the domain layer).
type StatusResponse = recentservice.Status

type statusBody struct {
	Status string `json:"status" example:"ok" validate:"required"`
}
