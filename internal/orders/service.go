package orders

import (
	"context"
	"net/url"
	"strconv"

	"github.com/medikart/medikart-client/pkg/types"
)

type doer interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Service exposes the order read endpoints.
type Service struct {
	api doer
}

func NewService(api doer) *Service {
	return &Service{api: api}
}

// Recent fetches the caller's most recent orders, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]types.Order, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payload struct {
		Orders []types.Order `json:"orders"`
	}
	if err := s.api.GetJSON(ctx, "/orders", query, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}
