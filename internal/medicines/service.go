package medicines

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/medikart/medikart-client/pkg/errors"
	"github.com/medikart/medikart-client/pkg/types"
)

type doer interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Service exposes the medicine read endpoints.
type Service struct {
	api doer
}

func NewService(api doer) *Service {
	return &Service{api: api}
}

// GetByID fetches the full medicine record, including the dispensing
// pharmacy when the server attaches one.
func (s *Service) GetByID(ctx context.Context, id string) (*types.Medicine, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medicine id is required")
	}
	var medicine types.Medicine
	if err := s.api.GetJSON(ctx, "/medicines/"+url.PathEscape(id), nil, &medicine); err != nil {
		return nil, err
	}
	return &medicine, nil
}

// MyMedicines fetches the caller's purchased-medicine history. The server
// returns a bare array.
func (s *Service) MyMedicines(ctx context.Context) ([]types.Medicine, error) {
	var medicines []types.Medicine
	if err := s.api.GetJSON(ctx, "/medicines/my-medicines", nil, &medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}

// Search fetches up to limit candidate medicines from the catalog.
func (s *Service) Search(ctx context.Context, limit int) ([]types.Medicine, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payload struct {
		Medicines []types.Medicine `json:"medicines"`
	}
	if err := s.api.GetJSON(ctx, "/medicines/search", query, &payload); err != nil {
		return nil, err
	}
	return payload.Medicines, nil
}
