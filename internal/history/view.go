package history

import "github.com/medikart/medikart-client/pkg/types"

// State names the reduced outcome of the pipeline.
type State string

const (
	StateLoading           State = "loading"
	StateError             State = "error"
	StateHasHistory        State = "has_history"
	StateEmptyWithFallback State = "empty_with_fallback"
)

// View is the render-ready reduction of the three history queries.
type View struct {
	State State

	// Message carries the underlying fetch failure when State is error.
	Message string

	// Medicines is the purchase history when State is has_history.
	Medicines []types.Medicine

	// The fallback sections, populated only for empty_with_fallback.
	// MostRecentOrder is nil when the user has no orders; RecentItems
	// holds the leading items of that order in original sequence;
	// Recommendations is a shuffled selection from the candidate pool.
	MostRecentOrder *types.Order
	RecentItems     []types.OrderItem
	Recommendations []types.Medicine
}
