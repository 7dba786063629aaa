package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

func TestPlaceService_AutocompleteShortQuery(t *testing.T) {
	places := &mockPlaces{}
	svc := usecases.NewPlaceService(places)

	for _, q := range []string{"", "S", "Sa", "  Sa  ", "東京"} {
		got := svc.Autocomplete(context.Background(), q, "tok")
		if got == nil || len(got) != 0 {
			t.Errorf("Autocomplete(%q) = %v, want empty list", q, got)
		}
	}
	if places.autocompletes != 0 {
		t.Errorf("expected no provider calls, got %d", places.autocompletes)
	}
}

func TestPlaceService_Autocomplete(t *testing.T) {
	places := &mockPlaces{
		autocompleteFn: func(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error) {
			return []domain.PlaceSuggestion{{PlaceID: "p1", PrimaryText: "San Diego", Description: "San Diego, CA, USA"}}, nil
		},
	}
	got := usecases.NewPlaceService(places).Autocomplete(context.Background(), "San", "tok")
	if len(got) != 1 || got[0].PlaceID != "p1" {
		t.Errorf("unexpected suggestions %+v", got)
	}
}

func TestPlaceService_AutocompleteFailure(t *testing.T) {
	places := &mockPlaces{
		autocompleteFn: func(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error) {
			return nil, errors.New("REQUEST_DENIED")
		},
	}
	got := usecases.NewPlaceService(places).Autocomplete(context.Background(), "San Diego", "tok")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty list on failure, got %v", got)
	}
}

func TestPlaceService_Details(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaces{})
	if _, err := svc.Details(context.Background(), "", "tok"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for blank id, got %v", err)
	}
	if svc.NewSessionToken() == svc.NewSessionToken() {
		t.Error("expected distinct session tokens")
	}
}
