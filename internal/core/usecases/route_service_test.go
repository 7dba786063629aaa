package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

func TestRouteService_Plan(t *testing.T) {
	la := domain.GeoPoint{Lat: 34.05, Lon: -118.24}
	sd := domain.GeoPoint{Lat: 32.71, Lon: -117.16}
	route := &domain.Route{
		Start: domain.Endpoint{Name: "LA", Location: &la},
		End:   domain.Endpoint{Name: "SD", Location: &sd},
	}

	t.Run("incomplete route", func(t *testing.T) {
		svc := usecases.NewRouteService(&mockDirections{})
		_, err := svc.Plan(context.Background(), &domain.Route{Start: route.Start})
		if !errors.Is(err, domain.ErrRouteIncomplete) {
			t.Fatalf("expected ErrRouteIncomplete, got %v", err)
		}
	})

	t.Run("no provider", func(t *testing.T) {
		svc := usecases.NewRouteService(nil)
		path, err := svc.Plan(context.Background(), route)
		if err != nil || path != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", path, err)
		}
	})

	t.Run("provider path", func(t *testing.T) {
		mid := domain.GeoPoint{Lat: 33.6, Lon: -117.8}
		svc := usecases.NewRouteService(&mockDirections{
			drivingFn: func(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error) {
				if from != la || to != sd {
					t.Errorf("unexpected endpoints %v -> %v", from, to)
				}
				return []domain.GeoPoint{la, mid, sd}, nil
			},
		})
		path, err := svc.Plan(context.Background(), route)
		if err != nil {
			t.Fatal(err)
		}
		if len(path) != 3 || path[1] != mid {
			t.Errorf("unexpected path %v", path)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		svc := usecases.NewRouteService(&mockDirections{
			drivingFn: func(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error) {
				return nil, errors.New("ZERO_RESULTS")
			},
		})
		if _, err := svc.Plan(context.Background(), route); err == nil {
			t.Fatal("expected error")
		}
	})
}
