package mocks

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListZones(ctx context.Context) ([]*models.DeliveryZone, error) {
	args := m.Called(ctx)
	zones, _ := args.Get(0).([]*models.DeliveryZone)
	return zones, args.Error(1)
}

func (m *MockRepository) SetZoneSuspended(ctx context.Context, code string, suspended bool, at time.Time) (*models.DeliveryZone, error) {
	args := m.Called(ctx, code, suspended, at)
	z, _ := args.Get(0).(*models.DeliveryZone)
	return z, args.Error(1)
}

func (m *MockRepository) UpsertZones(ctx context.Context, zones []models.DeliveryZone, at time.Time) ([]*models.DeliveryZone, error) {
	args := m.Called(ctx, zones, at)
	out, _ := args.Get(0).([]*models.DeliveryZone)
	return out, args.Error(1)
}

func (m *MockRepository) ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]models.CrossZoneFee)
	return out, args.Error(1)
}

func (m *MockRepository) UpsertCrossZoneFee(ctx context.Context, f models.CrossZoneFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v any) error {
	args := m.Called(ctx, topic, key, v)
	return args.Error(0)
}
