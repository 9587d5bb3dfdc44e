package mocks

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockZoneStore struct {
	mock.Mock
}

func (m *MockZoneStore) ListZones(ctx context.Context) ([]*models.DeliveryZone, error) {
	args := m.Called(ctx)
	zones, _ := args.Get(0).([]*models.DeliveryZone)
	return zones, args.Error(1)
}

func (m *MockZoneStore) ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error) {
	args := m.Called(ctx)
	fees, _ := args.Get(0).([]models.CrossZoneFee)
	return fees, args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) InsertAudit(ctx context.Context, e *models.AuditLogEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockRiderSource struct {
	mock.Mock
}

func (m *MockRiderSource) Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error) {
	args := m.Called(ctx, zoneCode)
	rs, _ := args.Get(0).(models.RiderSnapshot)
	return rs, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v any) error {
	args := m.Called(ctx, topic, key, v)
	return args.Error(0)
}
