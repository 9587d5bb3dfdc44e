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

func (m *MockRepository) FlagAuditBatch(ctx context.Context, cutover, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, cutover, now, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountAuditFlags(ctx context.Context) (models.AuditFlagCounts, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(models.AuditFlagCounts)
	return c, args.Error(1)
}

func (m *MockRepository) ListFlagged(ctx context.Context, oldRule bool, limit, offset int) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx, oldRule, limit, offset)
	out, _ := args.Get(0).([]*models.AuditLogEntry)
	return out, args.Error(1)
}
