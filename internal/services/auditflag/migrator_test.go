package auditflag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	auditflagmocks "github.com/BearBump/QuoteBox/internal/services/auditflag/mocks"
)

var (
	cutover = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	runAt   = time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
)

type MigratorSuite struct {
	suite.Suite

	repo *auditflagmocks.MockRepository
	m    *metrics.Metrics
}

func (s *MigratorSuite) SetupTest() {
	s.repo = &auditflagmocks.MockRepository{}
	s.m = metrics.New("test")
}

func (s *MigratorSuite) newMigrator(batch int) *Migrator {
	return New(s.repo, Config{Cutover: cutover, BatchSize: batch}).
		WithMetrics(s.m).
		WithClock(func() time.Time { return runAt })
}

func (s *MigratorSuite) TestRun_StopsOnShortBatch() {
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, runAt, 100).Return(100, nil).Twice()
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, runAt, 100).Return(37, nil).Once()

	res, err := s.newMigrator(100).Run(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(Result{Batches: 3, Rows: 237}, res)
	s.Require().Equal(237.0, testutil.ToFloat64(s.m.AuditRowsFlagged))
	s.repo.AssertExpectations(s.T())
}

func (s *MigratorSuite) TestRun_NothingToFlag() {
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, runAt, 50).Return(0, nil).Once()

	res, err := s.newMigrator(50).Run(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(Result{Batches: 1}, res)
}

func (s *MigratorSuite) TestRun_RepoError() {
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, runAt, 10).Return(10, nil).Once()
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, runAt, 10).Return(0, errors.New("deadlock")).Once()

	res, err := s.newMigrator(10).Run(context.Background())
	s.Require().Error(err)
	s.Require().Contains(err.Error(), "flag batch 2")
	s.Require().Equal(10, res.Rows)
}

func (s *MigratorSuite) TestRun_RequiresCutover() {
	_, err := New(s.repo, Config{}).Run(context.Background())
	s.Require().Error(err)
	s.repo.AssertNotCalled(s.T(), "FlagAuditBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *MigratorSuite) TestRun_CancelledWhilePaced() {
	s.repo.On("FlagAuditBatch", mock.Anything, cutover, mock.Anything, 1).Return(1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	mg := New(s.repo, Config{Cutover: cutover, BatchSize: 1, BatchesPerSecond: 0.5})
	res, err := mg.Run(ctx)
	s.Require().Error(err)
	s.Require().Equal(1, res.Batches)
}

func (s *MigratorSuite) TestSummaryAndFlagged() {
	s.repo.On("CountAuditFlags", mock.Anything).
		Return(models.AuditFlagCounts{OldFreeDistance: 4, CurrentRules: 9}, nil).Once()
	s.repo.On("ListFlagged", mock.Anything, true, 100, 0).
		Return([]*models.AuditLogEntry{{ID: "a", ComputedUnderOldFreeDistance: true}}, nil).Once()

	mg := s.newMigrator(10)
	c, err := mg.Summary(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(int64(4), c.OldFreeDistance)

	rows, err := mg.Flagged(context.Background(), true, 0, -3)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.repo.AssertExpectations(s.T())
}

func TestMigratorSuite(t *testing.T) {
	suite.Run(t, new(MigratorSuite))
}
