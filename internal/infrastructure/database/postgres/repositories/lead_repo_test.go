package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

type LeadRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo lead.Repository
}

func (s *LeadRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.NoError(err)

	logger := logging.NewNopLogger()
	conn := postgres.NewConnectionWithDB(s.db, logger)
	s.repo = NewPostgresLeadRepo(conn, logger)
}

func (s *LeadRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func intPtr(v int) *int { return &v }

func sampleLead(runID common.ID) *lead.Lead {
	return &lead.Lead{
		ID:          common.NewID(),
		RunID:       runID,
		AccountID:   "ACME",
		RecordID:    "rec-1",
		ProductID:   "PE-R740",
		ProductName: "PowerEdge R740",
		Type:        leadtypes.TypeHardwareRefresh,
		Tier:        matching.TierExact,
		Services: []lead.RecommendedService{
			{Name: "Server Refresh Assessment", SKU: "SVC-REFRESH-02", Tier: matching.TierExact, Confidence: 92},
		},
		EstimatedValue: inventory.NewValueRange(6000, 24000),
		ValueBasis:     scoring.BasisBenchmark,
		UrgencyBasis:   scoring.UrgencyBasis{DaysPastEOL: 2191, DaysToSupportExpiry: intPtr(-730)},
		Subscores:      scoring.Subscores{Urgency: 100, Value: 45, Propensity: 100, StrategicFit: 85},
		Overall:        81.3,
		Priority:       leadtypes.PriorityCritical,
		CreatedAt:      time.Now().UTC(),
	}
}

func (s *LeadRepoTestSuite) TestReplaceAll_CommitsDeleteThenInsert() {
	runID := common.NewID()
	l := sampleLead(runID)
	insight := &lead.AccountInsight{
		ID: common.NewID(), RunID: runID, AccountID: "ACME",
		Kind: lead.InsightCrossSell, CreatedAt: time.Now().UTC(),
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM account_insights").WillReturnResult(sqlmock.NewResult(0, 3))
	s.mock.ExpectExec("DELETE FROM leads").WillReturnResult(sqlmock.NewResult(0, 5))
	s.mock.ExpectExec("INSERT INTO leads").WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectExec("INSERT INTO account_insights").WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	err := s.repo.ReplaceAll(context.Background(), runID, []*lead.Lead{l}, []*lead.AccountInsight{insight})
	s.NoError(err)
}

func (s *LeadRepoTestSuite) TestReplaceAll_RollsBackOnInsertFailure() {
	runID := common.NewID()
	l := sampleLead(runID)

	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM account_insights").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec("DELETE FROM leads").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec("INSERT INTO leads").WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.repo.ReplaceAll(context.Background(), runID, []*lead.Lead{l}, nil)
	s.Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func leadRows(l *lead.Lead) *sqlmock.Rows {
	services, _ := json.Marshal(l.Services)
	subscores, _ := json.Marshal(l.Subscores)
	var expiryDays interface{}
	if l.UrgencyBasis.DaysToSupportExpiry != nil {
		expiryDays = int64(*l.UrgencyBasis.DaysToSupportExpiry)
	}
	return sqlmock.NewRows([]string{
		"id", "run_id", "account_id", "record_id", "product_id", "product_name",
		"lead_type", "tier", "services", "value_min", "value_max", "value_basis",
		"benchmark_family", "days_past_eol", "days_to_support_expiry",
		"subscores", "overall", "priority", "created_at",
	}).AddRow(
		string(l.ID), string(l.RunID), string(l.AccountID), l.RecordID,
		l.ProductID, l.ProductName, string(l.Type), string(l.Tier), services,
		l.EstimatedValue.Min.String(), l.EstimatedValue.Max.String(), l.ValueBasis,
		l.BenchmarkFamily, l.UrgencyBasis.DaysPastEOL, expiryDays,
		subscores, l.Overall, string(l.Priority), l.CreatedAt,
	)
}

func (s *LeadRepoTestSuite) TestGetByID_Found() {
	l := sampleLead(common.NewID())
	s.mock.ExpectQuery("SELECT .* FROM leads WHERE id = \\$1").
		WithArgs(string(l.ID)).
		WillReturnRows(leadRows(l))

	got, err := s.repo.GetByID(context.Background(), l.ID)
	s.NoError(err)
	s.Equal(l.ID, got.ID)
	s.Equal(l.Priority, got.Priority)
	s.Len(got.Services, 1)
	s.True(got.EstimatedValue.Max.Equal(l.EstimatedValue.Max))
	s.Equal(2191, got.UrgencyBasis.DaysPastEOL)
	s.Require().NotNil(got.UrgencyBasis.DaysToSupportExpiry)
	s.Equal(-730, *got.UrgencyBasis.DaysToSupportExpiry)
}

func (s *LeadRepoTestSuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery("SELECT .* FROM leads WHERE id = \\$1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.GetByID(context.Background(), common.NewID())
	s.Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeLeadNotFound))
}

func (s *LeadRepoTestSuite) TestList_WithFilter() {
	l := sampleLead(common.NewID())

	s.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads WHERE account_id = \\$1 AND priority = \\$2").
		WithArgs("ACME", "CRITICAL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectQuery("SELECT .* FROM leads WHERE account_id = \\$1 AND priority = \\$2 ORDER BY overall DESC").
		WithArgs("ACME", "CRITICAL", 50, 0).
		WillReturnRows(leadRows(l))

	leads, total, err := s.repo.List(context.Background(),
		lead.ListFilter{AccountID: "ACME", Priority: leadtypes.PriorityCritical},
		common.Pagination{Page: 1, PageSize: 50})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(leads, 1)
}

func (s *LeadRepoTestSuite) TestListByAccount() {
	l := sampleLead(common.NewID())
	s.mock.ExpectQuery("SELECT .* FROM leads WHERE account_id = \\$1").
		WithArgs("ACME").
		WillReturnRows(leadRows(l))

	leads, err := s.repo.ListByAccount(context.Background(), "ACME")
	s.NoError(err)
	s.Len(leads, 1)
}

func TestLeadRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LeadRepoTestSuite))
}
