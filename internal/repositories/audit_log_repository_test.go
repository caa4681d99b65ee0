package repositories

import (
	"testing"

	"budgetledger/internal/database"
	"budgetledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AuditLogRepositorySuite struct {
	suite.Suite
	db      *database.DB
	repo    AuditLogRepositoryInterface
	ownerID uuid.UUID
}

func TestAuditLogRepositorySuite(t *testing.T) {
	suite.Run(t, new(AuditLogRepositorySuite))
}

func (s *AuditLogRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewAuditLogRepository(s.db.DB)
	s.ownerID = uuid.New()
}

func (s *AuditLogRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *AuditLogRepositorySuite) TestCreate() {
	entry := &models.AuditLog{
		OwnerID:    &s.ownerID,
		Action:     models.AuditActionIncomeCreated,
		Resource:   "transaction",
		ResourceID: uuid.New().String(),
	}
	entry.SetMetadata("amount", "1000.00")

	s.Require().NoError(s.repo.Create(entry))
	s.NotEqual(uuid.Nil, entry.ID)
	s.False(entry.CreatedAt.IsZero())
}

func (s *AuditLogRepositorySuite) TestCreate_NilEntry() {
	s.Error(s.repo.Create(nil))
}

func (s *AuditLogRepositorySuite) TestGetByOwnerID() {
	actions := []string{
		models.AuditActionIncomeCreated,
		models.AuditActionIncomeUpdated,
		models.AuditActionDistributionRepaired,
	}
	for _, action := range actions {
		s.Require().NoError(s.repo.Create(&models.AuditLog{
			OwnerID:  &s.ownerID,
			Action:   action,
			Resource: "transaction",
		}))
	}

	otherOwner := uuid.New()
	s.Require().NoError(s.repo.Create(&models.AuditLog{
		OwnerID:  &otherOwner,
		Action:   models.AuditActionBudgetUpdated,
		Resource: "budget_preference",
	}))

	logs, total, err := s.repo.GetByOwnerID(s.ownerID, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(logs, 3)
	for _, log := range logs {
		s.Equal(s.ownerID, *log.OwnerID)
	}
}

func (s *AuditLogRepositorySuite) TestGetByOwnerID_Pagination() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.repo.Create(&models.AuditLog{
			OwnerID:  &s.ownerID,
			Action:   models.AuditActionExpenseCreated,
			Resource: "transaction",
		}))
	}

	logs, total, err := s.repo.GetByOwnerID(s.ownerID, 2, 2)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(logs, 2)
}

func (s *AuditLogRepositorySuite) TestMetadataRoundTrip() {
	entry := &models.AuditLog{
		OwnerID:  &s.ownerID,
		Action:   models.AuditActionDistributionRepaired,
		Resource: "transaction",
	}
	entry.SetMetadata("missing_slots", float64(1))
	entry.SetMetadata("income_id", uuid.New().String())

	s.Require().NoError(s.repo.Create(entry))

	logs, _, err := s.repo.GetByOwnerID(s.ownerID, 0, 1)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(float64(1), logs[0].Metadata["missing_slots"])
	s.NotEmpty(logs[0].Metadata["income_id"])
}
