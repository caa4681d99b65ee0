package database

import (
	"fmt"
	"testing"

	"budgetledger/internal/config"
	"budgetledger/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	testDB := &DB{
		DB: db,
		config: &config.DatabaseConfig{
			MaxConnections: 1,
			MaxIdleConns:   1,
		},
	}

	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return testDB
}

// CreateTestCategory inserts a category owned by the given owner
func CreateTestCategory(t *testing.T, db *DB, ownerID uuid.UUID, transactionType string) *models.Category {
	t.Helper()

	category := &models.Category{
		OwnerID:         ownerID,
		Name:            gofakeit.BuzzWord(),
		TransactionType: transactionType,
	}

	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	return category
}

// CreateTestPreference inserts a budget preference for the given owner
func CreateTestPreference(t *testing.T, db *DB, ownerID uuid.UUID, needs, wants, savings int64) *models.BudgetPreference {
	t.Helper()

	preference := &models.BudgetPreference{
		OwnerID:        ownerID,
		NeedsPercent:   decimal.NewFromInt(needs),
		WantsPercent:   decimal.NewFromInt(wants),
		SavingsPercent: decimal.NewFromInt(savings),
	}

	if err := db.Create(preference).Error; err != nil {
		t.Fatalf("failed to create test budget preference: %v", err)
	}

	return preference
}

func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	tables := []string{
		"transactions",
		"audit_logs",
		"categories",
		"budget_preferences",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("failed to cleanup table %s: %v", table, err)
		}
	}
}
