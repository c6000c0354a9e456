package stock

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/robocademy/inventory-backend/pkg/db/models"
	"github.com/robocademy/inventory-backend/pkg/enums"
	"github.com/robocademy/inventory-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	// one connection keeps concurrent sqlite writers serialized
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Part{},
		&models.StockMovement{},
		&models.StockLevel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "stock-test", Output: io.Discard})
}

// gormTransactor runs the callback inside a real transaction.
type gormTransactor struct {
	db *gorm.DB
}

func (g *gormTransactor) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

// noTxTransactor mimics a store that cannot open transactions at all.
type noTxTransactor struct{}

func (n *noTxTransactor) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fmt.Errorf("transactions are not supported by this deployment")
}

// recordingBroadcaster captures every update it receives.
type recordingBroadcaster struct {
	updates []StockUpdate
}

func (b *recordingBroadcaster) StockChanged(ctx context.Context, update StockUpdate) error {
	b.updates = append(b.updates, update)
	return nil
}

// failingBroadcaster always refuses delivery.
type failingBroadcaster struct {
	calls int
}

func (b *failingBroadcaster) StockChanged(ctx context.Context, update StockUpdate) error {
	b.calls++
	return fmt.Errorf("broker unavailable")
}

func newTestService(t *testing.T, conn *gorm.DB, broadcaster Broadcaster) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		&gormTransactor{db: conn},
		broadcaster,
		testLogger(),
		nil,
		10,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustCreateTestUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("staff_%s@robocademy.test", uuid.NewString()),
		FirstName: "Iris",
		LastName:  "Vega",
		IsActive:  true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestPart(t *testing.T, conn *gorm.DB, name string, category enums.PartCategory) *models.Part {
	t.Helper()
	part := &models.Part{
		ID:       uuid.New(),
		Name:     name,
		SKU:      fmt.Sprintf("SKU-%s", uuid.NewString()),
		Category: category,
		IsActive: true,
	}
	if err := conn.Create(part).Error; err != nil {
		t.Fatalf("create part: %v", err)
	}
	return part
}

func mustAdjust(t *testing.T, svc Service, input AdjustInput) *AdjustResult {
	t.Helper()
	result, err := svc.Adjust(context.Background(), input)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	return result
}
