package stock

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/robocademy/inventory-backend/pkg/db/models"
	"github.com/robocademy/inventory-backend/pkg/enums"
	appErrors "github.com/robocademy/inventory-backend/pkg/errors"
)

func TestAdjustRecomputesLevelFromLedger(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "NXT Brick", enums.PartCategoryController)

	steps := []struct {
		qty       int
		reason    enums.StockReason
		available int
		used      int
		damaged   int
	}{
		{20, enums.StockReasonPurchase, 20, 0, 0},
		{-3, enums.StockReasonUsed, 17, -3, 0},
		{-2, enums.StockReasonDamaged, 15, -3, -2},
	}

	for _, step := range steps {
		result := mustAdjust(t, svc, AdjustInput{
			PartID:    part.ID,
			QtyChange: step.qty,
			Reason:    step.reason,
			CreatedBy: user.ID,
		})
		level := result.Level
		if level.AvailableQty != step.available || level.UsedQty != step.used || level.DamagedQty != step.damaged {
			t.Fatalf("after %+d %s: got {%d,%d,%d}, want {%d,%d,%d}",
				step.qty, step.reason,
				level.AvailableQty, level.UsedQty, level.DamagedQty,
				step.available, step.used, step.damaged)
		}
	}

	movements, err := svc.MovementsForPart(context.Background(), part.ID)
	if err != nil {
		t.Fatalf("movements for part: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}
	for i, step := range steps {
		if movements[i].QtyChange != step.qty || movements[i].Reason != step.reason {
			t.Fatalf("movement %d out of order: %+v", i, movements[i])
		}
	}
}

func TestAdjustValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Servo Motor", enums.PartCategoryMotor)

	cases := []struct {
		name  string
		input AdjustInput
	}{
		{"missing part", AdjustInput{QtyChange: 1, Reason: enums.StockReasonPurchase, CreatedBy: user.ID}},
		{"unknown reason", AdjustInput{PartID: part.ID, QtyChange: 1, Reason: enums.StockReason("restock"), CreatedBy: user.ID}},
		{"missing actor", AdjustInput{PartID: part.ID, QtyChange: 1, Reason: enums.StockReasonPurchase}},
	}

	for _, tc := range cases {
		_, err := svc.Adjust(context.Background(), tc.input)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		typed := appErrors.As(err)
		if typed == nil || typed.Code() != appErrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	var count int64
	if err := conn.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected adjustments must not write movements, found %d", count)
	}
}

func TestAdjustZeroQtyIsRecorded(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Cable Tie", enums.PartCategoryOther)

	mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 5,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})

	// a zero delta is meaningless but legal: it lands in the ledger and
	// leaves the level unchanged
	result := mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 0,
		Reason:    enums.StockReasonAdjustment,
		CreatedBy: user.ID,
	})
	if result.Level.AvailableQty != 5 {
		t.Fatalf("zero adjustment must not move the level, got %d", result.Level.AvailableQty)
	}

	movements, err := svc.MovementsForPart(context.Background(), part.ID)
	if err != nil {
		t.Fatalf("movements for part: %v", err)
	}
	if len(movements) != 2 || movements[1].QtyChange != 0 {
		t.Fatalf("expected the zero movement in the ledger, got %+v", movements)
	}
}

func TestAdjustUnknownPart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		PartID:    uuid.New(),
		QtyChange: 5,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	typed := appErrors.As(err)
	if typed == nil || typed.Code() != appErrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestAdjustAllowsNegativeAvailable(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Ultrasonic Sensor", enums.PartCategorySensor)

	result := mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: -4,
		Reason:    enums.StockReasonUsed,
		CreatedBy: user.ID,
	})
	if result.Level.AvailableQty != -4 {
		t.Fatalf("expected available -4, got %d", result.Level.AvailableQty)
	}
}

func TestAdjustOverwritesDriftedLevel(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Beam 5x1", enums.PartCategoryStructure)

	mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 10,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})

	// simulate a drifted cache row
	if err := conn.Model(&models.StockLevel{}).
		Where("part_id = ?", part.ID).
		Update("available_qty", 999).Error; err != nil {
		t.Fatalf("corrupt level: %v", err)
	}

	result := mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 5,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	if result.Level.AvailableQty != 15 {
		t.Fatalf("level must come from the ledger, got %d", result.Level.AvailableQty)
	}
}

func TestAdjustFallbackWithoutTransactions(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "LiPo Battery", enums.PartCategoryBattery)

	svc, err := NewService(
		NewRepository(conn),
		&noTxTransactor{},
		nil,
		testLogger(),
		nil,
		10,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result := mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 12,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	if result.Level.AvailableQty != 12 {
		t.Fatalf("fallback path level mismatch: %d", result.Level.AvailableQty)
	}

	var count int64
	if err := conn.Model(&models.StockMovement{}).Where("part_id = ?", part.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 movement, got %d", count)
	}
}

// brokenAggregateRepo fails level refresh after the movement has landed so the
// compensating delete runs.
type brokenAggregateRepo struct {
	Repository
}

func (r *brokenAggregateRepo) Aggregate(ctx context.Context, partID uuid.UUID) (LedgerTotals, error) {
	return LedgerTotals{}, context.DeadlineExceeded
}

func TestAdjustFallbackCompensatesFailedRefresh(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Wheel 62mm", enums.PartCategoryStructure)

	svc, err := NewService(
		&brokenAggregateRepo{Repository: NewRepository(conn)},
		&noTxTransactor{},
		nil,
		testLogger(),
		nil,
		10,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Adjust(context.Background(), AdjustInput{
		PartID:    part.ID,
		QtyChange: 7,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	if err == nil {
		t.Fatalf("expected adjust to fail")
	}
	typed := appErrors.As(err)
	if typed == nil || typed.Code() != appErrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !strings.Contains(typed.Unwrap().Error(), "aggregating ledger") {
		t.Fatalf("unexpected cause: %v", typed.Unwrap())
	}

	var count int64
	if err := conn.Model(&models.StockMovement{}).Where("part_id = ?", part.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed fallback must delete its movement, found %d", count)
	}
}

func TestAdjustBroadcastsAfterCommit(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(t, conn, broadcaster)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Color Sensor", enums.PartCategorySensor)

	mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 6,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: -2,
		Reason:    enums.StockReasonUsed,
		CreatedBy: user.ID,
	})

	if len(broadcaster.updates) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(broadcaster.updates))
	}
	// the action carries the movement's reason code
	if first := broadcaster.updates[0]; first.Action != "purchase" {
		t.Fatalf("expected action purchase, got %q", first.Action)
	}
	last := broadcaster.updates[1]
	if last.PartID != part.ID || last.AvailableQty != 4 || last.Action != "used" {
		t.Fatalf("unexpected broadcast payload: %+v", last)
	}
}

func TestAdjustSucceedsWhenBroadcastFails(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	broadcaster := &failingBroadcaster{}
	svc := newTestService(t, conn, broadcaster)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "Gyro Sensor", enums.PartCategorySensor)

	result := mustAdjust(t, svc, AdjustInput{
		PartID:    part.ID,
		QtyChange: 3,
		Reason:    enums.StockReasonPurchase,
		CreatedBy: user.ID,
	})
	if result.Level.AvailableQty != 3 {
		t.Fatalf("adjustment must commit despite broadcast failure, got %d", result.Level.AvailableQty)
	}
	if broadcaster.calls != 1 {
		t.Fatalf("expected 1 broadcast attempt, got %d", broadcaster.calls)
	}
}

func TestConcurrentAdjustmentsLoseNothing(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, nil)
	user := mustCreateTestUser(t, conn)
	part := mustCreateTestPart(t, conn, "M3 Screw", enums.PartCategoryStructure)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(context.Background(), AdjustInput{
				PartID:    part.ID,
				QtyChange: 1,
				Reason:    enums.StockReasonPurchase,
				CreatedBy: user.ID,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent adjust: %v", err)
		}
	}

	var count int64
	if err := conn.Model(&models.StockMovement{}).Where("part_id = ?", part.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != workers {
		t.Fatalf("expected %d movements, got %d", workers, count)
	}

	var level models.StockLevel
	if err := conn.First(&level, "part_id = ?", part.ID).Error; err != nil {
		t.Fatalf("load level: %v", err)
	}
	if level.AvailableQty != workers {
		t.Fatalf("expected available %d, got %d", workers, level.AvailableQty)
	}
}
