//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
)

func TestOrderRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewOrderRepo(testPool)
	refundRepo := NewRefundRequestRepo(testPool)

	t.Run("should find a seeded order", func(t *testing.T) {
		cleanup(t)
		o := seedOrder(t, 50000)

		found, err := repo.FindByID(ctx, nil, o.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Amount != 50000 || found.Status != model.OrderStatusPaid || found.Currency != "CLP" {
			t.Fatalf("found = %+v, does not match seeded order", found)
		}
	})

	t.Run("unknown order maps to ErrNotFound", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("should update the status", func(t *testing.T) {
		cleanup(t)
		o := seedOrder(t, 50000)

		if err := repo.UpdateStatus(ctx, nil, o.ID, model.OrderStatusRefunded); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
		found, _ := repo.FindByID(ctx, nil, o.ID)
		if found.Status != model.OrderStatusRefunded {
			t.Errorf("status = %s, want refunded", found.Status)
		}
		if !found.UpdatedAt.After(found.CreatedAt) {
			t.Error("updated_at must advance on status change")
		}
	})

	t.Run("lists only orders lagging behind their completed refunds", func(t *testing.T) {
		cleanup(t)
		lagging := seedOrder(t, 50000)
		current := seedOrder(t, 50000)
		untouched := seedOrder(t, 50000)

		for _, o := range []*model.Order{lagging, current} {
			r := newPendingRefund(t, o.ID, o.OrganizationID, o.Amount)
			if err := refundRepo.Save(ctx, nil, r); err != nil {
				t.Fatalf("save refund: %v", err)
			}
			if _, err := refundRepo.MarkCompleted(ctx, nil, r.ID, model.RailWallet, "wtx-"+r.ID, time.Now()); err != nil {
				t.Fatalf("mark completed: %v", err)
			}
		}
		if err := repo.UpdateStatus(ctx, nil, current.ID, model.OrderStatusRefunded); err != nil {
			t.Fatalf("update status: %v", err)
		}

		ids, err := repo.ListWithCompletedRefunds(ctx, nil, 100)
		if err != nil {
			t.Fatalf("ListWithCompletedRefunds failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != lagging.ID {
			t.Fatalf("ids = %v, want only the lagging order %s", ids, lagging.ID)
		}
		_ = untouched
	})
}
