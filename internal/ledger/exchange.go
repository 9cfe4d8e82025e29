package ledger

import (
	"context"
	"fmt"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"go.uber.org/zap"
)

func exchangeKey(id uint) string {
	return fmt.Sprintf("exchange:%d", id)
}

// ProcessExchange returns a pending exchange item to stock: credit the original
// location, append the synthetic inbound and flip processed, all in one store
// transaction. A missing or already processed item is an error and changes nothing.
func (e *Engine) ProcessExchange(ctx context.Context, id uint, userID *uint) (*models.Transaction, error) {
	unlockItem, err := e.locker.Lock(ctx, exchangeKey(id))
	if err != nil {
		return nil, apperror.Unavailable("system busy, please try again later").Wrap(err)
	}
	defer unlockItem()

	item, err := e.store.Exchange().Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			e.metrics.RecordExchangeProcessed("not_found")
			return nil, apperror.NotFound("Exchange queue item")
		}
		return nil, err
	}
	if item.Processed {
		e.metrics.RecordExchangeProcessed("already_processed")
		e.logger.Warn("exchange item already processed", zap.Uint("id", id))
		return nil, apperror.AlreadyProcessed(id)
	}

	unlockCode, err := e.locker.Lock(ctx, itemKey(item.ItemCode))
	if err != nil {
		return nil, apperror.Unavailable("system busy, please try again later").Wrap(err)
	}
	defer unlockCode()

	var rec *models.Transaction
	err = e.store.Atomic(ctx, func(tx repository.Store) error {
		fresh, err := tx.Exchange().Get(ctx, id)
		if err != nil {
			return err
		}
		if fresh.Processed {
			return apperror.AlreadyProcessed(id)
		}

		loc, err := exchangeLocation(ctx, tx, fresh)
		if err != nil {
			return err
		}

		rows, err := tx.Inventory().LockByCode(ctx, fresh.ItemCode)
		if err != nil {
			return err
		}
		req := Request{ItemCode: fresh.ItemCode, ItemName: fresh.ItemName}
		row, err := credit(ctx, tx, rows, req, loc, fresh.Quantity)
		if err != nil {
			return err
		}

		rec = &models.Transaction{
			Type:       models.TransactionInbound,
			ItemCode:   fresh.ItemCode,
			ItemName:   fresh.ItemName,
			Quantity:   fresh.Quantity,
			ToLocation: row.Location,
			Reason:     optional(models.ReasonExchangeInbound),
			Memo:       optional(fmt.Sprintf("exchange queue #%d", fresh.ID)),
			UserID:     userID,
		}
		if err := tx.Transactions().Append(ctx, rec); err != nil {
			return err
		}

		ok, err := tx.Exchange().MarkProcessed(ctx, fresh.ID, e.now())
		if err != nil {
			return err
		}
		if !ok {
			return apperror.AlreadyProcessed(id)
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			err = apperror.NotFound("Exchange queue item")
		}
		if appErr, ok := apperror.As(err); ok {
			e.metrics.RecordExchangeProcessed("rejected")
			e.logger.Warn("exchange processing rejected", zap.Uint("id", id), zap.String("code", appErr.Code))
			return nil, err
		}
		e.metrics.RecordExchangeProcessed("error")
		e.logger.Error("exchange processing failed", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	e.metrics.RecordExchangeProcessed("ok")
	e.metrics.RecordTransaction(string(rec.Type), rec.ReasonValue(), "ok")
	e.logger.Info("exchange item processed",
		zap.Uint("id", id),
		zap.String("itemCode", rec.ItemCode),
		zap.Int("quantity", rec.Quantity),
		zap.String("toLocation", stringValue(rec.ToLocation)),
		zap.Uint("transactionId", rec.ID),
	)
	return rec, nil
}

// exchangeLocation prefers the location captured on the queue item, then the
// latest defective-exchange outbound in the ledger. Empty means first row.
func exchangeLocation(ctx context.Context, tx repository.Store, item *models.ExchangeQueueItem) (string, error) {
	if item.FromLocation != nil && *item.FromLocation != "" {
		return firstLocation(*item.FromLocation), nil
	}
	prior, err := lastOutbound(ctx, tx, item.ItemCode, func(r string) bool { return r == models.ReasonExchangeOutbound })
	if err != nil || prior == nil {
		return "", err
	}
	return firstLocation(prior.FromLocationValue()), nil
}

// ListExchange returns the queue, or only unprocessed entries when pendingOnly is set.
func (e *Engine) ListExchange(ctx context.Context, pendingOnly bool) ([]models.ExchangeQueueItem, error) {
	if pendingOnly {
		return e.store.Exchange().ListPending(ctx)
	}
	return e.store.Exchange().List(ctx)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
