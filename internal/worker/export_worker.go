// Package worker mirrors the transaction history into an external
// spreadsheet in response to domain events.
package worker

import (
	"context"
	"errors"
	"fmt"

	"walletgenie/internal/amqp"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
)

// TransactionReader is the part of the store the worker needs. Events carry
// identifiers only, so every export re-reads the current record.
type TransactionReader interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
}

// Exporter writes transactions to the external mirror.
type Exporter interface {
	ExportTransaction(ctx context.Context, userID string, t core.Transaction) error
	RemoveTransaction(ctx context.Context, userID, id string) error
	RemoveUserTransactions(ctx context.Context, userID string) (int, error)
}

type ExportWorker struct {
	store    TransactionReader
	exporter Exporter
	logger   *log.Logger
}

func NewExportWorker(store TransactionReader, exporter Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event. A returned error makes the consumer requeue
// the delivery.
func (w *ExportWorker) Handle(ctx context.Context, ev *amqp.Event) error {
	w.logger.DebugContext(ctx, "Processing event",
		log.FieldEventType, ev.Type,
		log.FieldUserID, ev.UserID,
		log.FieldTransactionID, ev.EntityID)

	switch ev.Type {
	case amqp.TransactionCreated:
		return w.handleCreated(ctx, ev)
	case amqp.TransactionDeleted:
		if err := w.exporter.RemoveTransaction(ctx, ev.UserID, ev.EntityID); err != nil {
			return fmt.Errorf("remove transaction %s: %w", ev.EntityID, err)
		}
		w.logger.InfoContext(ctx, "Transaction removed from export",
			log.FieldUserID, ev.UserID,
			log.FieldTransactionID, ev.EntityID)
	case amqp.TransactionsPurged:
		n, err := w.exporter.RemoveUserTransactions(ctx, ev.UserID)
		if err != nil {
			return fmt.Errorf("remove transactions of %s: %w", ev.UserID, err)
		}
		w.logger.InfoContext(ctx, "User transactions removed from export",
			log.FieldUserID, ev.UserID,
			log.FieldCount, n,
			"purged", ev.Count)
	default:
		w.logger.DebugContext(ctx, "Event not exported", log.FieldEventType, ev.Type)
	}
	return nil
}

func (w *ExportWorker) handleCreated(ctx context.Context, ev *amqp.Event) error {
	t, err := w.store.GetTransaction(ctx, ev.UserID, ev.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; the delete event cleans up.
		w.logger.InfoContext(ctx, "Transaction gone before export",
			log.FieldUserID, ev.UserID,
			log.FieldTransactionID, ev.EntityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", ev.EntityID, err)
	}
	if err := w.exporter.ExportTransaction(ctx, ev.UserID, t); err != nil {
		return fmt.Errorf("export transaction %s: %w", t.ID, err)
	}
	w.logger.InfoContext(ctx, "Transaction exported", log.NewFields().
		WithUser(ev.UserID).
		WithTransaction(t.ID, string(t.Kind), t.Category, t.Amount.Cents).
		ToSlice()...)
	return nil
}

// Resync rebuilds the user's rows from the store. It is the recovery path
// for events lost while the broker was unreachable.
func (w *ExportWorker) Resync(ctx context.Context, userID string) (int, error) {
	txs, err := w.store.ListTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	if _, err := w.exporter.RemoveUserTransactions(ctx, userID); err != nil {
		return 0, fmt.Errorf("clear export: %w", err)
	}
	for i, t := range txs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := w.exporter.ExportTransaction(ctx, userID, t); err != nil {
			return i, fmt.Errorf("export transaction %s: %w", t.ID, err)
		}
	}
	w.logger.InfoContext(ctx, "Export resynced",
		log.FieldUserID, userID,
		log.FieldCount, len(txs),
		log.FieldOperation, log.OpExport)
	return len(txs), nil
}
