// Package worker moves recorded expenses into the Google Sheets
// transaction log. The normal path is queue-driven; a periodic scan of
// pending rows covers messages the queue lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// ExportStore is the slice of the repository the worker needs.
type ExportStore interface {
	GetExportRow(ctx context.Context, id int64) (storage.ExportRow, error)
	PendingExportIDs(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// RowAppender writes one expense row to the transaction log. Satisfied by
// *export.SheetsClient.
type RowAppender interface {
	Append(ctx context.Context, row storage.ExportRow) error
}

type ExportWorker struct {
	storage   ExportStore
	sheet     RowAppender
	batchSize int
}

func NewExportWorker(storage ExportStore, sheet RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleMessage exports the expense named by one queue message.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	return w.export(ctx, msg.ID)
}

// ProcessPending exports rows still marked pending. Failures are logged
// per row and the scan continues, so one bad row cannot block the rest.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.storage.PendingExportIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(ids))

	for _, id := range ids {
		if err := w.export(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", id, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger backlog once at startup to recover from
// worker downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	ids, err := w.storage.PendingExportIDs(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup", "count", len(ids))

	exported, failed := 0, 0
	for _, id := range ids {
		if err := w.export(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup", "id", id, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(ids),
		"exported", exported,
		"errors", failed)
	return nil
}

// RunPendingLoop runs ProcessPending on a ticker until ctx ends.
func (w *ExportWorker) RunPendingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending export pass failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, id int64) error {
	row, err := w.storage.GetExportRow(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("load expense: %w", err)
	}

	if err := w.sheet.Append(ctx, row); err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The row is on the sheet; only the local flag is stale.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"id", id,
		"category", row.Category,
		"amount_cents", row.Amount.Cents)
	return nil
}
