package main

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"seminar-bot/internal/domain"
)

const maxConcurrentChats = 8

type updateHandler interface {
	Handle(ctx context.Context, upd domain.Update) error
}

// dispatchBatch handles one getUpdates batch. Updates of one chat run in arrival
// order; different chats run concurrently. It returns the next offset.
func dispatchBatch(ctx context.Context, h updateHandler, updates []domain.Update, offset int64, logger *slog.Logger) int64 {
	var order []int64
	byChat := make(map[int64][]domain.Update)
	for _, upd := range updates {
		if upd.UpdateID >= offset {
			offset = upd.UpdateID + 1
		}
		var chatID int64
		if upd.Message != nil {
			chatID = upd.Message.Chat.ID
		}
		if _, seen := byChat[chatID]; !seen {
			order = append(order, chatID)
		}
		byChat[chatID] = append(byChat[chatID], upd)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentChats)
	for _, chatID := range order {
		chatID := chatID
		batch := byChat[chatID]
		g.Go(func() error {
			for _, upd := range batch {
				if err := h.Handle(ctx, upd); err != nil {
					logger.ErrorContext(ctx, "update failed", "update_id", upd.UpdateID, "chat_id", chatID, "err", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return offset
}
