package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"echodub/internal/service"
	"echodub/log"
)

// TaskHandlers provides handlers for queued task types
type TaskHandlers struct {
	service *service.Service
}

func NewTaskHandlers(svc *service.Service) *TaskHandlers {
	return &TaskHandlers{service: svc}
}

// HandleDubTask processes a prepared dub task from the queue.
func (h *TaskHandlers) HandleDubTask(ctx context.Context, t *asynq.Task) error {
	var payload DubTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log.GetLogger().Info("[Queue] Processing dub task",
		zap.String("task_id", payload.TaskID),
		zap.String("video_id", payload.VideoID))

	if err := h.service.RunDubTask(payload.TaskID, payload.toReq()); err != nil {
		return err
	}

	log.GetLogger().Info("[Queue] Dub task completed",
		zap.String("task_id", payload.TaskID))
	return nil
}

// Mux returns the handler mux for the Asynq server.
func (h *TaskHandlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDubTask, h.HandleDubTask)
	return mux
}
