package handler

import (
	"echodub/internal/dto"
	"echodub/internal/service"
)

// TaskSubmitter queues a prepared dub task for background execution. The
// in-process runner and the Redis queue both satisfy it.
type TaskSubmitter interface {
	SubmitDubTask(req dto.StartDubTaskReq) (string, error)
}

type Handler struct {
	Service   *service.Service
	Submitter TaskSubmitter
}

// NewHandler builds the API handler. A nil submitter means tasks run on
// goroutines spawned by the service itself.
func NewHandler(svc *service.Service, submitter TaskSubmitter) *Handler {
	return &Handler{
		Service:   svc,
		Submitter: submitter,
	}
}
