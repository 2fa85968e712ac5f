package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"echodub/internal/dto"
	"echodub/internal/response"
	"echodub/internal/service"
	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
)

func (h *Handler) StartDubTask(c *gin.Context) {
	var req dto.StartDubTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartDubTask ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid parameters", err))
		return
	}

	if configUpdated {
		log.GetLogger().Info("config changed, reinitializing service")
		h.Service = service.NewService()
		configUpdated = false
	}

	if h.Submitter != nil {
		taskId, err := h.Submitter.SubmitDubTask(req)
		if err != nil {
			response.ErrorResponse(c, err)
			return
		}
		response.Success(c, dto.StartDubTaskResData{TaskId: taskId})
		return
	}

	data, err := h.Service.StartDubTask(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetDubTask(c *gin.Context) {
	var req dto.GetDubTaskReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid parameters", err))
		return
	}

	data, err := h.Service.GetTaskStatus(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetTaskHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	tasks, err := h.Service.GetTaskHistory(limit)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, tasks)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "taskId is required"))
		return
	}

	if err := h.Service.DeleteTask(taskId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) GetTaskSubtitles(c *gin.Context) {
	chunks, err := h.Service.GetTaskChunks(c.Param("taskId"))
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	subtitles := lo.Map(chunks, func(chunk *types.DubbedChunk, _ int) types.Subtitle {
		return chunk.Subtitle()
	})
	response.Success(c, subtitles)
}

func (h *Handler) RetryTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "taskId is required"))
		return
	}

	data, err := h.Service.RetryTask(taskId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}
