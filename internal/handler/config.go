package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echodub/config"
	"echodub/internal/response"
	"echodub/log"
	apperrors "echodub/pkg/errors"
)

// configUpdated makes the next task submission rebuild the service with the
// new provider settings.
var configUpdated bool

func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, config.Conf)
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var newConf config.Config
	if err := c.ShouldBindJSON(&newConf); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid parameters", err))
		return
	}

	config.Conf = newConf
	if err := config.SaveConfig(); err != nil {
		log.GetLogger().Error("UpdateConfig SaveConfig err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to save config", err))
		return
	}

	configUpdated = true
	log.GetLogger().Info("config updated")
	response.Success(c, config.Conf)
}
