// Package server assembles the HTTP API and the background execution path
// (in-process runner by default, Asynq workers when Redis is configured).
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"echodub/config"
	"echodub/internal/dto"
	"echodub/internal/handler"
	"echodub/internal/queue"
	"echodub/internal/router"
	"echodub/internal/service"
	"echodub/internal/taskrunner"
	"echodub/log"
)

// queueSubmitter bridges the Redis queue into the handler's submit path.
type queueSubmitter struct {
	service *service.Service
	queue   *queue.Queue
}

func (s *queueSubmitter) SubmitDubTask(req dto.StartDubTaskReq) (string, error) {
	taskId, err := s.service.PrepareDubTask(&req)
	if err != nil {
		return "", err
	}
	err = s.queue.EnqueueDubTask(queue.DubTaskPayload{
		TaskID:         taskId,
		VideoID:        req.VideoId,
		TargetLanguage: req.TargetLanguage,
		VoiceCode:      req.VoiceCode,
		CensorExplicit: req.CensorExplicit,
	})
	if err != nil {
		return "", err
	}
	return taskId, nil
}

// StartBackend blocks serving the API until the HTTP server or a worker
// component fails.
func StartBackend() error {
	svc := service.NewService()

	var group errgroup.Group
	var submitter handler.TaskSubmitter

	if config.Conf.Queue.RedisAddr != "" {
		q := queue.NewQueue(queue.QueueConfig{
			RedisAddr:     config.Conf.Queue.RedisAddr,
			RedisPassword: config.Conf.Queue.RedisPassword,
			RedisDB:       config.Conf.Queue.RedisDB,
			Concurrency:   config.Conf.Queue.Concurrency,
		})
		defer q.Close()

		handlers := queue.NewTaskHandlers(svc)
		group.Go(func() error {
			return q.Server().Run(handlers.Mux())
		})
		submitter = &queueSubmitter{service: svc, queue: q}
		log.GetLogger().Info("task execution via redis queue",
			zap.String("redis_addr", config.Conf.Queue.RedisAddr))
	} else {
		runner := taskrunner.New(svc, taskrunner.Config{
			Concurrency: config.Conf.Queue.Concurrency,
		})
		defer runner.Close()
		submitter = runner
		log.GetLogger().Info("task execution via in-process runner")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	router.SetupRouter(engine, handler.NewHandler(svc, submitter))

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("api server listening", zap.String("addr", addr))
	group.Go(func() error {
		return engine.Run(addr)
	})

	return group.Wait()
}
