package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"echodub/config"
	"echodub/internal/analysis"
	"echodub/internal/dto"
	"echodub/internal/events"
	"echodub/internal/pipeline"
	"echodub/internal/segment"
	"echodub/internal/storage"
	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
)

var spawn = func(fn func()) { go fn() }

// StartDubTask validates the request, persists a processing task record and
// kicks off the dubbing run in the background. The returned task id is
// immediately queryable via GetTaskStatus.
func (s *Service) StartDubTask(req dto.StartDubTaskReq) (*dto.StartDubTaskResData, error) {
	taskId, err := s.PrepareDubTask(&req)
	if err != nil {
		return nil, err
	}

	spawn(func() {
		s.RunDubTask(taskId, req)
	})

	return &dto.StartDubTaskResData{TaskId: taskId}, nil
}

// PrepareDubTask validates the request and persists the processing task
// record without running it, so queue workers can pick the run up later.
// It normalizes req in place (voice default, reuse id).
func (s *Service) PrepareDubTask(req *dto.StartDubTaskReq) (string, error) {
	if strings.TrimSpace(req.VideoId) == "" {
		return "", apperrors.New(apperrors.CodeInvalidParams, "video_id is required")
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return "", apperrors.New(apperrors.CodeInvalidParams, "target_language is required")
	}
	if req.VoiceCode == "" {
		req.VoiceCode = config.Conf.Dub.DefaultVoice
	}

	taskId := req.ReuseTaskId
	if taskId == "" {
		taskId = newTaskId(req.VideoId)
	}

	var taskPtr *types.DubTask
	if req.ReuseTaskId != "" {
		taskPtr, _ = storage.GetTask(taskId)
	}

	if taskPtr == nil {
		taskPtr = &types.DubTask{
			TaskId:         taskId,
			VideoId:        req.VideoId,
			Status:         types.DubTaskStatusProcessing,
			TargetLanguage: req.TargetLanguage,
			VoiceCode:      req.VoiceCode,
			CensorExplicit: req.CensorExplicit,
		}
	} else {
		taskPtr.Status = types.DubTaskStatusProcessing
		taskPtr.ProcessPct = 0
		taskPtr.FailReason = ""
		taskPtr.StatusMsg = "retrying"
		taskPtr.TargetLanguage = req.TargetLanguage
		if req.VoiceCode != "" {
			taskPtr.VoiceCode = req.VoiceCode
		}
	}
	if err := storage.SaveTask(taskPtr); err != nil {
		log.GetLogger().Error("PrepareDubTask SaveTask err", zap.Error(err))
		return "", apperrors.Wrap(apperrors.CodeDBError, "failed to save task", err)
	}

	log.GetLogger().Info("dub task accepted",
		zap.String("task_id", taskId),
		zap.String("video_id", req.VideoId),
		zap.String("target_language", req.TargetLanguage))

	req.ReuseTaskId = taskId
	return taskId, nil
}

// RunDubTask executes a prepared task to completion, recording failure on
// the task record. Safe to call from any worker goroutine.
func (s *Service) RunDubTask(taskId string, req dto.StartDubTaskReq) error {
	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Error("dub task panicked",
				zap.String("task_id", taskId),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			s.failTask(taskId, fmt.Errorf("task panicked: %v", r))
		}
	}()
	if err := s.processDubTask(context.Background(), taskId, req); err != nil {
		s.failTask(taskId, err)
		return err
	}
	return nil
}

func newTaskId(videoId string) string {
	prefix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, videoId)
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s", prefix, suffix)
}

// processDubTask runs the whole dubbing flow for one task: metadata,
// transcript, content analysis, chunking and the translate+synthesize loop.
func (s *Service) processDubTask(ctx context.Context, taskId string, req dto.StartDubTaskReq) error {
	task, err := storage.GetTask(taskId)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "failed to load task", err)
	}

	// Metadata is presentation only, a failure here never kills the task.
	if meta, err := s.Source.FetchMetadata(ctx, req.VideoId); err != nil {
		log.GetLogger().Warn("metadata fetch failed",
			zap.String("task_id", taskId),
			zap.Error(err))
	} else {
		task.Title = meta.Title
		task.ChannelName = meta.ChannelName
		task.ThumbnailUrl = meta.ThumbnailURL
	}

	fragments, err := s.Source.FetchTranscript(ctx, req.VideoId)
	if err != nil {
		return err
	}

	fullText := strings.Join(lo.Map(fragments, func(f types.CaptionFragment, _ int) string {
		return f.Text
	}), " ")

	maxRetries := config.Conf.Dub.MaxRetries
	profile := analysis.NewAnalyzer(s.ChatCompleter, maxRetries).Analyze(ctx, fullText)
	chunks := segment.Group(fragments)

	task.StatusMsg = "dubbing"
	if err := storage.SaveTask(task); err != nil {
		log.GetLogger().Warn("failed to persist task metadata", zap.String("task_id", taskId), zap.Error(err))
	}

	pipelineCfg := pipeline.Config{
		TargetLanguage: req.TargetLanguage,
		Voice:          task.VoiceCode,
		CensorExplicit: req.CensorExplicit,
		MaxRetries:     maxRetries,
		SampleRate:     config.Conf.Speech.SampleRate,
	}

	results, err := pipeline.New(s.ChatCompleter, s.Synthesizer).
		Run(ctx, chunks, profile, pipelineCfg, func(progress types.Progress) {
			s.reportProgress(task, progress)
		})
	if err != nil {
		return err
	}

	records := lo.Map(results, func(chunk *types.DubbedChunk, _ int) types.DubbedChunkRecord {
		return types.NewDubbedChunkRecord(taskId, chunk)
	})
	if err := storage.ReplaceTaskChunks(taskId, records); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "failed to save dubbed chunks", err)
	}

	task.Status = types.DubTaskStatusSuccess
	task.StatusMsg = "done"
	task.ProcessPct = 100
	task.Chunks = nil
	if err := storage.SaveTask(task); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "failed to finish task", err)
	}

	s.Hub.Publish(events.Event{
		TaskId: taskId,
		Status: types.DubTaskStatusSuccess,
	})
	log.GetLogger().Info("dub task finished",
		zap.String("task_id", taskId),
		zap.Int("chunks", len(results)))
	return nil
}

func (s *Service) reportProgress(task *types.DubTask, progress types.Progress) {
	pct := uint8(progress.PercentComplete)
	if pct != task.ProcessPct {
		task.ProcessPct = pct
		if err := storage.SaveTask(task); err != nil {
			log.GetLogger().Warn("failed to persist progress",
				zap.String("task_id", task.TaskId),
				zap.Error(err))
		}
	}
	s.Hub.Publish(events.Event{
		TaskId:   task.TaskId,
		Status:   types.DubTaskStatusProcessing,
		Progress: &progress,
	})
}

func (s *Service) failTask(taskId string, taskErr error) {
	log.GetLogger().Error("dub task failed",
		zap.String("task_id", taskId),
		zap.Error(taskErr))

	task, err := storage.GetTask(taskId)
	if err != nil || task == nil {
		return
	}
	task.Status = types.DubTaskStatusFailed
	task.FailReason = apperrors.GetMessage(taskErr)
	task.StatusMsg = "failed"
	task.Chunks = nil
	_ = storage.SaveTask(task)

	s.Hub.Publish(events.Event{
		TaskId:     taskId,
		Status:     types.DubTaskStatusFailed,
		FailReason: task.FailReason,
	})
}

// GetTaskStatus returns the current state of a task including its subtitles
// once chunks exist.
func (s *Service) GetTaskStatus(req dto.GetDubTaskReq) (*dto.GetDubTaskResData, error) {
	task, err := storage.GetTask(req.TaskId)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	subtitles := lo.Map(task.Chunks, func(record types.DubbedChunkRecord, _ int) types.Subtitle {
		return record.ToDubbedChunk().Subtitle()
	})

	return &dto.GetDubTaskResData{
		TaskId:         task.TaskId,
		VideoId:        task.VideoId,
		Status:         task.Status,
		ProcessPercent: task.ProcessPct,
		FailReason:     task.FailReason,
		Title:          task.Title,
		ChannelName:    task.ChannelName,
		ThumbnailUrl:   task.ThumbnailUrl,
		TargetLanguage: task.TargetLanguage,
		VoiceCode:      task.VoiceCode,
		Subtitles:      subtitles,
	}, nil
}

// GetTaskChunks rebuilds the dubbed chunks of a finished task, audio
// included, for playback through the sync engine.
func (s *Service) GetTaskChunks(taskId string) ([]*types.DubbedChunk, error) {
	task, err := storage.GetTask(taskId)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	if task.Status != types.DubTaskStatusSuccess {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "task has no dubbed chunks yet")
	}
	return lo.Map(task.Chunks, func(record types.DubbedChunkRecord, _ int) *types.DubbedChunk {
		return record.ToDubbedChunk()
	}), nil
}

func (s *Service) GetTaskHistory(limit int) ([]dto.TaskHistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	tasks, err := storage.GetTaskHistory(limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "failed to load history", err)
	}
	return lo.Map(tasks, func(task types.DubTask, _ int) dto.TaskHistoryItem {
		return dto.TaskHistoryItem{
			TaskId:         task.TaskId,
			VideoId:        task.VideoId,
			Status:         task.Status,
			ProcessPercent: task.ProcessPct,
			Title:          task.Title,
			ThumbnailUrl:   task.ThumbnailUrl,
			TargetLanguage: task.TargetLanguage,
			CreateTime:     task.CreateTime,
		}
	}), nil
}

func (s *Service) DeleteTask(taskId string) error {
	if err := storage.DeleteTask(taskId); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "failed to delete task", err)
	}
	return nil
}

// RetryTask restarts a failed task with its original parameters.
func (s *Service) RetryTask(taskId string) (*dto.StartDubTaskResData, error) {
	task, err := storage.GetTask(taskId)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	if task.Status == types.DubTaskStatusProcessing {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "task is still processing")
	}

	return s.StartDubTask(dto.StartDubTaskReq{
		VideoId:        task.VideoId,
		TargetLanguage: task.TargetLanguage,
		VoiceCode:      task.VoiceCode,
		CensorExplicit: task.CensorExplicit,
		ReuseTaskId:    taskId,
	})
}
