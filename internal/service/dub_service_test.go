package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"echodub/config"
	"echodub/internal/dto"
	"echodub/internal/events"
	"echodub/internal/mocks"
	"echodub/internal/storage"
	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
)

func init() {
	log.InitLogger()
}

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.DubTask{}, &types.DubbedChunkRecord{}))

	original := storage.DB
	storage.DB = db
	t.Cleanup(func() { storage.DB = original })
}

func setupTestConfig(t *testing.T) {
	t.Helper()
	original := config.Conf
	config.Conf = config.Config{}
	config.Conf.Speech.SampleRate = 24000
	config.Conf.Dub.DefaultVoice = "en-neural-1"
	t.Cleanup(func() { config.Conf = original })

	// Suppress the background worker; tests drive processDubTask directly.
	originalSpawn := spawn
	spawn = func(func()) {}
	t.Cleanup(func() { spawn = originalSpawn })
}

func newTestService() (*Service, *mocks.MockChatCompleter, *mocks.MockSpeechSynthesizer, *mocks.MockTranscriptSource) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)
	source := new(mocks.MockTranscriptSource)
	svc := &Service{
		ChatCompleter: completer,
		Synthesizer:   synthesizer,
		Source:        source,
		Hub:           events.NewHub(),
	}
	return svc, completer, synthesizer, source
}

// analysisCall matches the one-shot content analysis request, which is the
// only chat completion sent without a system prompt.
func analysisCall(completer *mocks.MockChatCompleter) *mock.Call {
	return completer.On("ChatCompletion", mock.Anything, "", mock.Anything)
}

func translateCall(completer *mocks.MockChatCompleter) *mock.Call {
	return completer.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(system string) bool {
		return system != ""
	}), mock.Anything)
}

func testFragments() []types.CaptionFragment {
	return []types.CaptionFragment{
		{Text: "Hello there.", Offset: 0, Duration: 2},
		{Text: "How are you today?", Offset: 2, Duration: 4},
	}
}

func TestStartDubTaskValidation(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, _, _, _ := newTestService()

	_, err := svc.StartDubTask(dto.StartDubTaskReq{TargetLanguage: "de"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))

	_, err = svc.StartDubTask(dto.StartDubTaskReq{VideoId: "abc"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))
}

func TestProcessDubTaskHappyPath(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, completer, synthesizer, source := newTestService()

	source.On("FetchMetadata", mock.Anything, "abc").Return(&types.VideoMetadata{
		Title:       "Intro to Go",
		ChannelName: "GopherCon",
	}, nil)
	source.On("FetchTranscript", mock.Anything, "abc").Return(testFragments(), nil)
	analysisCall(completer).Return(`{"language":"en","tone":"casual"}`, nil)
	translateCall(completer).Return("hallo", nil)
	synthesizer.On("Synthesize", mock.Anything, "hallo", "en-neural-1").Return(make([]byte, 48000), nil)

	req := dto.StartDubTaskReq{VideoId: "abc", TargetLanguage: "de"}
	res, err := svc.StartDubTask(req)
	require.NoError(t, err)
	require.NotEmpty(t, res.TaskId)

	eventCh, cancel := svc.Hub.Subscribe(res.TaskId)
	defer cancel()

	req.ReuseTaskId = res.TaskId
	req.VoiceCode = "en-neural-1"
	require.NoError(t, svc.processDubTask(context.Background(), res.TaskId, req))

	status, err := svc.GetTaskStatus(dto.GetDubTaskReq{TaskId: res.TaskId})
	require.NoError(t, err)
	assert.Equal(t, types.DubTaskStatusSuccess, status.Status)
	assert.EqualValues(t, 100, status.ProcessPercent)
	assert.Equal(t, "Intro to Go", status.Title)
	require.Len(t, status.Subtitles, 1)
	assert.Equal(t, "hallo", status.Subtitles[0].Text)

	chunks, err := svc.GetTaskChunks(res.TaskId)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].AudioPayload, 48000)

	var sawSuccess bool
	for {
		select {
		case event := <-eventCh:
			if event.Status == types.DubTaskStatusSuccess {
				sawSuccess = true
			}
			continue
		default:
		}
		break
	}
	assert.True(t, sawSuccess, "hub must carry the terminal success event")
}

func TestProcessDubTaskMetadataFailureIsNotFatal(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, completer, synthesizer, source := newTestService()

	source.On("FetchMetadata", mock.Anything, "abc").Return(nil, apperrors.ErrVideoNotFound)
	source.On("FetchTranscript", mock.Anything, "abc").Return(testFragments(), nil)
	analysisCall(completer).Return("not json", nil)
	translateCall(completer).Return("hallo", nil)
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(make([]byte, 2), nil)

	res, err := svc.StartDubTask(dto.StartDubTaskReq{VideoId: "abc", TargetLanguage: "de"})
	require.NoError(t, err)

	require.NoError(t, svc.processDubTask(context.Background(), res.TaskId,
		dto.StartDubTaskReq{VideoId: "abc", TargetLanguage: "de", VoiceCode: "en-neural-1", ReuseTaskId: res.TaskId}))

	status, err := svc.GetTaskStatus(dto.GetDubTaskReq{TaskId: res.TaskId})
	require.NoError(t, err)
	assert.Equal(t, types.DubTaskStatusSuccess, status.Status)
	assert.Empty(t, status.Title)
}

func TestProcessDubTaskTranscriptFailureFailsTask(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, _, _, source := newTestService()

	source.On("FetchMetadata", mock.Anything, "abc").Return(&types.VideoMetadata{}, nil)
	source.On("FetchTranscript", mock.Anything, "abc").Return(nil, apperrors.ErrTranscriptEmpty)

	res, err := svc.StartDubTask(dto.StartDubTaskReq{VideoId: "abc", TargetLanguage: "de"})
	require.NoError(t, err)

	err = svc.processDubTask(context.Background(), res.TaskId,
		dto.StartDubTaskReq{VideoId: "abc", TargetLanguage: "de", ReuseTaskId: res.TaskId})
	require.Error(t, err)
	svc.failTask(res.TaskId, err)

	status, getErr := svc.GetTaskStatus(dto.GetDubTaskReq{TaskId: res.TaskId})
	require.NoError(t, getErr)
	assert.Equal(t, types.DubTaskStatusFailed, status.Status)
	assert.NotEmpty(t, status.FailReason)
}

func TestRetryTask(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, completer, synthesizer, source := newTestService()

	failed := &types.DubTask{
		TaskId:         "task-1",
		VideoId:        "abc",
		Status:         types.DubTaskStatusFailed,
		FailReason:     "boom",
		TargetLanguage: "de",
		VoiceCode:      "en-neural-1",
	}
	require.NoError(t, storage.SaveTask(failed))

	source.On("FetchMetadata", mock.Anything, "abc").Return(&types.VideoMetadata{}, nil)
	source.On("FetchTranscript", mock.Anything, "abc").Return(testFragments(), nil)
	analysisCall(completer).Return("{}", nil)
	translateCall(completer).Return("hallo", nil)
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(make([]byte, 2), nil)

	res, err := svc.RetryTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", res.TaskId, "retry must reuse the task id")

	got, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Empty(t, got.FailReason)
}

func TestRetryTaskRejectsProcessing(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, _, _, _ := newTestService()

	require.NoError(t, storage.SaveTask(&types.DubTask{
		TaskId:  "task-1",
		VideoId: "abc",
		Status:  types.DubTaskStatusProcessing,
	}))

	_, err := svc.RetryTask("task-1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))
}

func TestGetTaskChunksRequiresSuccess(t *testing.T) {
	setupTestDB(t)
	setupTestConfig(t)
	svc, _, _, _ := newTestService()

	require.NoError(t, storage.SaveTask(&types.DubTask{
		TaskId:  "task-1",
		VideoId: "abc",
		Status:  types.DubTaskStatusProcessing,
	}))

	_, err := svc.GetTaskChunks("task-1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParams))

	_, err = svc.GetTaskChunks("missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestNewTaskIdSanitizesVideoId(t *testing.T) {
	id := newTaskId("watch?v=dQw4w9WgXcQ&t=1")
	assert.NotContains(t, id, "?")
	assert.NotContains(t, id, "=")
	assert.NotContains(t, id, "&")
	assert.Len(t, id, 16+1+8)
}
