package types

// DubTaskStatus is the lifecycle state of a dub task.
type DubTaskStatus uint8

const (
	DubTaskStatusProcessing DubTaskStatus = iota + 1
	DubTaskStatusSuccess
	DubTaskStatusFailed
)

// DubTask is the persisted record of one dubbing run.
type DubTask struct {
	Id             int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskId         string              `json:"task_id" gorm:"uniqueIndex;size:64"`
	VideoId        string              `json:"video_id" gorm:"size:128"`
	Status         DubTaskStatus       `json:"status"`
	StatusMsg      string              `json:"status_msg"`
	FailReason     string              `json:"fail_reason"`
	ProcessPct     uint8               `json:"process_percent"`
	Title          string              `json:"title"`
	ChannelName    string              `json:"channel_name"`
	ThumbnailUrl   string              `json:"thumbnail_url"`
	TargetLanguage string              `json:"target_language" gorm:"size:16"`
	VoiceCode      string              `json:"voice_code" gorm:"size:64"`
	CensorExplicit bool                `json:"censor_explicit"`
	Chunks         []DubbedChunkRecord `json:"chunks,omitempty" gorm:"foreignKey:TaskId;references:TaskId;constraint:OnDelete:CASCADE"`
	CreateTime     int64               `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime     int64               `json:"update_time" gorm:"autoUpdateTime"`
}

// DubbedChunkRecord is the persisted form of a DubbedChunk.
type DubbedChunkRecord struct {
	Id             int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskId         string  `json:"task_id" gorm:"index;size:64"`
	ChunkId        int     `json:"chunk_id"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text"`
	AudioPayload   []byte  `json:"-" gorm:"type:blob"`
	AudioDuration  float64 `json:"audio_duration"`
}

// ToDubbedChunk rebuilds the in-memory chunk from its record.
func (r DubbedChunkRecord) ToDubbedChunk() *DubbedChunk {
	return &DubbedChunk{
		ID:             r.ChunkId,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		SourceText:     r.SourceText,
		TranslatedText: r.TranslatedText,
		AudioPayload:   r.AudioPayload,
		AudioDuration:  r.AudioDuration,
	}
}

// NewDubbedChunkRecord persists a pipeline result chunk for a task.
func NewDubbedChunkRecord(taskID string, chunk *DubbedChunk) DubbedChunkRecord {
	return DubbedChunkRecord{
		TaskId:         taskID,
		ChunkId:        chunk.ID,
		StartTime:      chunk.StartTime,
		EndTime:        chunk.EndTime,
		SourceText:     chunk.SourceText,
		TranslatedText: chunk.TranslatedText,
		AudioPayload:   chunk.AudioPayload,
		AudioDuration:  chunk.AudioDuration,
	}
}
