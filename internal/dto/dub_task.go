package dto

import "echodub/internal/types"

type StartDubTaskReq struct {
	VideoId        string `json:"video_id" binding:"required"`
	TargetLanguage string `json:"target_language" binding:"required"`
	VoiceCode      string `json:"voice_code"`
	CensorExplicit bool   `json:"censor_explicit"`
	ReuseTaskId    string `json:"-"`
}

type StartDubTaskResData struct {
	TaskId string `json:"task_id"`
}

type GetDubTaskReq struct {
	TaskId string `form:"taskId" binding:"required"`
}

type GetDubTaskResData struct {
	TaskId         string              `json:"task_id"`
	VideoId        string              `json:"video_id"`
	Status         types.DubTaskStatus `json:"status"`
	ProcessPercent uint8               `json:"process_percent"`
	FailReason     string              `json:"fail_reason,omitempty"`
	Title          string              `json:"title,omitempty"`
	ChannelName    string              `json:"channel_name,omitempty"`
	ThumbnailUrl   string              `json:"thumbnail_url,omitempty"`
	TargetLanguage string              `json:"target_language"`
	VoiceCode      string              `json:"voice_code,omitempty"`
	Subtitles      []types.Subtitle    `json:"subtitles,omitempty"`
}

type TaskHistoryItem struct {
	TaskId         string              `json:"task_id"`
	VideoId        string              `json:"video_id"`
	Status         types.DubTaskStatus `json:"status"`
	ProcessPercent uint8               `json:"process_percent"`
	Title          string              `json:"title,omitempty"`
	ThumbnailUrl   string              `json:"thumbnail_url,omitempty"`
	TargetLanguage string              `json:"target_language"`
	CreateTime     int64               `json:"create_time"`
}
