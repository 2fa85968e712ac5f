package storage

import (
	"errors"

	"gorm.io/gorm"

	"echodub/internal/types"
)

func SaveTask(task *types.DubTask) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// TaskId is the external identifier, Id the primary key; upsert by TaskId.
	var existing types.DubTask
	result := DB.Where("task_id = ?", task.TaskId).First(&existing)

	if result.Error == nil {
		task.Id = existing.Id
		return DB.Save(task).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(task).Error
	}
	return result.Error
}

func GetTask(taskId string) (*types.DubTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var task types.DubTask
	if err := DB.Preload("Chunks").Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTaskHistory(limit int) ([]types.DubTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var tasks []types.DubTask
	if err := DB.Preload("Chunks").Order("create_time desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func DeleteTask(taskId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskId).Delete(&types.DubbedChunkRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskId).Delete(&types.DubTask{}).Error
	})
}

// ReplaceTaskChunks swaps the stored chunk set of a task, used when a task
// finishes or is retried with fresh results.
func ReplaceTaskChunks(taskId string, chunks []types.DubbedChunkRecord) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskId).Delete(&types.DubbedChunkRecord{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
}

// MarkStaleTasks fails every task still marked processing. Called on startup
// to clean up tasks orphaned by a previous shutdown.
func MarkStaleTasks() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.DubTask{}).
		Where("status = ?", types.DubTaskStatusProcessing).
		Updates(map[string]interface{}{
			"status":      types.DubTaskStatusFailed,
			"fail_reason": "task interrupted by server restart",
			"status_msg":  "interrupted",
		})
	return result.RowsAffected, result.Error
}
