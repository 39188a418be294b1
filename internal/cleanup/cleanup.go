package cleanup

import (
	"context"

	"taskhub/internal/logger"

	"go.uber.org/zap"
)

// Хранилища вложений и файлов живут в отдельных сервисах.
// Здесь только протоколирующие реализации: сами данные удаляются
// внешними системами по событию удаления задачи.

type AttachmentCleaner struct{}

func NewAttachmentCleaner() *AttachmentCleaner {
	return &AttachmentCleaner{}
}

func (c *AttachmentCleaner) DeleteAttachmentsForTask(ctx context.Context, taskID int64) error {
	logger.Info("Cleanup: удаление вложений задачи", zap.Int64("task_id", taskID))
	return nil
}

type FileCleaner struct{}

func NewFileCleaner() *FileCleaner {
	return &FileCleaner{}
}

func (c *FileCleaner) DeleteStoredFilesForTask(ctx context.Context, taskID int64) error {
	logger.Info("Cleanup: удаление файлов задачи", zap.Int64("task_id", taskID))
	return nil
}
