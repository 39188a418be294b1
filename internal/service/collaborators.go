package service

import "context"

// Опциональная способность проекта: проверка права управления
// участниками. Если коллаборатор не подключён, разрешение
// по умолчанию - "можно" (проверяется только членство в исполнителях).
type PermissionChecker interface {
	CanManageMembers(ctx context.Context, projectID, userID int64) (bool, error)
}

// Коллабораторы очистки при жёстком удалении, оба best-effort
type AttachmentCleaner interface {
	DeleteAttachmentsForTask(ctx context.Context, taskID int64) error
}

type FileCleaner interface {
	DeleteStoredFilesForTask(ctx context.Context, taskID int64) error
}
