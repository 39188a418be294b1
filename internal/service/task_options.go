package service

import (
	"taskhub/internal/access"
	"taskhub/internal/notify"
)

// функциональные опции подключения необязательных коллабораторов

type ServiceOption func(*TaskService)

func WithPermissionChecker(perm PermissionChecker) ServiceOption {
	return func(s *TaskService) {
		s.perm = perm
	}
}

func WithNotifier(n notify.Notifier) ServiceOption {
	return func(s *TaskService) {
		s.notifier = n
	}
}

func WithResolver(r *access.Resolver) ServiceOption {
	return func(s *TaskService) {
		s.resolver = r
	}
}

func WithCleaners(attachments AttachmentCleaner, files FileCleaner) ServiceOption {
	return func(s *TaskService) {
		s.attachments = attachments
		s.files = files
	}
}

func WithDispatcher(d *notify.Dispatcher) ServiceOption {
	return func(s *TaskService) {
		s.dispatcher = d
	}
}
