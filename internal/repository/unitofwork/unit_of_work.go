package unitofwork

import (
	"context"

	"ai-notes-reflect/internal/repository/contract"
)

// RepositoryFactory hands out a fresh UnitOfWork per request.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// UnitOfWork groups repositories over one connection. Between Begin and
// Commit or Rollback every repository it returns shares the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FolderRepository() contract.FolderRepository
	NoteRepository() contract.NoteRepository
	ReflectionRepository() contract.ReflectionRepository
	MetricRepository() contract.MetricRepository
}
