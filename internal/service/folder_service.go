package service

import (
	"context"
	"errors"
	"time"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/pkg/serverutils"
	"ai-notes-reflect/internal/repository/contract"
	"ai-notes-reflect/internal/repository/specification"
	"ai-notes-reflect/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IFolderService interface {
	GetAll(ctx context.Context) ([]*dto.FolderResponse, error)
	Create(ctx context.Context, req *dto.CreateFolderRequest) (*dto.FolderResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type folderService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewFolderService(uowFactory unitofwork.RepositoryFactory) IFolderService {
	return &folderService{uowFactory: uowFactory}
}

func (s *folderService) GetAll(ctx context.Context) ([]*dto.FolderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folders, err := uow.FolderRepository().FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.FolderResponse, 0, len(folders))
	for _, f := range folders {
		result = append(result, toFolderResponse(f))
	}
	return result, nil
}

func (s *folderService) Create(ctx context.Context, req *dto.CreateFolderRequest) (*dto.FolderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.FolderRepository().FindOne(ctx, specification.ByName{Name: req.Name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, serverutils.Conflict("Folder %q already exists", req.Name)
	}

	folder := entity.Folder{
		Id:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := uow.FolderRepository().Create(ctx, &folder); err != nil {
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, serverutils.Conflict("Folder %q already exists", req.Name)
		}
		return nil, err
	}
	return toFolderResponse(&folder), nil
}

// Delete removes the folder and moves its notes to the root.
func (s *folderService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folder, err := uow.FolderRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if folder == nil {
		return serverutils.NotFound("Folder not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().DetachFolder(ctx, id); err != nil {
		return err
	}
	if err := uow.FolderRepository().Delete(ctx, id); err != nil {
		return err
	}
	return uow.Commit()
}

func toFolderResponse(f *entity.Folder) *dto.FolderResponse {
	return &dto.FolderResponse{
		Id:        f.Id,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
	}
}
