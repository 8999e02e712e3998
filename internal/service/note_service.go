package service

import (
	"context"
	"time"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/pkg/serverutils"
	"ai-notes-reflect/internal/repository/specification"
	"ai-notes-reflect/internal/repository/unitofwork"
	"ai-notes-reflect/pkg/events"

	"github.com/google/uuid"
)

type INoteService interface {
	List(ctx context.Context, req *dto.ListNoteRequest) ([]*dto.NoteResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error)
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	CreateChild(ctx context.Context, req *dto.CreateChildNoteRequest) (*dto.NoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	MoveNote(ctx context.Context, req *dto.MoveNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher IEventPublisher
}

func NewNoteService(uowFactory unitofwork.RepositoryFactory, eventPublisher IEventPublisher) INoteService {
	return &noteService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

func (c *noteService) List(ctx context.Context, req *dto.ListNoteRequest) ([]*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{specification.OrderBy{Field: "updated_at", Desc: true}}
	if req.FolderId != nil {
		specs = append(specs, specification.ByFolderID{FolderID: *req.FolderId})
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.NoteResponse, 0, len(notes))
	for _, n := range notes {
		result = append(result, toNoteResponse(n))
	}
	return result, nil
}

func (c *noteService) Show(ctx context.Context, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := findNote(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	return toNoteResponse(note), nil
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if err := ensureFolder(ctx, uow, req.FolderId); err != nil {
		return nil, err
	}

	note := entity.Note{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		FolderId:  req.FolderId,
		CreatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	c.eventPublisher.Emit(ctx, events.NoteCreated, map[string]interface{}{
		"note_id": note.Id,
		"title":   note.Title,
	})
	return toNoteResponse(&note), nil
}

// CreateChild stores a sub-note in the parent's folder.
func (c *noteService) CreateChild(ctx context.Context, req *dto.CreateChildNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	parent, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.ParentId})
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, serverutils.NotFound("Parent note not found")
	}

	parentId := parent.Id
	note := entity.Note{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		FolderId:  parent.FolderId,
		ParentId:  &parentId,
		CreatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	c.eventPublisher.Emit(ctx, events.NoteCreated, map[string]interface{}{
		"note_id":   note.Id,
		"parent_id": parentId,
		"title":     note.Title,
	})
	return toNoteResponse(&note), nil
}

func (c *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	note, err := findNote(ctx, uow, req.Id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.FolderId != nil {
		if err := ensureFolder(ctx, uow, req.FolderId); err != nil {
			return nil, err
		}
		note.FolderId = req.FolderId
	}

	now := time.Now()
	note.UpdatedAt = &now
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}
	return toNoteResponse(note), nil
}

func (c *noteService) MoveNote(ctx context.Context, req *dto.MoveNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	note, err := findNote(ctx, uow, req.Id)
	if err != nil {
		return nil, err
	}
	if err := ensureFolder(ctx, uow, req.FolderId); err != nil {
		return nil, err
	}

	now := time.Now()
	note.FolderId = req.FolderId
	note.UpdatedAt = &now
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}
	return toNoteResponse(note), nil
}

func (c *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if _, err := findNote(ctx, uow, id); err != nil {
		return err
	}
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return err
	}

	c.eventPublisher.Emit(ctx, events.NoteDeleted, map[string]interface{}{"note_id": id})
	return nil
}

func findNote(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Note, error) {
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, serverutils.NotFound("Note not found")
	}
	return note, nil
}

func ensureFolder(ctx context.Context, uow unitofwork.UnitOfWork, folderId *uuid.UUID) error {
	if folderId == nil {
		return nil
	}
	folder, err := uow.FolderRepository().FindOne(ctx, specification.ByID{ID: *folderId})
	if err != nil {
		return err
	}
	if folder == nil {
		return serverutils.NotFound("Folder not found")
	}
	return nil
}

func toNoteResponse(n *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:        n.Id,
		Title:     n.Title,
		Content:   n.Content,
		FolderId:  n.FolderId,
		ParentId:  n.ParentId,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
