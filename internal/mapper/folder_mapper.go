package mapper

import (
	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/model"

	"gorm.io/gorm"
)

type FolderMapper struct{}

func NewFolderMapper() *FolderMapper {
	return &FolderMapper{}
}

func (m *FolderMapper) ToEntity(f *model.Folder) *entity.Folder {
	if f == nil {
		return nil
	}
	e := &entity.Folder{
		Id:        f.Id,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		IsDeleted: f.DeletedAt.Valid,
	}
	if f.DeletedAt.Valid {
		t := f.DeletedAt.Time
		e.DeletedAt = &t
	}
	return e
}

func (m *FolderMapper) ToModel(f *entity.Folder) *model.Folder {
	if f == nil {
		return nil
	}
	var deletedAt gorm.DeletedAt
	if f.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *f.DeletedAt, Valid: true}
	}
	return &model.Folder{
		Id:        f.Id,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *FolderMapper) ToEntities(folders []*model.Folder) []*entity.Folder {
	entities := make([]*entity.Folder, len(folders))
	for i, f := range folders {
		entities[i] = m.ToEntity(f)
	}
	return entities
}
