package mapper

import (
	"encoding/json"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/model"

	"gorm.io/datatypes"
)

type ReflectionMapper struct{}

func NewReflectionMapper() *ReflectionMapper {
	return &ReflectionMapper{}
}

func (m *ReflectionMapper) ToEntity(r *model.Reflection) (*entity.Reflection, error) {
	if r == nil {
		return nil, nil
	}
	result := map[string]any{}
	if len(r.ResultJson) > 0 {
		if err := json.Unmarshal(r.ResultJson, &result); err != nil {
			return nil, err
		}
	}
	return &entity.Reflection{
		Id:        r.Id,
		NoteId:    r.NoteId,
		Mode:      r.Mode,
		Result:    result,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
	}, nil
}

func (m *ReflectionMapper) ToModel(r *entity.Reflection) (*model.Reflection, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r.Result)
	if err != nil {
		return nil, err
	}
	return &model.Reflection{
		Id:         r.Id,
		NoteId:     r.NoteId,
		Mode:       r.Mode,
		ResultJson: datatypes.JSON(raw),
		Source:     r.Source,
		CreatedAt:  r.CreatedAt,
	}, nil
}

func (m *ReflectionMapper) ToEntities(rows []*model.Reflection) ([]*entity.Reflection, error) {
	entities := make([]*entity.Reflection, 0, len(rows))
	for _, r := range rows {
		e, err := m.ToEntity(r)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
