package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/repository/contract"
	"ai-notes-reflect/internal/repository/specification"
	"ai-notes-reflect/internal/repository/unitofwork"
	"ai-notes-reflect/pkg/llm"

	"github.com/google/uuid"
)

// store is an in-memory stand-in for the database behind the unit of work.
type store struct {
	mu          sync.Mutex
	folders     map[uuid.UUID]*entity.Folder
	notes       map[uuid.UUID]*entity.Note
	reflections []*entity.Reflection
	metrics     map[string]int64
	commits     int
}

func newStore() *store {
	return &store{
		folders: map[uuid.UUID]*entity.Folder{},
		notes:   map[uuid.UUID]*entity.Note{},
		metrics: map[string]int64{},
	}
}

func (s *store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return &fakeUow{s: s} }

func (s *store) addNote(title, content string, folderId *uuid.UUID) *entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := &entity.Note{Id: uuid.New(), Title: title, Content: content, FolderId: folderId, CreatedAt: now, UpdatedAt: &now}
	s.notes[n.Id] = n
	return n
}

func (s *store) addFolder(name string) *entity.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &entity.Folder{Id: uuid.New(), Name: name, CreatedAt: time.Now()}
	s.folders[f.Id] = f
	return f
}

type fakeUow struct {
	s  *store
	tx bool
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.tx {
		return errors.New("transaction already started")
	}
	u.tx = true
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.tx {
		return errors.New("no transaction to commit")
	}
	u.tx = false
	u.s.commits++
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.tx {
		return errors.New("no transaction to rollback")
	}
	u.tx = false
	return nil
}

func (u *fakeUow) FolderRepository() contract.FolderRepository         { return folderRepo{u.s} }
func (u *fakeUow) NoteRepository() contract.NoteRepository             { return noteRepo{u.s} }
func (u *fakeUow) ReflectionRepository() contract.ReflectionRepository { return reflectionRepo{u.s} }
func (u *fakeUow) MetricRepository() contract.MetricRepository         { return metricRepo{u.s} }

type folderRepo struct{ s *store }

func (r folderRepo) Create(ctx context.Context, f *entity.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.folders {
		if existing.Name == f.Name {
			return contract.ErrDuplicate
		}
	}
	cp := *f
	r.s.folders[f.Id] = &cp
	return nil
}

func (r folderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.folders, id)
	return nil
}

func (r folderRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Folder, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r folderRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Folder
	for _, f := range r.s.folders {
		if matchFolder(f, specs) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchFolder(f *entity.Folder, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if f.Id != s.ID {
				return false
			}
		case specification.ByName:
			if f.Name != s.Name {
				return false
			}
		}
	}
	return true
}

type noteRepo struct{ s *store }

func (r noteRepo) Create(ctx context.Context, n *entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	n.UpdatedAt = &now
	cp := *n
	r.s.notes[n.Id] = &cp
	return nil
}

func (r noteRepo) Update(ctx context.Context, n *entity.Note) error {
	return r.Create(ctx, n)
}

func (r noteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.notes, id)
	return nil
}

func (r noteRepo) DetachFolder(ctx context.Context, folderId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notes {
		if n.FolderId != nil && *n.FolderId == folderId {
			n.FolderId = nil
		}
	}
	return nil
}

func (r noteRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r noteRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.s.notes {
		if matchNote(n, specs) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(*out[j].UpdatedAt) })
	return out, nil
}

func matchNote(n *entity.Note, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if n.Id != s.ID {
				return false
			}
		case specification.ByFolderID:
			if n.FolderId == nil || *n.FolderId != s.FolderID {
				return false
			}
		}
	}
	return true
}

type reflectionRepo struct{ s *store }

func (r reflectionRepo) Create(ctx context.Context, ref *entity.Reflection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *ref
	r.s.reflections = append(r.s.reflections, &cp)
	return nil
}

func (r reflectionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reflection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reflection
	for _, ref := range r.s.reflections {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByNoteID); ok && ref.NoteId != s.NoteID {
				keep = false
			}
		}
		if keep {
			out = append(out, ref)
		}
	}
	return out, nil
}

type metricRepo struct{ s *store }

func (r metricRepo) Increment(ctx context.Context, event string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.metrics[event]++
	return nil
}

func (r metricRepo) FindAll(ctx context.Context) ([]*entity.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Metric, 0, len(r.s.metrics))
	for k, v := range r.s.metrics {
		out = append(out, &entity.Metric{Event: k, Count: v})
	}
	return out, nil
}

type emitted struct {
	Type string
	Data map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []emitted
}

func (p *recordingPublisher) Emit(ctx context.Context, eventType string, data map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, emitted{eventType, data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// stubProvider scripts the LLM. Streams are keyed by the requested model;
// "" is the primary.
type stubProvider struct {
	chatText string
	chatErr  error
	streams  map[string][]llm.StreamDelta
	openErrs map[string]error
	models   []string
	prompts  []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	for _, m := range history {
		p.prompts = append(p.prompts, m.Content)
	}
	return p.chatText, p.chatErr
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.chatText, p.chatErr
}

func (p *stubProvider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.StreamDelta, error) {
	model := llm.Apply(llm.Options{}, options...).Model
	p.models = append(p.models, model)
	if err := p.openErrs[model]; err != nil {
		return nil, err
	}
	deltas := p.streams[model]
	ch := make(chan llm.StreamDelta, len(deltas))
	for _, d := range deltas {
		ch <- d
	}
	close(ch)
	return ch, nil
}
