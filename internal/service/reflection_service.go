package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/pkg/serverutils"
	"ai-notes-reflect/internal/repository/specification"
	"ai-notes-reflect/internal/repository/unitofwork"
	"ai-notes-reflect/pkg/events"
	"ai-notes-reflect/pkg/lexical"
	"ai-notes-reflect/pkg/llm"
	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/projector"
	"ai-notes-reflect/pkg/reflection/prompt"

	"github.com/google/uuid"
)

const (
	reflectionModule = "ReflectionService"

	SourceClassic = "classic"
	SourceStream  = "stream"

	errInvalidJSON = "invalid_json"
)

// StreamEmitter writes one SSE frame. An error means the client is gone.
type StreamEmitter func(ev dto.StreamEvent) error

// StreamRunner produces the frames of one streamed reflection.
type StreamRunner func(ctx context.Context, emit StreamEmitter) error

type IReflectionService interface {
	Reflect(ctx context.Context, req *dto.ReflectRequest) (*dto.ReflectionResponse, error)
	ListByNote(ctx context.Context, noteId uuid.UUID) ([]*dto.ReflectionResponse, error)
	// OpenStream validates the request up front so a missing note is a
	// plain HTTP error rather than a broken stream.
	OpenStream(ctx context.Context, req *dto.StreamReflectionRequest) (StreamRunner, error)
}

type ReflectionSettings struct {
	Temperature   float64
	FallbackModel string
}

type reflectionService struct {
	uowFactory     unitofwork.RepositoryFactory
	provider       llm.LLMProvider
	eventPublisher IEventPublisher
	settings       ReflectionSettings
	logger         logger.ILogger
}

func NewReflectionService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	eventPublisher IEventPublisher,
	settings ReflectionSettings,
	log logger.ILogger,
) IReflectionService {
	return &reflectionService{
		uowFactory:     uowFactory,
		provider:       provider,
		eventPublisher: eventPublisher,
		settings:       settings,
		logger:         log,
	}
}

func (s *reflectionService) Reflect(ctx context.Context, req *dto.ReflectRequest) (*dto.ReflectionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := findNote(ctx, uow, req.NoteId)
	if err != nil {
		return nil, err
	}

	mode := reflection.ParseMode(req.Mode)
	text, err := s.provider.Chat(ctx, s.messages(note.Content, mode), llm.WithTemperature(s.settings.Temperature), llm.WithJSON())
	if err != nil {
		s.logger.Error(reflectionModule, "Generation failed", map[string]interface{}{"note_id": note.Id, "error": err.Error()})
		return nil, serverutils.BadGateway("Reflection generation failed: %v", err)
	}

	result, err := reflection.ParseExact(projector.StripFences(text))
	if err != nil {
		s.logger.Warn(reflectionModule, "Model returned invalid JSON", map[string]interface{}{"note_id": note.Id, "length": len(text)})
		return nil, serverutils.BadGateway("Model returned invalid JSON")
	}

	saved, err := s.persist(ctx, uow, note.Id, mode, result, SourceClassic)
	if err != nil {
		return nil, err
	}
	return toReflectionResponse(saved), nil
}

func (s *reflectionService) ListByNote(ctx context.Context, noteId uuid.UUID) ([]*dto.ReflectionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findNote(ctx, uow, noteId); err != nil {
		return nil, err
	}

	rows, err := uow.ReflectionRepository().FindAll(ctx,
		specification.ByNoteID{NoteID: noteId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ReflectionResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, toReflectionResponse(r))
	}
	return result, nil
}

func (s *reflectionService) OpenStream(ctx context.Context, req *dto.StreamReflectionRequest) (StreamRunner, error) {
	note, err := findNote(ctx, s.uowFactory.NewUnitOfWork(ctx), req.NoteId)
	if err != nil {
		return nil, err
	}

	mode := reflection.ParseMode(req.Mode)
	history := s.messages(note.Content, mode)

	return func(ctx context.Context, emit StreamEmitter) error {
		done, err := s.stream(ctx, history, emit)
		if err != nil {
			return err
		}
		if done.Parsed != nil {
			uow := s.uowFactory.NewUnitOfWork(ctx)
			if _, err := s.persist(ctx, uow, note.Id, mode, done.Parsed, SourceStream); err != nil {
				// the client already has its result
				s.logger.Error(reflectionModule, "Failed to persist streamed reflection", map[string]interface{}{"note_id": note.Id, "error": err.Error()})
			}
		}
		return nil
	}, nil
}

// stream tries the primary model first and the fallback model when the
// primary stream cannot be opened. It always ends with a done frame unless
// emit fails.
func (s *reflectionService) stream(ctx context.Context, history []llm.Message, emit StreamEmitter) (dto.StreamEvent, error) {
	opts := []llm.Option{llm.WithTemperature(s.settings.Temperature)}

	deltas, primaryErr := s.provider.ChatStream(ctx, history, opts...)
	if primaryErr == nil {
		return s.relay(deltas, emit)
	}
	s.logger.Warn(reflectionModule, "Primary stream failed", map[string]interface{}{"error": primaryErr.Error()})

	if s.settings.FallbackModel == "" {
		return s.finish(emit, dto.StreamEvent{Error: fmt.Sprintf("primary_stream_failed: %v", primaryErr)})
	}

	deltas, fallbackErr := s.provider.ChatStream(ctx, history, append(opts, llm.WithModel(s.settings.FallbackModel))...)
	if fallbackErr != nil {
		s.logger.Error(reflectionModule, "Fallback stream failed", map[string]interface{}{"error": fallbackErr.Error()})
		return s.finish(emit, dto.StreamEvent{
			Error: fmt.Sprintf("primary_stream_failed: %v; fallback_stream_failed: %v", primaryErr, fallbackErr),
		})
	}
	return s.relay(deltas, emit)
}

func (s *reflectionService) relay(deltas <-chan llm.StreamDelta, emit StreamEmitter) (dto.StreamEvent, error) {
	var full strings.Builder
	for d := range deltas {
		if d.Content != "" {
			full.WriteString(d.Content)
			if err := emit(dto.StreamEvent{Type: "chunk", Delta: d.Content}); err != nil {
				return dto.StreamEvent{}, err
			}
		}
		if d.Err != nil {
			return s.finish(emit, dto.StreamEvent{FullText: full.String(), Error: d.Err.Error()})
		}
		if d.Done {
			break
		}
	}

	text := strings.TrimSpace(full.String())
	parsed, err := reflection.ParseExact(projector.StripFences(text))
	if err != nil {
		return s.finish(emit, dto.StreamEvent{FullText: text, Error: errInvalidJSON})
	}
	return s.finish(emit, dto.StreamEvent{FullText: text, Parsed: parsed})
}

func (s *reflectionService) finish(emit StreamEmitter, done dto.StreamEvent) (dto.StreamEvent, error) {
	done.Type = "done"
	return done, emit(done)
}

// messages builds the prompt from the note text. Rich text notes are flattened
// first so the model never sees editor JSON.
func (s *reflectionService) messages(noteText string, mode reflection.Mode) []llm.Message {
	return []llm.Message{{Role: "user", Content: prompt.Build(lexical.PlainText(noteText), mode)}}
}

func (s *reflectionService) persist(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	noteId uuid.UUID,
	mode reflection.Mode,
	result reflection.Result,
	source string,
) (*entity.Reflection, error) {
	r := entity.Reflection{
		Id:        uuid.New(),
		NoteId:    noteId,
		Mode:      mode.String(),
		Result:    result,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := uow.ReflectionRepository().Create(ctx, &r); err != nil {
		return nil, err
	}

	s.eventPublisher.Emit(ctx, events.ReflectionCompleted, map[string]interface{}{
		"reflection_id": r.Id,
		"note_id":       noteId,
		"mode":          r.Mode,
		"source":        source,
	})
	return &r, nil
}

func toReflectionResponse(r *entity.Reflection) *dto.ReflectionResponse {
	return &dto.ReflectionResponse{
		Id:         r.Id,
		NoteId:     r.NoteId,
		Mode:       r.Mode,
		ResultJson: r.Result,
		CreatedAt:  r.CreatedAt,
	}
}
