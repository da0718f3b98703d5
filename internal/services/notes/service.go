package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"scribes/internal/apperr"
	"scribes/internal/utils/sanitize"
	"scribes/internal/utils/validate"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultSearchMinQueryLen is used when Options leaves the minimum unset.
const DefaultSearchMinQueryLen = 2

const (
	maxSearchQueryLen = 256
	defaultRecent     = 5
	maxRecent         = 50
)

// Options tune the service boundary.
type Options struct {
	// SearchMinQueryLen is the minimum trimmed query length in runes.
	// A blank query always falls back to the full list.
	SearchMinQueryLen int
	Now               func() time.Time
}

// Service is the validation boundary in front of the notes repository.
type Service struct {
	repo     Repository
	bus      Bus
	log      *slog.Logger
	validate *validator.Validate
	minQuery int
	now      func() time.Time
}

// NewService creates a new notes service. bus may be nil.
func NewService(repo Repository, bus Bus, log *slog.Logger, opts Options) *Service {
	if opts.SearchMinQueryLen <= 0 {
		opts.SearchMinQueryLen = DefaultSearchMinQueryLen
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:     repo,
		bus:      bus,
		log:      log,
		validate: validate.New(),
		minQuery: opts.SearchMinQueryLen,
		now:      opts.Now,
	}
}

type originKey struct{}

// WithOrigin tags ctx with the session that issues a mutation so the session
// can skip its own change events.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

func originFrom(ctx context.Context) string {
	s, _ := ctx.Value(originKey{}).(string)
	return s
}

// NormalizeQuery trims a search query the same way Search does.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// MinQueryLen returns the configured search minimum.
func (s *Service) MinQueryLen() int { return s.minQuery }

// List returns every note of the user, newest first.
func (s *Service) List(ctx context.Context, userID bson.ObjectID) ([]*Note, error) {
	list, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		s.log.Error(msgListNotes, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListNotes, err)
	}
	return list, nil
}

// Get returns a single note owned by the user.
func (s *Service) Get(ctx context.Context, userID, noteID bson.ObjectID) (*Note, error) {
	n, err := s.repo.Get(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Info("note not found", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(msgGetNote, "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, apperr.Store(msgGetNote, err)
	}
	return n, nil
}

// Search matches query against title, content, tags and scripture refs.
// A blank query is the same as List.
func (s *Service) Search(ctx context.Context, userID bson.ObjectID, query string) ([]*Note, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return s.List(ctx, userID)
	}
	n := utf8.RuneCountInString(q)
	if n < s.minQuery {
		return nil, apperr.Invalid("search query must be at least %d characters", s.minQuery)
	}
	if n > maxSearchQueryLen {
		return nil, apperr.Invalid("search query must be at most %d characters", maxSearchQueryLen)
	}

	list, err := s.repo.Search(ctx, userID, q)
	if err != nil {
		s.log.Error(msgListNotes, "error", err, "user_id", userID.Hex(), "query", q)
		return nil, apperr.Store(msgListNotes, err)
	}
	return list, nil
}

// ListByTag returns notes with a tag containing tag.
func (s *Service) ListByTag(ctx context.Context, userID bson.ObjectID, tag string) ([]*Note, error) {
	t := strings.TrimSpace(tag)
	if t == "" {
		return nil, apperr.Invalid("tag is required")
	}

	list, err := s.repo.ListByTag(ctx, userID, t)
	if err != nil {
		s.log.Error(msgListNotes, "error", err, "user_id", userID.Hex(), "tag", t)
		return nil, apperr.Store(msgListNotes, err)
	}
	return list, nil
}

// Recent returns the most recently updated notes. limit 0 means the default.
func (s *Service) Recent(ctx context.Context, userID bson.ObjectID, limit int) ([]*Note, error) {
	if limit == 0 {
		limit = defaultRecent
	}
	if limit < 1 || limit > maxRecent {
		return nil, apperr.Invalid("limit must be between 1 and %d", maxRecent)
	}

	list, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		s.log.Error(msgListNotes, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListNotes, err)
	}
	return list, nil
}

// Count returns how many notes the user has.
func (s *Service) Count(ctx context.Context, userID bson.ObjectID) (int64, error) {
	n, err := s.repo.Count(ctx, userID)
	if err != nil {
		s.log.Error(msgListNotes, "error", err, "user_id", userID.Hex())
		return 0, apperr.Store(msgListNotes, err)
	}
	return n, nil
}

// Create trims and validates draft, then stores it. Text is kept as written
// apart from surrounding whitespace.
func (s *Service) Create(ctx context.Context, userID bson.ObjectID, draft Draft) (*Note, error) {
	d := cleanDraft(draft)
	if err := validate.Struct(ctx, s.validate, d); err != nil {
		return nil, err
	}

	now := Timestamp(s.now())
	note := &Note{
		ID:            bson.NewObjectID(),
		UserID:        userID,
		Title:         d.Title,
		Content:       d.Content,
		Preacher:      d.Preacher,
		Tags:          d.Tags,
		ScriptureRefs: d.ScriptureRefs,
		Summary:       d.Summary,
		Private:       d.Private,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if d.ReminderAt != nil {
		t := Timestamp(*d.ReminderAt)
		note.ReminderAt = &t
	}

	if err := s.repo.Create(ctx, note); err != nil {
		s.log.Error(msgCreateNote, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgCreateNote, err)
	}

	s.publish(ctx, "created", userID, note.ID)
	return note, nil
}

// Update applies the provided fields of patch to a note owned by the user.
func (s *Service) Update(ctx context.Context, userID, noteID bson.ObjectID, patch Patch) (*Note, error) {
	p := cleanPatch(patch)
	if err := validate.Struct(ctx, s.validate, p); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, userID, noteID, p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Info("note not found for update", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(msgUpdateNote, "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, apperr.Store(msgUpdateNote, err)
	}

	if !p.IsEmpty() {
		s.publish(ctx, "updated", userID, noteID)
	}
	return updated, nil
}

// Delete removes a note and its reminders.
func (s *Service) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Info("note not found for delete", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return ErrNoteNotFound
		}
		s.log.Error(msgDeleteNote, "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return apperr.Store(msgDeleteNote, err)
	}

	s.publish(ctx, "deleted", userID, noteID)
	return nil
}

func (s *Service) publish(ctx context.Context, typ string, userID, noteID bson.ObjectID) {
	if s.bus == nil {
		return
	}
	s.bus.Broadcast(ctx, NoteEvent{Type: typ, UserID: userID, NoteID: noteID, Origin: originFrom(ctx)})
}

func cleanDraft(d Draft) Draft {
	d.Title = sanitize.Trim(d.Title)
	d.Content = sanitize.Trim(d.Content)
	d.Preacher = sanitize.Trim(d.Preacher)
	d.Tags = sanitize.TrimList(d.Tags)
	d.ScriptureRefs = sanitize.TrimList(d.ScriptureRefs)
	d.Summary = sanitize.TrimPtr(d.Summary)
	return d
}

func cleanPatch(p Patch) Patch {
	p.Title = sanitize.TrimPtr(p.Title)
	p.Content = sanitize.TrimPtr(p.Content)
	p.Preacher = sanitize.TrimPtr(p.Preacher)
	p.Summary = sanitize.TrimPtr(p.Summary)
	if p.Tags != nil {
		tags := sanitize.TrimList(*p.Tags)
		p.Tags = &tags
	}
	if p.ScriptureRefs != nil {
		refs := sanitize.TrimList(*p.ScriptureRefs)
		p.ScriptureRefs = &refs
	}
	if p.ReminderAt != nil {
		t := Timestamp(*p.ReminderAt)
		p.ReminderAt = &t
	}
	return p
}
