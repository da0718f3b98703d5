package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"scribes/internal/logger"
	"scribes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// noteDeleter is the single-note delete used by Delete.
type noteDeleter interface {
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

// NotesRepo implements notes.Repository on MongoDB.
type NotesRepo struct {
	store     *Store
	notes     *mongo.Collection
	reminders *mongo.Collection
	deleter   noteDeleter
	now       func() time.Time
}

// newestFirst is the list order of every notes query.
var newestFirst = bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}

// translateNotFound maps the driver ErrNoDocuments to notes.ErrNoteNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notes.ErrNoteNotFound
	}
	return err
}

// NewNotesRepo creates the repository and its indexes.
func NewNotesRepo(ctx context.Context, store *Store) (*NotesRepo, error) {
	r := &NotesRepo{
		store:     store,
		notes:     store.DB().Collection(notesCollection),
		reminders: store.DB().Collection(remindersCollection),
		now:       time.Now,
	}
	r.deleter = r.notes

	err := ensureIndexes(ctx, r.notes, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("user_updated_desc"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tags", Value: 1}},
			Options: options.Index().SetName("user_tags"),
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NotesRepo) find(ctx context.Context, filter any, opts *options.FindOptionsBuilder) ([]*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	cur, err := r.notes.Find(ctx, filter, opts.SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cur)

	var recs []noteRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	out := make([]*notes.Note, len(recs))
	for i, rec := range recs {
		out[i] = noteFromRecord(rec)
	}
	return out, nil
}

// containsFold matches values containing q, ignoring case.
func containsFold(q string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

// ListAll returns every note of the user, newest first.
func (r *NotesRepo) ListAll(ctx context.Context, userID bson.ObjectID) ([]*notes.Note, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find())
}

// Recent returns the limit most recently updated notes.
func (r *NotesRepo) Recent(ctx context.Context, userID bson.ObjectID, limit int) ([]*notes.Note, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find().SetLimit(int64(limit)))
}

// Search matches query case-insensitively as a substring of the title,
// content, any tag or any scripture reference.
func (r *NotesRepo) Search(ctx context.Context, userID bson.ObjectID, query string) ([]*notes.Note, error) {
	re := containsFold(query)
	filter := bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"tags": re},
			bson.M{"scripture_refs": re},
		},
	}
	return r.find(ctx, filter, options.Find())
}

// ListByTag returns notes with at least one tag containing tag.
func (r *NotesRepo) ListByTag(ctx context.Context, userID bson.ObjectID, tag string) ([]*notes.Note, error) {
	return r.find(ctx, bson.M{"user_id": userID, "tags": containsFold(tag)}, options.Find())
}

// Count returns how many notes the user has.
func (r *NotesRepo) Count(ctx context.Context, userID bson.ObjectID) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return r.notes.CountDocuments(ctx, bson.M{"user_id": userID})
}

// Get returns a note only when it belongs to userID.
func (r *NotesRepo) Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var rec noteRecord
	if err := r.notes.FindOne(ctx, bson.M{"_id": noteID, "user_id": userID}).Decode(&rec); err != nil {
		return nil, translateNotFound(err)
	}
	return noteFromRecord(rec), nil
}

// Create stores n, filling in the id and timestamps when they are missing.
func (r *NotesRepo) Create(ctx context.Context, n *notes.Note) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = notes.Timestamp(r.now())
	}
	if n.UpdatedAt.IsZero() || n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}

	_, err := r.notes.InsertOne(ctx, noteToRecord(n))
	return err
}

// Update sets only the fields present in patch. updated_at becomes
// max(now, previous+1ms) so it strictly increases even on clock skew.
// An empty patch returns the note unchanged.
func (r *NotesRepo) Update(ctx context.Context, userID, noteID bson.ObjectID, patch notes.Patch) (*notes.Note, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, userID, noteID)
	}

	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set := bson.D{}
	lit := func(field string, v any) {
		set = append(set, bson.E{Key: field, Value: bson.M{"$literal": v}})
	}
	if patch.Title != nil {
		lit("title", *patch.Title)
	}
	if patch.Content != nil {
		lit("content", *patch.Content)
	}
	if patch.Preacher != nil {
		lit("preacher", *patch.Preacher)
	}
	if patch.Tags != nil {
		lit("tags", nonNil(*patch.Tags))
	}
	if patch.ScriptureRefs != nil {
		lit("scripture_refs", nonNil(*patch.ScriptureRefs))
	}
	if patch.Summary != nil {
		lit("summary", *patch.Summary)
	}
	if patch.ReminderAt != nil {
		lit("reminder_at", patch.ReminderAt.UTC())
	}
	if patch.Private != nil {
		lit("private", *patch.Private)
	}
	if patch.ClearSummary {
		set = append(set, bson.E{Key: "summary", Value: "$$REMOVE"})
	}
	if patch.ClearReminderAt {
		set = append(set, bson.E{Key: "reminder_at", Value: "$$REMOVE"})
	}
	set = append(set, bson.E{Key: "updated_at", Value: bson.M{
		"$max": bson.A{notes.Timestamp(r.now()), bson.M{"$add": bson.A{"$updated_at", 1}}},
	}})

	filter := bson.M{"_id": noteID, "user_id": userID}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec noteRecord
	if err := r.notes.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&rec); err != nil {
		return nil, translateNotFound(err)
	}
	return noteFromRecord(rec), nil
}

// Delete removes the note and its reminders as one unit. Replica sets use a
// transaction; stand-alone servers delete the reminders first and put them
// back if the note delete fails. Reminders that reach the note while it is
// being deleted are swept once the note is gone.
func (r *NotesRepo) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if r.store.SupportsTransactions() {
		return r.store.RunAtomic(ctx, func(ctx context.Context) error {
			return r.deleteCascade(ctx, userID, noteID)
		})
	}
	return r.deleteCompensated(ctx, userID, noteID)
}

func (r *NotesRepo) deleteCascade(ctx context.Context, userID, noteID bson.ObjectID) error {
	if _, err := r.reminders.DeleteMany(ctx, bson.M{"note_id": noteID, "user_id": userID}); err != nil {
		return err
	}
	res, err := r.deleter.DeleteOne(ctx, bson.M{"_id": noteID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notes.ErrNoteNotFound
	}
	return r.sweepOrphans(ctx, userID, noteID)
}

// sweepOrphans drops reminders of a note that no longer exists.
func (r *NotesRepo) sweepOrphans(ctx context.Context, userID, noteID bson.ObjectID) error {
	res, err := r.reminders.DeleteMany(ctx, bson.M{"note_id": noteID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		logger.L().Info("removed reminders created during note delete",
			"note_id", noteID.Hex(), "count", res.DeletedCount)
	}
	return nil
}

func (r *NotesRepo) deleteCompensated(ctx context.Context, userID, noteID bson.ObjectID) error {
	owned := bson.M{"_id": noteID, "user_id": userID}
	if err := r.notes.FindOne(ctx, owned, options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		return translateNotFound(err)
	}

	cur, err := r.reminders.Find(ctx, bson.M{"note_id": noteID, "user_id": userID})
	if err != nil {
		return err
	}
	var saved []reminderRecord
	err = cur.All(ctx, &saved)
	closeCursor(ctx, cur)
	if err != nil {
		return err
	}

	if len(saved) > 0 {
		ids := make(bson.A, len(saved))
		for i, s := range saved {
			ids[i] = s.ID
		}
		if _, err := r.reminders.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return err
		}
	}

	res, err := r.deleter.DeleteOne(ctx, owned)
	if err == nil && res.DeletedCount == 1 {
		if serr := r.sweepOrphans(ctx, userID, noteID); serr != nil {
			logger.L().Error("failed to sweep reminders after note delete",
				"error", serr, "note_id", noteID.Hex())
		}
		return nil
	}
	if err == nil {
		err = notes.ErrNoteNotFound
	}

	if len(saved) > 0 {
		docs := make([]any, len(saved))
		for i := range saved {
			docs[i] = saved[i]
		}
		restoreCtx, cancel := repoCtx(context.WithoutCancel(ctx))
		defer cancel()
		if _, rerr := r.reminders.InsertMany(restoreCtx, docs, options.InsertMany().SetOrdered(false)); rerr != nil {
			logger.L().Error("failed to restore reminders after note delete failure",
				"error", rerr, "note_id", noteID.Hex(), "count", len(saved))
		}
	}
	return err
}
