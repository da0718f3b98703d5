package mongo

import (
	"context"
	"errors"
	"time"

	"scribes/internal/services/reminders"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// RemindersRepo implements reminders.Repository on MongoDB.
type RemindersRepo struct {
	coll *mongo.Collection
}

var soonestFirst = bson.D{{Key: "scheduled_at", Value: 1}, {Key: "_id", Value: 1}}

func translateReminderErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return reminders.ErrReminderNotFound
	case mongo.IsDuplicateKeyError(err):
		return reminders.ErrDuplicate
	}
	return err
}

// NewRemindersRepo creates the repository and its indexes. The unique
// (note_id, scheduled_at) index backs the duplicate check.
func NewRemindersRepo(ctx context.Context, store *Store) (*RemindersRepo, error) {
	r := &RemindersRepo{coll: store.DB().Collection(remindersCollection)}

	err := ensureIndexes(ctx, r.coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "note_id", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("note_scheduled_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("status_scheduled"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("user_scheduled"),
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RemindersRepo) find(ctx context.Context, filter any, opts *options.FindOptionsBuilder) ([]*reminders.Reminder, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts.SetSort(soonestFirst))
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cur)

	var recs []reminderRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	out := make([]*reminders.Reminder, len(recs))
	for i, rec := range recs {
		out[i] = reminderFromRecord(rec)
	}
	return out, nil
}

func (r *RemindersRepo) findOneAndSet(ctx context.Context, filter bson.M, set bson.M) (*reminders.Reminder, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec reminderRecord
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&rec); err != nil {
		return nil, translateReminderErr(err)
	}
	return reminderFromRecord(rec), nil
}

// Create inserts rem.
func (r *RemindersRepo) Create(ctx context.Context, rem *reminders.Reminder) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if rem.ID.IsZero() {
		rem.ID = bson.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, reminderToRecord(rem))
	return translateReminderErr(err)
}

// Get returns the reminder when it belongs to userID.
func (r *RemindersRepo) Get(ctx context.Context, userID, id bson.ObjectID) (*reminders.Reminder, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var rec reminderRecord
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&rec); err != nil {
		return nil, translateReminderErr(err)
	}
	return reminderFromRecord(rec), nil
}

func statusFilter(userID bson.ObjectID, status reminders.Status) bson.M {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = string(status)
	}
	return filter
}

// List pages through the user's reminders, soonest first.
func (r *RemindersRepo) List(ctx context.Context, userID bson.ObjectID, f reminders.ListFilter) ([]*reminders.Reminder, error) {
	opts := options.Find().SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return r.find(ctx, statusFilter(userID, f.Status), opts)
}

// Count returns how many reminders match status, or all when status is empty.
func (r *RemindersRepo) Count(ctx context.Context, userID bson.ObjectID, status reminders.Status) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return r.coll.CountDocuments(ctx, statusFilter(userID, status))
}

// ListByNote returns every reminder of one note.
func (r *RemindersRepo) ListByNote(ctx context.Context, userID, noteID bson.ObjectID) ([]*reminders.Reminder, error) {
	return r.find(ctx, bson.M{"user_id": userID, "note_id": noteID}, options.Find())
}

// ExistsAt reports whether the note already has a reminder at exactly at,
// whatever its status.
func (r *RemindersRepo) ExistsAt(ctx context.Context, noteID bson.ObjectID, at time.Time) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"note_id": noteID, "scheduled_at": at.UTC()},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateSchedule moves a pending reminder to at.
func (r *RemindersRepo) UpdateSchedule(ctx context.Context, userID, id bson.ObjectID, at, now time.Time) (*reminders.Reminder, error) {
	return r.findOneAndSet(ctx,
		bson.M{"_id": id, "user_id": userID, "status": string(reminders.StatusPending)},
		bson.M{"scheduled_at": at.UTC(), "updated_at": now.UTC()})
}

// Cancel marks a pending reminder cancelled.
func (r *RemindersRepo) Cancel(ctx context.Context, userID, id bson.ObjectID, now time.Time) (*reminders.Reminder, error) {
	return r.findOneAndSet(ctx,
		bson.M{"_id": id, "user_id": userID, "status": string(reminders.StatusPending)},
		bson.M{"status": string(reminders.StatusCancelled), "updated_at": now.UTC()})
}

// Delete removes a reminder that has not been sent.
func (r *RemindersRepo) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{
		"_id":     id,
		"user_id": userID,
		"status":  bson.M{"$ne": string(reminders.StatusSent)},
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return reminders.ErrReminderNotFound
	}
	return nil
}

// ListUpcoming returns pending reminders scheduled after now.
func (r *RemindersRepo) ListUpcoming(ctx context.Context, userID bson.ObjectID, now time.Time, limit int) ([]*reminders.Reminder, error) {
	filter := bson.M{
		"user_id":      userID,
		"status":       string(reminders.StatusPending),
		"scheduled_at": bson.M{"$gt": now.UTC()},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

// ListOverdue returns pending reminders of any user that are due at now.
func (r *RemindersRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*reminders.Reminder, error) {
	filter := bson.M{
		"status":       string(reminders.StatusPending),
		"scheduled_at": bson.M{"$lte": now.UTC()},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

// TransitionPending sets status to on the pending reminders among ids.
func (r *RemindersRepo) TransitionPending(ctx context.Context, owner *bson.ObjectID, ids []bson.ObjectID, to reminders.Status, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{
		"_id":    bson.M{"$in": ids},
		"status": string(reminders.StatusPending),
	}
	if owner != nil {
		filter["user_id"] = *owner
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"status":     string(to),
		"updated_at": now.UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountByStatus groups the user's reminders by status.
func (r *RemindersRepo) CountByStatus(ctx context.Context, userID bson.ObjectID) (map[reminders.Status]int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cur)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[reminders.Status]int64, len(rows))
	for _, row := range rows {
		out[reminders.Status(row.Status)] = row.Count
	}
	return out, nil
}

// CountUpcoming counts pending reminders scheduled after now.
func (r *RemindersRepo) CountUpcoming(ctx context.Context, userID bson.ObjectID, now time.Time) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{
		"user_id":      userID,
		"status":       string(reminders.StatusPending),
		"scheduled_at": bson.M{"$gt": now.UTC()},
	})
}
