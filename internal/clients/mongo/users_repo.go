package mongo

import (
	"context"
	"errors"
	"time"

	"scribes/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersRepo stores accounts keyed by a unique email.
type UsersRepo struct {
	store     *Store
	users     *mongo.Collection
	notes     *mongo.Collection
	reminders *mongo.Collection
}

// NewUsersRepo creates the repository and its unique email index.
func NewUsersRepo(ctx context.Context, store *Store) (*UsersRepo, error) {
	r := &UsersRepo{
		store:     store,
		users:     store.DB().Collection(usersCollection),
		notes:     store.DB().Collection(notesCollection),
		reminders: store.DB().Collection(remindersCollection),
	}
	err := ensureIndexes(ctx, r.users, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create inserts u, assigning an id when it has none. A taken email is
// auth.ErrDuplicate.
func (r *UsersRepo) Create(ctx context.Context, u *auth.User) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if _, err := r.users.InsertOne(ctx, userToRecord(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByEmail expects email to be normalized already.
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID returns the account with the given id.
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var rec userRecord
	err := r.users.FindOne(ctx, filter).Decode(&rec)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, auth.ErrUserNotFound
	case err != nil:
		return nil, err
	}
	return userFromRecord(rec), nil
}

// UpdatePassword stores a new password hash.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id bson.ObjectID, hash string, at time.Time) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    at,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// DeleteAccount removes the user, their notes and their reminders. Replica
// sets do it in one transaction. Stand-alone servers delete the account last
// so a failed run can be repeated, then sweep data written meanwhile.
func (r *UsersRepo) DeleteAccount(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if err := r.store.RunAtomic(ctx, func(ctx context.Context) error {
		return r.deleteAccount(ctx, id)
	}); err != nil {
		return err
	}
	if r.store.SupportsTransactions() {
		return nil
	}
	return r.deleteOwned(ctx, id)
}

func (r *UsersRepo) deleteAccount(ctx context.Context, id bson.ObjectID) error {
	if err := r.deleteOwned(ctx, id); err != nil {
		return err
	}
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UsersRepo) deleteOwned(ctx context.Context, id bson.ObjectID) error {
	owned := bson.M{"user_id": id}
	if _, err := r.reminders.DeleteMany(ctx, owned); err != nil {
		return err
	}
	_, err := r.notes.DeleteMany(ctx, owned)
	return err
}
