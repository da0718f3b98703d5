package notes

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository is the store-facing side of the notes domain. Every method is
// scoped by userID; lists are ordered by updated_at descending.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	Get(ctx context.Context, userID, noteID bson.ObjectID) (*Note, error)
	ListAll(ctx context.Context, userID bson.ObjectID) ([]*Note, error)
	Search(ctx context.Context, userID bson.ObjectID, query string) ([]*Note, error)
	ListByTag(ctx context.Context, userID bson.ObjectID, tag string) ([]*Note, error)
	Recent(ctx context.Context, userID bson.ObjectID, limit int) ([]*Note, error)
	Count(ctx context.Context, userID bson.ObjectID) (int64, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, patch Patch) (*Note, error)
	// Delete removes the note and every reminder that references it.
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// Bus fans note changes out to the user's other sessions.
type Bus interface {
	Broadcast(ctx context.Context, ev NoteEvent)
}
