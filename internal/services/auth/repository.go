package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo defines the interface for user repository operations
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	UpdatePassword(ctx context.Context, id bson.ObjectID, hash string, at time.Time) error
	// DeleteAccount removes the user together with every note and reminder
	// the user owns.
	DeleteAccount(ctx context.Context, id bson.ObjectID) error
}
