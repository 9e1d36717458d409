package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	LoginID      string             `bson:"loginId"`
	Role         string             `bson:"role"`
	RefID        string             `bson:"refId"`
	IsActive     bool               `bson:"isActive"`
	PasswordHash []byte             `bson:"passwordHash"`
	LastLogin    time.Time          `bson:"lastLogin"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{
		ID:           objectID(usr.ID),
		Name:         usr.Name,
		LoginID:      usr.LoginID,
		Role:         usr.Role,
		RefID:        usr.RefID,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		LastLogin:    usr.LastLogin,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		LoginID:      d.LoginID,
		Role:         d.Role,
		RefID:        d.RefID,
		IsActive:     d.IsActive,
		PasswordHash: d.PasswordHash,
		LastLogin:    d.LastLogin.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database, conf *core.Config) user.Repository {
	return &userRepository{repo: newRepo(db, UsersColl, conf)}
}

func (r *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newUserDoc(usr)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if dupKey(err) != "" {
			return user.User{}, user.ErrLoginIDExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return doc.toUser(), nil
}

func (r *userRepository) Get(ctx context.Context, id string) (user.User, error) {
	var doc userDoc
	if err := r.findOne(ctx, bson.M{"_id": objectID(id)}, &doc, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return doc.toUser(), nil
}

func (r *userRepository) GetByLoginID(ctx context.Context, loginID string) (user.User, error) {
	var doc userDoc
	if err := r.findOne(ctx, bson.M{"loginId": loginID}, &doc, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return doc.toUser(), nil
}

func (r *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := newUserDoc(usr)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if dupKey(err) != "" {
			return user.User{}, user.ErrLoginIDExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return doc.toUser(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": objectID(id)})
	return errors.Wrap(err, "deleting user")
}
