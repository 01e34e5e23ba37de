package mongo

import (
	"context"
	"time"

	"github.com/loanlink/backend/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email"`
	Name          string             `bson:"name"`
	PhotoURL      string             `bson:"photoURL"`
	Role          string             `bson:"role"`
	Status        string             `bson:"status"`
	Suspended     bool               `bson:"suspended"`
	SuspendReason string             `bson:"suspendReason,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d userDoc) entity() user.Entity {
	return user.Entity{
		ID:            d.ID.Hex(),
		Email:         d.Email,
		Name:          d.Name,
		PhotoURL:      d.PhotoURL,
		Role:          user.Role(d.Role),
		Status:        d.Status,
		Suspended:     d.Suspended,
		SuspendReason: d.SuspendReason,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), now: func() time.Time { return time.Now().UTC() }}
}

func (r *UserRepository) Create(ctx context.Context, in user.Entity) (*user.Entity, error) {
	doc := userDoc{
		Email:     in.Email,
		Name:      in.Name,
		PhotoURL:  in.PhotoURL,
		Role:      string(in.Role),
		Status:    in.Status,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, user.ErrEmailTaken
	}
	if err != nil {
		return nil, translate(err, "user")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	out := doc.entity()
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.Entity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.Entity, error) {
	oid, err := objectID(id, "user")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) List(ctx context.Context) ([]user.Entity, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, newestFirst())
	if err != nil {
		return nil, translate(err, "users")
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "users")
	}
	out := make([]user.Entity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, upd user.ProfileUpdate) (*user.Entity, error) {
	set := bson.M{"updatedAt": r.now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.PhotoURL != nil {
		set["photoURL"] = *upd.PhotoURL
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Role != nil {
		set["role"] = string(*upd.Role)
	}
	return r.update(ctx, bson.M{"email": email}, bson.M{"$set": set})
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role user.Role) (*user.Entity, error) {
	oid, err := objectID(id, "user")
	if err != nil {
		return nil, err
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": string(role), "updatedAt": r.now()}})
}

func (r *UserRepository) SetSuspension(ctx context.Context, id string, suspended bool, reason string) (*user.Entity, error) {
	oid, err := objectID(id, "user")
	if err != nil {
		return nil, err
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"suspended":     suspended,
		"suspendReason": reason,
		"updatedAt":     r.now(),
	}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.Entity, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "user")
	}
	out := doc.entity()
	return &out, nil
}

func (r *UserRepository) update(ctx context.Context, filter, change bson.M) (*user.Entity, error) {
	var doc userDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, change, returnAfter()).Decode(&doc); err != nil {
		return nil, translate(err, "user")
	}
	out := doc.entity()
	return &out, nil
}
