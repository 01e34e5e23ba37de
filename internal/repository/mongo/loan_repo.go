package mongo

import (
	"context"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/loan"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type loanDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Title             string             `bson:"title"`
	ShortDescription  string             `bson:"shortDescription"`
	Description       string             `bson:"description"`
	Category          string             `bson:"category"`
	InterestRate      float64            `bson:"interestRate"`
	MaxLimit          float64            `bson:"maxLimit"`
	Image             string             `bson:"image"`
	EMIPlans          []string           `bson:"emiPlans"`
	RequiredDocuments []string           `bson:"requiredDocuments"`
	ShowOnHome        bool               `bson:"showOnHome"`
	CreatedBy         string             `bson:"createdBy"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (d loanDoc) entity() loan.Entity {
	return loan.Entity{
		ID:                d.ID.Hex(),
		Title:             d.Title,
		ShortDescription:  d.ShortDescription,
		Description:       d.Description,
		Category:          d.Category,
		InterestRate:      d.InterestRate,
		MaxLimit:          d.MaxLimit,
		Image:             d.Image,
		EMIPlans:          nonNil(d.EMIPlans),
		RequiredDocuments: nonNil(d.RequiredDocuments),
		ShowOnHome:        d.ShowOnHome,
		CreatedBy:         d.CreatedBy,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

type LoanRepository struct {
	coll *mongo.Collection
}

func NewLoanRepository(db *mongo.Database) *LoanRepository {
	return &LoanRepository{coll: db.Collection(loansCollection)}
}

func (r *LoanRepository) Create(ctx context.Context, in loan.Entity) (*loan.Entity, error) {
	doc := loanDoc{
		Title:             in.Title,
		ShortDescription:  in.ShortDescription,
		Description:       in.Description,
		Category:          in.Category,
		InterestRate:      in.InterestRate,
		MaxLimit:          in.MaxLimit,
		Image:             in.Image,
		EMIPlans:          nonNil(in.EMIPlans),
		RequiredDocuments: nonNil(in.RequiredDocuments),
		ShowOnHome:        in.ShowOnHome,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         in.CreatedAt,
		UpdatedAt:         in.UpdatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translate(err, "loan")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	out := doc.entity()
	return &out, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	oid, err := objectID(id, "loan")
	if err != nil {
		return nil, err
	}
	var doc loanDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err, "loan")
	}
	out := doc.entity()
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.CreatedBy != "" {
		filter["createdBy"] = f.CreatedBy
	}
	if f.ShowOnHome != nil {
		filter["showOnHome"] = *f.ShowOnHome
	}
	cur, err := r.coll.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, translate(err, "loans")
	}
	var docs []loanDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "loans")
	}
	out := make([]loan.Entity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

func (r *LoanRepository) Update(ctx context.Context, id string, p loan.Patch, updatedAt time.Time) (*loan.Entity, error) {
	oid, err := objectID(id, "loan")
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": updatedAt}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.ShortDescription != nil {
		set["shortDescription"] = *p.ShortDescription
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.InterestRate != nil {
		set["interestRate"] = *p.InterestRate
	}
	if p.MaxLimit != nil {
		set["maxLimit"] = *p.MaxLimit
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.EMIPlans != nil {
		set["emiPlans"] = nonNil(*p.EMIPlans)
	}
	if p.RequiredDocuments != nil {
		set["requiredDocuments"] = nonNil(*p.RequiredDocuments)
	}
	if p.ShowOnHome != nil {
		set["showOnHome"] = *p.ShowOnHome
	}
	var doc loanDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter()).Decode(&doc); err != nil {
		return nil, translate(err, "loan")
	}
	out := doc.entity()
	return &out, nil
}

func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, "loan")
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, "loan")
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("loan not found")
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
