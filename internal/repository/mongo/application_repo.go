package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type applicationDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ApplicantEmail  string             `bson:"applicantEmail"`
	ApplicantName   string             `bson:"applicantName"`
	LoanID          string             `bson:"loanId"`
	LoanTitle       string             `bson:"loanTitle"`
	InterestRate    float64            `bson:"interestRate"`
	Amount          float64            `bson:"amount"`
	EMIPlan         string             `bson:"emiPlan"`
	Reason          string             `bson:"reason"`
	Phone           string             `bson:"phone"`
	NationalID      string             `bson:"nationalId"`
	IncomeSource    string             `bson:"incomeSource"`
	MonthlyIncome   float64            `bson:"monthlyIncome"`
	Address         string             `bson:"address"`
	Notes           string             `bson:"notes"`
	Status          string             `bson:"status"`
	FeeStatus       string             `bson:"applicationFeeStatus"`
	PaymentIntentID string             `bson:"paymentIntentId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	ApprovedAt      *time.Time         `bson:"approvedAt"`
	PaidAt          *time.Time         `bson:"paidAt"`
	CancelledAt     *time.Time         `bson:"cancelledAt"`
}

func (d applicationDoc) entity() application.Entity {
	return application.Entity{
		ID:              d.ID.Hex(),
		ApplicantEmail:  d.ApplicantEmail,
		ApplicantName:   d.ApplicantName,
		LoanID:          d.LoanID,
		LoanTitle:       d.LoanTitle,
		InterestRate:    d.InterestRate,
		Amount:          d.Amount,
		EMIPlan:         d.EMIPlan,
		Reason:          d.Reason,
		Phone:           d.Phone,
		NationalID:      d.NationalID,
		IncomeSource:    d.IncomeSource,
		MonthlyIncome:   d.MonthlyIncome,
		Address:         d.Address,
		Notes:           d.Notes,
		Status:          application.Status(d.Status),
		FeeStatus:       application.FeeStatus(d.FeeStatus),
		PaymentIntentID: d.PaymentIntentID,
		CreatedAt:       d.CreatedAt.UTC(),
		ApprovedAt:      utc(d.ApprovedAt),
		PaidAt:          utc(d.PaidAt),
		CancelledAt:     utc(d.CancelledAt),
	}
}

type ApplicationRepository struct {
	coll *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{coll: db.Collection(applicationsCollection)}
}

func (r *ApplicationRepository) Create(ctx context.Context, in application.Entity) (*application.Entity, error) {
	doc := applicationDoc{
		ApplicantEmail: in.ApplicantEmail,
		ApplicantName:  in.ApplicantName,
		LoanID:         in.LoanID,
		LoanTitle:      in.LoanTitle,
		InterestRate:   in.InterestRate,
		Amount:         in.Amount,
		EMIPlan:        in.EMIPlan,
		Reason:         in.Reason,
		Phone:          in.Phone,
		NationalID:     in.NationalID,
		IncomeSource:   in.IncomeSource,
		MonthlyIncome:  in.MonthlyIncome,
		Address:        in.Address,
		Notes:          in.Notes,
		Status:         string(in.Status),
		FeeStatus:      string(in.FeeStatus),
		CreatedAt:      in.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translate(err, "loan application")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	out := doc.entity()
	return &out, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Entity, error) {
	oid, err := objectID(id, "loan application")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ApplicationRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*application.Entity, error) {
	return r.findOne(ctx, bson.M{"paymentIntentId": intentID})
}

func (r *ApplicationRepository) List(ctx context.Context, f application.ListFilter) ([]application.Entity, error) {
	filter := bson.M{}
	if f.ApplicantEmail != "" {
		filter["applicantEmail"] = f.ApplicantEmail
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	cur, err := r.coll.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, translate(err, "loan applications")
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "loan applications")
	}
	out := make([]application.Entity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

// Cancel only matches documents that are still Pending, so a decision that
// lands between the read and this write wins.
func (r *ApplicationRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (*application.Entity, error) {
	oid, err := objectID(id, "loan application")
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid, "status": string(application.StatusPending)}
	change := bson.M{"$set": bson.M{"status": string(application.StatusCancelled), "cancelledAt": cancelledAt}}

	var doc applicationDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, change, returnAfter()).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if countErr != nil {
			return nil, translate(countErr, "loan application")
		}
		if n == 0 {
			return nil, apperr.NotFound("loan application not found")
		}
		return nil, application.ErrNotPending
	}
	if err != nil {
		return nil, translate(err, "loan application")
	}
	out := doc.entity()
	return &out, nil
}

func (r *ApplicationRepository) SetDecision(ctx context.Context, id string, status application.Status, approvedAt *time.Time) (*application.Entity, error) {
	return r.update(ctx, id, bson.M{"status": string(status), "approvedAt": approvedAt})
}

func (r *ApplicationRepository) SetPaymentIntent(ctx context.Context, id, intentID string) (*application.Entity, error) {
	return r.update(ctx, id, bson.M{"paymentIntentId": intentID})
}

func (r *ApplicationRepository) MarkFeePaid(ctx context.Context, id string, paidAt time.Time) (*application.Entity, error) {
	return r.update(ctx, id, bson.M{"applicationFeeStatus": string(application.FeePaid), "paidAt": paidAt})
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, "loan application")
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, "loan application")
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("loan application not found")
	}
	return nil
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*application.Entity, error) {
	var doc applicationDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "loan application")
	}
	out := doc.entity()
	return &out, nil
}

func (r *ApplicationRepository) update(ctx context.Context, id string, set bson.M) (*application.Entity, error) {
	oid, err := objectID(id, "loan application")
	if err != nil {
		return nil, err
	}
	var doc applicationDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter()).Decode(&doc); err != nil {
		return nil, translate(err, "loan application")
	}
	out := doc.entity()
	return &out, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
