package application

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

type FeeStatus string

const (
	FeeUnpaid FeeStatus = "Unpaid"
	FeePaid   FeeStatus = "Paid"
)

// ErrNotPending is returned by Repository.Cancel when the stored record is no
// longer pending at write time.
var ErrNotPending = errors.New("application is not pending")

type Entity struct {
	ID              string     `json:"id"`
	ApplicantEmail  string     `json:"applicantEmail"`
	ApplicantName   string     `json:"applicantName"`
	LoanID          string     `json:"loanId"`
	LoanTitle       string     `json:"loanTitle"`
	InterestRate    float64    `json:"interestRate"`
	Amount          float64    `json:"amount"`
	EMIPlan         string     `json:"emiPlan"`
	Reason          string     `json:"reason"`
	Phone           string     `json:"phone"`
	NationalID      string     `json:"nationalId"`
	IncomeSource    string     `json:"incomeSource"`
	MonthlyIncome   float64    `json:"monthlyIncome"`
	Address         string     `json:"address"`
	Notes           string     `json:"notes"`
	Status          Status     `json:"status"`
	FeeStatus       FeeStatus  `json:"applicationFeeStatus"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ApprovedAt      *time.Time `json:"approvedAt"`
	PaidAt          *time.Time `json:"paidAt"`
	CancelledAt     *time.Time `json:"cancelledAt"`
}

type ListFilter struct {
	ApplicantEmail string
	Status         Status
}

type Repository interface {
	Create(ctx context.Context, in Entity) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	// Cancel moves a pending record to Cancelled. It must match on the
	// pending status at write time and return ErrNotPending otherwise.
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (*Entity, error)
	// SetDecision writes status and approvedAt as given; a nil approvedAt
	// clears the stored value.
	SetDecision(ctx context.Context, id string, status Status, approvedAt *time.Time) (*Entity, error)
	SetPaymentIntent(ctx context.Context, id, intentID string) (*Entity, error)
	MarkFeePaid(ctx context.Context, id string, paidAt time.Time) (*Entity, error)
	Delete(ctx context.Context, id string) error
}

// LoanLookup resolves the loan an application refers to.
type LoanLookup interface {
	LoanSummary(ctx context.Context, loanID string) (*LoanSummary, error)
}

type LoanLookupFunc func(ctx context.Context, loanID string) (*LoanSummary, error)

func (f LoanLookupFunc) LoanSummary(ctx context.Context, loanID string) (*LoanSummary, error) {
	return f(ctx, loanID)
}

type LoanSummary struct {
	ID           string
	Title        string
	InterestRate float64
}

type FeeIntentRequest struct {
	ApplicationID  string
	ApplicantEmail string
	AmountMinor    int64
	Currency       string
}

type FeeIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Succeeded    bool   `json:"-"`
	Canceled     bool   `json:"-"`
}

// PaymentProvider creates and inspects fee payment intents.
type PaymentProvider interface {
	CreateFeeIntent(ctx context.Context, req FeeIntentRequest) (*FeeIntent, error)
	RetrieveFeeIntent(ctx context.Context, intentID string) (*FeeIntent, error)
	IntentSucceeded(ctx context.Context, intentID string) (bool, error)
}

type Fee struct {
	AmountMinor int64
	Currency    string
}

const (
	EventCreated       = "application.created"
	EventCancelled     = "application.cancelled"
	EventStatusChanged = "application.status_changed"
	EventFeePaid       = "application.fee_paid"
)

type Event struct {
	Type        string    `json:"event"`
	Application Entity    `json:"data"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher fans lifecycle events out to interested clients. Publishing is
// best effort and never fails a request.
type Publisher interface {
	PublishApplicationEvent(ctx context.Context, ev Event)
}
