package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/numeric"
)

type CreateInput struct {
	ApplicantEmail string
	ApplicantName  string
	LoanID         string
	Amount         numeric.Number
	EMIPlan        string
	Reason         string
	Phone          string
	NationalID     string
	IncomeSource   string
	MonthlyIncome  numeric.Number
	Address        string
	Notes          string
}

type Service struct {
	repo      Repository
	loans     LoanLookup
	payments  PaymentProvider
	publisher Publisher
	fee       Fee
	now       func() time.Time
}

func NewService(repo Repository, loans LoanLookup, payments PaymentProvider, publisher Publisher, fee Fee) *Service {
	return &Service{
		repo:      repo,
		loans:     loans,
		payments:  payments,
		publisher: publisher,
		fee:       fee,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new pending, unpaid application for an existing loan.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	email := strings.ToLower(strings.TrimSpace(in.ApplicantEmail))
	if email == "" {
		return nil, apperr.Validation("applicant email is required")
	}
	loanID := strings.TrimSpace(in.LoanID)
	if loanID == "" {
		return nil, apperr.Validation("loan id is required")
	}
	amount, err := optionalNumber("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	income, err := optionalNumber("monthlyIncome", in.MonthlyIncome)
	if err != nil {
		return nil, err
	}

	summary, err := s.loans.LoanSummary(ctx, loanID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Entity{
		ApplicantEmail: email,
		ApplicantName:  strings.TrimSpace(in.ApplicantName),
		LoanID:         summary.ID,
		LoanTitle:      summary.Title,
		InterestRate:   summary.InterestRate,
		Amount:         amount,
		EMIPlan:        strings.TrimSpace(in.EMIPlan),
		Reason:         strings.TrimSpace(in.Reason),
		Phone:          strings.TrimSpace(in.Phone),
		NationalID:     strings.TrimSpace(in.NationalID),
		IncomeSource:   strings.TrimSpace(in.IncomeSource),
		MonthlyIncome:  income,
		Address:        strings.TrimSpace(in.Address),
		Notes:          strings.TrimSpace(in.Notes),
		Status:         StatusPending,
		FeeStatus:      FeeUnpaid,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventCreated, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("application id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every application, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, status Status) ([]Entity, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("unknown application status")
	}
	return s.repo.List(ctx, ListFilter{Status: status})
}

func (s *Service) ListByApplicant(ctx context.Context, email string) ([]Entity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("applicant email is required")
	}
	return s.repo.List(ctx, ListFilter{ApplicantEmail: email})
}

// ListPending is the manager review queue.
func (s *Service) ListPending(ctx context.Context) ([]Entity, error) {
	return s.repo.List(ctx, ListFilter{Status: StatusPending})
}

// Cancel is only allowed from Pending.
func (s *Service) Cancel(ctx context.Context, id string) (*Entity, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, apperr.Validation("only pending applications can be cancelled")
	}

	updated, err := s.repo.Cancel(ctx, current.ID, s.now())
	if errors.Is(err, ErrNotPending) {
		return nil, apperr.Validation("only pending applications can be cancelled")
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventCancelled, updated)
	return updated, nil
}

// UpdateStatus records a manager decision. Approved stamps approvedAt,
// Rejected clears it. The prior status is not checked.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Entity, error) {
	var approvedAt *time.Time
	switch status {
	case StatusApproved:
		now := s.now()
		approvedAt = &now
	case StatusRejected:
	default:
		return nil, apperr.Validation("status must be Approved or Rejected")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.SetDecision(ctx, current.ID, status, approvedAt)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventStatusChanged, updated)
	return updated, nil
}

// InitiatePayment returns the payment intent for the application fee. A
// stored intent that can still be paid is handed out again so only one
// intent is live per application; otherwise a new one is created and its id
// recorded.
func (s *Service) InitiatePayment(ctx context.Context, id string) (*FeeIntent, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.FeeStatus == FeePaid {
		return nil, apperr.Validation("application fee already paid")
	}
	if current.PaymentIntentID != "" {
		existing, err := s.payments.RetrieveFeeIntent(ctx, current.PaymentIntentID)
		if err != nil {
			return nil, providerErr("retrieve fee payment intent", err)
		}
		if existing.Succeeded {
			if _, err := s.markPaid(ctx, current.ID); err != nil {
				return nil, err
			}
			return nil, apperr.Validation("application fee already paid")
		}
		if !existing.Canceled {
			return existing, nil
		}
	}

	intent, err := s.payments.CreateFeeIntent(ctx, FeeIntentRequest{
		ApplicationID:  current.ID,
		ApplicantEmail: current.ApplicantEmail,
		AmountMinor:    s.fee.AmountMinor,
		Currency:       s.fee.Currency,
	})
	if err != nil {
		return nil, providerErr("create fee payment intent", err)
	}
	if _, err := s.repo.SetPaymentIntent(ctx, current.ID, intent.ID); err != nil {
		return nil, err
	}
	return intent, nil
}

// ConfirmPayment marks the fee paid once the provider reports the stored
// intent as succeeded. Confirming an already paid fee is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, id string) (*Entity, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.FeeStatus == FeePaid {
		return current, nil
	}
	if current.PaymentIntentID == "" {
		return nil, apperr.Validation("payment has not been initiated")
	}

	ok, err := s.payments.IntentSucceeded(ctx, current.PaymentIntentID)
	if err != nil {
		return nil, providerErr("check fee payment intent", err)
	}
	if !ok {
		return nil, apperr.Validation("payment has not completed")
	}
	return s.markPaid(ctx, current.ID)
}

// SettleIntent handles a provider callback reporting that intentID succeeded.
func (s *Service) SettleIntent(ctx context.Context, intentID string) (*Entity, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, apperr.Validation("payment intent id is required")
	}
	current, err := s.repo.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if current.FeeStatus == FeePaid {
		return current, nil
	}
	return s.markPaid(ctx, current.ID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Validation("application id is required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) markPaid(ctx context.Context, id string) (*Entity, error) {
	updated, err := s.repo.MarkFeePaid(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventFeePaid, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, eventType string, app *Entity) {
	if s.publisher == nil || app == nil {
		return
	}
	s.publisher.PublishApplicationEvent(ctx, Event{Type: eventType, Application: *app, OccurredAt: s.now()})
}

func (st Status) Valid() bool {
	switch st {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts any casing of a known status.
func ParseStatus(raw string) Status {
	raw = strings.TrimSpace(raw)
	for _, st := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled} {
		if strings.EqualFold(raw, string(st)) {
			return st
		}
	}
	return Status(raw)
}

func optionalNumber(field string, n numeric.Number) (float64, error) {
	if !n.Valid {
		return 0, nil
	}
	f, err := n.Float()
	if err != nil {
		return 0, apperr.Validation(field + " must be a number")
	}
	if f < 0 {
		return 0, apperr.Validation(field + " must not be negative")
	}
	return f, nil
}

// providerErr keeps errors the provider already classified and wraps the rest
// as upstream failures.
func providerErr(message string, err error) error {
	if apperr.KindOf(err) != apperr.KindUpstream {
		return err
	}
	return apperr.Upstream(message, err)
}
