// internal/service/webhook_service.go
package service

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// WebhookPayload is a signed payment notification from the external
// payment provider.
type WebhookPayload struct {
	Signature     string
	TransactionID int64
	UserID        int64
	BillID        int64
	Amount        decimal.Decimal
	// AmountText is the amount exactly as it appeared in the payload.
	// The provider signs the lexical form ("150.00", not "150"), so the
	// signature must be verified over this and not over a re-rendered
	// decimal.
	AmountText string
}

// UnmarshalJSON decodes a payload while preserving the amount's lexical
// form for signature verification.
func (p *WebhookPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Signature     string          `json:"signature"`
		TransactionID int64           `json:"transaction_id"`
		UserID        int64           `json:"user_id"`
		BillID        int64           `json:"bill_id"`
		Amount        json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	amountText := strings.Trim(string(raw.Amount), `"`)
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountText, err)
	}

	p.Signature = raw.Signature
	p.TransactionID = raw.TransactionID
	p.UserID = raw.UserID
	p.BillID = raw.BillID
	p.Amount = amount
	p.AmountText = amountText
	return nil
}

// signedAmount returns the amount text the signature covers. Payloads
// built in code rather than decoded from JSON carry no lexical form, so
// the canonical rendering stands in for it.
func (p WebhookPayload) signedAmount() string {
	if p.AmountText != "" {
		return p.AmountText
	}
	return p.Amount.String()
}

// Signature computes the keyed digest the payment provider signs payloads
// with: hex(SHA1("secret:transaction_id:user_id:bill_id:amount")). The
// amount is signed as the exact string carried in the payload, trailing
// zeros included.
func Signature(signingKey string, transactionID, userID, billID int64, amount string) string {
	signData := fmt.Sprintf("%s:%d:%d:%d:%s", signingKey, transactionID, userID, billID, amount)
	sum := sha1.Sum([]byte(signData))
	return hex.EncodeToString(sum[:])
}

// WebhookService reconciles signed payment notifications with internal state.
type WebhookService interface {
	// Reconcile verifies the payload signature, lazily provisions the bill,
	// and credits it. A replayed payload (same external transaction id) is
	// a no-op reported as util.ErrDuplicateTransaction with no state change.
	Reconcile(ctx context.Context, payload WebhookPayload) (*domain.Transaction, error)
}

// webhookService implements the WebhookService interface.
type webhookService struct {
	signingKey         string
	dbBeginner         db.DBTxBeginner
	billRepo           repository.BillRepository
	transactionService TransactionService
	beginTx            db.BeginTxFunc
	commitTx           db.CommitTxFunc
	rollbackTx         db.RollbackTxFunc
}

// NewWebhookService creates a new instance of WebhookService.
func NewWebhookService(
	signingKey string,
	dbBeginner db.DBTxBeginner,
	billRepo repository.BillRepository,
	transactionService TransactionService,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) WebhookService {
	return &webhookService{
		signingKey:         signingKey,
		dbBeginner:         dbBeginner,
		billRepo:           billRepo,
		transactionService: transactionService,
		beginTx:            beginTx,
		commitTx:           commitTx,
		rollbackTx:         rollbackTx,
	}
}

// Reconcile drives the full webhook flow inside one database transaction.
func (s *webhookService) Reconcile(ctx context.Context, payload WebhookPayload) (*domain.Transaction, error) {
	expected := Signature(s.signingKey, payload.TransactionID, payload.UserID, payload.BillID, payload.signedAmount())
	// Constant-time comparison so signature verification leaks no timing
	// information about how many leading bytes matched.
	if subtle.ConstantTimeCompare([]byte(expected), []byte(payload.Signature)) != 1 {
		return nil, util.ErrSignatureMismatch
	}
	if payload.Amount.IsNegative() {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("webhook: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("webhook: transaction controller does not implement DBExecutor")
	}

	// Provision the bill on first credit. The conflict-free insert and the
	// credit below share one transaction, so a cancelled request leaves no
	// orphan bill and no partially applied credit.
	if err := s.billRepo.EnsureBill(ctx, txExecutor, payload.BillID, payload.UserID); err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	externalID := payload.TransactionID
	transaction, _, err := s.transactionService.CreditInTx(ctx, txExecutor, payload.BillID, payload.UserID, payload.Amount, &externalID)
	if err != nil {
		if util.IsError(err, util.ErrDuplicateTransaction) {
			// Replay of an already-credited event: roll back and report the
			// duplicate so the caller can acknowledge without re-crediting.
			return nil, util.ErrDuplicateTransaction
		}
		return nil, err
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("webhook: failed to commit transaction: %w", err)
	}

	return transaction, nil
}
