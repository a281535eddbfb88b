package services

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/cryptox"
	"github.com/stringshare/ordervault/internal/dbx"
	"github.com/stringshare/ordervault/internal/logging"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stringshare/ordervault/internal/server/notify"
	"github.com/stringshare/ordervault/internal/server/repositories/repomanager"
	"github.com/stringshare/ordervault/internal/server/serverkey"
)

// Witness is the slice of the server signing key the workflow needs:
// add a signature, expose the public half for verification.
type Witness interface {
	Sign(sc *cryptox.SignedContent) error
	Public() *rsa.PublicKey
}

// compile-time check that the real key manager satisfies the seam
var _ Witness = (*serverkey.Manager)(nil)

// Signer roles reported by View.
const (
	SignerSender     = "sender"
	SignerServer     = "server"
	SignerSupervisor = "supervisor"
)

// OrderService drives the purchase-order state machine. Every operation is
// one unit of work: unlock the acting party's key, transform the envelopes
// (sign before encrypt, decrypt before verify), persist atomically, discard
// all key material.
type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	witness     Witness
	notifier    notify.Notifier
	logger      logging.Logger
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager, w Witness, n notify.Notifier, l logging.Logger) *OrderService {
	return &OrderService{
		db:          db,
		repomanager: m,
		witness:     w,
		notifier:    n,
		logger:      l.With("module", "orders"),
	}
}

// OrderView is the result of View: the decrypted content plus the
// per-signer trust report. Unverifiable signatures appear as false entries;
// they never fail the call.
type OrderView struct {
	Order      *models.PurchaseOrder
	Summary    []byte
	Details    *models.OrderDetails
	Signatures map[string]bool
}

// Submit creates a new pending order addressed to a supervisor. The order
// content is rendered into a human-readable summary and a structured
// payload; both are signed by the sender and the server witness, then
// encrypted for {sender, supervisor}. Notification of the supervisor is
// best-effort and never rolls the order back.
func (s *OrderService) Submit(ctx context.Context, senderID, supervisorID string, details *models.OrderDetails, password []byte) (*models.PurchaseOrder, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	sender, senderPub, err := s.loadParty(ctx, senderID)
	if err != nil {
		return nil, err
	}
	supervisor, supervisorPub, err := s.loadParty(ctx, supervisorID)
	if err != nil {
		return nil, err
	}

	senderPriv, err := s.unlock(ctx, senderID, password)
	if err != nil {
		return nil, err
	}

	recipients := []*rsa.PublicKey{senderPub, supervisorPub}

	summaryEnv, err := s.seal(details.RenderSummary(), senderPriv, recipients)
	if err != nil {
		return nil, err
	}
	detailBytes, err := details.RenderDetail()
	if err != nil {
		return nil, common.ErrInternal
	}
	detailEnv, err := s.seal(detailBytes, senderPriv, recipients)
	if err != nil {
		return nil, err
	}

	order := &models.PurchaseOrder{
		ID:              uuid.NewString(),
		SenderID:        sender.ID,
		SupervisorID:    supervisor.ID,
		SummaryEnvelope: summaryEnv,
		DetailEnvelope:  detailEnv,
		Status:          models.StatusPending,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Orders(tx).Create(ctx, order)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	s.logger.Info(ctx, "order submitted", "order_id", order.ID, "number", order.Number)
	s.notifyAsync(sender.FullName,
		fmt.Sprintf("Purchase order #%d from %s awaits your review.", order.Number, sender.FullName),
		supervisor.Email)

	return order, nil
}

// Review applies the single allowed transition of a pending order. The
// supervisor decrypts both envelopes with their own key, stacks their
// signature and a fresh witness signature on the already-signed content,
// and re-encrypts with a new session key: for {sender, supervisor,
// purchaser} on accept, for {sender, supervisor} on reject. The row is
// locked for the duration of the transaction, so a concurrent review of the
// same order fails with ErrInvalidStateTransition instead of silently
// overwriting.
func (s *OrderService) Review(ctx context.Context, supervisorID, orderID string, accept bool, purchaserID *string, password []byte) (*models.PurchaseOrder, error) {
	supervisor, supervisorPub, err := s.loadParty(ctx, supervisorID)
	if err != nil {
		return nil, err
	}

	var purchaserPub *rsa.PublicKey
	var purchaser *models.User
	if accept {
		if purchaserID == nil {
			return nil, fmt.Errorf("approval requires a purchaser")
		}
		purchaser, purchaserPub, err = s.loadParty(ctx, *purchaserID)
		if err != nil {
			return nil, err
		}
	}

	supervisorPriv, err := s.unlock(ctx, supervisorID, password)
	if err != nil {
		return nil, err
	}

	var order *models.PurchaseOrder
	var sender *models.User

	txErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		order, err = s.repomanager.Orders(tx).GetForReview(ctx, orderID)
		if err != nil {
			return err
		}
		if order.SupervisorID != supervisor.ID {
			return common.ErrUnauthorized
		}
		if order.Status.Terminal() {
			return common.ErrInvalidStateTransition
		}

		var senderPub *rsa.PublicKey
		sender, senderPub, err = s.loadParty(ctx, order.SenderID)
		if err != nil {
			return err
		}

		recipients := []*rsa.PublicKey{senderPub, supervisorPub}
		if accept {
			recipients = append(recipients, purchaserPub)
		}

		// prior layers are checked and reported, never enforced: the
		// supervisor decides on the content they can read
		priorSigners := []cryptox.Signer{
			{Role: SignerSender, PublicKey: senderPub},
			{Role: SignerServer, PublicKey: s.witness.Public()},
		}

		var report map[string]bool
		order.SummaryEnvelope, report, err = s.countersign(order.SummaryEnvelope, supervisorPriv, recipients, priorSigners)
		if err != nil {
			return err
		}
		s.logInvalidLayers(ctx, order.ID, "summary", report)

		order.DetailEnvelope, report, err = s.countersign(order.DetailEnvelope, supervisorPriv, recipients, priorSigners)
		if err != nil {
			return err
		}
		s.logInvalidLayers(ctx, order.ID, "detail", report)

		now := time.Now()
		order.ReviewedAt = &now
		if accept {
			order.Status = models.StatusApproved
			order.PurchaserID = purchaserID
		} else {
			order.Status = models.StatusRejected
		}

		return s.repomanager.Orders(tx).UpdateReview(ctx, order)
	})

	if txErr != nil {
		if errors.Is(txErr, common.ErrInvalidStateTransition) ||
			errors.Is(txErr, common.ErrUnauthorized) ||
			errors.Is(txErr, common.ErrDecryptionFailed) ||
			errors.Is(txErr, common.ErrNotFound) ||
			errors.Is(txErr, common.ErrInternal) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, txErr)
	}

	outcome := "rejected"
	if accept {
		outcome = "approved"
	}
	s.logger.Info(ctx, "order reviewed", "order_id", order.ID, "outcome", outcome)

	s.notifyAsync(supervisor.FullName,
		fmt.Sprintf("Purchase order #%d was %s by %s.", order.Number, outcome, supervisor.FullName),
		sender.Email)
	if accept {
		s.notifyAsync(supervisor.FullName,
			fmt.Sprintf("Purchase order #%d was approved and assigned to you for purchasing.", order.Number),
			purchaser.Email)
	}

	return order, nil
}

// View decrypts an order for any party whose key is among the envelope
// recipients and reports every signature layer independently. Both
// envelopes carry their own layers, so a signer counts as verified only
// when its signature holds on the summary and on the structured payload. A
// tampered or missing layer shows up as false in the report; the content is
// still returned.
func (s *OrderService) View(ctx context.Context, viewerID, orderID string, password []byte) (*OrderView, error) {
	order, err := s.repomanager.Orders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	viewerPriv, err := s.unlock(ctx, viewerID, password)
	if err != nil {
		return nil, err
	}

	summaryEnv, err := cryptox.UnmarshalEnvelope(order.SummaryEnvelope)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	detailEnv, err := cryptox.UnmarshalEnvelope(order.DetailEnvelope)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	summary, err := summaryEnv.Decrypt(viewerPriv)
	if err != nil {
		return nil, err
	}
	detail, err := detailEnv.Decrypt(viewerPriv)
	if err != nil {
		return nil, err
	}

	details, err := models.ParseOrderDetails(detail.Content)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	signers, err := s.expectedSigners(ctx, order)
	if err != nil {
		return nil, err
	}

	signatures := cryptox.VerifyAll(summary, signers)
	for role, ok := range cryptox.VerifyAll(detail, signers) {
		signatures[role] = signatures[role] && ok
	}

	return &OrderView{
		Order:      order,
		Summary:    summary.Content,
		Details:    details,
		Signatures: signatures,
	}, nil
}

// --- helpers below ---

// loadParty fetches a user and parses their public key.
func (s *OrderService) loadParty(ctx context.Context, userID string) (*models.User, *rsa.PublicKey, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pub, err := cryptox.DecodePublicKeyPEM(user.PublicKeyPEM)
	if err != nil {
		return nil, nil, common.ErrInternal
	}
	return user, pub, nil
}

// unlock fetches a user's protected key and unlocks it for this operation.
// The caller must not retain the key beyond the current call.
func (s *OrderService) unlock(ctx context.Context, userID string, password []byte) (*rsa.PrivateKey, error) {
	key, err := s.repomanager.Keys(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrWrongPassword
		}
		return nil, common.ErrInternal
	}
	return cryptox.Unlock(key.Blob, key.Salt, password)
}

// seal signs content with the sender's key plus the witness, then encrypts
// it for the recipient set. Returns the serialized envelope.
func (s *OrderService) seal(content []byte, senderPriv *rsa.PrivateKey, recipients []*rsa.PublicKey) ([]byte, error) {
	sc := cryptox.NewSignedContent(content)
	if err := sc.Sign(senderPriv); err != nil {
		return nil, common.ErrInternal
	}
	if err := s.witness.Sign(sc); err != nil {
		return nil, common.ErrInternal
	}
	env, err := cryptox.Encrypt(sc, recipients)
	if err != nil {
		return nil, common.ErrInternal
	}
	return env.Marshal()
}

// countersign decrypts a stored envelope with the reviewer's key, checks
// the prior signature layers, stacks the reviewer's and a fresh witness
// signature, and re-encrypts for the new recipient set under a brand-new
// session key. Earlier signatures stay intact; the returned report says
// which of them verified, and a failed layer never aborts the review.
func (s *OrderService) countersign(raw []byte, reviewerPriv *rsa.PrivateKey, recipients []*rsa.PublicKey, priorSigners []cryptox.Signer) ([]byte, map[string]bool, error) {
	env, err := cryptox.UnmarshalEnvelope(raw)
	if err != nil {
		return nil, nil, common.ErrDecryptionFailed
	}
	sc, err := env.Decrypt(reviewerPriv)
	if err != nil {
		return nil, nil, err
	}
	report := cryptox.VerifyAll(sc, priorSigners)
	if err := sc.Sign(reviewerPriv); err != nil {
		return nil, nil, common.ErrInternal
	}
	if err := s.witness.Sign(sc); err != nil {
		return nil, nil, common.ErrInternal
	}
	reEnc, err := cryptox.Encrypt(sc, recipients)
	if err != nil {
		return nil, nil, common.ErrInternal
	}
	out, err := reEnc.Marshal()
	return out, report, err
}

// logInvalidLayers records every prior layer that failed verification at
// review time.
func (s *OrderService) logInvalidLayers(ctx context.Context, orderID, envelope string, report map[string]bool) {
	for role, ok := range report {
		if !ok {
			s.logger.Warn(ctx, "signature layer failed verification at review",
				"order_id", orderID, "envelope", envelope, "signer", role)
		}
	}
}

// expectedSigners builds the signer set for the trust report: sender and
// server always, the supervisor once the order has been reviewed.
func (s *OrderService) expectedSigners(ctx context.Context, order *models.PurchaseOrder) ([]cryptox.Signer, error) {
	_, senderPub, err := s.loadParty(ctx, order.SenderID)
	if err != nil {
		return nil, err
	}

	signers := []cryptox.Signer{
		{Role: SignerSender, PublicKey: senderPub},
		{Role: SignerServer, PublicKey: s.witness.Public()},
	}

	if order.Status.Terminal() {
		_, supervisorPub, err := s.loadParty(ctx, order.SupervisorID)
		if err != nil {
			return nil, err
		}
		signers = append(signers, cryptox.Signer{Role: SignerSupervisor, PublicKey: supervisorPub})
	}

	return signers, nil
}

// notifyAsync fires a notification without blocking the workflow call.
// Failures are logged and otherwise ignored.
func (s *OrderService) notifyAsync(senderName, body, recipientEmail string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if err := s.notifier.Notify(ctx, senderName, body, recipientEmail); err != nil {
			s.logger.Warn(ctx, "notification failed", "recipient", recipientEmail, "error", err.Error())
		}
	}()
}
