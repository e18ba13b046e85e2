package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
)

// Message actions delivered to the notifier webhook.
const (
	ActionRequestCreated  = "request_created"
	ActionRequestApproved = "request_approved"
	ActionQuorumReached   = "quorum_reached"
	ActionLoanExecuted    = "loan_executed"
	ActionPaymentRecorded = "payment_recorded"
	ActionLoanClosed      = "loan_closed"
	ActionLoanPayoff      = "loan_payoff"
	ActionPaymentDue      = "payment_due"
	ActionPaymentOverdue  = "payment_overdue"
	ActionParamUpdated    = "param_updated"
)

type (
	// Message one queued webhook notification
	Message struct {
		ID        uint64         `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
		CreatedAt time.Time      `json:"created_at,omitempty"`
		MessageID string         `sql:"size:36;unique_index:message_trace_idx" json:"message_id,omitempty"`
		UserID    string         `sql:"size:36" json:"user_id,omitempty"`
		Action    string         `sql:"size:36" json:"action,omitempty"`
		Body      types.JSONText `sql:"type:TEXT" json:"body,omitempty"`
	}

	// IMessageStore message store interface
	IMessageStore interface {
		Create(ctx context.Context, tx *db.DB, messages []*Message) error
		List(ctx context.Context, limit int) ([]*Message, error)
		Delete(ctx context.Context, messages []*Message) error
	}

	// IMessageService message service interface
	IMessageService interface {
		Build(userID, action string, payload interface{}) (*Message, error)
		Send(ctx context.Context, message *Message) error
	}
)
