package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/horizon-rh/horizon-rh/internal/leave"
)

var decisionLabels = map[leave.Status]string{
	leave.StatusApproved: "approuvée",
	leave.StatusRejected: "refusée",
	leave.StatusRevoked:  "annulée",
}

func decisionLabel(s leave.Status) string {
	if label, ok := decisionLabels[s]; ok {
		return label
	}
	return string(s)
}

// LeaveNotifier adapts the queue client to the lifecycle service's notifier
// port. Decisions become emails to the requester, fiche generation becomes a
// background task.
type LeaveNotifier struct {
	client *Client
}

// NewLeaveNotifier constructs the adapter.
func NewLeaveNotifier(client *Client) *LeaveNotifier {
	return &LeaveNotifier{client: client}
}

// NotifyDecision queues the decision email for the requester.
func (n *LeaveNotifier) NotifyDecision(ctx context.Context, rec leave.RequestRecord) error {
	if n == nil || n.client == nil {
		return nil
	}
	if rec.Requester.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Votre demande de congé est %s", decisionLabel(rec.Status))
	body := fmt.Sprintf(
		"Bonjour %s,\n\nVotre demande de congé (%s, du %s au %s) est désormais : %s.\n",
		rec.Requester.FullName,
		rec.LeaveType,
		rec.Period.Start.Format("02/01/2006"),
		rec.Period.End.Format("02/01/2006"),
		decisionLabel(rec.Status),
	)
	if rec.Status == leave.StatusRejected && rec.Motif != "" {
		body += fmt.Sprintf("\nMotif du refus : %s\n", rec.Motif)
	}
	_, err := n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      rec.Requester.Email,
		Subject: subject,
		Body:    body,
	})
	return err
}

// EnqueueFiche queues fiche generation for a request.
func (n *LeaveNotifier) EnqueueFiche(ctx context.Context, requestID uuid.UUID) error {
	if n == nil || n.client == nil {
		return nil
	}
	_, err := n.client.EnqueueFiche(ctx, FichePayload{RequestID: requestID.String()})
	return err
}
