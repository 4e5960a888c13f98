package services

import (
	"context"

	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/logger"
	"go.uber.org/zap"
)

const (
	auditResultSuccess = "success"
	auditResultFailure = "failure"
)

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func accountAuditEntry(action, result string, account *models.Account, metadata map[string]any) AuditEntry {
	entry := AuditEntry{
		Action:   action,
		Resource: "account",
		Result:   result,
		Metadata: metadata,
	}
	if account != nil {
		id := account.ID
		entry.AccountID = &id
		entry.Email = account.Email
	}
	return entry
}
