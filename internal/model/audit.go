package model

import "time"

// Audit titles written by the core and its collaborators.
const (
	AuditOrderSuccess   = "SUCCESSFUL ORDER"
	AuditReconcile      = "ORDER RECONCILIATION REQUIRED"
	AuditScannedRFID    = "SCANNED RFID"
	AuditStockReplenish = "STOCK REPLENISHED"
	AuditAuth           = "AUTH"
)

// AuditEntry is append-only; entries are ordered by ID (creation order).
type AuditEntry struct {
	ID          uint      `gorm:"primaryKey" json:"log_id"`
	Title       string    `gorm:"type:varchar(100);not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ActorID     string    `gorm:"type:varchar(255);index" json:"actor_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
