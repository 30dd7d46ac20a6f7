package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "order:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivOrderCreate    = "order:create"
	PrivProductView    = "product:view"
	PrivStockView      = "stock:view"
	PrivStockReplenish = "stock:replenish"
	PrivRFIDScan       = "rfid:scan"
	PrivReceiptView    = "receipt:view"
	PrivLogView        = "log:view"
	PrivDashboardView  = "dashboard:view"
	PrivProductUpdate  = "product:update"
	PrivUserManage     = "user:manage"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivOrderCreate, Name: "Submit Order"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivStockView, Name: "View Stock"},
	{Code: PrivStockReplenish, Name: "Replenish Stock"},
	{Code: PrivRFIDScan, Name: "Scan RFID"},
	{Code: PrivReceiptView, Name: "View Receipt"},
	{Code: PrivLogView, Name: "View Audit Log"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivProductUpdate, Name: "Enable or Disable Product"},
	{Code: PrivUserManage, Name: "Manage Users"},
}
