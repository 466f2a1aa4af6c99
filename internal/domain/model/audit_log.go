package model

import "time"

// 商品登録、入出庫、期限チェックなど。
type AuditAction string

const (
	AuditActionCreateProduct  AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct  AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct  AuditAction = "DELETE_PRODUCT"
	AuditActionCreateSupplier AuditAction = "CREATE_SUPPLIER"
	AuditActionUpdateSupplier AuditAction = "UPDATE_SUPPLIER"
	AuditActionDeleteSupplier AuditAction = "DELETE_SUPPLIER"
	AuditActionStockEntry     AuditAction = "STOCK_ENTRY"
	AuditActionStockExit      AuditAction = "STOCK_EXIT"
	AuditActionExpirySweep    AuditAction = "EXPIRY_SWEEP"
	AuditActionCreateUser     AuditAction = "CREATE_USER"
	AuditActionUpdateUser     AuditAction = "UPDATE_USER"
	AuditActionDeleteUser     AuditAction = "DELETE_USER"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceSupplier AuditResourceType = "supplier"
	AuditResourceMovement AuditResourceType = "movement"
	AuditResourceUser     AuditResourceType = "user"
)

// 操作ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID string `gorm:"type:varchar(36);not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID string `gorm:"type:varchar(36);not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
