package model

import "time"

// JWTTokenBlacklist stores revoked token IDs until they would have expired anyway.
type JWTTokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"column:jti;uniqueIndex;not null;type:varchar(64)" json:"jti"`
	SubjectID uint      `gorm:"index" json:"subject_id"`
	Role      string    `gorm:"type:varchar(20)" json:"role"`
	Reason    string    `gorm:"type:varchar(100)" json:"reason"` // logout, manual_revoke
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for JWTTokenBlacklist
func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
