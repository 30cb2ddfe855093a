package model

import "time"

// AbilityProfile 用户在单一学科上的潜在能力估计。
// Theta 只允许由能力估计器的更新规则修改，禁止UI或批处理脚本直接写入。
// 首次作答时以 theta=0、standardError=1.0 惰性创建，永不删除（百分位
// 曲线需要历史连续性）。
// swagger:model AbilityProfile
type AbilityProfile struct {
	BaseModel
	UserID        uint      `gorm:"uniqueIndex:idx_user_subject;type:bigint unsigned;not null" json:"userId"`
	Subject       string    `gorm:"uniqueIndex:idx_user_subject;size:100;not null" json:"subject"`
	Theta         float64   `gorm:"not null;default:0" json:"theta"`
	StandardError float64   `gorm:"not null;default:1" json:"standardError"`
	ResponseCount int       `gorm:"not null;default:0" json:"responseCount"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

func (AbilityProfile) TableName() string {
	return "ability_profiles"
}
