package models

import "time"

// EmergencyAlertType 警报类型
type EmergencyAlertType string

const (
	AlertTypePanic    EmergencyAlertType = "panic"
	AlertTypeMedical  EmergencyAlertType = "medical"
	AlertTypeSecurity EmergencyAlertType = "security"
	AlertTypeFire     EmergencyAlertType = "fire"
	AlertTypeCustom   EmergencyAlertType = "custom"
)

// EmergencyAlertSeverity 警报严重级别
type EmergencyAlertSeverity string

const (
	AlertSeverityLow      EmergencyAlertSeverity = "low"
	AlertSeverityMedium   EmergencyAlertSeverity = "medium"
	AlertSeverityHigh     EmergencyAlertSeverity = "high"
	AlertSeverityCritical EmergencyAlertSeverity = "critical"
)

// EmergencyAlertStatus 警报状态，状态机单向流转:
// active -> acknowledged -> resolved | false_alarm
type EmergencyAlertStatus string

const (
	AlertStatusActive       EmergencyAlertStatus = "active"
	AlertStatusAcknowledged EmergencyAlertStatus = "acknowledged"
	AlertStatusResolved     EmergencyAlertStatus = "resolved"
	AlertStatusFalseAlarm   EmergencyAlertStatus = "false_alarm"
)

// IsTerminal 判断警报状态是否已经是终态
func (s EmergencyAlertStatus) IsTerminal() bool {
	return s == AlertStatusResolved || s == AlertStatusFalseAlarm
}

// EmergencyAlert 保安触发的紧急警报，作为审计记录永不物理删除
type EmergencyAlert struct {
	BaseModel
	GuardID  uint                   `gorm:"index;not null" json:"guard_id"`
	ShiftID  *uint                  `json:"shift_id,omitempty"` // 触发时所处排班，可空
	Type     EmergencyAlertType     `gorm:"type:varchar(20);not null" json:"type"`
	Severity EmergencyAlertSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	Status   EmergencyAlertStatus   `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Message  string                 `gorm:"type:text" json:"message"`

	// 触发时的位置快照
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `gorm:"type:varchar(200)" json:"address"` // 逆地理编码结果，尽力填充

	// 确认信息，首次确认后不再变更
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *uint      `json:"acknowledged_by,omitempty"`

	// 处置信息，终态后不再变更
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uint      `json:"resolved_by,omitempty"`
	Resolution string     `gorm:"type:text" json:"resolution"` // 处置说明只追加，保留审计历史

	// Relations
	Guard *Guard `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
	Shift *Shift `gorm:"foreignKey:ShiftID" json:"shift,omitempty"`
}
