package model

import "time"

// User 用户数据模型
// 用户与凭证管理由外部系统负责,这里只作为审核人目录的只读查询面
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"` // 登录名
	Name      string    `gorm:"type:varchar(50)" json:"name"`                          // 姓名
	Role      string    `gorm:"type:varchar(50);index" json:"role"`                    // 系统角色
	LoanRole  string    `gorm:"type:varchar(50);index" json:"loan_role"`               // 贷款审核角色(如 auditor/superAuditor)
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
