package models

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	Role         int    `json:"role"`
	Group        string `json:"group"`
	CreatedAt    int64  `json:"created_at"`
	LastLoginAt  *int64 `json:"last_login_at,omitempty"`
}

const (
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

// DefaultGroup applies to users and tokens with no group of their own.
const DefaultGroup = "default"

func (u *User) IsAdmin() bool {
	return u.Role >= RoleAdminUser
}

// Option is a runtime-configurable key/value switch. Values are strings;
// booleans are encoded as "true"/"false".
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

const (
	OptionModelRatioEnabled       = "ModelRatioEnabled"
	OptionBillingByRequestEnabled = "BillingByRequestEnabled"
	OptionUserGroupEnabled        = "UserGroupEnabled"
)

type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       int64                  `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent"`
	CreatedAt    int64                  `json:"created_at"`
}
