package models

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleVendor || r == RoleAdmin
}

type User struct {
	ID       string   `json:"id" bson:"_id"`
	Name     string   `json:"name" bson:"name"`
	Email    string   `json:"email" bson:"email"`
	ShopName string   `json:"shop_name,omitempty" bson:"shop_name,omitempty"`
	Role     Role     `json:"role" bson:"role"`
	Orders   []string `json:"orders,omitempty" bson:"orders,omitempty"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ShopName string `json:"shop_name,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ShopName: u.ShopName}
}

// Principal is the authenticated caller as forwarded by the gateway.
type Principal struct {
	UserID string
	Role   Role
}

// SystemPrincipal acts for background consumers such as payment callbacks.
var SystemPrincipal = Principal{UserID: "system", Role: RoleAdmin}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
