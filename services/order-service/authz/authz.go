// Package authz maps marketplace roles to the order actions they may call.
// Ownership of a particular order is checked by the ledger; this only
// answers whether the role may attempt the action at all.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

const (
	ObjOrders = "orders"
	ObjCart   = "cart"
)

const (
	ActCreate     = "create"
	ActListOwn    = "list_own"
	ActListVendor = "list_vendor"
	ActListAll    = "list_all"
	ActRead       = "read"
	ActSetStatus  = "set_status"
	ActRequestOTP = "request_otp"
	ActVerifyOTP  = "verify_otp"
	ActCancel     = "cancel"
	ActReturn     = "return"
	ActWrite      = "write"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var policies = [][]string{
	{string(models.RoleUser), ObjOrders, ActCreate},
	{string(models.RoleUser), ObjOrders, ActListOwn},
	{string(models.RoleUser), ObjOrders, ActRead},
	{string(models.RoleUser), ObjOrders, ActVerifyOTP},
	{string(models.RoleUser), ObjOrders, ActCancel},
	{string(models.RoleUser), ObjOrders, ActReturn},
	{string(models.RoleUser), ObjCart, ActRead},
	{string(models.RoleUser), ObjCart, ActWrite},

	{string(models.RoleVendor), ObjOrders, ActListVendor},
	{string(models.RoleVendor), ObjOrders, ActSetStatus},
	{string(models.RoleVendor), ObjOrders, ActRequestOTP},

	{string(models.RoleAdmin), ObjOrders, ActListAll},
}

// vendor inherits user, admin inherits vendor
var inheritance = [][]string{
	{string(models.RoleVendor), string(models.RoleUser)},
	{string(models.RoleAdmin), string(models.RoleVendor)},
}

// Enforcer answers role permission checks.
type Enforcer struct {
	e *casbin.Enforcer
}

// NewEnforcer builds the in-memory RBAC enforcer with the built-in policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if _, err := e.AddGroupingPolicies(inheritance); err != nil {
		return nil, fmt.Errorf("failed to load role inheritance: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// Allowed reports whether role may perform act on obj.
func (a *Enforcer) Allowed(role models.Role, obj, act string) (bool, error) {
	ok, err := a.e.Enforce(string(role), obj, act)
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return ok, nil
}
