package service

import (
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/types"
)

// Action types
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionManage = "manage"
	ActionExport = "export"
)

// Entity types
const (
	EntityLead   = "lead"
	EntityRemark = "remark"
	EntityAgent  = "agent"
	EntityBank   = "bank"
	EntityUser   = "user"
)

// PermissionService answers role based capability questions. Referral agents
// are scoped to their own agent id; admins see every lead.
type PermissionService interface {
	// Lead permissions
	CanViewLead(actor Actor, lead *pipeline.Lead) bool
	CanCreateLeadFor(actor Actor, agentID string) bool
	CanWriteField(actor Actor, field string, creating bool) bool
	DeniedField(actor Actor, fields []string, creating bool) (string, bool)

	// Agent permissions
	CanViewAgent(actor Actor, agentID string) bool
	CanSeeFullBankDetails(actor Actor) bool

	// General permission check
	CheckPermission(actor Actor, entityType, action string) bool
}

type permissionService struct{}

// NewPermissionService creates a new permission service
func NewPermissionService() PermissionService {
	return &permissionService{}
}

func (s *permissionService) CanViewLead(actor Actor, lead *pipeline.Lead) bool {
	if lead == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == types.RoleReferralAgent && actor.AgentID != "" && lead.AgentID == actor.AgentID
}

func (s *permissionService) CanCreateLeadFor(actor Actor, agentID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == types.RoleReferralAgent && actor.AgentID != "" && agentID == actor.AgentID
}

// CanWriteField reports whether actor may set field. Agents only fill in the
// contact and first cold call details of a lead they are logging.
func (s *permissionService) CanWriteField(actor Actor, field string, creating bool) bool {
	switch field {
	case pipeline.FieldCommissionPercent:
		return actor.IsSuperAdmin()
	case pipeline.FieldProjectValue:
		return actor.IsAdmin()
	}
	if actor.IsAdmin() {
		return true
	}
	if !creating || actor.Role != types.RoleReferralAgent {
		return false
	}
	switch field {
	case pipeline.FieldClientName, pipeline.FieldClientPhone, pipeline.FieldPropertyType,
		pipeline.FieldLocation, pipeline.FieldColdCallDate, pipeline.FieldColdCallTime:
		return true
	}
	return false
}

// DeniedField returns the first field actor may not write.
func (s *permissionService) DeniedField(actor Actor, fields []string, creating bool) (string, bool) {
	for _, f := range fields {
		if !s.CanWriteField(actor, f, creating) {
			return f, true
		}
	}
	return "", false
}

func (s *permissionService) CanViewAgent(actor Actor, agentID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.AgentID != "" && actor.AgentID == agentID
}

func (s *permissionService) CanSeeFullBankDetails(actor Actor) bool {
	return actor.IsSuperAdmin()
}

func (s *permissionService) CheckPermission(actor Actor, entityType, action string) bool {
	if !types.IsValidRole(actor.Role) {
		return false
	}
	switch entityType {
	case EntityLead:
		switch action {
		case ActionView, ActionCreate:
			return true
		case ActionEdit, ActionExport:
			return actor.IsAdmin()
		}
	case EntityRemark:
		switch action {
		case ActionView:
			return true
		case ActionCreate:
			return actor.IsAdmin()
		}
	case EntityAgent:
		switch action {
		case ActionView:
			return actor.IsAdmin()
		case ActionCreate, ActionEdit, ActionManage:
			return actor.IsSuperAdmin()
		}
	case EntityBank:
		switch action {
		case ActionEdit, ActionManage:
			return actor.IsSuperAdmin()
		}
	case EntityUser:
		switch action {
		case ActionView, ActionCreate, ActionManage:
			return actor.IsSuperAdmin()
		}
	}
	return false
}
