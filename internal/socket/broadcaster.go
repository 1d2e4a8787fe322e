package socket

import (
	"log"

	"github.com/kayapalat/kayapalat-backend/internal/models"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
)

// Broadcaster provides high-level methods for broadcasting lead events.
// Every event goes to the admins' leads room and to the owning agent's room.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) toLeadRooms(agentID string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(RoomLeads, msgType, payload, excludeUserID)
	if agentID != "" {
		b.hub.SendToRoom(AgentRoom(agentID), msgType, payload, excludeUserID)
	}
}

// ============================================
// Lead Broadcasting
// ============================================

// LeadCreated broadcasts a newly logged lead
func (b *Broadcaster) LeadCreated(lead *pipeline.Lead, actorID string) {
	b.toLeadRooms(lead.AgentID, MessageLeadCreated, map[string]interface{}{
		"project":   models.NewLeadResponse(lead),
		"createdBy": actorID,
	}, actorID)
}

// LeadUpdated broadcasts the persisted lead and the fields that changed
func (b *Broadcaster) LeadUpdated(lead *pipeline.Lead, changed []string, actorID string) {
	log.Printf("📡 LeadUpdated: appointment=%s, stage=%s, changed=%v", lead.AppointmentID, lead.Stage(), changed)

	b.toLeadRooms(lead.AgentID, MessageLeadUpdated, map[string]interface{}{
		"project":       models.NewLeadResponse(lead),
		"changedFields": changed,
		"changedByUser": actorID,
	}, actorID)
}

// RemarkAdded broadcasts a new remark on a lead
func (b *Broadcaster) RemarkAdded(lead *pipeline.Lead, remark *pipeline.Remark, actorID string) {
	b.toLeadRooms(lead.AgentID, MessageRemarkAdded, map[string]interface{}{
		"appointmentId": lead.AppointmentID,
		"remark":        models.NewRemarkResponse(remark),
	}, actorID)
}

// ============================================
// Reminders
// ============================================

// FollowUpDue reminds dashboards that a lead's active slot is today
func (b *Broadcaster) FollowUpDue(lead *pipeline.Lead) {
	date, clock, _ := lead.ActiveSlot()
	b.toLeadRooms(lead.AgentID, MessageFollowUpDue, map[string]interface{}{
		"project": models.NewLeadResponse(lead),
		"date":    date,
		"time":    clock,
	}, "")
}

// BookingWindowElapsed flags a lead that missed its expected booking window.
// Only admins act on it, so agent rooms are skipped.
func (b *Broadcaster) BookingWindowElapsed(lead *pipeline.Lead, deadline string) {
	b.hub.SendToRoom(RoomLeads, MessageBookingWindowElapsed, map[string]interface{}{
		"project":  models.NewLeadResponse(lead),
		"deadline": deadline,
	}, "")
}
