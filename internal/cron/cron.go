package cron

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/email"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/robfig/cron/v3"
)

// LeadSource is the slice of service.LeadService the jobs read from.
type LeadSource interface {
	DueFollowUps(ctx context.Context) ([]*pipeline.Lead, error)
	ElapsedBookingWindows(ctx context.Context) ([]*pipeline.Lead, error)
	Today() time.Time
}

// Alerter pushes reminders to dashboards. socket.Broadcaster satisfies it.
type Alerter interface {
	FollowUpDue(lead *pipeline.Lead)
	BookingWindowElapsed(lead *pipeline.Lead, deadline string)
}

// AdminDirectory lists the accounts that receive the daily digest.
type AdminDirectory interface {
	Admins(ctx context.Context) ([]*repository.User, error)
}

// DigestMailer queues the booking window digest. email.EmailQueue satisfies it.
type DigestMailer interface {
	SendBookingWindowsElapsed(to []string, data email.BookingWindowsData)
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	leads   LeadSource
	alerts  Alerter
	admins  AdminDirectory
	mailer  DigestMailer
	timeout time.Duration

	mu       sync.Mutex
	notified map[string]string // appointmentId -> date+slot already reminded
}

// NewScheduler creates a scheduler running in loc. admins and mailer may be
// nil, in which case no digest is sent.
func NewScheduler(leads LeadSource, alerts Alerter, admins AdminDirectory, mailer DigestMailer, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		leads:    leads,
		alerts:   alerts,
		admins:   admins,
		mailer:   mailer,
		timeout:  time.Minute,
		notified: make(map[string]string),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Every 30 minutes - follow-ups scheduled for today
	s.cron.AddFunc("*/30 * * * *", func() {
		log.Println("[Cron] Running follow-up check...")
		s.checkFollowUps()
	})

	// Every day at 9 AM - booked-in-next windows that ran out
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running booking window check...")
		s.checkBookingWindows()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

// checkFollowUps alerts once per lead and slot for cold calls and site
// visits dated today that are still Upcoming.
func (s *Scheduler) checkFollowUps() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	due, err := s.leads.DueFollowUps(ctx)
	if err != nil {
		log.Printf("[Cron] Error finding due follow-ups: %v", err)
		return 0
	}

	today := s.leads.Today().Format(pipeline.DateLayout)
	sent := 0

	s.mu.Lock()
	for id, key := range s.notified {
		if len(key) < len(today) || key[:len(today)] != today {
			delete(s.notified, id)
		}
	}
	s.mu.Unlock()

	for _, lead := range due {
		date, clock, _ := lead.ActiveSlot()
		key := date + " " + clock + " " + string(lead.Stage())

		s.mu.Lock()
		seen := s.notified[lead.AppointmentID] == key
		if !seen {
			s.notified[lead.AppointmentID] = key
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		s.alerts.FollowUpDue(lead)
		sent++
	}

	if sent > 0 {
		log.Printf("[Cron] Sent %d follow-up reminders", sent)
	}
	return sent
}

// checkBookingWindows broadcasts each elapsed window and mails admins a
// single digest.
func (s *Scheduler) checkBookingWindows() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	elapsed, err := s.leads.ElapsedBookingWindows(ctx)
	if err != nil {
		log.Printf("[Cron] Error finding elapsed booking windows: %v", err)
		return 0
	}
	if len(elapsed) == 0 {
		return 0
	}

	rows := make([]email.ElapsedLead, 0, len(elapsed))
	for _, lead := range elapsed {
		deadline, _ := pipeline.BookingDeadline(lead)
		d := deadline.Format(pipeline.DateLayout)
		s.alerts.BookingWindowElapsed(lead, d)
		rows = append(rows, email.ElapsedLead{
			LeadID:     lead.LeadID,
			ClientName: lead.ClientName,
			AgentName:  lead.AgentName,
			Deadline:   d,
		})
	}
	log.Printf("[Cron] %d leads past their booking window", len(elapsed))

	if s.admins == nil || s.mailer == nil {
		return len(elapsed)
	}
	admins, err := s.admins.Admins(ctx)
	if err != nil {
		log.Printf("[Cron] Error loading admins for digest: %v", err)
		return len(elapsed)
	}
	to := make([]string, 0, len(admins))
	for _, u := range admins {
		if u.Email != "" {
			to = append(to, u.Email)
		}
	}
	s.mailer.SendBookingWindowsElapsed(to, email.BookingWindowsData{Leads: rows})

	return len(elapsed)
}
