package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/email"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
)

// In-memory implementations of the repository interfaces.

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[string]*pipeline.Lead
	seq   int
	calls int

	// beforeUpdate runs inside Update before the revision check, to
	// simulate a concurrent writer.
	beforeUpdate func()
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[string]*pipeline.Lead{}}
}

func (r *fakeLeadRepo) Create(ctx context.Context, lead *pipeline.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	lead.AppointmentID = fmt.Sprintf("00000000-0000-0000-0000-%012d", r.seq)
	lead.LeadID = fmt.Sprintf("LD%05d", r.seq)
	lead.Revision = 1
	r.leads[lead.AppointmentID] = lead.Clone()
	return nil
}

func (r *fakeLeadRepo) FindByID(ctx context.Context, id string) (*pipeline.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leads[id]; ok {
		return l.Clone(), nil
	}
	return nil, nil
}

func (r *fakeLeadRepo) FindAll(ctx context.Context) ([]*pipeline.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := []*pipeline.Lead{}
	for _, l := range r.leads {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *fakeLeadRepo) FindByAgentID(ctx context.Context, agentID string) ([]*pipeline.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := []*pipeline.Lead{}
	for _, l := range r.leads {
		if l.AgentID == agentID {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, lead *pipeline.Lead, expectedRevision int64) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.leads[lead.AppointmentID]
	if !ok {
		return repository.ErrRecordNotFound
	}
	if cur.Revision != expectedRevision {
		return repository.ErrRevisionMismatch
	}
	lead.Revision = expectedRevision + 1
	r.leads[lead.AppointmentID] = lead.Clone()
	return nil
}

func (r *fakeLeadRepo) put(l *pipeline.Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[l.AppointmentID] = l.Clone()
}

type fakeAgentRepo struct {
	agents map[string]*repository.Agent
}

func (r *fakeAgentRepo) Create(ctx context.Context, a *repository.Agent) error {
	a.ID = fmt.Sprintf("agent-%d", len(r.agents)+1)
	a.AgentCode = fmt.Sprintf("AG%04d", len(r.agents)+1)
	c := *a
	r.agents[a.ID] = &c
	return nil
}

func (r *fakeAgentRepo) FindByID(ctx context.Context, id string) (*repository.Agent, error) {
	if a, ok := r.agents[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (r *fakeAgentRepo) FindAll(ctx context.Context) ([]*repository.Agent, error) {
	out := []*repository.Agent{}
	for _, a := range r.agents {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, a *repository.Agent) error {
	if _, ok := r.agents[a.ID]; !ok {
		return repository.ErrRecordNotFound
	}
	c := *a
	r.agents[a.ID] = &c
	return nil
}

func (r *fakeAgentRepo) UpdateBankDetails(ctx context.Context, id string, bank repository.BankDetails) error {
	a, ok := r.agents[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	a.Bank = bank
	return nil
}

type fakeUserRepo struct {
	users      map[string]*repository.User
	tokens     map[string]*repository.RefreshToken
	consumeErr error
	mu         sync.Mutex
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*repository.User{}, tokens: map[string]*repository.RefreshToken{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *repository.User) error {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	u.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*repository.User, error) {
	out := []*repository.User{}
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, t *repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Token] = t
	return nil
}

func (r *fakeUserRepo) ConsumeRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	if r.consumeErr != nil {
		return nil, r.consumeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rt := r.tokens[token]
	delete(r.tokens, token)
	return rt, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

type fakeRemarkRepo struct {
	remarks []*pipeline.Remark
}

func (r *fakeRemarkRepo) Append(ctx context.Context, remark *pipeline.Remark) error {
	remark.ID = int64(len(r.remarks) + 1)
	remark.CreatedAt = time.Now()
	c := *remark
	r.remarks = append(r.remarks, &c)
	return nil
}

func (r *fakeRemarkRepo) FindByAppointmentID(ctx context.Context, id string) ([]*pipeline.Remark, error) {
	out := []*pipeline.Remark{}
	for _, rm := range r.remarks {
		if rm.AppointmentID == id {
			c := *rm
			out = append(out, &c)
		}
	}
	return out, nil
}

// fakeCache stores JSON like the Redis cache does.
type fakeCache struct {
	data        map[string][]byte
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) GetCache(ctx context.Context, key string, dest interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return fmt.Errorf("miss")
	}
	return json.Unmarshal(b, dest)
}

func (c *fakeCache) SetCache(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) InvalidateCache(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type notifyEvent struct {
	kind    string
	leadID  string
	changed []string
}

type fakeNotifier struct {
	events []notifyEvent
}

func (n *fakeNotifier) LeadCreated(l *pipeline.Lead, actorID string) {
	n.events = append(n.events, notifyEvent{kind: "created", leadID: l.AppointmentID})
}

func (n *fakeNotifier) LeadUpdated(l *pipeline.Lead, changed []string, actorID string) {
	n.events = append(n.events, notifyEvent{kind: "updated", leadID: l.AppointmentID, changed: changed})
}

func (n *fakeNotifier) RemarkAdded(l *pipeline.Lead, r *pipeline.Remark, actorID string) {
	n.events = append(n.events, notifyEvent{kind: "remark", leadID: l.AppointmentID})
}

type fakeMailer struct {
	sent []email.LeadBookedData
	to   []string
}

func (m *fakeMailer) SendLeadBooked(to string, data email.LeadBookedData) {
	m.to = append(m.to, to)
	m.sent = append(m.sent, data)
}

// Fixtures

var (
	superAdmin = Actor{UserID: "u-super", Name: "Sunita", Role: types.RoleSuperAdmin}
	salesAdmin = Actor{UserID: "u-sales", Name: "Rahul", Role: types.RoleSalesAdmin}
	agentOne   = Actor{UserID: "u-a1", Name: "Amit", Role: types.RoleReferralAgent, AgentID: "agent-1"}
	agentTwo   = Actor{UserID: "u-a2", Name: "Priya", Role: types.RoleReferralAgent, AgentID: "agent-2"}
)

// fixedNow is 2024-03-10 11:45 in Asia/Kolkata.
func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 6, 15, 0, 0, time.UTC)
}

func kolkata() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

func newAgentRepo() *fakeAgentRepo {
	two := decimal.RequireFromString("2")
	mail := "amit@example.com"
	return &fakeAgentRepo{agents: map[string]*repository.Agent{
		"agent-1": {
			ID: "agent-1", AgentCode: "AG0001", Name: "Amit", Phone: "9800000001", Email: &mail,
			DefaultCommissionPercent: &two,
			Bank:                     repository.BankDetails{AccountHolder: "Amit", AccountNumber: "123456789012", IFSC: "HDFC0001234"},
		},
		"agent-2": {ID: "agent-2", AgentCode: "AG0002", Name: "Priya", Phone: "9800000002"},
	}}
}

type leadFixture struct {
	svc      LeadService
	leads    *fakeLeadRepo
	agents   *fakeAgentRepo
	cache    *fakeCache
	notifier *fakeNotifier
	mailer   *fakeMailer
}

func newLeadFixture() *leadFixture {
	f := &leadFixture{
		leads:    newFakeLeadRepo(),
		agents:   newAgentRepo(),
		cache:    newFakeCache(),
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
	}
	f.svc = NewLeadService(LeadServiceDeps{
		Leads:       f.leads,
		Agents:      f.agents,
		Cache:       f.cache,
		CacheTTL:    time.Minute,
		Notifier:    f.notifier,
		Mailer:      f.mailer,
		FrontendURL: "https://app.example.com",
		Clock:       NewClock(fixedNow, kolkata()),
	})
	return f
}

func (f *leadFixture) seed(t *testing.T, agentID, name string) *pipeline.Lead {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), salesAdmin, pipeline.Draft{
		AgentID:     agentID,
		ClientName:  name,
		ClientPhone: "9876543210",
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return lead
}

func strp(s string) *string { return &s }
