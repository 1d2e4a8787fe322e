package service

import (
	"context"
	"errors"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/config"
	"github.com/kayapalat/kayapalat-backend/internal/email"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/kayapalat/kayapalat-backend/internal/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("record changed, please refresh")
	ErrInvalidInput       = errors.New("invalid input")
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	UserID  string
	Name    string
	Role    string
	AgentID string
}

func (a Actor) IsAdmin() bool { return types.IsAdminRole(a.Role) }
func (a Actor) IsSuperAdmin() bool { return a.Role == types.RoleSuperAdmin }

// DisplayName is what remark logs and emails show for the actor.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}

// LeadCache stores scoped lead lists. db.RedisDB satisfies it.
type LeadCache interface {
	GetCache(ctx context.Context, key string, dest interface{}) error
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	InvalidateCache(ctx context.Context, pattern string) error
}

// LeadNotifier pushes persisted lead changes to live dashboards.
// socket.Broadcaster satisfies it.
type LeadNotifier interface {
	LeadCreated(lead *pipeline.Lead, actorID string)
	LeadUpdated(lead *pipeline.Lead, changed []string, actorID string)
	RemarkAdded(lead *pipeline.Lead, remark *pipeline.Remark, actorID string)
}

// Mailer queues outgoing email. email.EmailQueue satisfies it.
type Mailer interface {
	SendLeadBooked(to string, data email.LeadBookedData)
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Agent      AgentService
	Lead       LeadService
	Remark     RemarkService
	Permission PermissionService
}

// ServiceDeps contains all dependencies needed to create services.
// Cache, Notifier and Mailer are optional.
type ServiceDeps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Cache    LeadCache
	Notifier LeadNotifier
	Mailer   Mailer
	Now      func() time.Time
}

func NewServices(deps *ServiceDeps) *Services {
	clock := NewClock(deps.Now, deps.Config.Location())
	permissionService := NewPermissionService()

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:       NewUserService(deps.Repos.UserRepo, deps.Repos.AgentRepo, permissionService),
		Agent:      NewAgentService(deps.Repos.AgentRepo, deps.Repos.LeadRepo, permissionService),
		Permission: permissionService,
		Lead: NewLeadService(LeadServiceDeps{
			Leads:       deps.Repos.LeadRepo,
			Agents:      deps.Repos.AgentRepo,
			Permission:  permissionService,
			Cache:       deps.Cache,
			CacheTTL:    deps.Config.LeadsCacheTTL,
			Notifier:    deps.Notifier,
			Mailer:      deps.Mailer,
			FrontendURL: deps.Config.FrontendURL,
			Clock:       clock,
		}),
		Remark: NewRemarkService(
			deps.Repos.RemarkRepo,
			deps.Repos.LeadRepo,
			permissionService,
			deps.Notifier,
			clock,
		),
	}
}

// ============================================
// Clock
// ============================================

// Clock reads the wall clock in the business timezone.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock builds a clock from a time source and location. A nil source
// means time.Now.
func NewClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

// Now is the current instant in the business timezone.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// ============================================
// No-op collaborators
// ============================================

type nopNotifier struct{}

func (nopNotifier) LeadCreated(*pipeline.Lead, string) {}
func (nopNotifier) LeadUpdated(*pipeline.Lead, []string, string) {}
func (nopNotifier) RemarkAdded(*pipeline.Lead, *pipeline.Remark, string) {}

type nopMailer struct{}

func (nopMailer) SendLeadBooked(string, email.LeadBookedData) {}
