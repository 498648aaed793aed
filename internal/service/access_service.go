package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type maintenanceStore interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// AccessDecision is the outcome of an authorization check.
type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// AccessService decides whether an operation may proceed given the
// caller's role and the maintenance flag. The decision itself is pure;
// the flag is loaded from the settings store and cached until an admin
// toggle or an explicit refresh. Readers may observe a stale value
// until then (last-writer-wins).
type AccessService struct {
	settings maintenanceStore
	logger   *zap.Logger

	mu     sync.RWMutex
	cached *bool
}

// NewAccessService constructs AccessService.
func NewAccessService(settings maintenanceStore, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{settings: settings, logger: logger}
}

// Authorize is the pure gate rule: reads are always allowed, admins are
// always allowed, and any other role is denied writes while maintenance
// mode is active.
func (s *AccessService) Authorize(role models.UserRole, write, maintenance bool) AccessDecision {
	if !write {
		return AccessDecision{Allowed: true}
	}
	if role == models.RoleAdmin {
		return AccessDecision{Allowed: true}
	}
	if maintenance {
		return AccessDecision{Allowed: false, Reason: appErrors.ErrMaintenance.Message}
	}
	return AccessDecision{Allowed: true}
}

// CheckWrite loads the cached maintenance flag and applies Authorize for
// a write operation, returning a typed denial when blocked.
func (s *AccessService) CheckWrite(ctx context.Context, role models.UserRole) error {
	maintenance, err := s.MaintenanceMode(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check maintenance mode")
	}
	if decision := s.Authorize(role, true, maintenance); !decision.Allowed {
		return appErrors.Clone(appErrors.ErrMaintenance, decision.Reason)
	}
	return nil
}

// MaintenanceMode returns the cached flag, loading it on first use.
func (s *AccessService) MaintenanceMode(ctx context.Context) (bool, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads the maintenance flag from the settings store.
func (s *AccessService) Refresh(ctx context.Context) (bool, error) {
	value, err := s.settings.GetBool(ctx, models.SettingKeyMaintenance)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.cached = &value
	s.mu.Unlock()
	return value, nil
}

// SetMaintenanceMode persists the flag and updates the cache. Only admin
// callers reach this; the handler enforces the role.
func (s *AccessService) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	if err := s.settings.SetBool(ctx, models.SettingKeyMaintenance, enabled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update maintenance mode")
	}
	s.mu.Lock()
	s.cached = &enabled
	s.mu.Unlock()
	s.logger.Info("maintenance mode updated", zap.Bool("enabled", enabled))
	return nil
}
