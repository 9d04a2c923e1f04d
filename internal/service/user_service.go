package service

import (
	"context"
	"log"
	"strings"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/media"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
)

const (
	folderAvatars = "avatars"
	widthAvatar   = 150
)

type UserService interface {
	Me(ctx context.Context, actor Actor) (*model.User, error)
	UpdateInfo(ctx context.Context, actor Actor, name string) (*model.User, error)
	UpdatePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error
	UpdateAvatar(ctx context.Context, actor Actor, encoded string) (*model.User, error)
	BecomeSeller(ctx context.Context, actor Actor) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, email string, role model.Role) (*model.User, error)
	Delete(ctx context.Context, id uint64) error
}

type userService struct {
	users     repository.UserRepository
	notifRepo repository.NotificationRepository
	sessions  auth.SessionStore
	media     media.Store
	notify    NotificationService
}

func NewUserService(users repository.UserRepository, notifRepo repository.NotificationRepository, sessions auth.SessionStore, store media.Store, notify NotificationService) UserService {
	return &userService{users: users, notifRepo: notifRepo, sessions: sessions, media: store, notify: notify}
}

func (s *userService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

func (s *userService) UpdateInfo(ctx context.Context, actor Actor, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	u.Name = name
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	return u, nil
}

func (s *userService) UpdatePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.BadRequest("Please enter old and new password")
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperr.BadRequest("password must be at least %d characters", auth.MinPasswordLength)
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return apperr.BadRequest("Invalid user")
	}
	if !auth.CheckPassword(u.PasswordHash, oldPassword) {
		return apperr.BadRequest("Invalid old password")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

func (s *userService) UpdateAvatar(ctx context.Context, actor Actor, encoded string) (*model.User, error) {
	if encoded == "" {
		return nil, apperr.BadRequest("avatar is required")
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if u.Avatar.PublicID != "" {
		if err := s.media.Destroy(ctx, u.Avatar.PublicID); err != nil {
			log.Printf("[media] destroy failed public_id=%s err=%v", u.Avatar.PublicID, err)
		}
	}
	asset, err := s.media.Upload(ctx, encoded, folderAvatars, widthAvatar)
	if err != nil {
		return nil, uploadError(err)
	}
	u.Avatar = asset
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	return u, nil
}

// BecomeSeller upgrades a plain user. The change cannot be undone by the user.
func (s *userService) BecomeSeller(ctx context.Context, actor Actor) (*model.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	switch u.Role {
	case model.RoleSeller:
		return nil, apperr.BadRequest("You are already a seller")
	case model.RoleUser:
	default:
		return nil, apperr.BadRequest("Only users can become sellers")
	}
	u.Role = model.RoleSeller
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	s.notify.Notify(ctx, u.ID, model.NotificationSystem, "Welcome, Seller",
		"You are now a seller! You can start publishing products.", "", nil)
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, email string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.BadRequest("invalid role: %s", role)
	}
	u, err := s.users.UpdateRoleByEmail(ctx, strings.ToLower(strings.TrimSpace(email)), role)
	if err != nil {
		return nil, notFound(err, "User")
	}
	s.refreshSession(ctx, u)
	return u, nil
}

// Delete removes the user with their notifications, avatar and session.
func (s *userService) Delete(ctx context.Context, id uint64) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "User")
	}
	if err := s.notifRepo.DeleteByUser(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err, "User")
	}
	if u.Avatar.PublicID != "" {
		if err := s.media.Destroy(ctx, u.Avatar.PublicID); err != nil {
			log.Printf("[media] destroy failed public_id=%s err=%v", u.Avatar.PublicID, err)
		}
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		log.Printf("[session] delete failed user_id=%d err=%v", id, err)
	}
	return nil
}

// refreshSession rewrites a live session so role and profile changes show up
// on the next request. Users without a session are left logged out.
func (s *userService) refreshSession(ctx context.Context, u *model.User) {
	if _, err := s.sessions.Load(ctx, u.ID); err != nil {
		return
	}
	if err := s.sessions.Save(ctx, auth.NewSession(u)); err != nil {
		log.Printf("[session] refresh failed user_id=%d err=%v", u.ID, err)
	}
}
