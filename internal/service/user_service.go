package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

const minPasswordLength = 8

// Profile is the account summary shown to the user.
type Profile struct {
	Email           string            `json:"email"`
	Credits         int               `json:"credits"`
	Thumbnails      []model.Thumbnail `json:"thumbnails"`
	Hashtags        []model.Hashtag   `json:"hashtags"`
	Subscription    model.Plan        `json:"subscription"`
	SubscriptionEnd *time.Time        `json:"subscriptionEndDate,omitempty"`
}

// RegisterParams describes a user seeded outside the identity provider.
type RegisterParams struct {
	ID       string
	Email    string
	Password string
	Credits  *int
	Plan     model.Plan
}

type UserService interface {
	// Ensure returns the user, creating it with the default balance on first authentication.
	Ensure(ctx context.Context, id, email string) (*model.User, error)
	Credits(ctx context.Context, userID string) (int, error)
	Profile(ctx context.Context, userID string) (*Profile, error)
	Register(ctx context.Context, p RegisterParams) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo, now: time.Now}
}

func (s *userService) Ensure(ctx context.Context, id, email string) (*model.User, error) {
	u, err := s.userRepo.EnsureUser(ctx, id, email)
	if err != nil {
		return nil, persistenceError(err)
	}
	return u, nil
}

func (s *userService) Credits(ctx context.Context, userID string) (int, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, persistenceError(err)
	}
	return u.Credits, nil
}

func (s *userService) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, persistenceError(err)
	}
	return &Profile{
		Email:           u.Email,
		Credits:         u.Credits,
		Thumbnails:      u.Thumbnails,
		Hashtags:        u.Hashtags,
		Subscription:    u.Subscription,
		SubscriptionEnd: u.SubscriptionEnd,
	}, nil
}

// Register creates a user with a bcrypt password hash.
func (s *userService) Register(ctx context.Context, p RegisterParams) (*model.User, error) {
	email := model.NormalizeEmail(p.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(p.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if p.Plan != "" && !p.Plan.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, p.Plan)
	}
	if p.Credits != nil && *p.Credits < 0 {
		return nil, fmt.Errorf("%w: credits must not be negative", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	u := model.NewUser(id, email, s.now().UTC())
	hashStr := string(hash)
	u.PasswordHash = &hashStr
	if p.Plan != "" {
		u.Subscription = p.Plan
	}
	if p.Credits != nil {
		u.Credits = *p.Credits
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, persistenceError(err)
	}
	return u, nil
}
