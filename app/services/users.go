package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/config"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/mail"
)

// UsersService manages accounts. Accounts are keyed by email; the identity
// provider's subject is bound once at creation and never changes.
type UsersService struct {
	store *store.Store
}

func NewUsersService(st *store.Store) *UsersService {
	return &UsersService{store: st}
}

// Create binds a new account to the caller's verified claims. The insert is
// conditional on the email being free, so a replayed signup cannot rebind an
// existing account to a different subject.
func (s *UsersService) Create(ctx context.Context, email, subject, name, phone string) (*models.User, error) {
	user := &models.User{
		Email:         email,
		UserID:        subject,
		Name:          name,
		PhoneNumber:   phone,
		ListingIDs:    []string{},
		RedeemedIDs:   []string{},
		WishlistIDs:   []string{},
		Reviews:       []models.Review{},
		Notifications: []models.Notification{},
	}

	if err := s.store.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.New(apperr.KindConflict, "an account already exists for this email")
		}
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}

	logger.WithCtx(ctx).Info("user created", "email", email)
	return user, nil
}

// Get returns the account for email.
func (s *UsersService) Get(ctx context.Context, email string) (*models.User, error) {
	u, err := s.store.Users.Get(ctx, email)
	if err != nil {
		return nil, userErr(err, email)
	}
	return u, nil
}

// UpdateProfile edits the caller's own address and phone fields.
func (s *UsersService) UpdateProfile(ctx context.Context, email string, p store.ProfilePatch, callerSubject string) error {
	user, err := s.store.Users.Get(ctx, email)
	if err != nil {
		return userErr(err, email)
	}
	if user.UserID != callerSubject {
		return apperr.New(apperr.KindUnauthorized, "caller does not own this account")
	}

	if err := s.store.Users.UpdateProfile(ctx, email, p); err != nil {
		return fmt.Errorf("update profile %s: %w", email, err)
	}
	return nil
}

// OrdersFor returns the orders where email participates as seller or redeemer.
func (s *UsersService) OrdersFor(ctx context.Context, email string) ([]models.Order, error) {
	return s.store.Orders.ByParticipant(ctx, email)
}

// Contact relays a contact-form message to the support inbox.
func (s *UsersService) Contact(ctx context.Context, name, fromEmail, message string) error {
	body := fmt.Sprintf("From: %s <%s>\n\n%s", name, fromEmail, message)
	err := mail.To(config.SupportEmail()).
		Subject("Contact form message from " + name).
		ReplyTo(fromEmail).
		Text(body).
		Send()
	if err != nil {
		logger.WithCtx(ctx).Error("contact relay failed", "from", fromEmail, "error", err)
		return apperr.Wrap(apperr.KindInternal, "could not deliver your message", err)
	}
	return nil
}
