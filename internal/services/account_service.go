package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// AccountService serves the customer's own data: registration on /start,
// the saved delivery profile, and order history.
type AccountService struct {
	Users  UserStore
	Orders OrderStore

	// HistoryLimit caps "My Orders". Defaults to 10.
	HistoryLimit int
}

// Register records the user on first contact. Existing rows are untouched.
func (s *AccountService) Register(ctx context.Context, userID int64, username, fullName string) error {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Register",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	return s.Users.EnsureUser(ctx, &domain.User{
		UserID:   userID,
		Username: strings.TrimSpace(username),
		FullName: strings.TrimSpace(fullName),
	})
}

// Profile returns the saved profile. A user who has never completed an
// intake flow gets ErrProfileNotFound.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if !u.HasPhone() {
		return nil, ErrProfileNotFound
	}
	return u, nil
}

// History returns the user's most recent orders, newest first.
func (s *AccountService) History(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "History",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 10
	}
	return s.Orders.ListOrders(ctx, domain.OrderFilter{UserID: userID}, limit)
}
