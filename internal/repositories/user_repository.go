package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetOrCreateFirebaseUser(ctx context.Context, firebaseUID, email string, emailVerified bool) (*models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a user, failing with ErrEmailTaken on a duplicate email
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := r.GetUserByEmail(ctx, user.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetUsersByIDs returns the users that exist among ids
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	return users, nil
}

// GetOrCreateFirebaseUser resolves the local user linked to a Firebase UID.
// An existing account is linked by email only when the provider verified that
// email; otherwise a fresh user is created with a placeholder address so that
// accounts without an email never collide on the unique index.
func (r *PostgresUserRepository) GetOrCreateFirebaseUser(ctx context.Context, firebaseUID, email string, emailVerified bool) (*models.User, error) {
	user, err := r.first(ctx, "firebase_uid = ?", firebaseUID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if email == "" || !emailVerified {
		return r.createFirebaseUser(ctx, firebaseUID, firebasePlaceholderEmail(firebaseUID))
	}

	user, err = r.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.FirebaseUID = firebaseUID
		if err := r.db.WithContext(ctx).Model(user).Update("firebase_uid", firebaseUID).Error; err != nil {
			return nil, fmt.Errorf("link firebase user: %w", err)
		}
		return user, nil
	case errors.Is(err, ErrUserNotFound):
		return r.createFirebaseUser(ctx, firebaseUID, email)
	default:
		return nil, err
	}
}

func (r *PostgresUserRepository) createFirebaseUser(ctx context.Context, firebaseUID, email string) (*models.User, error) {
	user := &models.User{Email: email, FirebaseUID: firebaseUID}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create firebase user: %w", err)
	}
	return user, nil
}

// firebasePlaceholderEmail uses the reserved .invalid TLD so it can never
// match a real address.
func firebasePlaceholderEmail(firebaseUID string) string {
	return firebaseUID + "@users.firebase.invalid"
}

func (r *PostgresUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
