package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"pixgate/internal/bucketing"
	"pixgate/internal/model"
	"pixgate/internal/util"
)

type userRepository struct {
	client  *Client
	buckets *bucketing.Manager
}

func NewUserRepository(client *Client, buckets *bucketing.Manager) UserRepository {
	return &userRepository{client: client, buckets: buckets}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	user.UserBucket = r.buckets.UserBucket(user.UserID)

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Status == "" {
		user.Status = model.StatusPending
	}

	// One logged batch keeps the three tables consistent.
	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.CreateUser.Statement(),
		user.UserBucket, user.UserID, user.Email, user.Name, user.PasswordHash,
		string(user.Role), user.Status, user.CreatedAt, user.UpdatedAt,
		user.LastLoginAt, user.LastLoginIP)
	batch.Query(r.client.Prepared.CreateEmailToUser.Statement(),
		user.Email, user.UserBucket, user.UserID)
	batch.Query(r.client.Prepared.CreateStatusRow.Statement(),
		user.Status, user.CreatedAt, user.UserID, user.Email, user.Name, string(user.Role))

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to create user",
			util.String("user_id", user.UserID),
			util.ErrorField(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Info("User created",
		util.String("user_id", user.UserID),
		util.String("role", string(user.Role)),
		util.String("status", user.Status))
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user := &model.User{}
	bucket := r.buckets.UserBucket(userID)

	var role string
	query := r.client.Prepared.GetUserByID.Bind(bucket, userID).WithContext(ctx)
	err := query.Scan(
		&user.UserBucket, &user.UserID, &user.Email, &user.Name, &user.PasswordHash,
		&role, &user.Status, &user.CreatedAt, &user.UpdatedAt,
		&user.LastLoginAt, &user.LastLoginIP)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		util.Error("Failed to get user by ID",
			util.String("user_id", userID),
			util.ErrorField(err))
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	user.Role = model.ParseRole(role)
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var bucket int
	var userID string

	query := r.client.Prepared.GetUserByEmail.Bind(email).WithContext(ctx)
	if err := query.Scan(&bucket, &userID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	return r.GetUserByID(ctx, userID)
}

func (r *userRepository) UpdateUserStatus(ctx context.Context, userID, status string) error {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.UpdateUserStatus.Statement(),
		status, now, user.UserBucket, user.UserID)
	// The listing table is keyed by status; move the row.
	batch.Query(`DELETE FROM users_by_status WHERE status = ? AND created_at = ? AND user_id = ?`,
		user.Status, user.CreatedAt, user.UserID)
	batch.Query(r.client.Prepared.CreateStatusRow.Statement(),
		status, user.CreatedAt, user.UserID, user.Email, user.Name, string(user.Role))

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to update user status",
			util.String("user_id", userID),
			util.String("status", status),
			util.ErrorField(err))
		return fmt.Errorf("failed to update user status: %w", err)
	}

	util.Info("User status updated",
		util.String("user_id", userID),
		util.String("status", status))
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID, loginIP string) error {
	bucket := r.buckets.UserBucket(userID)
	now := time.Now().UTC()

	query := r.client.Prepared.UpdateLastLogin.Bind(now, loginIP, now, bucket, userID).WithContext(ctx)
	if err := query.Exec(); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *userRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*model.User, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	iter := r.client.Prepared.ListByStatus.Bind(status, limit).WithContext(ctx).Iter()

	var users []*model.User
	var createdAt time.Time
	var userID, email, name, role string
	for iter.Scan(&createdAt, &userID, &email, &name, &role) {
		users = append(users, &model.User{
			UserID:    userID,
			Email:     email,
			Name:      name,
			Role:      model.ParseRole(role),
			Status:    status,
			CreatedAt: createdAt,
		})
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list users by status",
			util.String("status", status),
			util.ErrorField(err))
		return nil, fmt.Errorf("failed to list users by status: %w", err)
	}
	return users, nil
}

func (r *userRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck()
}
