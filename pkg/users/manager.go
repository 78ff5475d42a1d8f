package users

import (
	"context"

	apperrors "github.com/memtensor/userapi/pkg/errors"
	"github.com/memtensor/userapi/pkg/interfaces"
)

// Manager is the user service behind the CRUD and listing endpoints
type Manager struct {
	repository *Repository
	logger     interfaces.Logger
}

// NewManager creates a new user manager instance
func NewManager(repository *Repository, log interfaces.Logger) *Manager {
	return &Manager{
		repository: repository,
		logger:     log,
	}
}

// CreateUserParams is a registration request. Only the first four fields are required.
type CreateUserParams struct {
	Email     string  `json:"email" validate:"required,emailformat"`
	Password  string  `json:"password" validate:"required,min=6,maxbytes=72,strongpassword"`
	Firstname string  `json:"firstname" validate:"required,trimmedmin=2"`
	Lastname  string  `json:"lastname" validate:"required,trimmedmin=2"`
	Age       *int    `json:"age,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// Validate checks the registration rules and reports the first violation
func (p CreateUserParams) Validate() error {
	return validateStruct(p, MsgRegistrationRequired)
}

// UpdateUserParams carries a partial update; nil fields are left untouched
type UpdateUserParams struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
	Age       *int    `json:"age,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// LoginParams is a login request
type LoginParams struct {
	Email    string `json:"email" validate:"required,emailformat"`
	Password string `json:"password" validate:"required,notblank"`
}

// Validate checks the login rules and reports the first violation
func (p LoginParams) Validate() error {
	return validateStruct(p, MsgLoginRequired)
}

// CreateUser validates params, hashes the password and stores the user.
// Store failures, including a duplicate email, come back as internal errors.
func (m *Manager) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	user := &User{
		Email:     params.Email,
		Password:  hashedPassword,
		Firstname: params.Firstname,
		Lastname:  params.Lastname,
		Age:       params.Age,
		Phone:     params.Phone,
		Role:      params.Role,
		IsActive:  true,
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
	}

	if err := m.repository.CreateUser(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	m.logger.Info("User created", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// GetUser retrieves a user by ID
func (m *Manager) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := m.repository.FindUserByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateUser applies a partial update. A new password is hashed before storage.
// A missing user is an internal error, as is any other store failure.
func (m *Manager) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*User, error) {
	updates := make(map[string]interface{})

	if params.Email != nil {
		updates["email"] = *params.Email
	}
	if params.Password != nil {
		if len(*params.Password) > MaxPasswordBytes {
			return nil, apperrors.NewValidationError(MsgPasswordTooLong)
		}
		hashedPassword, err := HashPassword(*params.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err.Error(), err)
		}
		updates["password"] = hashedPassword
	}
	if params.Firstname != nil {
		updates["firstname"] = *params.Firstname
	}
	if params.Lastname != nil {
		updates["lastname"] = *params.Lastname
	}
	if params.Age != nil {
		updates["age"] = *params.Age
	}
	if params.Phone != nil {
		updates["phone"] = *params.Phone
	}
	if params.Role != nil {
		updates["role"] = *params.Role
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}

	user, err := m.repository.UpdateUser(ctx, id, updates)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	m.logger.Info("User updated", map[string]interface{}{"user_id": id, "fields": len(updates)})
	return user, nil
}

// DeleteUser permanently removes a user
func (m *Manager) DeleteUser(ctx context.Context, id string) error {
	if err := m.repository.DeleteUser(ctx, id); err != nil {
		return apperrors.NewInternalError(err.Error(), err)
	}

	m.logger.Info("User deleted", map[string]interface{}{"user_id": id})
	return nil
}

// ListUsers returns one page of users matching filter
func (m *Manager) ListUsers(ctx context.Context, filter UserFilter) (*UserPage, error) {
	filter = filter.Normalize()

	users, total, err := m.repository.ListUsers(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.Limit,
		TotalPages: TotalPages(total, filter.Limit),
	}, nil
}
