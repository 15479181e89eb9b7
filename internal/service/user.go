package service

import (
	"context"

	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

// UserService is the admin view of accounts.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, req dto.ListUsersRequest) (*dto.UserListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	users, total, err := s.users.List(ctx, req.Limit, offset)
	if err != nil {
		return nil, classify("list users", err)
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return &dto.UserListResponse{Users: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}
