package main

import (
	"context"
	"fmt"

	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"github.com/shinyyama/market-backend/internal/service"
	"github.com/spf13/cobra"
)

type adminInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func createAdminCmd() *cobra.Command {
	var in adminInput
	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create a verified admin account",
		Example: `  marketctl create-admin --email ops@example.com --name Ops --password s3cret!`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			u, err := createAdmin(cmd.Context(), repository.NewUserRepository(conn), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created id=%d email=%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAdmin(ctx context.Context, users repository.UserRepository, in adminInput) (*model.User, error) {
	if in.Name == "" {
		in.Name = "Admin"
	}
	if err := service.ValidateStruct(&in); err != nil {
		return nil, err
	}
	exists, err := users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("user %s already exists", in.Email)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsVerified:   true,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
