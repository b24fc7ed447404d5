package main

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newAddUserCmd(g *globals) *cobra.Command {
	var name, email, role, password string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an admin or viewer account",
		Long: "Create an account. Without --password the account can only sign in with Google.\n" +
			"The password may also come from CAMPHUB_NEW_USER_PASSWORD.",
		Example: "  camphubctl adduser --name \"Camp Admin\" --email admin@camp.org --role admin --password '...'",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = env("new_user_password", "")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()

			db, err := g.connect(ctx)
			if err != nil {
				return err
			}
			u, err := userstore.New(db).Create(ctx, models.User{FullName: name, Email: email, Role: role}, password)
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				return fmt.Errorf("%s already has an account", email)
			}
			if err != nil {
				return err
			}

			g.audit(db).UserCreated(ctx, nil, primitive.NilObjectID, u.ID, u.Role, u.AuthMethod)
			g.log.Info("user created", zap.String("email", u.Email), zap.String("role", u.Role))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s, %s sign-in)\n", u.Role, u.Email, u.ID.Hex(), models.AuthMethodLabel(u.AuthMethod))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&role, "role", models.RoleViewer, "admin or viewer")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 10 characters")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
