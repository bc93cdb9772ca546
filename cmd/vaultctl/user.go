package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/familyvault/internal/models"
	services "github.com/magabrotheeeer/familyvault/internal/services/users"
)

// accountManager описывает операции сервиса пользователей, доступные утилите.
type accountManager interface {
	Provision(ctx context.Context, req models.NewUser) (models.UserInfo, error)
	DeleteByUsername(ctx context.Context, username string) error
}

var (
	addFamily int64
	addAdmin  bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Create a user account",
	Example: `  vaultctl user add alice s3cret --family 1
  vaultctl user add root s3cret --admin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		var family *int64
		if cmd.Flags().Changed("family") {
			family = &addFamily
		}
		svc := services.NewUserService(db, newLogger(cmd.ErrOrStderr()))
		return addUser(cmd.Context(), svc, cmd.OutOrStdout(), args[0], args[1], family, addAdmin)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account and all of its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		svc := services.NewUserService(db, newLogger(cmd.ErrOrStderr()))
		return deleteUser(cmd.Context(), svc, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	userAddCmd.Flags().Int64Var(&addFamily, "family", 0, "family id to join")
	userAddCmd.Flags().BoolVar(&addAdmin, "admin", false, "grant the admin role")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func addUser(ctx context.Context, svc accountManager, out io.Writer, username, password string, family *int64, admin bool) error {
	req := models.NewUser{
		Username: username,
		Password: password,
		FamilyID: family,
		Role:     string(models.RoleUser),
	}
	if admin {
		req.Role = string(models.RoleAdmin)
	}

	info, err := svc.Provision(ctx, req)
	if err != nil {
		return fmt.Errorf("create user %q: %w", username, err)
	}

	line := color.GreenString("✓") + " Created user " + color.CyanString(info.Username) +
		fmt.Sprintf(" (id %d, role %s", info.ID, info.Role)
	if info.FamilyID != nil {
		line += fmt.Sprintf(", family %d", *info.FamilyID)
	}
	fmt.Fprintln(out, line+")")
	return nil
}

func deleteUser(ctx context.Context, svc accountManager, out io.Writer, username string) error {
	if err := svc.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}
	fmt.Fprintln(out, color.GreenString("✓")+" Deleted user "+color.CyanString(username))
	return nil
}
