package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockdash/internal/models"
	"stockdash/internal/store"
)

var (
	newUsername string
	newPassword string
	newRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// userAddCmd is the only way to create an admin; the signup route refuses
// elevated roles.
var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account with any role",
	Example: `  stockdash user add --username admin --password 's3cret' --role admin
  stockdash user add --username alice --password pw123`,
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&newUsername, "username", "", "account username (required)")
	userAddCmd.Flags().StringVar(&newPassword, "password", "", "account password (required)")
	userAddCmd.Flags().StringVar(&newRole, "role", string(models.RoleUser), "user or admin")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	authSvc, err := newAuthService(db)
	if err != nil {
		return err
	}

	u, err := authSvc.CreateUser(ctx, newUsername, newPassword, models.Role(newRole))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
	return nil
}
