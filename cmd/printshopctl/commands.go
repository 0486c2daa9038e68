package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"go-printshop-ws/internal/config"
	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/service"
	"go-printshop-ws/pkg/database"
	"go-printshop-ws/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "printshopctl",
	Short:        "Maintenance commands for the print shop backend",
	SilenceUsage: true,
}

var (
	resetEmail    string
	resetPassword string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, _ *zap.Logger) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		})
	},
}

// The operator override: no old password, and every open session is revoked.
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a user's password and revoke their sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(resetPassword) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}
		return withDB(func(db *gorm.DB, _ *zap.Logger) error {
			users := repository.NewUserRepo(db)
			user, err := users.FindByEmail(resetEmail)
			if err != nil {
				return fmt.Errorf("user %s not found: %w", resetEmail, err)
			}
			if err := user.SetPassword(resetPassword); err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if err := users.UpdatePassword(user.ID, user.Password); err != nil {
				return err
			}
			if err := users.UpdateTokenVersion(user.ID, uuid.New().String()); err != nil {
				return err
			}
			fmt.Printf("Password for %s has been reset\n", resetEmail)
			return nil
		})
	},
}

var checkStockCmd = &cobra.Command{
	Use:   "check-stock",
	Short: "List products and materials below their minimum stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB, log *zap.Logger) error {
			coord := service.NewCoordinator(db, lock.NewLocalLocker(), nil, log)
			catalog := service.NewCatalogService(coord,
				repository.NewProductRepo(db),
				repository.NewMaterialRepo(db),
				repository.NewLedgerRepo(db),
				repository.NewSupplierRepo(db),
				repository.NewMachineRepo(db),
				repository.NewPrintLogRepo(db),
				nil, log)

			levels, err := catalog.LowStock(context.Background())
			if err != nil {
				return err
			}
			if len(levels) == 0 {
				fmt.Println("All items are above their minimum stock")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tBARCODE\tNAME\tON HAND\tMIN")
			for _, l := range levels {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ItemKind, l.Barcode, l.Name, l.OnHand, l.MinStock)
			}
			return w.Flush()
		})
	},
}

func withDB(fn func(db *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return fn(db, log)
}

func init() {
	resetPasswordCmd.Flags().StringVarP(&resetEmail, "email", "e", "admin@example.com", "Email of the user")
	resetPasswordCmd.Flags().StringVarP(&resetPassword, "password", "p", "", "New password")
	_ = resetPasswordCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, resetPasswordCmd, checkStockCmd)
}
