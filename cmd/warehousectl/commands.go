package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/bom"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/database"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/locker"
	"warehouse-backend/internal/metrics"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	newUsername string
	newPassword string
	newRole     string

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StorageDriver != config.StoragePostgres {
				return errors.New("migrate needs STORAGE_DRIVER=postgres")
			}
			db, err := database.Open(cfg.DatabaseDSN, log)
			if err != nil {
				return err
			}
			return database.Migrate(db, log)
		},
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			user, err := auth.CreateUser(cmd.Context(), store, auth.CreateUserRequest{
				Username: newUsername,
				Password: newPassword,
				Role:     models.UserRole(newRole),
			})
			if err != nil {
				return err
			}
			log.Info("user created", zap.Uint("id", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
			return nil
		},
	}

	bomCmd = &cobra.Command{
		Use:   "bom",
		Short: "Inspect installation guide BOMs",
	}
	bomCheckCmd = &cobra.Command{
		Use:   "check <guide>",
		Short: "Compare a guide's parts list against current stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			report, err := bom.NewService(store).Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tREQUIRED\tSTOCK\tSHORTFALL\tSTATUS")
			for _, l := range report.Lines {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", l.ItemCode, l.ItemName, l.RequiredQuantity, l.CurrentStock, l.Shortfall, l.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !report.Sufficient {
				return fmt.Errorf("guide %q is short on %d part(s)", report.GuideName, report.Shortages)
			}
			return nil
		},
	}

	integrityCmd = &cobra.Command{
		Use:   "integrity",
		Short: "List inventory rows with negative stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			engine := ledger.NewEngine(store, locker.NewKeyedMutex(), log, metrics.New())
			bad, err := engine.CheckIntegrity(cmd.Context())
			if err != nil {
				return err
			}
			if len(bad) == 0 {
				fmt.Println("no integrity violations")
				return nil
			}
			for _, it := range bad {
				fmt.Printf("id=%d code=%s location=%q stock=%d\n", it.ID, it.Code, it.LocationValue(), it.Stock)
			}
			return fmt.Errorf("%d row(s) with negative stock", len(bad))
		},
	}
)

func init() {
	userCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "initial password")
	userCreateCmd.Flags().StringVar(&newRole, "role", string(models.RoleViewer), "admin or viewer")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}

// openStore connects to the configured database. The memory driver is refused
// because nothing written here would outlive the command.
func openStore() (repository.Store, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		return nil, errors.New("warehousectl needs STORAGE_DRIVER=postgres")
	}
	db, err := database.Open(cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}
