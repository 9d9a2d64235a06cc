package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/complaint-service/internal/database"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/repository"
	"github.com/psds-microservice/complaint-service/internal/service"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff category assignments (admin profiles)",
}

var staffShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print the categories assigned to a staff user",
	Args:  cobra.ExactArgs(1),
	RunE: withStaff(func(cmd *cobra.Command, s *service.StaffService, args []string) (*model.AdminProfile, error) {
		return s.Show(cmd.Context(), args[0])
	}),
}

var staffGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <category>...",
	Short: "Assign categories to a staff user",
	Args:  cobra.MinimumNArgs(2),
	RunE: withStaff(func(cmd *cobra.Command, s *service.StaffService, args []string) (*model.AdminProfile, error) {
		username, _ := cmd.Flags().GetString("username")
		return s.Grant(cmd.Context(), args[0], username, args[1:])
	}),
}

var staffRevokeCmd = &cobra.Command{
	Use:   "revoke <user-id> [category]...",
	Short: "Remove categories from a staff user; without categories the profile is deleted",
	Args:  cobra.MinimumNArgs(1),
	RunE: withStaff(func(cmd *cobra.Command, s *service.StaffService, args []string) (*model.AdminProfile, error) {
		return s.Revoke(cmd.Context(), args[0], args[1:])
	}),
}

func init() {
	staffGrantCmd.Flags().String("username", "", "display name stored on the profile")
	staffCmd.AddCommand(staffShowCmd, staffGrantCmd, staffRevokeCmd)
	rootCmd.AddCommand(staffCmd)
}

func withStaff(fn func(*cobra.Command, *service.StaffService, []string) (*model.AdminProfile, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := database.Open(cfg.DSN())
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer database.Close(conn)

		// экземпляры API кэшируют категории профилей только при настроенном Redis
		var scopes service.ScopeInvalidator
		bus := events.NewScopeBus(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ScopeChannel, log)
		if bus.Enabled() {
			scopes = bus
			defer bus.Close()
		}

		store := repository.New(conn)
		profile, err := fn(cmd, service.NewStaffService(store.Profiles, store.Categories, scopes), args)
		if err != nil {
			return err
		}
		if profile == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "profile removed")
			return nil
		}
		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
}
