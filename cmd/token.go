package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/complaint-service/internal/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Identity tokens for local testing",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed identity token",
	RunE:  runTokenIssue,
}

func init() {
	f := tokenIssueCmd.Flags()
	f.String("sub", "", "subject (user id)")
	f.String("username", "", "preferred username")
	f.Bool("staff", false, "staff flag")
	f.Bool("superuser", false, "superuser flag")
	f.StringSlice("groups", nil, "group memberships")
	_ = tokenIssueCmd.MarkFlagRequired("sub")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	f := cmd.Flags()
	a := identity.Actor{Authenticated: true}
	a.ID, _ = f.GetString("sub")
	a.Username, _ = f.GetString("username")
	a.Staff, _ = f.GetBool("staff")
	a.Superuser, _ = f.GetBool("superuser")
	a.Groups, _ = f.GetStringSlice("groups")

	tok, err := identity.NewTokenProvider(cfg.SigningSecret(), cfg.JWTIssuer, cfg.JWTTTL).Issue(a)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
