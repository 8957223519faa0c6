package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/client"
	"github.com/axio-hub/axio-go/internal/models"
)

var teamInviteRole string

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage team members",
	RunE:  runTeamList,
}

var teamInviteCmd = &cobra.Command{
	Use:   "invite <email>",
	Short: "Invite a new team member",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamInvite,
}

var teamRoleCmd = &cobra.Command{
	Use:   "role <member-id> <admin|member>",
	Short: "Change a member's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamRole,
}

var teamRemoveCmd = &cobra.Command{
	Use:   "remove <member-id>",
	Short: "Remove a member from the team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamRemove,
}

var teamResendCmd = &cobra.Command{
	Use:   "resend <member-id>",
	Short: "Resend a pending invitation",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamResend,
}

func init() {
	teamInviteCmd.Flags().StringVar(&teamInviteRole, "role", "member", "role for the new member (admin|member)")

	teamCmd.AddCommand(teamInviteCmd)
	teamCmd.AddCommand(teamRoleCmd)
	teamCmd.AddCommand(teamRemoveCmd)
	teamCmd.AddCommand(teamResendCmd)
	rootCmd.AddCommand(teamCmd)
}

func runTeamList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	members, err := shell.Client.TeamMembers(ctx)
	if err != nil {
		return fmt.Errorf("list team members: %w", err)
	}

	if len(members) == 0 {
		fmt.Println("No team members")
		return nil
	}

	fmt.Printf("%-10s %-30s %-8s %s\n", "ID", "EMAIL", "ROLE", "STATUS")
	fmt.Println("------------------------------------------------------------")
	for _, m := range members {
		fmt.Printf("%-10s %-30s %-8s %s\n", m.ID, m.Email, m.Role, m.Status)
	}

	return nil
}

func runTeamInvite(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	member, err := shell.Client.InviteTeamMember(ctx, client.InviteInput{
		Email: args[0],
		Role:  models.TeamRole(teamInviteRole),
	})
	if err != nil {
		return fmt.Errorf("invite: %w", err)
	}

	fmt.Printf("Invited %s as %s (id %s)\n", member.Email, member.Role, member.ID)
	return nil
}

func runTeamRole(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	member, err := shell.Client.UpdateTeamMember(ctx, args[0], models.TeamRole(args[1]))
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	fmt.Printf("%s is now %s\n", member.Email, member.Role)
	return nil
}

func runTeamRemove(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	if err := shell.Client.RemoveTeamMember(ctx, args[0]); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	fmt.Println("Member removed")
	return nil
}

func runTeamResend(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	if err := shell.Client.ResendInvite(ctx, args[0]); err != nil {
		return fmt.Errorf("resend invite: %w", err)
	}

	fmt.Println("Invitation re-sent")
	return nil
}
