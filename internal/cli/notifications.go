package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/models"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Manage notifications",
	RunE:    runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark all notifications as read",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsReadAll,
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notifications",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsClear,
}

func init() {
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)
	notificationsCmd.AddCommand(notificationsClearCmd)
	rootCmd.AddCommand(notificationsCmd)
}

func loadNotifications(ctx context.Context) error {
	if err := requireSession(); err != nil {
		return err
	}
	if err := shell.Notifications.LoadInitial(ctx); err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}
	return nil
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := loadNotifications(ctx); err != nil {
		return err
	}

	items := shell.Notifications.Notifications()
	if len(items) == 0 {
		fmt.Println("No notifications")
		return nil
	}

	fmt.Printf("%d unread of %d total\n\n", shell.Notifications.UnreadCount(), shell.Notifications.Total())

	for _, n := range items {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s %-10s %-8s %s\n", marker, n.ID, typeLabel(n.Type), n.Title)
		if n.Body != nil && *n.Body != "" {
			fmt.Printf("             %s\n", *n.Body)
		}
		if target, ok := n.Target(); ok {
			fmt.Printf("             -> %s\n", target)
		}
	}

	return nil
}

func typeLabel(t models.NotificationType) string {
	if t == "" {
		return string(models.NotificationInfo)
	}
	return string(t)
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := loadNotifications(ctx); err != nil {
		return err
	}

	if err := shell.Notifications.MarkRead(ctx, args[0]); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	fmt.Println("Marked as read")
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := loadNotifications(ctx); err != nil {
		return err
	}

	if err := shell.Notifications.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	fmt.Println("All notifications marked as read")
	return nil
}

func runNotificationsClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := loadNotifications(ctx); err != nil {
		return err
	}

	if err := shell.Notifications.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	fmt.Println("Notifications cleared")
	return nil
}
