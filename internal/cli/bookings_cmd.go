package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/soyeahso/frontdesk/internal/store"
	"github.com/spf13/cobra"
)

func newBookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List and update recorded bookings",
	}

	cmd.AddCommand(newBookingsListCmd())
	cmd.AddCommand(newBookingsStatusCmd())
	cmd.AddCommand(newCallsListCmd())
	return cmd
}

// openStore opens the configured booking database.
func openStore() (*store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(paths.StorePath(cfg.Store), log)
}

func newBookingsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := store.NewBookingStore(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printBookings(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum bookings to show")
	return cmd
}

func newBookingsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <booking-id> <status>",
		Short: "Set a booking's order status (confirmed, shot, ready, delivered, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.NewBookingStore(db).SetStatus(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCallsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List recent calls and how they ended",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			calls, err := store.NewCallLog(db).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printCalls(cmd.OutOrStdout(), calls)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum calls to show")
	return cmd
}

func printBookings(w io.Writer, list []store.Booking) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no bookings")
		return
	}
	for _, b := range list {
		fmt.Fprintf(w, "%s  %-10s %-10s %s %s  %-16s %s  (%s)\n",
			b.BookingID, b.Status, b.Slots.ServiceID, b.Slots.Date, b.Slots.Time,
			b.Slots.Name, b.Slots.ContactNumber, b.Language)
	}
}

func printCalls(w io.Writer, calls []store.CallRecord) {
	if len(calls) == 0 {
		fmt.Fprintln(w, "no calls")
		return
	}
	for _, c := range calls {
		ended := "in progress"
		if c.EndedAt != nil {
			ended = fmt.Sprintf("%s after %s", c.EndReason, c.EndedAt.Sub(c.StartedAt).Round(time.Second))
		}
		fmt.Fprintf(w, "%s  %-5s %s  %-36s %s  bookings=%d\n",
			c.StartedAt.Format("2006-01-02 15:04"), c.Mode, c.Language, c.SessionID, ended, c.Bookings)
	}
}
