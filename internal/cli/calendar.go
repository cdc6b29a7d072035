package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"condo_calendar/internal/app"
	"condo_calendar/internal/calendar"
)

// calendarService reads straight from the backend; the CLI never touches
// MySQL or Redis for queries.
func (o *options) calendarService(ctx context.Context) (*app.CalendarService, error) {
	if err := o.requireCondominium(); err != nil {
		return nil, err
	}
	c, err := o.client(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewCalendarService(app.BackendReservations{Backend: c}, nil, 0).
		WithProjector(calendar.Projector{Policy: o.cfg.MarkPolicy}), nil
}

func newWeekCmd(o *options) *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "List the reservations of the current week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			t, err := o.today(today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			svc, err := o.calendarService(ctx)
			if err != nil {
				return err
			}
			wv, err := svc.Week(ctx, o.condominium, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reservas da Semana (%s .. %s)\n", wv.Week.Start, wv.Week.End)
			return printReservations(cmd.OutOrStdout(), wv.Reservations)
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newDayCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List the reservations touching one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			svc, err := o.calendarService(ctx)
			if err != nil {
				return err
			}
			dv, err := svc.Day(ctx, o.condominium, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reservas em %s\n", d)
			return printReservations(cmd.OutOrStdout(), dv.Reservations)
		},
	}
}

func newMarksCmd(o *options) *cobra.Command {
	var today, selected string
	cmd := &cobra.Command{
		Use:   "marks",
		Short: "Show the per-day calendar marks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			t, err := o.today(today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			var sel *calendar.Date
			if selected != "" {
				d, err := calendar.ParseDate(selected)
				if err != nil {
					return fmt.Errorf("--selected: %w", err)
				}
				sel = &d
			}
			svc, err := o.calendarService(ctx)
			if err != nil {
				return err
			}
			marks, err := svc.Marks(ctx, o.condominium, sel, t)
			if err != nil {
				return err
			}
			return printMarks(cmd.OutOrStdout(), marks)
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&selected, "selected", "", "selected date (YYYY-MM-DD)")
	return cmd
}

func printReservations(w io.Writer, vs []calendar.ReservationView) error {
	if len(vs) == 0 {
		_, err := fmt.Fprintln(w, "Nenhuma reserva encontrada.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAPT\tGUEST\tCHECK-IN\tCHECK-OUT")
	for _, v := range vs {
		r := v.Reservation
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Date, r.RoomNumber, r.GuestName, v.CheckIn, v.CheckOut)
	}
	return tw.Flush()
}

func printMarks(w io.Writer, marks map[calendar.Date]calendar.MarkedDate) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCATEGORY\tDOT\tSELECTED")
	for _, d := range calendar.SortedDates(marks) {
		m := marks[d]
		sel := ""
		if m.Selected {
			sel = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d, m.Category, m.DotColor, sel)
	}
	return tw.Flush()
}
