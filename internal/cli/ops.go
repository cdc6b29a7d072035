package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"condo_calendar/internal/app"
	"condo_calendar/internal/domain"
	mysqlrepo "condo_calendar/internal/storage/mysql"
)

type extractOutput struct {
	Files   []domain.SharedFile      `json:"files"`
	DraftID string                   `json:"draft_id,omitempty"`
	Draft   *domain.ReservationDraft `json:"draft,omitempty"`
}

func newExtractCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.pdf>...",
		Short: "Read reservation vouchers and print the pre-filled draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			c, err := o.client(ctx)
			if err != nil {
				return err
			}
			files := make([]domain.SharedFile, 0, len(args))
			for _, p := range args {
				files = append(files, domain.SharedFile{
					FileName:  filepath.Base(p),
					FilePath:  p,
					Extension: filepath.Ext(p),
				})
			}
			svc := app.NewShareService(c, c, nil, o.cfg.ShareWorkers, o.cfg.ShareMaxBytes)
			out, err := svc.Process(ctx, files)
			if err != nil {
				return err
			}
			// the payload is huge and already sent; keep the output readable
			for i := range out {
				out[i].Content = ""
			}
			res := extractOutput{Files: out}
			if d, ok := svc.Draft(o.condominium, out); ok {
				res.DraftID = d.ID
				res.Draft = &d
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newSyncCmd(o *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror reservations from the backend into MySQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			ids := []string{o.condominium}
			if all {
				ids = o.cfg.Condominiums
			}
			if len(ids) == 0 || ids[0] == "" {
				return fmt.Errorf("--condominium or --all with SYNC_CONDOMINIUMS is required")
			}

			db, err := sql.Open("mysql", o.cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			c, err := o.client(ctx)
			if err != nil {
				return err
			}
			// one-shot runs skip the cache; the API's entries expire on their own
			svc := app.NewSyncService(c, mysqlrepo.New(db), nil)

			for _, id := range ids {
				res, err := svc.SyncCondominium(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d reservations, %d skipped, missed=%v\n",
					id, res.Reservations, res.Skipped, res.Missed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sync every condominium in SYNC_CONDOMINIUMS")
	return cmd
}

func newApartmentsCmd(o *options) *cobra.Command {
	var available bool
	cmd := &cobra.Command{
		Use:   "apartments",
		Short: "List the condominium's apartments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			if err := o.requireCondominium(); err != nil {
				return err
			}
			c, err := o.client(ctx)
			if err != nil {
				return err
			}
			apts, err := app.NewApartmentService(c, nil, 0).Apartments(ctx, o.condominium, available)
			if err != nil {
				return err
			}
			return printApartments(cmd.OutOrStdout(), apts)
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "only apartments free for booking")
	return cmd
}

var (
	apartmentTypes  = map[domain.ApartmentType]string{domain.ApartmentSeasonal: "temporada", domain.ApartmentResidential: "moradia"}
	apartmentStatus = map[domain.ApartmentStatus]string{domain.ApartmentAvailable: "available", domain.ApartmentOccupied: "occupied", domain.ApartmentMaintenance: "maintenance"}
)

func printApartments(w io.Writer, apts []domain.Apartment) error {
	if len(apts) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum apartamento encontrado.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APT\tTYPE\tMAX\tSTATUS")
	for _, a := range apts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.ID, apartmentTypes[a.Type], a.MaxOccupation, apartmentStatus[a.Status])
	}
	return tw.Flush()
}

func Execute(ctx context.Context) error {
	return NewRoot().ExecuteContext(ctx)
}
