package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"condo_calendar/internal/adapters/backend"
	"condo_calendar/internal/calendar"
	"condo_calendar/internal/shared"
)

// options are the persistent flags shared by every subcommand; defaults come
// from the environment.
type options struct {
	cfg         shared.Config
	backendURL  string
	token       string
	condominium string
	timeout     time.Duration
	verbose     bool
}

func NewRoot() *cobra.Command {
	o := &options{cfg: shared.Load()}
	cmd := &cobra.Command{
		Use:           "condoctl",
		Short:         "Condominium reservation calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		// logs go to stderr so stdout stays parseable
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := zerolog.WarnLevel
			if o.verbose {
				lvl = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(lvl).With().Timestamp().Logger()
		},
	}
	def := ""
	if len(o.cfg.Condominiums) > 0 {
		def = o.cfg.Condominiums[0]
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&o.backendURL, "backend", o.cfg.BackendBase, "backend base URL")
	pf.StringVar(&o.token, "token", o.cfg.BackendKey, "backend access token (skips login)")
	pf.StringVarP(&o.condominium, "condominium", "c", def, "condominium id")
	pf.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall request timeout")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(newWeekCmd(o))
	cmd.AddCommand(newDayCmd(o))
	cmd.AddCommand(newMarksCmd(o))
	cmd.AddCommand(newExtractCmd(o))
	cmd.AddCommand(newSyncCmd(o))
	cmd.AddCommand(newApartmentsCmd(o))
	return cmd
}

func (o *options) client(ctx context.Context) (*backend.Client, error) {
	c := backend.New(o.backendURL, o.cfg.BackendRPS)
	if err := c.Authenticate(ctx, o.token, o.cfg.BackendUser, o.cfg.BackendPass); err != nil {
		return nil, err
	}
	return c, nil
}

func (o *options) requireCondominium() error {
	if o.condominium == "" {
		return fmt.Errorf("--condominium is required")
	}
	return nil
}

func (o *options) today(flag string) (calendar.Date, error) {
	if flag == "" {
		return calendar.Today(time.Now(), o.cfg.Location), nil
	}
	return calendar.ParseDate(flag)
}
