package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Dan9191/hutangku/internal/catalog"
	"github.com/Dan9191/hutangku/internal/config"
	"github.com/Dan9191/hutangku/internal/export"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/Dan9191/hutangku/internal/reminder"
	"github.com/Dan9191/hutangku/internal/repository"
	"github.com/Dan9191/hutangku/internal/service"
	"github.com/Dan9191/hutangku/internal/utils/email"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once configuration is loaded
type app struct {
	log *logrus.Logger
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:          "hutangctl",
		Short:        "Operator tool for the HutangKu debt tracker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log.SetOutput(cmd.ErrOrStderr())
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				a.log.SetLevel(level)
			}
			return nil
		},
	}

	root.AddCommand(
		a.hashPasswordCmd(),
		a.tokenCmd(),
		a.remindCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AuthEnabled() {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			token, err := service.IssueToken(a.cfg.JWTSecret, service.AdminSubject, time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", service.TokenTTL, "token lifetime")
	return cmd
}

func (a *app) remindCmd() *cobra.Command {
	var sendEmail bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Build the overdue and due-soon digest once and deliver it",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			notifiers := []reminder.Notifier{reminder.NewLogNotifier(a.log)}
			if sendEmail {
				if !a.cfg.EmailEnabled() {
					return fmt.Errorf("SMTP_HOST and REMINDER_EMAIL must be set to send email")
				}
				notifiers = append(notifiers, email.NewSender(a.cfg, a.log))
			}

			digest, err := reminder.NewJob(svc, a.log, notifiers...).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if digest.Empty() {
				fmt.Fprintln(out, "Nothing overdue or due soon")
				return nil
			}
			fmt.Fprintln(out, digest.Subject())
			for _, line := range digest.Lines() {
				fmt.Fprintln(out, "  "+line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sendEmail, "email", false, "also send the digest by email")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format string
		status string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export debts as CSV or XML",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			var filter *models.DebtStatus
			if status != "" {
				s, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = &s
			}

			svc, closeStore, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			debts, err := svc.ListDebts(cmd.Context(), filter)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			if err := export.Write(w, f, debts); err != nil {
				return err
			}
			a.log.Infof("Exported %d debts", len(debts))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xml")
	cmd.Flags().StringVar(&status, "status", "", `only "Active Debt" or "Paid Off" debts`)
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) service(ctx context.Context) (*service.Service, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := repository.Open(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.LoadOrDefault(a.cfg.CompaniesFile)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return service.NewService(store, a.log, a.cfg, cat), func() { store.Close() }, nil
}
