// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/store"
	"github.com/olegiv/realty-go/internal/version"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			statuses, err := store.Status(cmd.Context(), e.db, e.cfg.DBDriver)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tSTATE")
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(tw, "%d\t%s\n", s.Version, state)
			}
			return tw.Flush()
		},
	})

	return cmd
}

func createAdminCmd() *cobra.Command {
	var in service.SignupInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}

			ctx := cmd.Context()
			e, err := bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer e.close()

			mailer, err := mail.NewMailer(mail.LogSender{}, mail.Config{Brand: brand, FrontendURL: e.cfg.FrontendURL})
			if err != nil {
				return err
			}
			bg := service.NewBackground(ctx)
			defer bg.Wait()

			tokens := auth.NewTokenIssuer(e.cfg.JWTSecret, e.cfg.JWTTTL)
			pdfs := service.NewPDFService(e.db, e.cfg.UploadsDir, brand)
			users := service.NewAuthService(e.db, tokens, mailer, pdfs, bg)

			u, err := users.CreateAdmin(ctx, in)
			if err != nil {
				return fmt.Errorf("creating admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (id %d)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default site content, a sample property and a sample blog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()

			if err := store.Seed(cmd.Context(), e.db); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed data inserted")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
