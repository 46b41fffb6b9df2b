package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/geotoken/internal/client"
	"github.com/spf13/cobra"
)

func newLoginCommand(cfg *cliConfig) *cobra.Command {
	var contact, role, code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a one-time code sent to an email or phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			contact = strings.TrimSpace(contact)

			r := client.Role(strings.ToLower(strings.TrimSpace(role)))
			if r != client.RoleProducer && r != client.RoleConsumer {
				return fmt.Errorf("invalid role %q (producer|consumer)", role)
			}

			api := cfg.newClient()

			if code == "" {
				exists, err := api.CheckUser(ctx, contact)
				if err != nil {
					return err
				}
				if err := api.SendOTP(ctx, contact); err != nil {
					return err
				}
				if exists {
					fmt.Fprintf(cmd.OutOrStdout(), "Welcome back. OTP sent to %s\n", contact)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "OTP sent to %s\n", contact)
				}

				fmt.Fprint(cmd.OutOrStdout(), "Enter OTP: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no OTP entered")
				}
				code = strings.TrimSpace(line)
			}

			sess, err := api.VerifyOTP(ctx, contact, code, r)
			if err != nil {
				return err
			}

			if err := cfg.store.Save(client.Credential{
				AuthToken: sess.AuthToken,
				Role:      sess.Role,
				Contact:   contact,
				ExpiresAt: sess.ExpiresAt,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s until %s\n", sess.Role, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			if sess.IsNewUser {
				fmt.Fprintln(cmd.OutOrStdout(), "New here? Run: geotoken register --name <your name>")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "email address or E.164 phone number")
	cmd.Flags().StringVar(&role, "role", string(client.RoleProducer), "device role (producer|consumer)")
	cmd.Flags().StringVar(&code, "code", "", "OTP already received; skips sending and prompting")
	_ = cmd.MarkFlagRequired("contact")

	return cmd
}

func newRegisterCommand(cfg *cliConfig) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Set the display name of the logged in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := cfg.authed()
			if err != nil {
				return err
			}
			if err := api.Register(cmd.Context(), strings.TrimSpace(name)); err != nil {
				return cfg.sessionError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLogoutCommand(cfg *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the cached credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := cfg.authed()
			if err != nil {
				return err
			}
			if err := api.Logout(cmd.Context()); err != nil {
				return cfg.sessionError(cmd, err)
			}
			if err := cfg.store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
