package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/farmhand/farmhand/internal/auth"
)

func newLoginCmd(g *globals) *cobra.Command {
	var (
		email    string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the farm",
		Long:  "Checks the farm credential and marks this installation logged in. The password is read from the terminal, or from the first line of stdin when it is not a terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, g, email, remember)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "login email (default: the remembered email)")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the email for next time")
	return cmd
}

func runLogin(cmd *cobra.Command, g *globals, email string, remember bool) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	local, closeLocal, err := openLocal(cfg)
	if err != nil {
		return err
	}
	defer closeLocal()

	gate := auth.New(local, cfg.Auth.Email, cfg.Auth.Password)
	if email == "" {
		email = gate.RememberedEmail()
	}
	if email == "" {
		return errors.New("login: --email is required")
	}

	fmt.Fprintf(out, "Password for %s: ", email)
	password, err := readPassword(cmd.InOrStdin())
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("login: read password: %w", err)
	}

	if err := gate.Login(email, password, remember); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in as %s\n", strings.TrimSpace(email))
	return nil
}

// readPassword reads without echo from a terminal, otherwise one line.
func readPassword(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the farm",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			local, closeLocal, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer closeLocal()

			if err := auth.New(local, cfg.Auth.Email, cfg.Auth.Password).Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
