package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xxxsen/photoshare/internal/client"
)

type app struct {
	server    string
	statePath string

	api     *client.API
	storage *client.LocalStorage
	session *client.Session
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "photoshare-cli",
		Short:         "photoshare command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.server, "server", envOr("PHOTOSHARE_SERVER", "http://localhost:8080"), "backend base url")
	rootCmd.PersistentFlags().StringVar(&a.statePath, "state", defaultStatePath(), "path of the local session file")

	var signupEmail, signupName string
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			msg, err := a.api.Signup(cmd.Context(), signupName, signupEmail, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&signupName, "name", "", "display name")
	_ = signupCmd.MarkFlagRequired("email")

	var loginEmail string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			res, err := a.api.Login(cmd.Context(), loginEmail, password)
			if err != nil {
				return err
			}
			a.session.SignIn(client.State{
				ID:       res.User.ID,
				Username: res.User.Name,
				Email:    res.User.Email,
				Token:    res.JWT,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", res.User.Email)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	_ = loginCmd.MarkFlagRequired("email")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.IsLoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			profile, err := a.api.Profile(cmd.Context(), a.session.Token())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "email:   %s\n", profile.Email)
			fmt.Fprintf(out, "name:    %s\n", profile.Name)
			fmt.Fprintf(out, "created: %s\n", profile.CreatedAt.Format("2006-01-02 15:04:05"))
			if profile.ProfileImageURL != "" {
				a.session.SetProfileImage(profile.ProfileImageURL)
				fmt.Fprintf(out, "image:   %s\n", profile.ProfileImageURL)
			}
			return nil
		},
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "upload a profile image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader := client.NewUploader(a.api, a.session)
			uploader.OnTransition(func(from, to client.UploadState) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", from, to)
			})
			if err := uploader.Select(args[0]); err != nil {
				return err
			}
			res, err := uploader.Submit(cmd.Context())
			if errors.Is(err, client.ErrLoginRequired) {
				return fmt.Errorf("%w: run `photoshare-cli login --email <email>`", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile image uploaded successfully!")
			fmt.Fprintln(cmd.OutOrStdout(), res.ReadURL)
			return nil
		},
	}

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, uploadCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) init(stderr io.Writer) error {
	a.api = client.NewAPI(a.server, nil)
	a.storage = client.NewLocalStorage(a.statePath)
	session, err := client.LoadSession(a.storage)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	client.PersistTo(session, a.storage, func(err error) {
		fmt.Fprintln(stderr, "warning: save session:", err)
	})
	a.session = session
	return nil
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "photoshare", "session.json")
	}
	return ".photoshare-session.json"
}
