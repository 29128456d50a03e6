// Package cli defines the spoolwatch command tree.
//
// The root command runs the dashboard. The subcommands reuse the same
// config, session file and spooler client for scripted use:
//
//	spoolwatch                     # dashboard
//	spoolwatch status              # print printer state and queue once
//	spoolwatch submit FILE         # upload a print job
//	spoolwatch login --user NAME   # password from --password or stdin
//	spoolwatch logout
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/spoolwatch/internal/app"
	"github.com/five82/spoolwatch/internal/auth"
	"github.com/five82/spoolwatch/internal/spooler"
	"github.com/five82/spoolwatch/internal/submit"
	"github.com/five82/spoolwatch/internal/ui"
)

// Version is stamped at build time.
var Version = "dev"

const commandTimeout = 30 * time.Second

// ErrNotLoggedIn is returned by commands that hit a 401.
var ErrNotLoggedIn = errors.New("not logged in; run `spoolwatch login`")

type globalFlags struct {
	configPath string
	prefsPath  string
	server     string
	poll       time.Duration
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		ServerURL:  g.server,
		PollEvery:  g.poll,
	}
}

// BuildCLI returns the root command.
func BuildCLI() *cobra.Command {
	flags := &globalFlags{}
	var file string

	rootCmd := &cobra.Command{
		Use:           "spoolwatch",
		Short:         "Terminal dashboard for a print queue server",
		Long:          "spoolwatch shows printer status, the task queue and live server events, and submits new print jobs.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.File = file
			return app.Run(cmd.Context(), opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file path (default ~/.config/spoolwatch/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file path (default ~/.config/spoolwatch/prefs.toml)")
	pf.StringVar(&flags.server, "server", "", "server URL, overrides the config file")
	pf.DurationVar(&flags.poll, "poll", 0, "state poll interval (default 3s)")
	rootCmd.Flags().StringVarP(&file, "file", "f", "", "prefill the submission form with this file")

	rootCmd.AddCommand(buildStatusCommand(flags))
	rootCmd.AddCommand(buildSubmitCommand(flags))
	rootCmd.AddCommand(buildLoginCommand(flags))
	rootCmd.AddCommand(buildLogoutCommand(flags))

	return rootCmd
}

func buildStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print printer status and the queue once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := app.Connect(flags.options())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			sys, err := client.FetchSystemState(ctx)
			if err != nil {
				return commandError("fetch state", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), ui.RenderPlain(*sys))
			return err
		},
	}
}

func buildSubmitCommand(flags *globalFlags) *cobra.Command {
	var (
		priority int
		user     string
	)
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Upload a file as a new print job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := app.Connect(flags.options())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if user == "" {
				user = cfg.Username
			}
			session, _ := auth.Gate(ctx, client)
			submitter := submit.Submitter{API: client, Allowed: cfg.AllowedExtensions}
			outcome := submitter.Submit(ctx, submit.Form{
				Username: user,
				Priority: strconv.Itoa(priority),
				FilePath: args[0],
			}, session)

			switch outcome.Kind {
			case submit.OutcomeSuccess:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
				return err
			case submit.OutcomeLogin:
				return ErrNotLoggedIn
			default:
				return errors.New(outcome.Message)
			}
		},
	}
	cmd.Flags().IntVarP(&priority, "priority", "p", 1, "job priority")
	cmd.Flags().StringVarP(&user, "user", "u", "", "submitting user when not logged in (default from config)")
	return cmd
}

func buildLoginCommand(flags *globalFlags) *cobra.Command {
	var user, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := app.Connect(flags.options())
			if err != nil {
				return err
			}
			if user == "" {
				user = cfg.Username
			}
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			if !cmd.Flags().Changed("password") {
				password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			res := auth.Login(ctx, client, user, password)
			if res.Route != auth.RouteDashboard {
				return errors.New(res.Error)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.Session.Username)
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username (default from config)")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	return cmd
}

func buildLogoutCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := app.Connect(flags.options())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			// The local session is dropped whatever the server says.
			if _, err := auth.Logout(ctx, client); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

// promptPassword reads the password without echo when in is a terminal and
// falls back to a plain line read for piped input.
func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readPassword(in)
	}
	fmt.Fprint(prompt, "Password: ")
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password is required")
	}
	return string(raw), nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}

func commandError(action string, err error) error {
	if errors.Is(err, spooler.ErrUnauthorized) {
		return ErrNotLoggedIn
	}
	return fmt.Errorf("%s: %w", action, err)
}
