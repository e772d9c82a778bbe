package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/store"
)

var errNotSignedIn = errors.New("not signed in, run `jsp login` first")

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in to the portal",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			email := ""
			if len(args) == 1 {
				email = args[0]
			}
			if email == "" {
				last, _, _ := rt.store.KV().Get(ctx, store.LastEmailKey)
				prompt := "Email: "
				if last != "" {
					prompt = fmt.Sprintf("Email [%s]: ", last)
				}
				fmt.Fprint(out, prompt)
				line, err := readLine(in)
				if err != nil {
					return err
				}
				email = line
				if email == "" {
					email = last
				}
			}

			fmt.Fprint(out, "Password: ")
			password, err := readPassword(cmd.InOrStdin(), in)
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			profile, err := rt.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := rt.store.KV().Set(ctx, store.LastEmailKey, email); err != nil {
				rt.log.Warn("remember email", zap.Error(err))
			}
			fmt.Fprintf(out, "Signed in as %s.\n", profile.DisplayName())
			return nil
		}),
	}
	return cmd
}

// readPassword reads without echo when stdin is a terminal and falls back
// to a plain line otherwise.
func readPassword(src io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := src.(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		return strings.TrimSpace(string(b)), err
	}
	return readLine(buffered)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if err := rt.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored credential and check it against the server",
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "API:      %s\n", rt.cfg.APIURL)
			token, err := rt.client.Store().Token(ctx)
			if err != nil {
				return err
			}
			if token == "" {
				fmt.Fprintln(out, "Session:  signed out")
				return nil
			}

			d := api.InspectToken(token)
			switch {
			case !d.JWT:
				fmt.Fprintln(out, "Token:    opaque")
			default:
				if d.Subject != "" {
					fmt.Fprintf(out, "Subject:  %s\n", d.Subject)
				}
				if !d.ExpiresAt.IsZero() {
					state := "valid until"
					if d.Expired(time.Now()) {
						state = "expired at"
					}
					fmt.Fprintf(out, "Expiry:   %s %s\n", state, d.ExpiresAt.Local().Format("02/01/2006 15:04"))
				}
			}

			if rt.client.CheckTokenValidity(ctx) {
				fmt.Fprintln(out, "Session:  active")
			} else {
				fmt.Fprintln(out, "Session:  rejected by the server")
			}
			return nil
		}),
	}
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in trainee",
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			if err := rt.requireLogin(ctx); err != nil {
				return err
			}
			p, err := api.Retry(ctx, rt.retry, rt.client.CurrentUser)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:   %s\n", p.DisplayName())
			fmt.Fprintf(out, "Email:  %s\n", p.Email)
			if g := p.GradeName(); g != "" {
				fmt.Fprintf(out, "Grade:  %s\n", g)
			}
			return nil
		}),
	}
}
