package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in to the Seatbelt Tracker backend",
	Long: `Sign in with your email and password. The password is prompted for when it
is not given with --password. The session is kept until it expires or you run
"seatbelt-admin logout".

Examples:
  seatbelt-admin login ana@example.com
  echo "$PASSWORD" | seatbelt-admin login ana@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: login,
}

func login(cmd *cobra.Command, args []string) error {
	rt := getRuntime()
	in := bufio.NewReader(cmd.InOrStdin())

	email := loginEmail
	if email == "" && len(args) == 1 {
		email = args[0]
	}
	if email == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
		email = readLine(in)
	}

	password := loginPassword
	if password == "" {
		var err error
		password, err = readPassword(cmd, in)
		if err != nil {
			return err
		}
	}

	creds := identity.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := rt.provider.Login(cmd.Context(), creds); err != nil {
		return err
	}

	s, _ := rt.provider.Session()
	if jsonOutput {
		printResult(cmd.OutOrStdout(), map[string]any{
			"identity":  s.Identity,
			"expiresAt": s.ExpiresAt.Format(time.RFC3339),
		})
		return nil
	}
	okLabel.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", s.Identity)
	fmt.Fprintf(cmd.OutOrStdout(), "Session expires %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
	return nil
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise, so passwords can be piped in.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("unable to read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(in), nil
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getRuntime().provider.Logout(cmd.Context()); err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), map[string]any{"signedIn": false})
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

// StatusResponse is what the status command reports
type StatusResponse struct {
	State     string `json:"state"`
	Access    string `json:"access"`
	Identity  string `json:"identity,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	API       string `json:"api"`
	Stage     string `json:"stage,omitempty"`
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in and where commands are sent",
	Long: `Show the sign-in state, the session expiry and the API the CLI talks to.
This command works whether or not you are signed in.

Examples:
  seatbelt-admin status
  seatbelt-admin status -j`,
	Args: cobra.NoArgs,
	RunE: getStatus,
}

func getStatus(cmd *cobra.Command, args []string) error {
	rt := getRuntime()
	decision := auth.NewGuard(rt.provider).Check()

	status := StatusResponse{
		State:  rt.provider.State().String(),
		Access: decision.String(),
		API:    rt.cfg.APIBaseURL(),
		Stage:  rt.cfg.Stage(),
	}
	if s, ok := rt.provider.Session(); ok {
		status.Identity = s.Identity
		status.ExpiresAt = s.ExpiresAt.Format(time.RFC3339)
	}

	if jsonOutput {
		printResult(cmd.OutOrStdout(), status)
		return nil
	}
	printStatusPretty(cmd.OutOrStdout(), status)
	return nil
}

func printStatusPretty(w io.Writer, status StatusResponse) {
	fmt.Fprintf(w, "API: %s\n", status.API)
	if status.Identity == "" {
		alertLabel.Fprintln(w, "Not signed in")
		return
	}
	okLabel.Fprintf(w, "Signed in as %s\n", status.Identity)
	if t, err := time.Parse(time.RFC3339, status.ExpiresAt); err == nil {
		remaining := time.Until(t).Round(time.Minute)
		fmt.Fprintf(w, "Session expires: %s (in %s)\n", t.Local().Format("2006-01-02 15:04:05 MST"), remaining)
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Email address to sign in with")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password; prompted for when omitted")
}
