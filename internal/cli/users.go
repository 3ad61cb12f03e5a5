package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/spf13/cobra"
)

var (
	// users command flags
	userSearch string
	userRole   string
	userFile   string
	userSets   []string
	userYes    bool
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Manage dashboard users",
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Long: `List users, optionally filtered by a search term matched against name and
email, or by role.

Examples:
  seatbelt-admin users list
  seatbelt-admin users list --search ana --role admin --page 2`,
	Args: cobra.NoArgs,
	RunE: listUsers,
}

func listUsers(cmd *cobra.Command, args []string) error {
	users, err := getRuntime().client.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	users = survey.FilterUsers(users, userSearch, userRole)
	page := paging.Paginate(users, pageNumber, pageSize)

	if jsonOutput {
		printResult(cmd.OutOrStdout(), page)
		return nil
	}

	w := cmd.OutOrStdout()
	printHeading(w, "users")
	if page.Total == 0 {
		fmt.Fprintln(w, "No users found")
		return nil
	}
	t := newTable("email", "name", "role", "enabled", "last login")
	for _, u := range page.Items {
		t.add(u.Email, orDash(u.FullName()), orDash(u.Role), yesNo(u.Enabled), orDash(u.LastLogin))
	}
	t.print(w)
	printPageFooter(w, page)
	return nil
}

var getUserCmd = &cobra.Command{
	Use:   "get <email>",
	Short: "Show one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := getRuntime().client.GetUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printResult(cmd.OutOrStdout(), u)
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Email: %s\n", u.Email)
		fmt.Fprintf(w, "Name: %s\n", orDash(u.FullName()))
		fmt.Fprintf(w, "Role: %s\n", orDash(u.Role))
		fmt.Fprintf(w, "Enabled: %s\n", yesNo(u.Enabled))
		if u.CreatedAt != "" {
			fmt.Fprintf(w, "Created: %s\n", u.CreatedAt)
		}
		if u.LastLogin != "" {
			fmt.Fprintf(w, "Last Login: %s\n", u.LastLogin)
		}
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user from a YAML or JSON file and/or --set assignments.
New users need a password of at least 8 characters.

Examples:
  seatbelt-admin users create -f ana.yaml
  seatbelt-admin users create --set email=ana@example.com --set first_name=Ana \
    --set last_name=Lopez --set role=manager --set enabled=true --set password=changeme1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadInput(nil, userFile, userSets)
		if err != nil {
			return err
		}
		var u survey.User
		if err := json.Unmarshal(doc, &u); err != nil {
			return fmt.Errorf("invalid user: %v", err)
		}
		if err := getRuntime().client.CreateUser(cmd.Context(), u); err != nil {
			return err
		}
		return printDone(cmd, "User created", u.Email)
	},
}

var updateUserCmd = &cobra.Command{
	Use:   "update <email>",
	Short: "Update a user",
	Long: `Update a user. The current record is fetched and the file and --set
assignments are applied over it. Leave the password out to keep it.

Examples:
  seatbelt-admin users update ana@example.com --set role=admin
  seatbelt-admin users update ana@example.com --set enabled=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		client := getRuntime().client
		current, err := client.RawUser(cmd.Context(), email)
		if err != nil {
			return err
		}
		doc, err := loadInput(current, userFile, userSets)
		if err != nil {
			return err
		}
		var u survey.User
		if err := json.Unmarshal(doc, &u); err != nil {
			return fmt.Errorf("invalid user: %v", err)
		}
		if u.Email == "" {
			u.Email = email
		}
		if err := client.UpdateUser(cmd.Context(), email, u); err != nil {
			return err
		}
		return printDone(cmd, "User updated", email)
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if !userYes && !confirm(cmd, fmt.Sprintf("Delete user %s?", email)) {
			return errAborted
		}
		if err := getRuntime().client.DeleteUser(cmd.Context(), email); err != nil {
			return err
		}
		return printDone(cmd, "User deleted", email)
	},
}

var errAborted = errors.New("aborted")

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	answer := strings.ToLower(strings.TrimSpace(readLine(bufio.NewReader(cmd.InOrStdin()))))
	return answer == "y" || answer == "yes"
}

func printDone(cmd *cobra.Command, what, name string) error {
	if jsonOutput {
		printResult(cmd.OutOrStdout(), map[string]any{"name": name})
		return nil
	}
	okLabel.Fprintf(cmd.OutOrStdout(), "%s: %s\n", what, name)
	return nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(listUsersCmd, getUserCmd, createUserCmd, updateUserCmd, deleteUserCmd)

	addPagingFlags(listUsersCmd)
	listUsersCmd.Flags().StringVarP(&userSearch, "search", "s", "", "Match name or email")
	listUsersCmd.Flags().StringVar(&userRole, "role", "", "Only users with this role")

	for _, c := range []*cobra.Command{createUserCmd, updateUserCmd} {
		c.Flags().StringVarP(&userFile, "file", "f", "", "YAML or JSON file describing the user")
		c.Flags().StringArrayVar(&userSets, "set", nil, "Set a field, e.g. --set role=admin")
	}
	deleteUserCmd.Flags().BoolVarP(&userYes, "yes", "y", false, "Do not ask for confirmation")
}
