package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/studyplanner/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNoPassword = errors.New("a password is required")
)

// commandLine holds what the admin commands act on.
type commandLine struct {
	usrRepo user.Repository
	// migrate runs a goose command on the database.
	migrate func(command string, args ...string) error
	// inTx runs fn with repositories bound to a single transaction.
	inTx func(ctx context.Context, fn func(ctx context.Context, r repos) error) error
	out  io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Study Planner administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.AddCommand(cli.migrateCmd(), cli.addUserCmd(), cli.resetPasswordCmd(), cli.seedCmd())
	return root
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if args == nil {
		args = []string{} // never fall back to os.Args
	}
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var data addUserData
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the one owning the username/email. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if data.Username == "" && data.Email == "" {
				return errors.New("one of --username or --email is required")
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			data.Password = pwd
			usr, err := cli.addUser(cmd.Context(), data)
			if err != nil {
				return err
			}
			cmd.Printf("user %s saved (roles: %s)\n", usr.ID, strings.Join(usr.Roles, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "full name")
	cmd.Flags().StringVar(&data.Username, "username", "", "username")
	cmd.Flags().StringVar(&data.Email, "email", "", "email")
	cmd.Flags().StringVar(&data.Role, "role", user.RoleStudent, fmt.Sprintf("one of %s", strings.Join(user.AllRoles, ", ")))
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if err := cli.resetPassword(cmd.Context(), uname, pwd); err != nil {
				return err
			}
			cmd.Println("password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username or email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo account with sample courses, tasks, events and study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := loadSeed(file)
			if err != nil {
				return err
			}
			usr, created, err := cli.seed(cmd.Context(), data)
			if err != nil {
				return err
			}
			if !created {
				cmd.Printf("%s already exists, nothing to seed\n", usr.Username)
				return nil
			}
			cmd.Printf("seeded %s (%s)\n", usr.Username, usr.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed YAML file (default: embedded demo data)")
	return cmd
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errNoPassword
	}
	return string(pwd), nil
}
