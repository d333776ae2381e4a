package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/services/apiclient"
)

// keyringService names the OS keyring entries holding API tokens, one per API URL.
const keyringService = "studyplanner-pomodoro"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNotLoggedIn = errors.New("not logged in: run `pomodoro login` first")
)

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	apiURL string

	// tick is how often the running timer is advanced and displayed.
	tick time.Duration

	green  *color.Color
	yellow *color.Color
	faint  *color.Color
}

func newCommandLine(conf *core.Config, out io.Writer) *commandLine {
	return &commandLine{
		conf:   conf,
		out:    out,
		apiURL: conf.Pomodoro.APIURL,
		tick:   time.Second,
		green:  color.New(color.FgGreen, color.Bold),
		yellow: color.New(color.FgYellow),
		faint:  color.New(color.Faint),
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pomodoro",
		Short:         "Focus timer recording study sessions in the Study Planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.PersistentFlags().StringVar(&cli.apiURL, "api", cli.apiURL, "Study Planner API URL")
	root.AddCommand(cli.loginCmd(), cli.logoutCmd(), cli.startCmd(), cli.statusCmd())
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

func (cli *commandLine) loginCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the token in the OS keyring. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(cli.out, "Password: ")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			_, _ = fmt.Fprintln(cli.out)
			if err != nil {
				return errors.Wrap(err, "reading password")
			}

			client := cli.newClient()
			token, err := client.Login(cmd.Context(), uname, string(pwd))
			if err != nil {
				if apiclient.IsStatus(err, http.StatusBadRequest) {
					return errors.New("invalid username or password")
				}
				return err
			}
			usr, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if err := keyring.Set(keyringService, cli.apiURL, token); err != nil {
				return errors.Wrap(err, "saving token")
			}
			cli.green.Fprintf(cli.out, "Logged in as %s\n", usr.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "username or email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := keyring.Delete(keyringService, cli.apiURL); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				return errors.Wrap(err, "deleting token")
			}
			cmd.Println("Logged out")
			return nil
		},
	}
}

func (cli *commandLine) newClient() *apiclient.Client {
	return apiclient.New(cli.apiURL).SetLogger(func(format string, v ...interface{}) {
		cli.yellow.Fprintf(cli.out, "warning: "+format+"\n", v...)
	})
}

// client returns an API client authenticated with the saved token.
func (cli *commandLine) client() (*apiclient.Client, error) {
	token, err := keyring.Get(keyringService, cli.apiURL)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, errNotLoggedIn
		}
		return nil, errors.Wrap(err, "reading token")
	}
	return cli.newClient().SetToken(token), nil
}

func (cli *commandLine) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cli.client()
			if err != nil {
				return err
			}
			now := time.Now()
			from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			sessions, err := client.Sessions(cmd.Context(), from, from.AddDate(0, 0, 1))
			if err != nil {
				if apiclient.IsStatus(err, http.StatusUnauthorized) {
					return errNotLoggedIn
				}
				return err
			}

			total := 0
			for _, s := range sessions {
				total += s.DurationMinutes
				cli.faint.Fprintf(cli.out, "  %s - %s  %3d min\n",
					s.StartTime.Local().Format("15:04"), s.EndTime.Local().Format("15:04"), s.DurationMinutes)
			}
			cli.green.Fprintf(cli.out, "Today: %d session(s), %d min\n", len(sessions), total)
			return nil
		},
	}
}
