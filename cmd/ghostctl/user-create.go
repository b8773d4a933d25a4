package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/config"
	"github.com/Unknown-086/GhostSwitch/pkg/db"
	gormstore "github.com/Unknown-086/GhostSwitch/pkg/server/store/gorm"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a user account",
	Long: `Create a user account.

The username and password policy of the registration endpoint applies. The
password is read from the first line of STDIN so it stays out of shell
history.

Example:
  echo 'Passw0rd!' | ghostctl user create operator1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		password, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && password == "" {
			fmt.Fprintln(os.Stderr, "Failed to read password from STDIN")
			os.Exit(1)
		}
		password = strings.TrimRight(password, "\r\n")

		id, err := createUser(cmd.Context(), args[0], password)
		if err != nil {
			var verr *authn.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(os.Stderr, verr.Message)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created user '%s'\n", strings.TrimSpace(args[0]))
		fmt.Println(id)
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}

func createUser(ctx context.Context, username, password string) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}

	gdb, err := db.Connect(db.Config{})
	if err != nil {
		return 0, err
	}

	// Registration never issues a token, so the secret is not needed here.
	svc, err := newAuthnService(cfg, gormstore.NewUserStore(gdb))
	if err != nil {
		return 0, err
	}

	user, err := svc.Register(ctx, username, password)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
