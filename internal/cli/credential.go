package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/wtldr/internal/credential"
)

func newCredentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the IMAP password in the system keyring",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Read the password for mail.username from stdin and store it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.mailUser()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", user)
				password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				if err := credential.Set(credential.MailKey(user), password); err != nil {
					return err
				}
				a.printer.Success("stored password for %s", user)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored password for mail.username",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := a.mailUser()
				if err != nil {
					return err
				}
				if err := credential.Delete(credential.MailKey(user)); err != nil {
					return err
				}
				a.printer.Success("deleted password for %s", user)
				return nil
			},
		},
	)

	return cmd
}

// readPassword reads one line from in. A terminal is read without echo.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	var line string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		line = string(b)
	} else {
		var err error
		line, err = bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	return password, nil
}

func (a *app) mailUser() (string, error) {
	if a.cfg.Mail.Username == "" {
		return "", fmt.Errorf("mail.username is not set in %s", a.cfgFile)
	}
	return a.cfg.Mail.Username, nil
}
