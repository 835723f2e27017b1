package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/idkeeper/internal/client/client"
	"github.com/dmitrijs2005/idkeeper/internal/common"
)

// getSimpleText and getPassword point to the interactive input helpers and
// can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a name, email and password and creates an account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	acc, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %s\n", err)
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d)\n", acc.Email, acc.ID)
	return nil
}

// Login prompts for credentials and keeps the returned token in memory.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %s\n", err)
		return err
	}

	a.token = token
	a.userName = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Whoami shows the account the current token belongs to.
func (a *App) Whoami(ctx context.Context) error {
	acc, err := a.api.Me(ctx, a.token)
	if err != nil {
		return a.reportProtected(err)
	}
	fmt.Fprintf(a.out, "%d\t%s <%s>\n", acc.ID, acc.Name, acc.Email)
	return nil
}

// Users lists all accounts.
func (a *App) Users(ctx context.Context) error {
	accs, err := a.api.Users(ctx, a.token)
	if err != nil {
		return a.reportProtected(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED")
	for _, acc := range accs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", acc.ID, acc.Name, acc.Email, acc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// Logout drops the in-memory token.
func (a *App) Logout(ctx context.Context) error {
	a.forget()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) forget() {
	a.token = ""
	a.userName = ""
}

// reportProtected prints err; a rejected token is dropped so the user is
// asked to log in again.
func (a *App) reportProtected(err error) error {
	if errors.Is(err, client.ErrForbidden) {
		a.forget()
		fmt.Fprintln(a.out, "Session is no longer valid, please log in again")
		return err
	}
	fmt.Fprintf(a.out, "Request failed: %s\n", err)
	return err
}
