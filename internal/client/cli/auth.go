package cli

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// credentials takes the email from args or prompts for it, then reads the
// password without echo. The caller wipes the password.
func (a *App) credentials(args []string) (string, []byte, error) {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return "", nil, err
		}
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, email, password); err != nil {
		return err
	}
	a.println("Registered and logged in as", email)
	a.background.Trigger()
	return nil
}

// Login signs in. Notes edited while signed out stay queued and are pushed
// by the next sync, unless the account differs from the one that owns the
// local data, in which case the local data is dropped.
func (a *App) Login(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, email, password); err != nil {
		return err
	}
	a.println("Logged in as", email)
	a.background.Trigger()
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}
