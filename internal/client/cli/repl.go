package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Shared(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, add, edit <id>, delete <id>, show <id>, (l)ist, status, exit"
	helpLoggedIn  = "Available commands: add, edit <id>, delete <id>, show <id>, (l)ist, shared, share <id>, sync, status, export, logout, exit"
)

// runREPL reads a command per line from reader and dispatches it to a.
//
// The first token is the command, the rest are its arguments. Command
// errors are reported and the loop goes on; it ends on EOF, "exit" or
// "quit", or when ctx is cancelled.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "gn %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var run func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
			continue
		case "register":
			run = a.Register
		case "login":
			run = a.Login
		case "logout":
			run = a.Logout
		case "add":
			run = a.Add
		case "edit":
			run = a.Edit
		case "delete", "rm":
			run = a.Delete
		case "show":
			run = a.Show
		case "l", "list":
			run = a.List
		case "shared":
			run = a.Shared
		case "share":
			run = a.Share
		case "sync":
			run = a.Sync
		case "status":
			run = a.Status
		case "export":
			run = a.Export
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}

		if err := run(ctx, args); err != nil {
			fmt.Fprintln(w, describe(err))
		}
	}
}

var errUsage = errors.New("usage")

// describe turns a command error into a message for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return "Not logged in. Use 'login' or 'register'."
	case errors.Is(err, client.ErrAuthExpired):
		return "Session expired. Please log in again."
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable. Your changes are kept locally and will be synced later."
	case errors.Is(err, common.ErrorNotFound):
		return "Note not found."
	case errors.Is(err, common.ErrorForbidden):
		return "Only the owner of the note can do that."
	default:
		return "Error: " + err.Error()
	}
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// oneArg returns the single argument of a command taking an id.
func oneArg(args []string, u string) (string, error) {
	if len(args) != 1 {
		return "", usage(u)
	}
	return args[0], nil
}
