package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophnotes/internal/client/scheduler"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// Background is the part of the scheduler the CLI drives.
type Background interface {
	Start(ctx context.Context)
	Stop()
	Trigger()
	Status() scheduler.Status
}

type App struct {
	authService  services.AuthService
	notesService services.NotesService
	background   Background
	logger       logging.Logger

	reader *bufio.Reader
	out    io.Writer

	// db is closed when Run returns.
	db io.Closer
}

func NewApp(as services.AuthService, ns services.NotesService, bg Background, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		authService:  as,
		notesService: ns,
		background:   bg,
		logger:       logger,
		reader:       bufio.NewReader(in),
		out:          out,
	}
}

// Run starts background sync and the REPL, and stops both when the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)
	if a.db != nil {
		defer a.db.Close()
	}

	a.background.Start(ctx)
	defer a.background.Stop()
	a.background.Trigger()

	fmt.Fprintln(a.out, "Welcome to gophnotes (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.authService.LoggedIn()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// getStatus renders the prompt suffix, e.g. "(bob@example.com online, 2 pending)".
func (a *App) getStatus() string {
	mode := connectivity(a.background.Status().Online)
	s := mode
	if a.isLoggedIn() {
		s = a.authService.Email() + " " + mode
	}
	if n, err := a.notesService.Pending(context.Background()); err == nil && n > 0 {
		s = fmt.Sprintf("%s, %d pending", s, n)
	}
	return "(" + s + ")"
}

func connectivity(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
