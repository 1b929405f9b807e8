package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/filex"
	"github.com/dmitrijs2005/gophnotes/internal/netx"
)

var getMultiline = GetMultiline
var getYesNo = GetYesNo
var getList = GetList

const timeFormat = "2006-01-02 15:04:05"

// Add prompts for a title, a body and an optional color and creates the
// note locally.
func (a *App) Add(ctx context.Context, _ []string) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	color, err := getSimpleText(a.reader, "Color (empty for default)", a.out)
	if err != nil {
		return err
	}

	patch := &api.NotePatch{Title: &title, Content: &content}
	if color != "" {
		patch.Color = &color
	}
	n, err := a.notesService.Add(ctx, patch)
	if err != nil {
		return err
	}
	a.println("Created", n.ID)
	return nil
}

// Edit prompts for each editable field; empty answers keep the value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := oneArg(args, "edit <id>")
	if err != nil {
		return err
	}
	n, err := a.notesService.Get(ctx, id)
	if err != nil {
		return err
	}

	patch := &api.NotePatch{}
	changed := false

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", n.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" && title != n.Title {
		patch.Title, changed = &title, true
	}

	content, err := getMultiline(a.reader, "Content (empty keeps the current text)", a.out)
	if err != nil {
		return err
	}
	if content != "" && content != n.Content {
		patch.Content, changed = &content, true
	}

	color, err := getSimpleText(a.reader, fmt.Sprintf("Color [%s]", n.Color), a.out)
	if err != nil {
		return err
	}
	if color != "" && color != n.Color {
		patch.Color, changed = &color, true
	}

	if patch.Pinned, err = getYesNo(a.reader, fmt.Sprintf("Pinned [%s]", yesNo(n.Pinned)), a.out); err != nil {
		return err
	}
	if patch.Archived, err = getYesNo(a.reader, fmt.Sprintf("Archived [%s]", yesNo(n.Archived)), a.out); err != nil {
		return err
	}
	changed = changed || patch.Pinned != nil || patch.Archived != nil

	if !changed {
		a.println("Nothing changed")
		return nil
	}
	if _, err := a.notesService.Edit(ctx, id, patch); err != nil {
		return err
	}
	a.println("Saved")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := oneArg(args, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.notesService.Delete(ctx, id); err != nil {
		return err
	}
	a.println("Deleted", id)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := oneArg(args, "show <id>")
	if err != nil {
		return err
	}
	n, err := a.notesService.Get(ctx, id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", n.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", n.Title)
	fmt.Fprintf(tw, "Color:\t%s\n", n.Color)
	fmt.Fprintf(tw, "Pinned:\t%s\n", yesNo(n.Pinned))
	fmt.Fprintf(tw, "Archived:\t%s\n", yesNo(n.Archived))
	fmt.Fprintf(tw, "Shared:\t%s\n", yesNo(n.IsShared))
	fmt.Fprintf(tw, "Owner:\t%s\n", a.owner(n))
	if n.DueAt != nil {
		fmt.Fprintf(tw, "Due:\t%s\n", n.DueAt.Local().Format(timeFormat))
	}
	fmt.Fprintf(tw, "Updated:\t%s\n", n.UpdatedAt.Local().Format(timeFormat))
	if err := tw.Flush(); err != nil {
		return err
	}
	if n.Content != "" {
		a.println()
		a.println(n.Content)
	}
	return nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	notes, err := a.notesService.List(ctx)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		a.println("No notes")
		return nil
	}
	return a.table(notes)
}

func (a *App) table(notes []models.Note) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFLAGS\tOWNER\tUPDATED")
	for i := range notes {
		n := &notes[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, truncate(n.Title, 40), flags(n), a.owner(n), n.UpdatedAt.Local().Format(timeFormat))
	}
	return tw.Flush()
}

func (a *App) owner(n *models.Note) string {
	if n.OwnerID == "" || n.OwnerID == a.authService.UserID() {
		return "me"
	}
	return n.OwnerID
}

func flags(n *models.Note) string {
	var f []string
	if n.Pinned {
		f = append(f, "pinned")
	}
	if n.Archived {
		f = append(f, "archived")
	}
	if n.IsShared {
		f = append(f, "shared")
	}
	return strings.Join(f, ",")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (a *App) Shared(ctx context.Context, _ []string) error {
	n, err := a.notesService.RefreshShared(ctx)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("%d shared notes updated", n))
	return nil
}

// Share changes who can see a note. Push the note with 'sync' first if it
// was created since the last sync.
func (a *App) Share(ctx context.Context, args []string) error {
	id, err := oneArg(args, "share <id>")
	if err != nil {
		return err
	}
	add, err := getList(a.reader, "Add collaborators (emails, comma separated)", a.out)
	if err != nil {
		return err
	}
	remove, err := getList(a.reader, "Remove collaborators (emails, comma separated)", a.out)
	if err != nil {
		return err
	}
	shared, err := getYesNo(a.reader, "Shared", a.out)
	if err != nil {
		return err
	}
	if len(add) == 0 && len(remove) == 0 && shared == nil {
		a.println("Nothing changed")
		return nil
	}

	req := &api.ShareRequest{NoteID: id, IsShared: shared, AddCollaborators: add, RemoveCollaborators: remove}
	if err := a.notesService.Share(ctx, req); err != nil {
		return err
	}
	a.println("Sharing updated")
	return nil
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	res, err := a.notesService.Sync(ctx)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Synced: %d pushed, %d applied, %d conflicts, %d changes pulled (cursor %d)",
		res.Pushed, res.Acknowledged, res.Conflicts, res.Changes, res.Cursor))
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st := a.background.Status()
	pending, err := a.notesService.Pending(ctx)
	if err != nil {
		return err
	}
	cursor, err := a.notesService.Cursor(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	user := "not logged in"
	if a.isLoggedIn() {
		user = a.authService.Email()
	}
	fmt.Fprintf(tw, "User:\t%s\n", user)
	fmt.Fprintf(tw, "Server:\t%s\n", connectivity(st.Online))
	fmt.Fprintf(tw, "Pending:\t%d\n", pending)
	fmt.Fprintf(tw, "Cursor:\t%d\n", cursor)
	if !st.LastSync.IsZero() {
		fmt.Fprintf(tw, "Last sync:\t%s\n", st.LastSync.Local().Format(timeFormat))
	}
	if st.LastErr != nil {
		fmt.Fprintf(tw, "Last error:\t%s\n", describe(st.LastErr))
	}
	return tw.Flush()
}

func (a *App) Export(ctx context.Context, _ []string) error {
	res, err := a.notesService.Export(ctx)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Exported %d notes to %s", res.Notes, res.Key))
	a.println("Download:", res.URL)
	if !res.ExpiresAt.IsZero() {
		a.println("Link expires", res.ExpiresAt.Local().Format(timeFormat), "("+time.Until(res.ExpiresAt).Round(time.Minute).String()+")")
	}

	dl, err := getYesNo(a.reader, "Download a copy to ./"+exportDir, a.out)
	if err != nil || dl == nil || !*dl {
		return err
	}
	name, n, err := a.download(ctx, res)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Saved %d bytes to %s", n, name))
	return nil
}

const exportDir = "exports"

// downloadFn is a test seam for netx.DownloadPresignedURL.
var downloadFn = netx.DownloadPresignedURL

func (a *App) download(ctx context.Context, res *api.ExportResponse) (string, int64, error) {
	dir, err := filex.EnsureSubDir(exportDir)
	if err != nil {
		return "", 0, err
	}
	f, err := filex.CreateExclusive(dir, path.Base(res.Key))
	if err != nil {
		return "", 0, err
	}

	n, err := downloadFn(ctx, res.URL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("download export: %w", err)
	}
	return f.Name(), n, nil
}
