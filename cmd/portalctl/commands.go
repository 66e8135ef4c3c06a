package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v2"

	"github.com/oaustech/docportal/internal/client"
	"github.com/oaustech/docportal/internal/pkg/logger"
	"github.com/oaustech/docportal/internal/workflow"
)

// env is what every authenticated command works with
type env struct {
	sess   workflow.Session
	client *client.Client
	wf     *workflow.Workflow
	out    io.Writer
}

// uploads of a full 10 MiB scan on a slow link stay well inside this
const requestTimeout = 2 * time.Minute

func newClient(server, token string) *client.Client {
	return client.New(server,
		client.WithToken(token),
		client.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		client.WithLogger(logger.Component("client")),
	)
}

// authenticated loads the session, checks its expiry and wires the workflow over the API.
func authenticated(c *cli.Context) (*env, error) {
	sf, err := loadSession(c.String("session-file"), time.Now())
	if err != nil {
		return nil, err
	}
	server := sf.Server
	if c.IsSet("server") || server == "" {
		server = c.String("server")
	}
	api := newClient(server, sf.Session.Token)
	return &env{
		sess:   sf.Session,
		client: api,
		wf:     workflow.New(api),
		out:    c.App.Writer,
	}, nil
}

// targetStudent resolves --student, defaulting to the signed-in student
func (e *env) targetStudent(c *cli.Context) (int64, error) {
	if c.IsSet("student") {
		return c.Int64("student"), nil
	}
	if e.sess.Role == workflow.RoleStudent {
		return e.sess.UserID, nil
	}
	return 0, cli.Exit("--student is required for admins", 2)
}

func optionalStudentFlag() cli.Flag {
	return &cli.Int64Flag{Name: "student", Aliases: []string{"s"}, Usage: "student ID (defaults to yourself)"}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "sign in and store the session",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true, EnvVars: []string{"PORTAL_USERNAME"}},
				&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"PORTAL_PASSWORD"}},
			},
			Action: login,
		},
		{
			Name:  "logout",
			Usage: "forget the stored session",
			Action: func(c *cli.Context) error {
				return removeSession(c.String("session-file"))
			},
		},
		{
			Name:   "catalog",
			Usage:  "list the required documents",
			Action: catalog,
		},
		{
			Name:   "status",
			Usage:  "show a student's document progress",
			Flags:  []cli.Flag{optionalStudentFlag()},
			Action: status,
		},
		{
			Name:  "upload",
			Usage: "upload or replace a document",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "document type, see `portalctl catalog`"},
				&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true},
			},
			Action: upload,
		},
		{
			Name:  "review",
			Usage: "approve, reject or start reviewing a document (admins)",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "student", Aliases: []string{"s"}, Required: true},
				&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true},
				&cli.StringFlag{Name: "decision", Aliases: []string{"d"}, Required: true, Usage: "reviewing, approved or rejected"},
				&cli.StringFlag{Name: "remarks", Aliases: []string{"r"}, Usage: "required when rejecting"},
			},
			Action: review,
		},
		{
			Name:  "watch",
			Usage: "poll a student's progress until interrupted",
			Flags: []cli.Flag{
				optionalStudentFlag(),
				&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Value: client.DefaultPollInterval},
			},
			Action: watch,
		},
		{
			Name:  "remove-student",
			Usage: "delete a student and their documents (admins)",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "student", Aliases: []string{"s"}, Required: true},
				&cli.BoolFlag{Name: "documents-only", Usage: "keep the account, delete only records and files"},
			},
			Action: removeStudent,
		},
	}
}

func login(c *cli.Context) error {
	api := newClient(c.String("server"), "")
	resp, err := api.Login(c.Context, c.String("username"), c.String("password"))
	if err != nil {
		return err
	}
	sess := workflow.Session{
		UserID:    resp.User.ID,
		Username:  resp.User.Username,
		Role:      workflow.Role(resp.User.Role),
		Token:     resp.Token.AccessToken,
		ExpiresAt: resp.Token.ExpiresAt,
	}
	if err := saveSession(c.String("session-file"), sessionFile{Server: c.String("server"), Session: sess}); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Logged in as %s (%s) until %s\n", sess.Username, sess.Role, sess.ExpiresAt.Local().Format(time.Kitchen))
	return nil
}

func catalog(c *cli.Context) error {
	resp, err := newClient(c.String("server"), "").Catalog(c.Context)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tCATEGORY\tCOPIES")
	for _, d := range resp.Documents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d colored, %d photocopies\n", d.ID, d.Name, d.Category, d.Copies.Colored, d.Copies.Photocopies)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\n%d documents. Upload PDF, JPEG or PNG files up to %d MiB.\n", resp.Total, resp.MaxBytes>>20)
	return nil
}

func status(c *cli.Context) error {
	e, err := authenticated(c)
	if err != nil {
		return err
	}
	id, err := e.targetStudent(c)
	if err != nil {
		return err
	}
	summary, err := e.wf.Summary(c.Context, e.sess, id)
	if err != nil {
		return err
	}
	return printSummary(e.out, summary)
}

func printSummary(out io.Writer, s workflow.ProgressSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tSTATUS\tREMARKS")
	for _, d := range s.Documents {
		remarks := ""
		if d.Record != nil {
			remarks = d.Record.Remarks
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Spec.Name, d.Status, remarks)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSubmitted %d/%d (%.0f%%), approved %d (%.0f%%), overall: %s\n",
		s.SubmittedCount, s.Total, s.UploadProgressPct, s.ApprovedCount, s.ApprovalProgressPct, s.OverallStatus)
	return nil
}

func upload(c *cli.Context) error {
	e, err := authenticated(c)
	if err != nil {
		return err
	}

	path := c.Path("file")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("detect file type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	docType := c.String("type")
	rec, err := e.wf.Record(c.Context, e.sess, e.sess.UserID, docType)
	if err != nil {
		return err
	}
	file := workflow.File{Name: filepath.Base(path), ContentType: mt.String(), Size: info.Size(), Reader: f}
	if _, err := e.wf.ApplyUpload(c.Context, e.sess, rec, file); err != nil {
		return err
	}

	// show what the server now holds
	rec, err = e.wf.Record(c.Context, e.sess, e.sess.UserID, docType)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %s (%s, %d bytes)\n", rec.DocumentType, rec.Status, rec.FileName, rec.FileSize)
	return nil
}

func review(c *cli.Context) error {
	e, err := authenticated(c)
	if err != nil {
		return err
	}
	decision, err := workflow.ParseDecision(c.String("decision"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	id, docType := c.Int64("student"), c.String("type")
	rec, err := e.wf.Record(c.Context, e.sess, id, docType)
	if err != nil {
		return err
	}
	if _, err := e.wf.ApplyReview(c.Context, e.sess, rec, decision, c.String("remarks")); err != nil {
		return err
	}

	rec, err = e.wf.Record(c.Context, e.sess, id, docType)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s for student %d: %s\n", rec.DocumentType, id, rec.Status)
	return nil
}

func watch(c *cli.Context) error {
	e, err := authenticated(c)
	if err != nil {
		return err
	}
	id, err := e.targetStudent(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var last workflow.OverallStatus
	lastLine := ""
	fatal := make(chan error, 1)
	poller := client.NewPoller(func(ctx context.Context) error {
		if err := e.sess.Check(time.Now()); err != nil {
			return err
		}
		s, err := e.wf.Summary(ctx, e.sess, id)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("submitted %d/%d, approved %d, rejected %d", s.SubmittedCount, s.Total, s.ApprovedCount, s.RejectedCount)
		if s.OverallStatus != last || line != lastLine {
			fmt.Fprintf(e.out, "%s  %s  %s\n", time.Now().Format(time.TimeOnly), strings.ToUpper(string(s.OverallStatus)), line)
			last, lastLine = s.OverallStatus, line
		}
		return nil
	},
		client.WithInterval(c.Duration("interval")),
		client.WithPollerLogger(logger.Component("poller")),
		client.OnError(func(err error) {
			if te, ok := workflow.AsTransportError(err); ok && te.Retryable() {
				fmt.Fprintf(c.App.ErrWriter, "portal unavailable, retrying at the next interval: %v\n", err)
				return
			}
			select {
			case fatal <- err:
			default:
			}
		}),
	)

	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	}
}

func removeStudent(c *cli.Context) error {
	e, err := authenticated(c)
	if err != nil {
		return err
	}
	id := c.Int64("student")
	if c.Bool("documents-only") {
		if err := e.wf.DeleteStudent(c.Context, e.sess, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted the documents of student %d\n", id)
		return nil
	}
	if !e.sess.IsAdmin() {
		return workflow.ErrForbiddenActor
	}
	if err := e.client.DeleteStudent(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted student %d\n", id)
	return nil
}

// hint suggests what the user should do about err, if anything
func hint(err error) string {
	if errors.Is(err, errNotLoggedIn) {
		return "run `portalctl login` first"
	}
	te, ok := workflow.AsTransportError(err)
	switch {
	case errors.Is(err, workflow.ErrForbiddenActor):
		return "your account's role cannot do this"
	case errors.Is(err, workflow.ErrSessionExpired), ok && te.NeedsReauth():
		return "your session is no longer valid, run `portalctl login` again"
	case ok && te.Retryable():
		return "the portal is unreachable, try again in a moment"
	case errors.Is(err, workflow.ErrInvalidFileType), errors.Is(err, workflow.ErrFileTooLarge):
		return "upload a PDF, JPEG or PNG file within the size limit (see `portalctl catalog`)"
	case errors.Is(err, workflow.ErrMissingRemarks):
		return "pass --remarks explaining why the document is rejected"
	}
	return ""
}

// exitCode tells scripts whether to fix the input, log in again, or retry later.
func exitCode(err error) int {
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	switch {
	case errors.Is(err, workflow.ErrForbiddenActor):
		return 1
	case errors.Is(err, errNotLoggedIn), errors.Is(err, workflow.ErrSessionExpired), errors.Is(err, workflow.ErrUnauthorized):
		return 3
	case errors.Is(err, workflow.ErrServerUnavailable):
		return 4
	default:
		return 1
	}
}
