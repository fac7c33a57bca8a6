package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marcus/adminui/internal/db"
	"github.com/marcus/adminui/internal/pagedef"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/page"
	"github.com/marcus/adminui/pkg/monitor"
)

const (
	snapshotWidth  = 100
	snapshotHeight = 30

	// localBaseURL stands in for the server when links are served from the
	// page definition.
	localBaseURL = "http://page.local"
)

// consoleFlags registers the flags shared by the commands that show a page.
func consoleFlags(c *cobra.Command) {
	c.Flags().Bool("once", false, "Render one frame to stdout and exit instead of starting the interactive console")
	c.Flags().StringSlice("link", nil, "With --once, open these link URLs as stacked modals before rendering")
	c.Flags().Bool("plain", false, "With --once, strip colors from the frame")
	c.Flags().Bool("lookups-db", false, "Serve lookup candidates from the imported lookup database instead of the page definition")
}

// session is a page ready to display.
type session struct {
	def    *pagedef.Definition
	page   *page.Page
	disp   *monitor.Dispatcher
	source lookup.Source
	logger *slog.Logger
}

// newSession builds the page of def. Requests go to baseURL, or to the
// fragments of def when baseURL is empty.
func newSession(def *pagedef.Definition, baseURL string, logger *slog.Logger) (*session, error) {
	disp := monitor.NewDispatcher()
	client := &http.Client{Timeout: cfg.RequestTimeout.Duration}
	if baseURL == "" {
		baseURL = localBaseURL
		client.Transport = def.Transport()
	}

	var p *page.Page
	p = page.New(page.Options{
		Stack:      cfg.Stack(),
		BaseURL:    baseURL,
		Timeout:    cfg.RequestTimeout.Duration,
		HTTPClient: client,
		Dispatch:   disp.Dispatch,
		Logger:     logger,
		Location:   func() string { return strings.TrimSuffix(baseURL, "/") + def.Action },
		Redirect: func(target string) {
			logger.Warn("session expired", "login", target)
			p.Modals.ShowMessage(cfg.Messages.Error, "Your session expired. Sign in again at "+target)
		},
	})
	if _, err := pagedef.Build(p, def); err != nil {
		return nil, fmt.Errorf("build page: %w", err)
	}
	return &session{def: def, page: p, disp: disp, source: def.Source(), logger: logger}, nil
}

func (s *session) model() monitor.Model {
	links := make([]monitor.Link, len(s.def.Links))
	for i, l := range s.def.Links {
		links[i] = monitor.Link{Label: l.Label, URL: l.URL}
	}
	return monitor.New(s.page, monitor.Options{
		Title:          s.def.Title,
		Links:          links,
		Source:         s.source,
		Dispatcher:     s.disp,
		ResizeDebounce: cfg.ResizeDebounce.Duration,
		Logger:         s.logger,
	})
}

// run starts the interactive console, or renders one frame with --once.
func (s *session) run(cmd *cobra.Command) error {
	if useDB, _ := cmd.Flags().GetBool("lookups-db"); useDB {
		store, err := db.Open(getBaseDir())
		if err != nil {
			return err
		}
		defer store.Close()
		s.source = store
	}

	if once, _ := cmd.Flags().GetBool("once"); once {
		links, _ := cmd.Flags().GetStringSlice("link")
		plain, _ := cmd.Flags().GetBool("plain")
		return s.snapshot(cmd.Context(), cmd.OutOrStdout(), links, plain)
	}

	program := tea.NewProgram(s.model(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

// snapshot opens links one after another, waits for every response and
// writes the resulting frame.
func (s *session) snapshot(ctx context.Context, w io.Writer, links []string, plain bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	width, height := snapshotWidth, snapshotHeight
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			width, height = tw, th
		}
	}

	var m tea.Model = s.model()
	m, _ = m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	for _, link := range links {
		s.page.Modals.ShowLink(ctx, link, nil, nil)
		s.settle()
	}
	s.page.Modals.FocusTop()
	s.page.Modals.ResizeSettled(s.page.Modals.Resize(s.page.Modals.Viewport()))

	frame := m.View()
	if plain {
		frame = ansi.Strip(frame)
	}
	_, err := fmt.Fprintln(w, frame)
	return err
}

// settle waits for in-flight requests and runs their continuations until
// none are left.
func (s *session) settle() {
	for {
		s.page.AJAX.Wait()
		if s.disp.Drain() == 0 {
			return
		}
	}
}

// loadDefinition reads the page definition at path, or the built-in demo
// page when path is empty.
func loadDefinition(path string) (*pagedef.Definition, error) {
	if path == "" {
		return pagedef.Demo(), nil
	}
	def, err := pagedef.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", path, err)
	}
	return def, nil
}
