package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	BodyStyle   = lipgloss.NewStyle().Padding(1)
	FooterStyle = lipgloss.NewStyle().Align(lipgloss.Center)

	TextStyle       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"})
	SubtextStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#a6adc8"})
	AltTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5c5f77", Dark: "#bac2de"})
	AccentTextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04a5e5", Dark: "#89dceb"})
	TitleStyle      = AccentTextStyle.Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1).
			Background(lipgloss.AdaptiveColor{Light: "#ccd0da", Dark: "#313244"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#9ca0b0", Dark: "#6c7086"})
	AccentButtonStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				PaddingRight(1).
				Background(lipgloss.AdaptiveColor{Light: "#04a5e5", Dark: "#89dceb"}).
				Foreground(lipgloss.AdaptiveColor{Light: "#dce0e8", Dark: "#11111b"})
)

const (
	TitleText   = "Frontend Application"
	HeadingText = "Backend Message:"
	LoadingText = "Loading..."
	ErrorText   = "Failed to fetch message from backend"
	RefreshText = "Refresh Message"
)

const healthTimeout = 2 * time.Second

// Stable element identifiers, usable with Tui.Element.
const (
	TitleID         = "title"
	HeadingID       = "heading"
	LoadingID       = "loading"
	ErrorID         = "error"
	MessageID       = "message"
	RefreshButtonID = "refresh-button"
)

// Fetcher is the backend the panel reads its message from.
type Fetcher interface {
	Hello(ctx context.Context) (string, error)
}

type Element struct {
	ID       string
	Text     string
	Disabled bool
}

type healthMsg struct {
	err error
}

type fetchedMsg struct {
	gen     int
	message string
	err     error
}

// Tui is the message panel. It fetches once on Init and again whenever the
// refresh button is activated.
type Tui struct {
	spinner   spinner.Model
	stopwatch stopwatch.Model
	width     *int
	height    *int

	ctx     context.Context
	cancel  context.CancelFunc
	fetcher Fetcher
	logger  *log.Logger
	version string
	health  func(context.Context) error

	state ViewState
	gen   int
}

type Option func(*Tui)

// WithLogger sets where fetch errors are written. They are never shown on screen.
func WithLogger(logger *log.Logger) Option {
	return func(m *Tui) {
		m.logger = logger
	}
}

// WithHealthCheck runs check once on Init, alongside the first fetch. A
// failure is logged and does not change what the panel shows.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(m *Tui) {
		m.health = check
	}
}

func WithVersion(version string) Option {
	return func(m *Tui) {
		m.version = version
	}
}

func New(ctx context.Context, fetcher Fetcher, opts ...Option) *Tui {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	sw := stopwatch.New()

	m := &Tui{
		spinner:   s,
		stopwatch: sw,

		ctx:     ctx,
		fetcher: fetcher,
		logger:  log.New(io.Discard, "", 0),
		state:   ViewState{State: StateIdle},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Tui) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.checkHealth(),
		m.fetch(),
	)
}

func (m *Tui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	cmds := []tea.Cmd{}

	switch msg := msg.(type) {

	case fetchedMsg:
		// A newer fetch has started since this one
		if msg.gen != m.gen {
			break
		}
		m.release()

		if msg.err != nil {
			m.logger.Printf("error fetching message: %v", msg.err)
			m.state = Failed(ErrorText)
		} else {
			m.state = Loaded(msg.message)
		}

		m.stopStopwatch()

	case healthMsg:
		if msg.err != nil {
			m.logger.Printf("health check failed: %v", msg.err)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "enter", " ":
			if m.Refreshable() {
				cmds = append(cmds, m.fetch())
			}

		case "q", "esc", "ctrl+c":
			m.Close()
			cmds = append(cmds, tea.Quit)
		}

	case tea.WindowSizeMsg:
		m.width = &msg.Width
		m.height = &msg.Height

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.stopwatch, cmd = m.stopwatch.Update(msg)
	cmds = append(cmds, cmd)

	// A start can arrive after the fetch it belongs to has settled
	if m.state.State != StateLoading && m.stopwatch.Running() {
		m.stopStopwatch()
	}

	return m, tea.Batch(cmds...)
}

// fetch moves the panel to loading and returns the command that performs
// the request. Any request still in flight is cancelled and its result
// will be ignored.
func (m *Tui) fetch() tea.Cmd {
	m.release()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.gen++
	gen := m.gen
	fetcher := m.fetcher

	m.state = Loading()
	m.stopwatch, _ = m.stopwatch.Update(m.stopwatch.Reset()())

	return tea.Batch(
		m.stopwatch.Start(),
		func() tea.Msg {
			message, err := fetcher.Hello(ctx)
			return fetchedMsg{
				gen:     gen,
				message: message,
				err:     err,
			}
		},
	)
}

func (m *Tui) checkHealth() tea.Cmd {
	if m.health == nil {
		return nil
	}

	ctx := m.ctx
	check := m.health

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()

		return healthMsg{err: check(ctx)}
	}
}

// stopStopwatch stops the stopwatch right away instead of waiting for the
// stop message to come back through the event loop.
func (m *Tui) stopStopwatch() {
	m.stopwatch, _ = m.stopwatch.Update(m.stopwatch.Stop()())
}

func (m *Tui) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Close cancels the request in flight, if any.
func (m *Tui) Close() {
	m.release()
}

func (m *Tui) State() ViewState {
	return m.state
}

// Refreshable reports whether the refresh button can be activated.
func (m *Tui) Refreshable() bool {
	return m.state.State != StateLoading
}

// Element returns the element with the given id if it is currently shown.
func (m *Tui) Element(id string) (Element, bool) {
	for _, el := range m.elements() {
		if el.ID == id {
			return el, true
		}
	}

	return Element{}, false
}

func (m *Tui) elements() []Element {
	els := []Element{
		{ID: TitleID, Text: TitleText},
		{ID: HeadingID, Text: HeadingText},
	}

	switch m.state.State {
	case StateLoading:
		els = append(els, Element{ID: LoadingID, Text: LoadingText})
	case StateFailed:
		els = append(els, Element{ID: ErrorID, Text: m.state.Err})
	case StateLoaded:
		els = append(els, Element{ID: MessageID, Text: m.state.Message})
	}

	return append(els, Element{
		ID:       RefreshButtonID,
		Text:     RefreshText,
		Disabled: !m.Refreshable(),
	})
}

func (m *Tui) View() string {
	body := ""
	for _, el := range m.elements() {
		switch el.ID {
		case TitleID:
			body += TitleStyle.Render(el.Text) + "\n\n"
		case HeadingID:
			body += TextStyle.Render(el.Text) + "\n"
		case LoadingID:
			body += m.spinner.View() + " " + SubtextStyle.Render(el.Text) + "\n\n"
		case ErrorID:
			body += ErrTextStyle.Render(el.Text) + "\n\n"
		case MessageID:
			body += AccentTextStyle.Render(el.Text) + "\n\n"
		case RefreshButtonID:
			if el.Disabled {
				body += ButtonStyle.Render(el.Text)
			} else {
				body += AccentButtonStyle.Render(el.Text)
			}
		}
	}

	return m.render(renderParams{
		body:   body,
		footer: AltTextStyle.Render(m.footer()),
		center: true,
	})
}

func (m *Tui) footer() string {
	footer := "r refresh • q quit"
	if m.version != "" {
		footer = fmt.Sprintf("message panel v%s • %s", m.version, footer)
	}

	switch m.state.State {
	case StateLoading:
		return fmt.Sprintf("%s elapsed • %s", m.stopwatch.View(), footer)
	case StateLoaded, StateFailed:
		return fmt.Sprintf("took %s • %s", m.stopwatch.View(), footer)
	default:
		return footer
	}
}

type renderParams struct {
	body   string
	footer string
	center bool
}

func (m *Tui) render(p renderParams) string {
	if m.width == nil || m.height == nil {
		return ""
	}

	bodyStyle := BodyStyle.Width(*m.width).Height(*m.height - 1)
	if p.center {
		bodyStyle = bodyStyle.Align(lipgloss.Center, lipgloss.Center)
	}

	footerStyle := FooterStyle.Width(*m.width)

	return lipgloss.JoinVertical(lipgloss.Top, bodyStyle.Render(p.body), footerStyle.Render(p.footer))
}
