// Package tuihost renders the fluid in a terminal. Each character cell
// shows two pixels stacked with an upper half block, the top pixel as the
// foreground color and the bottom one as the background.
package tuihost

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/host"
)

const (
	halfBlock   = "▀"
	statusLines = 1
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warn = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Options configures a terminal run.
type Options struct {
	Config    *config.Config
	OutputDir string
	Seed      int64
	LogStats  bool
	Logger    *slog.Logger
	MaxFrames uint64 // stop after N steps (0 = until quit)
}

type tickMsg time.Time

type model struct {
	sess      *host.Session
	target    *composite.ImageTarget
	input     host.InputTracker
	frameTime time.Duration
	maxFrames uint64

	cols, rows int
	resized    bool

	mouseX, mouseY float64
	mouseSeen      bool

	lastFrame time.Time
	fps       float64
}

// Run takes over the terminal until the user quits.
func Run(opts Options) error {
	m, err := newModel(opts)
	if err != nil {
		return err
	}
	defer m.sess.Close()

	m.sess.Start()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

func newModel(opts Options) (*model, error) {
	cfg := opts.Config
	m := &model{
		target:    composite.NewImageTarget(cfg.Device.Workers),
		frameTime: cfg.Derived.FrameTime,
		maxFrames: opts.MaxFrames,
		cols:      80,
		rows:      24,
	}
	surface := &host.Surface{
		Size:     m.surfaceSize,
		Override: 1,
	}
	sess, err := host.New(host.Options{
		Config:    cfg,
		Surface:   surface,
		Target:    m.target,
		OutputDir: opts.OutputDir,
		Seed:      opts.Seed,
		LogStats:  opts.LogStats,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	m.sess = sess
	return m, nil
}

// surfaceSize is the terminal in pixels: one column per pixel and two
// pixel rows per text row, minus the status line.
func (m *model) surfaceSize() (float64, float64) {
	return float64(max(m.cols, 1)), float64(max(m.rows-statusLines, 1) * 2)
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.frameTime, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd { return m.tick() }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "space", "p":
			e := m.sess.Engine()
			if e.Running() {
				e.Pause()
			} else {
				e.Start()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.cols || msg.Height != m.rows {
			m.cols, m.rows = msg.Width, msg.Height
			m.resized = true
		}
		return m, nil

	case tea.MouseMsg:
		// Cell centers, in surface pixels.
		m.mouseX = float64(msg.X) + 0.5
		m.mouseY = float64(msg.Y)*2 + 1
		m.mouseSeen = true
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		w, h := m.surfaceSize()
		m.input.Apply(host.InputFrame{
			MouseX:   m.mouseX,
			MouseY:   m.mouseY,
			OnScreen: m.mouseSeen && m.mouseX < w && m.mouseY < h,
			Resized:  m.resized,
		}, m.sess.Events())
		m.resized = false

		if m.sess.Frame(now) {
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1 / dt
				}
			}
			m.lastFrame = now
		}
		if m.maxFrames > 0 && m.sess.Engine().Frames() >= m.maxFrames {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *model) View() string {
	img := m.target.Image()
	if img == nil {
		return dim.Render("starting...")
	}
	return renderCells(img) + "\n" + m.status()
}

func (m *model) status() string {
	e := m.sess.Engine()
	d := e.Grid().Dims()
	state := cyan.Render("running")
	if !e.Running() {
		state = warn.Render("paused")
	}
	return fmt.Sprintf("%s %s %s",
		state,
		dim.Render(fmt.Sprintf("%.0f fps  grid %dx%d  pointer %s  peak %.2f",
			m.fps, d.Width, d.Height, e.Pointer().Mode(), fluid.MaxSpeed(e.Field()))),
		dim.Render("[space] pause  [q] quit"))
}

// renderCells draws img two rows per line. Pixels are composited over
// black since terminals have no alpha.
func renderCells(img *image.NRGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := overBlack(img.NRGBAAt(x, y))
			bottom := color.RGBA{A: 255}
			if y+1 < b.Max.Y {
				bottom = overBlack(img.NRGBAAt(x, y+1))
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom))).
				Render(halfBlock))
		}
	}
	return sb.String()
}

func overBlack(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R)*a + 127) / 255),
		G: uint8((uint32(c.G)*a + 127) / 255),
		B: uint8((uint32(c.B)*a + 127) / 255),
		A: 255,
	}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
