package player

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/log"
	"github.com/samber/lo"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// mpv demuxes these through ffmpeg without help
var mpvTypes = []string{
	constant.MimeHLS,
	constant.MimeMPEGTS,
	constant.MimeMP4,
}

// MPV is an Element backed by an mpv process controlled over JSON-IPC.
// The process is started lazily on the first SetSource, idle and paused,
// so that starting playback is always an explicit Play.
type MPV struct {
	// Autoplay permits Play without a user gesture.
	Autoplay bool
	// Binary is the executable to launch.
	Binary string
	// Title is shown in the mpv window.
	Title string

	// procMu serializes starting and stopping the process. The fields it
	// writes are read under stateMu so IPC never waits on a start in progress.
	procMu sync.Mutex
	events *EventListener
	mu     sync.Mutex // serializes IPC writes

	stateMu    sync.Mutex
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	listeners  map[int]func()
	nextID     int
	paused     bool
}

func NewMPV(autoplay bool) *MPV {
	return &MPV{
		Autoplay:  autoplay,
		Binary:    "mpv",
		Title:     constant.Arsu,
		exited:    make(chan struct{}),
		listeners: make(map[int]func()),
		paused:    true,
	}
}

func (m *MPV) CanPlayType(mime string) bool {
	return lo.Contains(mpvTypes, strings.ToLower(strings.TrimSpace(mime)))
}

// SetSource pauses playback and loads src in place of the current file.
func (m *MPV) SetSource(src string) error {
	target, err := sanitizeMediaTarget(src)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err := m.ensureRunning(); err != nil {
		return err
	}

	if err := m.Set("pause", true); err != nil {
		return err
	}

	log.WithFields(log.Fields{"src": target}).Debug("mpv loadfile")
	_, err = m.sendCommand([]interface{}{"loadfile", target, "replace"})
	return err
}

func (m *MPV) OnLoadedMetadata(fn func()) (cancel func()) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.stateMu.Lock()
		defer m.stateMu.Unlock()
		delete(m.listeners, id)
	}
}

// Play unpauses. Without Autoplay the request must carry a user gesture.
func (m *MPV) Play(ctx context.Context) error {
	if !m.Autoplay && !IsUserGesture(ctx) {
		return fmt.Errorf("%w: autoplay disabled", ErrPlaybackRejected)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if !m.IsRunning() {
		return ErrNotStarted
	}

	return m.Set("pause", false)
}

func (m *MPV) Pause() error {
	if m.socket() == "" {
		return ErrNotStarted
	}
	return m.Set("pause", true)
}

// Reset stops the current file. mpv stays alive in idle mode.
func (m *MPV) Reset() error {
	if m.socket() == "" {
		return nil
	}
	_, err := m.sendCommand([]interface{}{"stop"})
	return err
}

// Paused reports the last pause state mpv announced.
func (m *MPV) Paused() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.paused
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.exited
}

func (m *MPV) socket() string {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.socketPath
}

func (m *MPV) dispatch(name string, data interface{}) {
	switch name {
	case eventFileLoaded:
		m.stateMu.Lock()
		fns := lo.Values(m.listeners)
		m.stateMu.Unlock()

		for _, fn := range fns {
			fn()
		}
	case "pause":
		if p, ok := data.(bool); ok {
			m.stateMu.Lock()
			m.paused = p
			m.stateMu.Unlock()
		}
	case eventEndFile:
		log.WithFields(log.Fields{"event": data}).Debug("mpv end-file")
	}
}

// ensureRunning starts mpv unless it already answers. Concurrent callers
// wait for the start in progress instead of launching a second process.
func (m *MPV) ensureRunning() error {
	m.procMu.Lock()
	defer m.procMu.Unlock()

	if m.IsRunning() {
		return nil
	}

	socketPath := m.socket()
	if socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.Arsu, randomBytes))
	}

	cmd := exec.Command(m.Binary, buildArgs(socketPath, m.Title)...)
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	m.stateMu.Lock()
	m.socketPath = socketPath
	m.cmd = cmd
	m.exited = exited
	m.stateMu.Unlock()

	if err := waitForSocket(socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	if m.events != nil {
		m.events.Stop()
	}
	m.events = NewEventListener(socketPath, m.dispatch)
	return m.events.Start()
}

// buildArgs passes only what IPC control needs so the user's mpv.conf is respected.
func buildArgs(socketPath, title string) []string {
	title = sanitizeTitle(title)
	return []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		fmt.Sprintf("--force-media-title=%s", title),
		fmt.Sprintf("--title=%s", title),
		"--force-window=yes",
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
	}
}

func waitForSocket(socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

func (m *MPV) GetTimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

func (m *MPV) GetDuration() (float64, error) {
	return m.getFloatProperty("duration")
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	m.stateMu.Lock()
	socketPath, cmd, exited := m.socketPath, m.cmd, m.exited
	m.stateMu.Unlock()

	if socketPath == "" || cmd == nil {
		return false
	}

	select {
	case <-exited:
		return false
	default:
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Close shuts mpv down and removes its socket.
func (m *MPV) Close() error {
	m.procMu.Lock()
	defer m.procMu.Unlock()

	m.stateMu.Lock()
	socketPath, cmd, exited := m.socketPath, m.cmd, m.exited
	m.stateMu.Unlock()

	if socketPath == "" {
		return nil
	}

	if m.events != nil {
		m.events.Stop()
		m.events = nil
	}

	if cmd != nil {
		_, _ = m.sendCommand([]interface{}{"quit"})

		select {
		case <-exited:
		case <-time.After(3 * time.Second):
			_ = killProcess(cmd)
		}
	}

	_ = os.Remove(socketPath)

	m.stateMu.Lock()
	m.socketPath = ""
	m.cmd = nil
	m.stateMu.Unlock()
	return nil
}

func (m *MPV) Set(property string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", property, value})
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget rejects anything mpv could read as a flag or an exotic protocol.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
