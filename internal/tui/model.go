package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"eoreview/internal/config"
	"eoreview/internal/content"
	"eoreview/internal/itemstore"
	"eoreview/internal/model"
	"eoreview/internal/nav"
	"eoreview/internal/remote"
	"eoreview/internal/store"
	"eoreview/internal/vlist"
)

type mode int

const (
	modeLoading mode = iota
	modePassword
	modeBrowse
)

type overlay int

const (
	overlayNone overlay = iota
	overlayExhibit
	overlayHelp
)

const (
	loadTimeout   = 2 * time.Minute
	remoteTimeout = 15 * time.Second
	scrollFrame   = 16 * time.Millisecond
	statusTTL     = 4 * time.Second
)

type contentLoadedMsg struct {
	test  string
	items []model.Item
	err   error
}

type completedMsg struct {
	test string
	ids  model.IDSet
	err  error
}

type metaMsg struct {
	meta remote.Meta
	err  error
}

var errNoPasswordGiven = errors.New("no password entered")

type searchDebounceMsg struct{ seq int }

type scrollStepMsg struct{}

type statusDoneMsg struct{ seq int }

// ConfigReloadedMsg carries a config that changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type Options struct {
	Config *config.Config
	Prefs  *store.Prefs
	State  store.State
	Loader *content.Loader
	Remote *remote.Client
	Logger *slog.Logger

	// Test and Search are startup parameters applied after the stored
	// session: the test first, then the search.
	Test   string
	Search string

	// DetectDark reports a dark terminal background. It is consulted only
	// when no appearance was ever stored and the theme is auto.
	DetectDark func() bool
}

// uiHooks records controller notifications until the model drains them.
type uiHooks struct {
	currentChanged bool
	index, total   int
	exhibit        int
	exhibitReq     bool
}

func (h *uiHooks) OnItemBecameCurrent(model.Item) { h.currentChanged = true }

func (h *uiHooks) OnResultCountChanged(index, total int) {
	h.index, h.total = index, total
}

func (h *uiHooks) OnExhibitRequested(_ model.Item, exhibit int) {
	h.exhibit, h.exhibitReq = exhibit, true
}

type appModel struct {
	cfg    *config.Config
	prefs  *store.Prefs
	loader *content.Loader
	remote *remote.Client
	log    *slog.Logger

	items   *itemstore.Store
	list    *vlist.Renderer[string]
	ctrl    *nav.Controller
	hooks   *uiHooks
	painter *rowPainter

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	search   textinput.Model
	password textinput.Model
	detail   viewport.Model
	pane     viewport.Model

	mode      mode
	overlay   overlay
	exhibit   int
	searching bool
	prompted  bool
	loaded    bool

	test        string
	valid       []model.TestType
	startSearch string
	dark        bool
	st          styles
	debounce    time.Duration

	searchSeq int
	statusSeq int
	status    string
	detailID  string

	width  int
	height int
}

func newAppModel(opts Options) appModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	st := opts.State

	items := itemstore.New()
	dark := resolveDark(cfg.Theme, st, opts.DetectDark)
	painter := &rowPainter{st: newStyles(dark), items: items}
	list := vlist.New[string](nil, painter.render, vlist.WithViewport(10), vlist.WithOverscan(cfg.Overscan))
	hooks := &uiHooks{index: -1}

	sess := &nav.Session{
		Current:   st.CurrentID,
		Predicate: model.Predicate{Search: model.NormalizeSearch(st.Search)},
		Sorted:    st.Sorted,
		History:   st.History,
		Flagged:   model.NewIDSet(st.Flagged...),
		Hidden:    model.NewIDSet(st.Hidden...),
	}
	navCfg := nav.Config{
		Renderer:    list,
		Hooks:       hooks,
		Logger:      log,
		Progress:    st.Progress,
		ReviewBatch: cfg.ReviewBatch,
		Smooth:      cfg.SmoothScroll,
	}
	if opts.Prefs != nil {
		navCfg.Persister = opts.Prefs
	}
	ctrl := nav.New(items, sess, navCfg)
	painter.ctrl = ctrl

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.SetValue(sess.Predicate.Search)

	pw := textinput.New()
	pw.Prompt = "password: "
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := appModel{
		cfg:         cfg,
		prefs:       opts.Prefs,
		loader:      opts.Loader,
		remote:      opts.Remote,
		log:         log,
		items:       items,
		list:        list,
		ctrl:        ctrl,
		hooks:       hooks,
		painter:     painter,
		keys:        defaultKeys(),
		help:        help.New(),
		spinner:     sp,
		search:      search,
		password:    pw,
		detail:      viewport.New(0, 0),
		pane:        viewport.New(0, 0),
		mode:        modeLoading,
		exhibit:     -1,
		valid:       content.ValidTestTypes(st.Permitted),
		startSearch: model.NormalizeSearch(opts.Search),
		dark:        dark,
		st:          newStyles(dark),
		debounce:    cfg.Debounce(),
	}

	switch {
	case opts.Test != "" && content.IsValidTest(m.valid, opts.Test):
		m.test = opts.Test
	case st.Test == "" && cfg.DefaultTest != "" && content.IsValidTest(m.valid, cfg.DefaultTest):
		m.test = cfg.DefaultTest
	default:
		m.test = content.ChooseTest(m.valid, st.Test)
	}
	if m.test != "" && m.test != st.Test {
		m.savePref("test", func(p *store.Prefs) error { return p.SaveTest(m.test) })
	}
	if m.test == "" {
		m.mode = modeBrowse
		m.loaded = true
		m.status = "no permitted test types; run `eoreview permit` or sync"
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.metaCmd()}
	if m.mode == modeLoading {
		cmds = append(cmds, m.spinner.Tick, m.loadCmd(m.test))
	}
	return tea.Batch(cmds...)
}

func (m appModel) loadCmd(test string) tea.Cmd {
	loader := m.loader
	if loader == nil {
		return func() tea.Msg {
			return contentLoadedMsg{test: test, err: content.ErrNoPack}
		}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := loader.Load(ctx, test)
		return contentLoadedMsg{test: test, items: items, err: err}
	}
}

func (m appModel) completedCmd(test string) tea.Cmd {
	if !m.remote.Configured() || test == "" {
		return nil
	}
	c := m.remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		ids, err := c.Completed(ctx, test)
		return completedMsg{test: test, ids: ids, err: err}
	}
}

func (m appModel) metaCmd() tea.Cmd {
	if !m.remote.Configured() {
		return nil
	}
	c := m.remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		meta, err := c.Meta(ctx)
		return metaMsg{meta: meta, err: err}
	}
}

func (m appModel) scrollCmd() tea.Cmd {
	if !m.list.Animating() {
		return nil
	}
	return tea.Tick(scrollFrame, func(time.Time) tea.Msg { return scrollStepMsg{} })
}

func (m *appModel) setStatus(s string) tea.Cmd {
	m.statusSeq++
	m.status = s
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusDoneMsg{seq: seq} })
}

func (m appModel) savePref(what string, save func(*store.Prefs) error) {
	if m.prefs == nil {
		return
	}
	if err := save(m.prefs); err != nil {
		m.log.Warn("save preference", slog.String("key", what), slog.Any("err", err))
	}
}

func (m *appModel) onContentLoaded(msg contentLoadedMsg) tea.Cmd {
	if msg.test != m.test {
		return nil
	}
	var cmds []tea.Cmd
	if msg.err != nil {
		if errors.Is(msg.err, content.ErrNoPassword) && !m.prompted && m.loader != nil {
			m.mode = modePassword
			m.password.Reset()
			return m.password.Focus()
		}
		m.log.Warn("load content", slog.String("test", msg.test), slog.Any("err", msg.err))
		cmds = append(cmds, m.setStatus("no content available: "+msg.err.Error()))
		msg.items = nil
	}

	m.mode = modeBrowse
	if !m.loaded {
		m.loaded = true
		m.items.Load(msg.items)
		m.ctrl.Start()
		if m.startSearch != "" {
			m.ctrl.SetSearch(m.startSearch)
			m.startSearch = ""
		}
	} else {
		m.ctrl.Reload(msg.items)
	}
	m.search.SetValue(m.ctrl.Session().Predicate.Search)
	m.afterNav()
	cmds = append(cmds, m.completedCmd(m.test), m.scrollCmd())
	return tea.Batch(cmds...)
}

func (m *appModel) onCompleted(msg completedMsg) tea.Cmd {
	if msg.test != m.test {
		return nil
	}
	if msg.err != nil {
		m.log.Warn("remote sync", slog.String("test", msg.test), slog.Any("err", msg.err))
		m.ctrl.SetCompleted(nil, false)
		m.list.InvalidateAll()
		m.afterNav()
		return m.setStatus("remote sync unavailable")
	}
	m.ctrl.SetCompleted(msg.ids, true)
	m.list.InvalidateAll()
	m.afterNav()
	return nil
}

func (m *appModel) onMeta(msg metaMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn("remote metadata", slog.Any("err", msg.err))
		return nil
	}
	if len(msg.meta.PermittedTestTypes) == 0 {
		return nil
	}
	m.savePref("permitted", func(p *store.Prefs) error { return p.SavePermitted(msg.meta.PermittedTestTypes) })
	m.valid = content.ValidTestTypes(msg.meta.PermittedTestTypes)
	if content.IsValidTest(m.valid, m.test) {
		return nil
	}
	next := content.ChooseTest(m.valid, "")
	if next == "" {
		m.test = ""
		m.ctrl.Reload(nil)
		m.afterNav()
		return m.setStatus("no permitted test types")
	}
	return m.switchTest(next)
}

// switchTest loads another test type. The item store is replaced once the
// pack is decrypted.
func (m *appModel) switchTest(test string) tea.Cmd {
	if test == m.test {
		return nil
	}
	m.test = test
	m.savePref("test", func(p *store.Prefs) error { return p.SaveTest(test) })
	m.ctrl.SetCompleted(nil, m.ctrl.Session().RemoteAvailable)
	m.overlay = overlayNone
	m.mode = modeLoading
	return tea.Batch(m.spinner.Tick, m.loadCmd(test))
}

func (m *appModel) nextTest() tea.Cmd {
	if len(m.valid) < 2 {
		return nil
	}
	for i, t := range m.valid {
		if t.Key == m.test {
			return m.switchTest(m.valid[(i+1)%len(m.valid)].Key)
		}
	}
	return m.switchTest(m.valid[0].Key)
}

// afterNav applies controller notifications to the presentation.
func (m *appModel) afterNav() {
	h := m.hooks
	if h.currentChanged {
		h.currentChanged = false
		if id := m.ctrl.Session().Current; id != "" {
			m.list.Invalidate(id)
		}
		if m.overlay == overlayExhibit {
			it, ok := m.ctrl.Current()
			if ok && len(it.Exhibits) > 0 {
				m.openExhibit(0)
			} else {
				m.closeOverlay()
			}
		}
	}
	if h.exhibitReq {
		h.exhibitReq = false
		m.openExhibit(h.exhibit)
	}
	m.refreshDetail(false)
}

func (m *appModel) applyTheme(dark bool) {
	m.dark = dark
	m.st = newStyles(dark)
	m.painter.st = m.st
	m.list.InvalidateAll()
	m.refreshDetail(true)
	if m.overlay == overlayExhibit {
		m.openExhibit(m.exhibit)
	}
}

func (m *appModel) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.debounce = cfg.Debounce()
	m.ctrl.SetSmooth(cfg.SmoothScroll)
	switch cfg.Theme {
	case config.ThemeDark:
		m.applyTheme(true)
	case config.ThemeLight:
		m.applyTheme(false)
	}
}
