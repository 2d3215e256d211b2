package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/prefs"
	"github.com/hatlabs/cockpit-container-apps/internal/router"
	"github.com/hatlabs/cockpit-container-apps/internal/state"
)

const defaultSearchDebounce = 300 * time.Millisecond

// Options configure the UI model.
type Options struct {
	Context context.Context
	Client  backend.API
	Cache   *state.Store
	// Loader fetches a store's data. The empty store id means every
	// package, for systems without store definitions.
	Loader  state.Loader
	History *router.History
	Prefs   *prefs.Store
	Logger  zerolog.Logger

	DefaultStore   string
	SearchDebounce time.Duration
}

type focusArea int

const (
	focusList focusArea = iota
	focusSearch
	focusForm
)

// navInbox collects router notifications. Router callbacks fire inside
// Update, so they are queued here and drained by the model afterwards.
type navInbox struct {
	mu      sync.Mutex
	changes []router.Change
	needed  []string
}

func (n *navInbox) change(c router.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

func (n *navInbox) need(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.needed = append(n.needed, name)
}

func (n *navInbox) drain() ([]router.Change, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	changes, needed := n.changes, n.needed
	n.changes, n.needed = nil, nil
	return changes, needed
}

// Model is the Bubble Tea model.
type Model struct {
	ctx      context.Context
	client   backend.API
	cache    *state.Store
	loader   state.Loader
	router   *router.Router
	prefs    *prefs.Store
	log      zerolog.Logger
	keys     keyMap
	theme    Theme
	debounce time.Duration
	nav      *navInbox

	width  int
	height int
	ready  bool

	// Stores
	stores        []backend.Store
	storesLoaded  bool
	storesErr     string
	defaultStore  string
	fallbackStore string

	// Store data
	fetchIssued  bool
	fetchedStore string
	loading      bool
	snapshot     state.Snapshot

	// Lists and search
	focus     focusArea
	search    textinput.Model
	query     string
	searchSeq int
	cursors   map[string]int

	// Install and remove
	spinner  spinner.Model
	progress progress.Model
	op       *operation
	opSeq    int
	opErr    string

	// Configuration
	editor        *formEditor
	configPkg     string
	configLoading bool
	configFocus   bool // move focus to the form once loaded
	configErr     string
	configEmpty   bool

	modal    Modal
	showHelp bool
	help     help.Model
	notice   string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cache := opts.Cache
	if cache == nil {
		cache = new(state.Store)
	}
	history := opts.History
	if history == nil {
		history = router.NewHistory(router.Location{})
	}
	debounce := opts.SearchDebounce
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}

	themeName := ""
	if opts.Prefs != nil {
		themeName = opts.Prefs.Get().Theme
	}
	theme := GetTheme(themeName)

	nav := &navInbox{}
	r := router.New(history, router.Options{
		Lookup:      cache.Lookup,
		NeedPackage: nav.need,
	})
	r.Subscribe(nav.change)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search apps"
	search.CharLimit = 128
	search.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:          ctx,
		client:       opts.Client,
		cache:        cache,
		loader:       opts.Loader,
		router:       r,
		prefs:        opts.Prefs,
		log:          opts.Logger,
		keys:         DefaultKeyMap(),
		theme:        theme,
		debounce:     debounce,
		nav:          nav,
		defaultStore: opts.DefaultStore,
		search:       search,
		cursors:      make(map[string]int),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:     progress.New(progress.WithSolidFill(theme.Accent)),
		help:         help.New(),
	}
	if m.loader == nil && m.client != nil {
		m.loader = m.client.GetStoreData
	}
	// A store named by the location can be fetched before the store list
	// arrives.
	if id := r.Store(); id != "" {
		m.fetchIssued = true
		m.fetchedStore = id
		m.loading = true
		cache.Switch(id)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.client != nil {
		cmds = append(cmds, listStoresCmd(m.ctx, m.client))
	}
	if m.fetchIssued && m.loader != nil {
		cmds = append(cmds, fetchStoreCmd(m.ctx, m.cache, m.loader, m.fetchedStore))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, cmd := m.handleKey(msg)
		mm := model.(Model)
		navCmd := mm.processNav()
		return mm, tea.Batch(cmd, navCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.progress.Width = max(min(m.width-24, 60), 10)
		m.help.Width = m.width
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case storesMsg:
		return m.handleStores(msg)

	case storeDataMsg:
		return m.handleStoreData(msg)

	case searchTickMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.applySearch(m.search.Value())
		cmd := m.ensureStore()
		return m, cmd

	case storeSelectedMsg:
		m.router.SwitchStore(msg.id)
		cmd := m.processNav()
		return m, cmd

	case startOperationMsg:
		cmd := m.beginOperation(msg.kind, msg.pkg)
		return m, cmd

	case progressMsg:
		if m.op == nil || msg.seq != m.op.seq {
			return m, nil
		}
		m.op.percent = msg.percent
		m.op.message = msg.message
		return m, waitForEvent(m.op.events)

	case operationDoneMsg:
		return m.handleOperationDone(msg)

	case configLoadedMsg:
		return m.handleConfigLoaded(msg)

	case configSavedMsg:
		return m.handleConfigSaved(msg)
	}

	return m, nil
}

func (m Model) busy() bool {
	return m.loading || m.op != nil || m.configLoading
}

// activeStore is the store the views show. It is unknown until either the
// location names one or the store list has arrived.
func (m Model) activeStore() (string, bool) {
	if id := m.router.Store(); id != "" {
		return id, true
	}
	if !m.storesLoaded {
		return "", false
	}
	return m.fallbackStore, true
}

// storeView derives the list for q from the active store's cached data.
func (m Model) storeView(q state.Query) (state.View, bool) {
	id, ok := m.activeStore()
	if !ok || m.cache.Active() != id {
		return state.View{}, false
	}
	return m.cache.View(q)
}

// ensureStore issues a fetch for the active store unless one was already
// issued for it.
func (m *Model) ensureStore() tea.Cmd {
	id, ok := m.activeStore()
	if !ok || m.loader == nil {
		return nil
	}
	if m.fetchIssued && m.fetchedStore == id {
		return nil
	}
	if m.cache.Cached(id) && m.cache.Active() == id {
		m.fetchIssued, m.fetchedStore = true, id
		return nil
	}
	m.fetchIssued, m.fetchedStore = true, id
	m.loading = true
	m.cache.Switch(id)
	m.log.Debug().Str("store", id).Msg("loading store")
	return tea.Batch(fetchStoreCmd(m.ctx, m.cache, m.loader, id), m.spinner.Tick)
}

// reload drops the active store's data and fetches it again.
func (m *Model) reload() tea.Cmd {
	id, ok := m.activeStore()
	if !ok {
		return nil
	}
	m.cache.Invalidate(id)
	m.fetchIssued = false
	return m.ensureStore()
}

func (m Model) handleStores(msg storesMsg) (tea.Model, tea.Cmd) {
	m.storesLoaded = true
	if msg.err != nil {
		m.storesErr = backend.UserMessage(msg.err)
		m.log.Warn().Err(msg.err).Msg("list stores failed")
	} else {
		m.storesErr = ""
		m.stores = msg.stores
	}
	last := ""
	if m.prefs != nil {
		last = m.prefs.Get().LastStore
	}
	m.fallbackStore = pickStore(m.stores, last, m.defaultStore)
	cmd := m.ensureStore()
	return m, cmd
}

// pickStore chooses the store shown when the location names none: the last
// used one, then the configured default, then the first. No stores means
// the unfiltered package set.
func pickStore(stores []backend.Store, last, configured string) string {
	for _, want := range []string{last, configured} {
		if want == "" {
			continue
		}
		for _, s := range stores {
			if s.ID == want {
				return want
			}
		}
	}
	if len(stores) > 0 {
		return stores[0].ID
	}
	return ""
}

func (m Model) handleStoreData(msg storeDataMsg) (tea.Model, tea.Cmd) {
	if id, ok := m.activeStore(); ok && id == msg.store {
		m.loading = false
	}
	m.snapshot = m.cache.Snapshot()
	if msg.err != nil {
		m.log.Warn().Err(msg.err).Str("store", msg.store).Msg("store load failed")
		return m, nil
	}
	m.log.Debug().Str("store", msg.store).Int("packages", len(m.snapshot.Data.Packages)).Msg("store loaded")
	m.router.Resolve(m.cache.Lookup)
	cmd := m.processNav()
	return m, cmd
}

// processNav reacts to router changes queued since the last call.
func (m *Model) processNav() tea.Cmd {
	changes, needed := m.nav.drain()
	if len(changes) == 0 && len(needed) == 0 {
		return nil
	}

	var cmds []tea.Cmd
	for _, c := range changes {
		if c.StoreChanged {
			m.storeChanged(c.Store)
		}
		m.persist(func(p *prefs.Prefs) { p.InstallFilter = c.Filter.String() })
		if app, ok := c.State.(router.AppRoute); !ok || app.AppName != m.configPkg {
			m.closeConfig()
		}
		m.log.Debug().
			Str("route", c.State.Route()).
			Str("location", m.router.Location().String()).
			Bool("external", c.External).
			Msg("navigation")
	}
	if len(needed) > 0 {
		m.log.Debug().Strs("packages", needed).Msg("packages requested by location")
	}
	cmds = append(cmds, m.ensureStore(), m.syncConfig())
	return tea.Batch(cmds...)
}

// syncConfig loads the configuration of an installed app as soon as its page
// is shown. Focus stays where it is.
func (m *Model) syncConfig() tea.Cmd {
	app, ok := m.router.State().(router.AppRoute)
	if !ok || app.Package == nil || !app.Package.Installed || app.AppName == m.configPkg {
		return nil
	}
	return m.openConfig(app.AppName, false)
}

func (m *Model) storeChanged(id string) {
	m.search.SetValue("")
	m.query = ""
	m.searchSeq++
	m.cursors = make(map[string]int)
	m.snapshot = state.Snapshot{}
	if id != "" {
		m.persist(func(p *prefs.Prefs) { p.LastStore = id })
	}
}

func (m *Model) persist(fn func(*prefs.Prefs)) {
	if m.prefs == nil {
		return
	}
	if err := m.prefs.Update(fn); err != nil {
		m.log.Warn().Err(err).Msg("save preferences failed")
	}
}

// applySearch makes query the active search and resets the list position.
func (m *Model) applySearch(query string) {
	if query == m.query {
		return
	}
	m.query = query
	m.setCursor(0)
}

// searchChanged filters immediately when the store is cached and waits for
// typing to settle otherwise.
func (m *Model) searchChanged() tea.Cmd {
	m.searchSeq++
	if id, ok := m.activeStore(); ok && m.cache.Cached(id) {
		m.applySearch(m.search.Value())
		return nil
	}
	seq := m.searchSeq
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (m *Model) beginOperation(kind opKind, pkg string) tea.Cmd {
	if m.op != nil {
		m.notice = m.op.kind.verb() + " " + m.op.pkg + " is still running"
		return nil
	}
	if m.client == nil {
		return nil
	}
	m.opSeq++
	m.opErr = ""
	m.notice = ""
	op, cmd := startOperation(m.ctx, m.client, kind, pkg, m.opSeq)
	m.op = op
	m.log.Info().Str("package", pkg).Str("operation", kind.verb()).Msg("package operation started")
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) handleOperationDone(msg operationDoneMsg) (tea.Model, tea.Cmd) {
	if m.op == nil || msg.seq != m.op.seq {
		return m, nil
	}
	m.op = nil
	if msg.err != nil {
		m.opErr = backend.UserMessage(msg.err)
		m.log.Error().Err(msg.err).Str("package", msg.pkg).Msg("package operation failed")
		return m, nil
	}
	m.notice = msg.kind.past() + " " + msg.pkg
	m.log.Info().Str("package", msg.pkg).Msg(m.notice)
	if msg.kind == opRemove && m.configPkg == msg.pkg {
		m.closeConfig()
	}
	cmd := m.reload()
	return m, cmd
}

func (m *Model) openConfig(pkg string, focus bool) tea.Cmd {
	if m.configPkg == pkg {
		switch {
		case m.editor != nil && focus:
			m.focus = focusForm
			return m.editor.focusField(m.editor.focus)
		case m.configLoading:
			m.configFocus = m.configFocus || focus
			return nil
		case m.editor != nil:
			return nil
		}
	}
	if m.client == nil {
		return nil
	}
	m.closeConfig()
	m.configPkg = pkg
	m.configLoading = true
	m.configFocus = focus
	return tea.Batch(loadConfigCmd(m.ctx, m.client, pkg), m.spinner.Tick)
}

func (m *Model) closeConfig() {
	m.editor = nil
	m.configPkg = ""
	m.configLoading = false
	m.configFocus = false
	m.configErr = ""
	m.configEmpty = false
	if m.focus == focusForm {
		m.focus = focusList
	}
}

func (m Model) handleConfigLoaded(msg configLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.pkg != m.configPkg || !m.configLoading {
		return m, nil
	}
	m.configLoading = false
	switch {
	case msg.schemaErr != nil:
		m.configEmpty = true
		m.log.Warn().Str("package", msg.pkg).Str("error", backend.UserMessage(msg.schemaErr)).Msg("config schema unavailable")
		return m, nil
	case msg.err != nil:
		m.configErr = backend.UserMessage(msg.err)
		m.log.Warn().Err(msg.err).Str("package", msg.pkg).Msg("load configuration failed")
		return m, nil
	case msg.schema.Empty():
		m.configEmpty = true
		return m, nil
	}
	form := configform.New(msg.pkg, msg.schema, msg.values, m.client, configform.WithLogger(m.log))
	m.editor = newFormEditor(form)
	if !m.configFocus {
		return m, nil
	}
	m.configFocus = false
	m.focus = focusForm
	return m, m.editor.focusField(0)
}

func (m Model) handleConfigSaved(msg configSavedMsg) (tea.Model, tea.Cmd) {
	if m.editor == nil || msg.pkg != m.configPkg {
		return m, nil
	}
	var verr *configform.ValidationError
	switch {
	case errors.As(msg.err, &verr):
		m.notice = "Fix the highlighted fields"
	case msg.err != nil:
		m.notice = ""
	default:
		m.editor.syncInputs()
		m.notice = "Configuration saved"
	}
	return m, nil
}

// cursor returns the list position remembered for the current location.
func (m Model) cursor() int {
	return m.cursors[m.router.Location().String()]
}

func (m *Model) setCursor(i int) {
	m.cursors[m.router.Location().String()] = max(i, 0)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	popts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		popts = append(popts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, popts...)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}

// shutdown cancels a running operation and detaches from the router.
func (m Model) shutdown() {
	if m.op != nil {
		m.op.cancel()
	}
	m.router.Close()
}
