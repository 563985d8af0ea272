// internal/tui/app.go
//
// This is the step-one screen of the job-posting wizard.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the inputs plus the draft machinery behind them
// 2. Update: keystrokes are forwarded to the form controller
// 3. View: a skeleton while the saved draft loads, then the form
//
// The draft itself lives outside the model: the form controller, the shared
// store and the synchronizer keep it durable no matter how the screen exits.

package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/albaform/internal/attachment"
	"github.com/kingrea/albaform/internal/config"
	"github.com/kingrea/albaform/internal/daterange"
	"github.com/kingrea/albaform/internal/draft"
	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/imagecodec"
	"github.com/kingrea/albaform/internal/logbook"
	"github.com/kingrea/albaform/internal/logging"
	"github.com/kingrea/albaform/internal/storage"
	"github.com/kingrea/albaform/internal/wizard"
)

// field identifies the focused input
type field int

const (
	fieldTitle field = iota
	fieldDescription
	fieldStartDate
	fieldEndDate
	fieldImagePath
	fieldCount
)

const journalLines = 3

type loadedMsg struct {
	result draft.LoadResult
}

type publishedMsg struct {
	result draft.Result
}

// savedMsg reports a save requested with ctrl+s.
type savedMsg struct {
	result draft.Result
	err    error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithStorage overrides the durable storage selected by config.
func WithStorage(s storage.Storage) AppOption {
	return func(a *App) {
		if s != nil {
			a.storage = s
		}
	}
}

// WithContext bounds background draft work.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the main application model.
type App struct {
	config  *config.Config
	logger  *logging.Logger
	logbook *logbook.Logbook
	storage storage.Storage
	ctx     context.Context

	store   *wizard.Store
	form    *form.Controller
	rng     *daterange.Controller
	attach  *attachment.Control
	sync    *draft.Synchronizer
	loader  *draft.Loader
	publish chan draft.Result
	unsubs  []form.Unsubscribe

	// loadMu serializes the load command with shutdown so storage is never
	// closed under a running hydration.
	loadMu sync.Mutex
	closed bool

	// UI components
	title       textinput.Model
	description textarea.Model
	startDate   textinput.Model
	endDate     textinput.Model
	imagePath   textinput.Model
	spinner     spinner.Model
	focus       field

	statusMsg   string
	err         error
	lastPublish draft.Result
	quitting    bool

	width  int
	height int
}

// NewApp wires the draft machinery for projectDir and returns the model.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		logger.For("tui").Printf("journal unavailable: %v", err)
	}

	app := &App{
		config:  cfg,
		logger:  logger,
		logbook: lb,
		ctx:     context.Background(),
		publish: make(chan draft.Result, 16),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.storage == nil {
		st, err := storage.Open(cfg)
		if err != nil {
			// Losing durability must not keep the form from opening.
			logger.For("storage").Printf("%v; drafts will not survive this session", err)
			lb.Warn("Draft storage unavailable, continuing without it")
			st = storage.NewMemoryStore()
		}
		app.storage = st
	}

	app.store = wizard.NewStore()
	app.form = form.NewController(form.WithRules(form.DefaultRules(cfg.DescriptionMax())))
	app.rng = daterange.New(app.form)
	app.attach = attachment.New(cfg.ImageLimit(), app.store.SetCurrentImageList)

	deps := draft.Deps{
		Form:      app.form,
		Range:     app.rng,
		Store:     app.store,
		Storage:   app.storage,
		Key:       cfg.StepKey(),
		Logger:    logger.For("draft"),
		Journal:   lb,
		OnPublish: app.notifyPublished,
	}
	app.sync = draft.NewSynchronizer(deps)
	app.loader = draft.NewLoader(deps,
		draft.WithSynchronizer(app.sync),
		draft.WithImageLimit(cfg.ImageLimit()),
	)
	app.unsubs = append(app.unsubs,
		app.rng.Follow(),
		app.store.SubscribeImages(app.attach.Reset),
	)
	app.sync.Start(app.ctx)

	app.buildInputs()
	lb.Info("Session opened · storage: %s", cfg.StorageDriver())
	return app, nil
}

func (a *App) buildInputs() {
	a.title = textinput.New()
	a.title.Placeholder = "Enter a title"
	a.title.Prompt = ""
	a.title.Width = 48
	a.title.Focus()

	a.description = textarea.New()
	a.description.Placeholder = fmt.Sprintf("Up to %d characters", a.config.DescriptionMax())
	a.description.CharLimit = a.config.DescriptionMax()
	a.description.ShowLineNumbers = false
	a.description.SetWidth(50)
	a.description.SetHeight(5)

	a.startDate = dateInput("start YYYY-MM-DD")
	a.endDate = dateInput("end YYYY-MM-DD")

	a.imagePath = textinput.New()
	a.imagePath.Placeholder = "path/to/image.png"
	a.imagePath.Prompt = ""
	a.imagePath.Width = 48

	a.spinner = spinner.New()
	a.spinner.Spinner = spinner.Dot
}

func dateInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 10
	ti.Width = 16
	return ti
}

// notifyPublished runs on publishing goroutines; the channel hands results
// to the event loop.
func (a *App) notifyPublished(res draft.Result) {
	select {
	case a.publish <- res:
	default:
	}
}

func (a *App) waitForPublish() tea.Cmd {
	ch := a.publish
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return publishedMsg{result: res}
	}
}

func (a *App) loadDraft() tea.Cmd {
	return func() tea.Msg {
		a.loadMu.Lock()
		defer a.loadMu.Unlock()
		if a.closed {
			return nil
		}
		return loadedMsg{result: a.loader.Load(a.ctx)}
	}
}

func (a *App) saveNow() tea.Cmd {
	return func() tea.Msg {
		res, err := a.sync.PublishSync(a.ctx)
		return savedMsg{result: res, err: err}
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadDraft(), a.waitForPublish())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		if !a.loader.Loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loadedMsg:
		a.syncInputsFromForm()
		if msg.result.Found {
			a.statusMsg = fmt.Sprintf("Restored saved draft (%d image(s))", len(msg.result.Images))
		}
		if n := len(msg.result.Skipped); n > 0 {
			a.statusMsg = fmt.Sprintf("%s · %d image(s) could not be restored", a.statusMsg, n)
		}
		return a, nil

	case publishedMsg:
		if msg.result.Applied {
			a.lastPublish = msg.result
		}
		return a, a.waitForPublish()

	case savedMsg:
		switch {
		case msg.err != nil:
			a.err = msg.err
		case msg.result.PersistErr != nil:
			a.statusMsg = "Draft kept for this session only; it could not be saved to disk"
		case msg.result.Applied:
			a.lastPublish = msg.result
			a.statusMsg = fmt.Sprintf("%s · draft saved", a.statusMsg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		a.shutdown()
		return a, tea.Quit
	}
	if a.loader.Loading() {
		return a, nil
	}

	switch msg.String() {
	case "tab", "down":
		if a.focus != fieldDescription || msg.String() == "tab" {
			return a, a.moveFocus(1)
		}
	case "shift+tab", "up":
		if a.focus != fieldDescription || msg.String() == "shift+tab" {
			return a, a.moveFocus(-1)
		}
	case "ctrl+s":
		a.commitRange()
		if a.form.Validate() {
			a.statusMsg = "Step one is complete"
		} else {
			a.statusMsg = "Some fields need attention"
		}
		return a, a.saveNow()
	case "ctrl+x":
		if n := a.attach.Len(); n > 0 {
			if err := a.attach.Remove(n - 1); err != nil {
				a.err = err
			}
		}
		return a, nil
	case "enter":
		switch a.focus {
		case fieldStartDate, fieldEndDate:
			a.commitRange()
			return a, nil
		case fieldImagePath:
			a.attachImage()
			return a, nil
		}
	}
	return a, a.updateFocused(msg)
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case fieldTitle:
		a.title, cmd = a.title.Update(msg)
		a.form.SetValue(form.FieldTitle, a.title.Value())
	case fieldDescription:
		a.description, cmd = a.description.Update(msg)
		a.form.SetValue(form.FieldDescription, a.description.Value())
	case fieldStartDate:
		a.startDate, cmd = a.startDate.Update(msg)
	case fieldEndDate:
		a.endDate, cmd = a.endDate.Update(msg)
	case fieldImagePath:
		a.imagePath, cmd = a.imagePath.Update(msg)
	}
	return cmd
}

func (a *App) moveFocus(delta int) tea.Cmd {
	leaving := a.focus
	a.focus = field((int(a.focus) + delta + int(fieldCount)) % int(fieldCount))
	if isDateField(leaving) && !isDateField(a.focus) {
		a.commitRange()
	}

	a.title.Blur()
	a.description.Blur()
	a.startDate.Blur()
	a.endDate.Blur()
	a.imagePath.Blur()
	switch a.focus {
	case fieldTitle:
		return a.title.Focus()
	case fieldDescription:
		return a.description.Focus()
	case fieldStartDate:
		return a.startDate.Focus()
	case fieldEndDate:
		return a.endDate.Focus()
	default:
		return a.imagePath.Focus()
	}
}

func isDateField(f field) bool {
	return f == fieldStartDate || f == fieldEndDate
}

// commitRange hands both date inputs to the range controller as one pair,
// the way a calendar picker reports a completed selection. A half-filled
// pair is not a selection and stays in the inputs.
func (a *App) commitRange() {
	start, end := a.startDate.Value(), a.endDate.Value()
	if (start == "") != (end == "") {
		a.statusMsg = "Enter both recruitment dates to set the period"
		return
	}
	if a.rng.Range() == (daterange.Range{start, end}) {
		return
	}
	a.rng.Set(start, end)
}

func (a *App) attachImage() {
	path := a.imagePath.Value()
	if path == "" {
		return
	}
	err := a.attach.AddFile(path)
	switch {
	case err == nil:
		a.imagePath.SetValue("")
		a.err = nil
		a.statusMsg = fmt.Sprintf("Attached %s", path)
	case errors.Is(err, attachment.ErrLimitReached):
		a.err = fmt.Errorf("you can attach up to %d images", a.attach.Limit())
	default:
		a.err = err
	}
}

func (a *App) syncInputsFromForm() {
	values := a.form.Values()
	a.title.SetValue(values[form.FieldTitle])
	a.description.SetValue(values[form.FieldDescription])
	r := a.rng.Range()
	a.startDate.SetValue(r.Start())
	a.endDate.SetValue(r.End())
}

func (a *App) shutdown() {
	if a.quitting {
		return
	}
	a.quitting = true

	a.loadMu.Lock()
	a.closed = true
	a.loadMu.Unlock()

	for _, unsubscribe := range a.unsubs {
		unsubscribe()
	}
	a.sync.Close()
	a.logbook.Info("Session closed")
	if err := a.storage.Close(); err != nil {
		a.logger.For("storage").Printf("close: %v", err)
	}
	_ = a.logger.Close()
}

// Images returns the attachments currently shown.
func (a *App) Images() []imagecodec.Image {
	return a.attach.Images()
}
