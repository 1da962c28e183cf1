package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/dispatch"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasksync"
	"github.com/Joseda-hg/lazytodo/internal/view"
	"github.com/dustin/go-humanize"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewTasks  = "tasks"
	viewDetail = "detail"
	viewSearch = "search"
	viewForm   = "form"
	viewHelp   = "help"
)

type Options struct {
	Tasks   *tasksync.Orchestrator
	Workers int
	Logger  *slog.Logger
	// DBPath enables reloading when another process writes the store.
	DBPath  string
}

type UI struct {
	tasks      *tasksync.Orchestrator
	dispatcher *dispatch.Dispatcher
	reconciler *view.Reconciler
	logger     *slog.Logger
	now        func() time.Time

	// latest is the sequence number of the newest request; older results are dropped.
	latest  uint64
	loading bool
	loaded  bool

	selected    int
	selectedKey model.Key
	// fresh marks tasks that appeared on the last refresh.
	fresh       map[model.Key]bool

	query        string
	form         *formState
	formEditor   *formEditor
	searchActive bool
	helpActive   bool
	status       string
}

type formState struct {
	task   *model.Task
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

// guiForeground posts work onto the gocui main loop.
type guiForeground struct {
	gui *gocui.Gui
}

func (f guiForeground) Post(fn func()) {
	f.gui.Update(func(*gocui.Gui) error {
		fn()
		return nil
	})
}

func newUI(tasks *tasksync.Orchestrator, fg dispatch.Foreground, workers int, logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tui")
	ui := &UI{
		tasks:      tasks,
		dispatcher: dispatch.New(fg, workers, logger),
		reconciler: view.NewReconciler(),
		logger:     logger,
		now:        time.Now,
		fresh:      map[model.Key]bool{},
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(ctx context.Context, opts Options) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(opts.Tasks, guiForeground{gui: gui}, opts.Workers, opts.Logger)

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.DBPath != "" && opts.DBPath != ":memory:" {
		go func() {
			err := db.Watch(ctx, opts.DBPath, 250*time.Millisecond, func() {
				gui.Update(func(*gocui.Gui) error {
					ui.refresh()
					return nil
				})
			})
			if err != nil {
				ui.logger.Warn("store watcher stopped", "err", err)
			}
		}()
	}

	ui.refresh()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) keyBindings() []binding {
	return []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{viewTasks, 'q', u.quit},
		{viewTasks, 'r', u.reload},
		{viewTasks, 'g', u.clearSearch},
		{viewTasks, 'a', u.addTask},
		{viewTasks, 'e', u.editTask},
		{viewTasks, 'd', u.deleteTask},
		{viewTasks, 'x', u.toggleDone},
		{viewTasks, gocui.KeySpace, u.toggleDone},
		{viewTasks, '/', u.startSearch},
		{viewTasks, '?', u.toggleHelp},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	for _, b := range u.keyBindings() {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return fmt.Errorf("bind %v on %q: %w", b.key, b.view, err)
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom <= bodyTop {
		return nil
	}

	leftX1 := max(maxX*3/5, 20)
	if leftX1 >= maxX-1 {
		leftX1 = maxX - 1
	}

	tasksView, err := gui.SetView(viewTasks, 0, bodyTop, leftX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.TitleColor = gocui.ColorRed
	}
	tasksView.Title = u.listTitle()
	applyViewStyle(tasksView, !u.inputActive(), true)
	u.renderTaskList(tasksView)

	if leftX1+1 < maxX-1 {
		detailView, err := gui.SetView(viewDetail, leftX1+1, bodyTop, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			detailView.Title = "Details"
			detailView.Wrap = true
		}
		applyViewStyle(detailView, false, false)
		u.renderDetail(detailView)
	}

	_, _ = gui.SetViewOnTop(viewFooter)

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if !u.inputActive() {
		_, _ = gui.SetCurrentView(viewTasks)
	}
	gui.Cursor = u.searchActive || u.form != nil

	return nil
}

// refresh re-reads the list, applying the active search when there is one.
func (u *UI) refresh() {
	if u.query != "" {
		u.request().Search(u.query)
		return
	}
	u.request().Load()
}

// request starts a new request generation and returns a session whose
// results are dropped once a newer request has been issued.
func (u *UI) request() *tasksync.Session {
	u.latest++
	u.loading = true
	return u.tasks.Async(u.dispatcher, &ticket{ui: u, seq: u.latest})
}

type ticket struct {
	ui  *UI
	seq uint64
}

func (t *ticket) OnListUpdated(tasks []model.Task) {
	if t.seq != t.ui.latest {
		return
	}
	t.ui.loading = false
	t.ui.applyTasks(tasks)
}

func (t *ticket) OnError(message string) {
	if t.seq != t.ui.latest {
		return
	}
	t.ui.loading = false
	t.ui.status = message
	t.ui.logger.Warn("request failed", "message", message)
}

func (u *UI) applyTasks(tasks []model.Task) {
	update := u.reconciler.Apply(tasks)

	u.fresh = map[model.Key]bool{}
	if u.loaded {
		for _, key := range update.Inserted {
			u.fresh[key] = true
		}
	}
	u.loaded = true

	snap := u.reconciler.Snapshot()
	if index := snap.IndexOf(u.selectedKey); index >= 0 {
		u.selected = index
	} else {
		u.selected = clamp(u.selected, 0, snap.Len()-1)
	}
	if task, ok := snap.At(u.selected); ok {
		u.selectedKey = task.Key()
	}
	u.status = ""
}

func (u *UI) listTitle() string {
	count := u.reconciler.Snapshot().Len()
	title := fmt.Sprintf("Tasks (%d)", count)
	if u.query != "" {
		title = fmt.Sprintf("Results for %q (%d)", u.query, count)
	}
	if u.loading {
		title += " loading..."
	}
	return title
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	query := u.query
	if query == "" {
		query = "type / to search"
	}
	snap := u.reconciler.Snapshot()
	done := 0
	for _, key := range snap.Order {
		if snap.ByID[key].Completed {
			done++
		}
	}
	fmt.Fprintf(view, "Search: %s | Done: %d/%d", query, done, snap.Len())
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | x/space toggle done | j/k move")
	fmt.Fprintln(view, "/ search | g clear search | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(view *gocui.View) {
	view.Clear()
	snap := u.reconciler.Snapshot()
	for i, key := range snap.Order {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(snap.ByID[key], u.fresh[key]))
	}
	if snap.Len() == 0 {
		if u.loading {
			fmt.Fprintln(view, "  loading...")
		} else {
			fmt.Fprintln(view, "  no tasks")
		}
		return
	}
	view.SetCursor(0, clamp(u.selected, 0, snap.Len()-1))
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	task := u.selectedTask()
	if task == nil {
		return
	}
	fmt.Fprintln(view, formatTaskDetail(*task, u.now()))
}

func (u *UI) selectedTask() *model.Task {
	task, ok := u.reconciler.Snapshot().At(u.selected)
	if !ok {
		return nil
	}
	return &task
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < u.reconciler.Snapshot().Len()-1 {
		u.selected++
		u.syncSelectedKey()
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
		u.syncSelectedKey()
	}
	return nil
}

func (u *UI) syncSelectedKey() {
	if task := u.selectedTask(); task != nil {
		u.selectedKey = task.Key()
	}
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.refresh()
	return nil
}

func (u *UI) clearSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.query = ""
	u.status = ""
	u.refresh()
	return nil
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(50, maxX/2)
	height := 14
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search"
		view.Clear()
		fmt.Fprint(view, u.query)
		view.SetCursor(len([]rune(u.query)), 0)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	value := ""
	if view != nil {
		value = view.Buffer()
	}
	return u.applySearch(gui, value)
}

func (u *UI) applySearch(gui *gocui.Gui, value string) error {
	u.query = strings.TrimSpace(value)
	u.searchActive = false
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewSearch)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	u.refresh()
	return nil
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	if gui != nil {
		_ = gui.DeleteView(viewSearch)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{task: selected, fields: buildFormFields(selected)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(6, max(4, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	if u.form.task != nil {
		view.Title = fmt.Sprintf("Edit Task #%d", u.form.task.ID)
	} else {
		view.Title = "New Task"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

// submitForm creates or edits a task from the form. Both end in a full
// reload, so an active search is cleared.
func (u *UI) submitForm(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}

	title, description, err := parseFormFields(u.form.fields)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	u.query = ""
	if u.form.task == nil {
		u.request().Create(title, description)
	} else {
		task := *u.form.task
		task.Title = title
		task.Description = description
		u.request().Edit(task)
	}

	u.form = nil
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	current := u.form.fields[u.form.index]
	cursorX := len([]rune(current.Label)) + len([]rune(current.Value)) + 4
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]
	editField(field, key, ch, mod)
	ui.renderForm(view)
	return true
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.query = ""
	u.request().Delete(selected.ID)
	return nil
}

func (u *UI) toggleDone(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.query = ""
	u.request().ToggleCompleted(selected.ID)
	return nil
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  j/k or arrows move selection",
		"",
		"Actions:",
		"  a add task | e edit task | d delete task",
		"  x or space toggle done",
		"  enter save (form) | tab next field | esc cancel",
		"",
		"Search:",
		"  / search title and description | g clear search",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return min(max(value, low), high)
}

// relativeTime renders t relative to now, e.g. "3 minutes ago".
func relativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
