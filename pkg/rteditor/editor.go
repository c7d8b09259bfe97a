package rteditor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/commands"
	"rteditor/internal/config"
	"rteditor/internal/dom"
	"rteditor/internal/history"
	"rteditor/internal/normalizer"
	"rteditor/internal/policy"
	"rteditor/internal/resolver"
)

var (
	// ErrNoSurface is returned when no editing root is given
	ErrNoSurface = errors.New("no editing surface")

	// ErrInvalidSurface is returned when the editing root is not an element
	ErrInvalidSurface = errors.New("editing surface is not an element")

	// ErrInvalidConfig wraps configuration validation failures
	ErrInvalidConfig = errors.New("invalid editor configuration")
)

// Editor is the editing engine bound to one root element.
// All methods are safe for concurrent use. Listeners run outside the editor lock
// and may call back into the editor.
type Editor struct {
	mu sync.Mutex

	id         string
	root       *html.Node
	config     config.Config
	classes    policy.ClassMap
	normalizer *normalizer.Normalizer
	resolver   *resolver.Resolver
	history    *history.History
	selection  dom.Range
	logger     *zap.Logger

	scheduler Scheduler
	pending   Stopper
	typingGen uint64

	listeners map[string][]Listener
	destroyed bool
}

// Option configures an Editor
type Option func(*Editor)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScheduler replaces the timer source used to debounce typing snapshots
func WithScheduler(s Scheduler) Option {
	return func(e *Editor) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithOnChange registers fn to receive the normalized HTML after every change
func WithOnChange(fn func(html string)) Option {
	return func(e *Editor) {
		if fn != nil {
			e.addListener(EventChange, func(ev Event) { fn(ev.HTML) })
		}
	}
}

// New binds an editor to root. Existing content of root is normalized in place unless
// cfg.InitialHTML replaces it.
func New(root *html.Node, cfg config.Config, opts ...Option) (*Editor, error) {
	if root == nil {
		return nil, ErrNoSurface
	}
	if root.Type != html.ElementNode {
		return nil, ErrInvalidSurface
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	e := &Editor{
		id:        uuid.NewString(),
		root:      root,
		config:    cfg,
		classes:   cfg.Classes(),
		logger:    zap.NewNop(),
		scheduler: clockScheduler{},
		listeners: make(map[string][]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("editor", e.id))

	e.normalizer = normalizer.New(e.classes, normalizer.WithLogger(e.logger))
	e.resolver = resolver.New(root)
	e.history = history.New(
		history.WithCapacity(cfg.HistoryCapacity),
		history.WithSnapshotInterval(cfg.SnapshotInterval),
	)

	if cfg.InitialHTML != "" {
		if err := e.load(cfg.InitialHTML); err != nil {
			return nil, fmt.Errorf("failed to load initial HTML: %w", err)
		}
	} else {
		report := e.normalizer.NormalizeTree(root, normalizer.TreeOptions{})
		e.logReport(report)
		e.ensureDefaultBlock()
	}
	e.selection = e.startCaret()
	e.snapshot()

	e.logger.Debug("editor created",
		zap.Int("history_capacity", cfg.HistoryCapacity),
		zap.Int("toolbar_items", len(cfg.Toolbar)),
	)
	return e, nil
}

// ID identifies this editor instance in log output
func (e *Editor) ID() string {
	return e.id
}

// Root returns the editing root. Mutating it directly bypasses history; call HandleInput afterwards.
func (e *Editor) Root() *html.Node {
	return e.root
}

// Execute runs a toolbar command against the current selection and reports whether
// the content changed. Unknown names are logged and ignored.
func (e *Editor) Execute(command string, args ...string) bool {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return false
	}
	changed := e.execute(command, args)
	var n *notification
	if changed {
		n = e.changeNotification()
	}
	e.mu.Unlock()

	n.send()
	return changed
}

func (e *Editor) execute(command string, args []string) (changed bool) {
	name, ok := commands.Parse(command)
	if !ok {
		e.logger.Warn("unknown command", zap.String("command", command))
		return false
	}

	switch name {
	case commands.Undo:
		return e.undo()
	case commands.Redo:
		return e.redo()
	}

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("command failed",
				zap.String("command", command),
				zap.Any("panic", rec),
			)
			e.repairSelection()
			changed = e.snapshot()
		}
	}()

	result, err := commands.Run(e.commandContext(), name, e.selection, args...)
	if err != nil {
		e.logger.Warn("command rejected", zap.String("command", command), zap.Error(err))
		return false
	}
	if !result.Changed {
		return false
	}

	if result.Selection != nil {
		e.selection = *result.Selection
	}
	e.ensureDefaultBlock()
	e.repairSelection()
	e.snapshot()
	return true
}

func (e *Editor) commandContext() *commands.Context {
	return &commands.Context{
		Root:       e.root,
		Classes:    e.classes,
		Logger:     e.logger,
		LinkTarget: e.config.LinkTarget,
		LinkRel:    e.config.LinkRel,
	}
}

func (e *Editor) undo() bool {
	// typing not yet snapshotted becomes its own undo step first
	e.flushPendingTyping()
	state, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.applyState(state)
	return true
}

func (e *Editor) redo() bool {
	e.flushPendingTyping()
	state, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.applyState(state)
	return true
}

func (e *Editor) applyState(state history.State) {
	if err := dom.SetInnerHTML(e.root, state.HTML); err != nil {
		e.logger.Error("failed to restore history state", zap.Error(err))
		return
	}
	if r, ok := dom.Restore(e.root, state.Selection); ok {
		e.selection = r
		return
	}
	e.logger.Debug("history selection no longer resolves")
	e.selection = e.startCaret()
}

// CanUndo reports whether undo would change anything
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo() || e.pending != nil
}

// CanRedo reports whether redo would change anything
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// GetHTML returns the normalized content
func (e *Editor) GetHTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.normalizedHTML()
}

func (e *Editor) normalizedHTML() string {
	return e.normalizer.Normalize(dom.InnerHTML(e.root))
}

// GetRawHTML returns the live tree as it is, without normalization
func (e *Editor) GetRawHTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return dom.InnerHTML(e.root)
}

// SetHTML replaces the content with the normalized form of content
func (e *Editor) SetHTML(content string) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.cancelPendingTyping()
	if err := e.load(content); err != nil {
		e.logger.Error("failed to set HTML", zap.Error(err))
	}
	e.selection = e.startCaret()
	e.snapshot()
	n := e.changeNotification()
	e.mu.Unlock()

	n.send()
}

func (e *Editor) load(content string) error {
	clean, report := e.normalizer.NormalizeWithReport(content)
	e.logReport(report)
	if err := dom.SetInnerHTML(e.root, clean); err != nil {
		return err
	}
	e.ensureDefaultBlock()
	return nil
}

// GetText returns the plain text content
func (e *Editor) GetText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.ReplaceAll(dom.TextContent(e.root), policy.ZeroWidthMarker, "")
}

// IsEmpty reports whether the editor holds no text and no images
func (e *Editor) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return dom.IsVisuallyEmpty(e.root)
}

// Selection returns the current selection
func (e *Editor) Selection() dom.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// SetSelection moves the selection. It returns false, keeping the old selection, when
// r does not lie inside the editing root.
func (e *Editor) SetSelection(r dom.Range) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.Start.Node == nil || r.End.Node == nil || !dom.InRoot(e.root, r) {
		return false
	}
	e.selection = dom.Ordered(e.root, dom.Clamp(r))
	return true
}

// FormattingState returns the toolbar state at the current selection
func (e *Editor) FormattingState() resolver.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Resolve(e.selection)
}

// Destroy stops pending work and drops every listener. Later calls are no-ops.
func (e *Editor) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.cancelPendingTyping()
	e.listeners = make(map[string][]Listener)
	e.destroyed = true
	e.logger.Debug("editor destroyed")
}

// snapshot pushes the live tree and selection onto the history
func (e *Editor) snapshot() bool {
	return e.history.Push(dom.InnerHTML(e.root), dom.Save(e.root, e.selection))
}

// ensureDefaultBlock keeps at least one paragraph in an empty root
func (e *Editor) ensureDefaultBlock() {
	for c := e.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || (c.Type == html.TextNode && !dom.IsBlankText(c.Data)) {
			return
		}
	}
	dom.RemoveChildren(e.root)
	e.root.AppendChild(e.emptyParagraph())
}

func (e *Editor) emptyParagraph() *html.Node {
	p := dom.NewElement("p", e.classes.ClassFor("p"))
	p.AppendChild(dom.NewElement("br", ""))
	return p
}

// startCaret is a caret at the start of the first block
func (e *Editor) startCaret() dom.Range {
	return caretAtStart(e.root, e.root)
}

// repairSelection falls back to the start caret when the selection left the tree
func (e *Editor) repairSelection() {
	r := e.selection
	if r.Start.Node == nil || r.End.Node == nil || !dom.InRoot(e.root, r) {
		e.selection = e.startCaret()
		return
	}
	e.selection = dom.Clamp(r)
}

// caretAtStart places a caret before the first text of block, or at its first child slot
func caretAtStart(root, block *html.Node) dom.Range {
	if t := dom.FindFirst(block, dom.IsText); t != nil {
		return dom.Caret(t, 0)
	}
	for n := block; n != nil; n = n.FirstChild {
		if n.FirstChild == nil || !dom.IsBlockNode(n.FirstChild) {
			return dom.Caret(n, 0)
		}
	}
	return dom.Caret(root, 0)
}

func (e *Editor) logReport(report normalizer.Report) {
	if report.Clean() {
		return
	}
	e.logger.Debug("content sanitized",
		zap.Int("removed_subtrees", report.RemovedSubtrees),
		zap.Int("unwrapped_elements", report.UnwrappedElements),
		zap.Int("stripped_attributes", report.StrippedAttributes),
		zap.Int("rejected_urls", report.RejectedURLs),
	)
}
