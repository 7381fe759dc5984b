package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/woskam/looker-studio-automation/internal/config"
	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
)

const (
	stepPause          = time.Second
	hoverPause         = 500 * time.Millisecond
	probeWait          = time.Second
	dateSelectWait     = 20 * time.Second
	applyWait          = 5 * time.Second
	loadingPoll        = 500 * time.Millisecond
	downloadMtimeSlack = 2 * time.Second
)

// Result describes one finished export.
type Result struct {
	Window   Window
	Source   string // file as downloaded by the browser
	Path     string // renamed period file
	Duration time.Duration
}

// Extractor exports the previous week's table from the dashboard and
// stores it as a period file.
type Extractor struct {
	cfg     config.ExtractionConfig
	outDir  string
	fm      *files.Manager
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
	now     func() time.Time
}

// NewExtractor creates an extractor that writes period files to outDir.
func NewExtractor(cfg config.ExtractionConfig, outDir string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "extraction")
	return &Extractor{
		cfg:    cfg,
		outDir: outDir,
		fm:     files.NewManager("", logger),
		logger: logger,
		tracer: noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		now:    time.Now,
	}
}

// SetTelemetry attaches a tracer and run metrics. Either may be nil.
func (e *Extractor) SetTelemetry(tracer trace.Tracer, metrics *infrastructure.RunMetrics) {
	if tracer != nil {
		e.tracer = tracer
	}
	e.metrics = metrics
}

// SetClock replaces the clock that picks the exported week.
func (e *Extractor) SetClock(now func() time.Time) {
	e.now = now
}

// Extract drives the browser through the export and returns the stored
// period file.
func (e *Extractor) Extract(ctx context.Context) (*Result, error) {
	started := e.now()
	window := PreviousWeek(started)

	ctx, span := e.tracer.Start(ctx, "extraction.run", trace.WithAttributes(
		attribute.String("period", window.Period.String()),
		attribute.String("window", window.String()),
	))
	defer span.End()

	e.logger.InfoContext(ctx, "=== Start dashboard export ===",
		slog.String("period", window.Period.String()),
		slog.String("window", window.String()))

	result, err := e.extract(ctx, window)
	elapsed := time.Since(started)
	e.metrics.RecordExtraction(ctx, elapsed, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		e.logger.ErrorContext(ctx, "Export failed", slog.String("error", err.Error()))
		return nil, err
	}

	result.Duration = elapsed
	e.logger.InfoContext(ctx, "=== Export successfully completed ===",
		slog.String("path", result.Path),
		slog.Duration("duration", elapsed))
	return result, nil
}

func (e *Extractor) extract(ctx context.Context, window Window) (*Result, error) {
	downloadDir, err := filepath.Abs(e.cfg.DownloadDir)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid download directory", err)
	}
	for _, dir := range []string{e.outDir, downloadDir, e.cfg.ProfileDir} {
		if err := e.fm.CreateDirectory(dir); err != nil {
			return nil, apperrors.NewStorageError("failed to create directory", err).WithContext("dir", dir)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(e.cfg.ProfileDir),
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("start-maximized", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer func() {
		e.logger.Info("Closing browser")
		cancelBrowser()
	}()

	s := &session{
		ctx:    browserCtx,
		cfg:    e.cfg,
		shots:  e.cfg.DebugScreenshots,
		dir:    e.outDir,
		logger: e.logger,
	}

	if err := s.open(downloadDir); err != nil {
		return nil, classify("failed to open dashboard", err)
	}
	if err := s.selectWindow(window); err != nil {
		e.logger.Warn("Could not select dates (dashboard might already use the right period)",
			slog.String("error", err.Error()))
	}
	s.closeOverlays()

	table, err := s.locateTable()
	if err != nil {
		return nil, classify("failed to locate table", err)
	}
	s.hover(table)

	if err := s.openExportDialog(); err != nil {
		return nil, classify("failed to open export dialog", err)
	}
	clicked, err := s.confirmExport(e.now)
	if err != nil {
		return nil, classify("failed to start export", err)
	}

	watcher := NewDownloadWatcher(downloadDir, e.cfg.DownloadPattern, e.logger)
	file, err := watcher.Wait(ctx, clicked.Add(-downloadMtimeSlack), e.cfg.DownloadTimeout)
	if err != nil {
		return nil, apperrors.NewExtractionError("download did not complete", err).
			WithContext("dir", downloadDir).
			WithContext("pattern", e.cfg.DownloadPattern)
	}

	path, err := Finalize(e.fm, file.Path, e.outDir, window.Period, e.logger)
	if err != nil {
		return nil, err
	}

	return &Result{Window: window, Source: file.Path, Path: path}, nil
}

// classify wraps browser failures as extraction errors, keeping app errors
// raised along the way.
func classify(msg string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewExtractionError("extraction timed out", err).WithContext("phase", msg)
	}
	return apperrors.NewExtractionError(msg, err)
}

// session is one browser tab on the dashboard.
type session struct {
	ctx    context.Context
	cfg    config.ExtractionConfig
	shots  bool
	dir    string
	logger *slog.Logger
}

func (s *session) run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

func (s *session) sleep(d time.Duration) error {
	return s.run(chromedp.Sleep(d))
}

// tryClick clicks the first node matching sel once it is visible, giving
// up after wait.
func (s *session) tryClick(sel string, wait time.Duration, by chromedp.QueryOption) error {
	ctx, cancel := context.WithTimeout(s.ctx, wait)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Click(sel, by, chromedp.NodeVisible))
}

// clickFirst tries selectors in order and returns the one that worked.
func (s *session) clickFirst(selectors []string, wait time.Duration) (string, bool) {
	for _, sel := range selectors {
		if err := s.tryClick(sel, wait, chromedp.BySearch); err != nil {
			s.logger.Debug("Selector did not match", slog.String("selector", sel), slog.String("error", err.Error()))
			continue
		}
		return sel, true
	}
	return "", false
}

func (s *session) nodes(sel string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(chromedp.Nodes(sel, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	return nodes, err
}

// waitGone polls until nothing matches sel or timeout passes.
func (s *session) waitGone(sel string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		nodes, err := s.nodes(sel)
		if err == nil && len(nodes) == 0 {
			return true
		}
		if err := s.sleep(loadingPoll); err != nil {
			return false
		}
	}
	return false
}

func (s *session) screenshot(name string) {
	if !s.shots {
		return
	}
	var buf []byte
	if err := s.run(chromedp.CaptureScreenshot(&buf)); err != nil {
		s.logger.Warn("Screenshot failed", slog.String("name", name), slog.String("error", err.Error()))
		return
	}
	path := filepath.Join(s.dir, name+".png")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		s.logger.Warn("Screenshot not saved", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Debug screenshot", slog.String("path", path))
}

// open allows downloads into downloadDir, loads the report and waits for a
// manual sign-in when the browser lands on the login page.
func (s *session) open(downloadDir string) error {
	s.logger.Info("Navigating to dashboard")

	var location string
	err := s.run(
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
		chromedp.Navigate(s.cfg.ReportURL),
		chromedp.Sleep(s.cfg.InitialWait),
		chromedp.Location(&location),
	)
	if err != nil {
		return err
	}

	if needsSignIn(location) {
		s.logger.Warn("NOT LOGGED IN - please log in manually in the Chrome window",
			slog.Duration("wait", s.cfg.LoginWait))
		if err := s.sleep(s.cfg.LoginWait); err != nil {
			return err
		}
	}

	s.logger.Info("Waiting for dashboard to load", slog.Duration("wait", s.cfg.DashboardLoadWait))
	if err := s.sleep(s.cfg.DashboardLoadWait); err != nil {
		return err
	}
	s.screenshot("debug_initial")
	return nil
}

func needsSignIn(location string) bool {
	location = strings.ToLower(location)
	for _, marker := range signInMarkers {
		if strings.Contains(location, marker) {
			return true
		}
	}
	return false
}

// selectWindow sets the report date range to w.
func (s *session) selectWindow(w Window) error {
	s.logger.Info("Selecting dates",
		slog.String("window", w.String()),
		slog.Int("start_day", w.Start.Day()),
		slog.Int("end_day", w.End.Day()))

	if err := s.tryClick(dateRangeSelector, dateSelectWait, chromedp.BySearch); err != nil {
		return fmt.Errorf("date selector not clickable: %w", err)
	}
	if err := s.sleep(s.cfg.MenuWait); err != nil {
		return err
	}
	s.screenshot("date_menu_after_click")

	if sel, ok := s.clickFirst(startDaySelectors(w.Start), probeWait); ok {
		s.logger.Info("Start date clicked", slog.String("selector", sel))
	} else {
		s.logger.Error("Could not click start date", slog.Int("day", w.Start.Day()))
	}
	if err := s.sleep(stepPause); err != nil {
		return err
	}

	if sel, ok := s.clickFirst(endDaySelectors(w.End), probeWait); ok {
		s.logger.Info("End date clicked", slog.String("selector", sel))
	} else {
		s.logger.Error("Could not click end date", slog.Int("day", w.End.Day()))
	}
	s.screenshot("after_date_selection")

	if err := s.tryClick(applyButtonSelector, applyWait, chromedp.BySearch); err != nil {
		if escErr := s.run(chromedp.KeyEvent(kb.Escape)); escErr == nil {
			s.logger.Info("ESC pressed to close calendar")
		}
		_ = s.sleep(2 * stepPause)
		return fmt.Errorf("apply button not clickable: %w", err)
	}

	s.logger.Info("Dates applied, waiting for table reload",
		slog.String("window", w.String()),
		slog.Duration("wait", s.cfg.DateFilterWait))
	if err := s.sleep(s.cfg.DateFilterWait); err != nil {
		return err
	}
	if s.waitGone(loadingSelector, s.cfg.LoadingTimeout) {
		s.logger.Info("Loading indicator disappeared")
	} else {
		s.logger.Info("Loading indicator still present, continuing")
	}
	if err := s.sleep(s.cfg.MenuWait); err != nil {
		return err
	}
	s.screenshot("after_data_reload")
	return nil
}

// closeOverlays dismisses dialogs and backdrops left over from the date
// picker.
func (s *session) closeOverlays() {
	_ = s.sleep(s.cfg.MenuWait)
	if err := s.tryClick(overlayCloseSelector, probeWait, chromedp.BySearch); err == nil {
		s.logger.Info("Overlay closed")
	}
	if err := s.tryClick(backdropSelector, probeWait, chromedp.ByQuery); err == nil {
		s.logger.Info("Backdrop clicked")
	}
}

// locateTable finds the table chart and scrolls it into view.
func (s *session) locateTable() (string, error) {
	var table string
	for _, sel := range tableSelectors {
		nodes, err := s.nodes(sel)
		if err != nil {
			return "", err
		}
		if len(nodes) > 0 {
			table = sel
			break
		}
	}
	if table == "" {
		s.screenshot("debug_no_table")
		return "", apperrors.NewExtractionError("table component not found", nil)
	}
	s.logger.Info("Table component found", slog.String("selector", table))

	if err := s.run(chromedp.ScrollIntoView(table, chromedp.BySearch)); err != nil {
		return "", err
	}
	if err := s.sleep(s.cfg.MenuWait); err != nil {
		return "", err
	}
	if loaders, err := s.nodes(loadingSelector); err == nil && len(loaders) > 0 {
		s.logger.Info("Loading indicators visible, waiting", slog.Int("count", len(loaders)))
		if err := s.sleep(s.cfg.DashboardLoadWait); err != nil {
			return "", err
		}
	}
	s.screenshot("table_before_hover")
	return table, nil
}

// hover moves the pointer over the top-right corner of the table where
// the chart menu appears, then forces the header's hover state.
func (s *session) hover(table string) {
	var box *dom.BoxModel
	if err := s.run(chromedp.Dimensions(table, &box, chromedp.BySearch)); err != nil || box == nil || len(box.Content) < 2 {
		s.logger.Warn("Could not measure table for hover")
	} else {
		s.logger.Info("Hovering table header", slog.Int64("width", box.Width), slog.Int64("height", box.Height))
		for _, p := range hoverPoints(box.Content[0], box.Content[1], float64(box.Width)) {
			x, y := p[0], p[1]
			err := s.run(
				chromedp.ActionFunc(func(ctx context.Context) error {
					return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
				}),
				chromedp.Sleep(hoverPause),
			)
			if err != nil {
				s.logger.Warn("Hover failed", slog.Float64("x", x), slog.Float64("y", y), slog.String("error", err.Error()))
			}
		}
	}

	var forced bool
	if err := s.run(chromedp.Evaluate(forceHoverScript(headerSelector), &forced)); err != nil || !forced {
		s.logger.Warn("Could not force header hover state")
	}
	_ = s.sleep(2 * stepPause)
}

// hoverPoints are the pointer positions tried inside the top-right corner
// of a box whose top-left corner is (left, top).
func hoverPoints(left, top, width float64) [][2]float64 {
	var points [][2]float64
	for _, dx := range []float64{80, 100, 120, 150} {
		for _, dy := range []float64{10, 20, 30, 40} {
			points = append(points, [2]float64{left + width - dx, top + dy})
		}
	}
	return points
}

func forceHoverScript(xpath string) string {
	return fmt.Sprintf(`(() => {
	const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return false;
	el.classList.add('hover', 'mat-hover');
	el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: true, cancelable: true}));
	el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true, cancelable: true}));
	return true;
})()`, xpath)
}

// openExportDialog tries each header button until one opens a menu with an
// export entry, and clicks that entry.
func (s *session) openExportDialog() error {
	buttons, err := s.nodes(headerButtonsSelector)
	if err != nil {
		return err
	}
	s.logger.Info("Header buttons found", slog.Int("count", len(buttons)))
	for i, b := range buttons {
		s.logger.Debug("Header button",
			slog.Int("index", i),
			slog.String("aria", b.AttributeValue("aria-label")),
			slog.String("class", b.AttributeValue("class")))
	}
	s.screenshot("after_hover")

	if len(buttons) == 0 {
		return apperrors.NewExtractionError("no buttons in table header", nil)
	}

	for i, b := range buttons {
		label := b.AttributeValue("aria-label")
		if skipButton(label) {
			s.logger.Info("Skipping filter button", slog.Int("button", i+1))
			continue
		}

		if err := s.run(chromedp.MouseClickNode(b)); err != nil {
			s.logger.Warn("Header button not clickable", slog.Int("button", i+1), slog.String("error", err.Error()))
			continue
		}
		if err := s.sleep(s.cfg.MenuWait); err != nil {
			return err
		}

		if sel, ok := s.clickFirst(exportMenuSelectors, probeWait); ok {
			s.logger.Info("Export option clicked", slog.Int("button", i+1), slog.String("selector", sel))
			return s.sleep(2 * stepPause)
		}

		s.logger.Info("Button has no export option", slog.Int("button", i+1), slog.String("aria", label))
		s.screenshot(fmt.Sprintf("menu_button%d", i+1))
		_ = s.tryClick("body", probeWait, chromedp.ByQuery)
		_ = s.sleep(stepPause)
	}

	s.screenshot("debug_no_export_data")
	return apperrors.NewExtractionError("'Export data' not found in any chart menu", nil)
}

func skipButton(ariaLabel string) bool {
	return strings.Contains(strings.ToLower(ariaLabel), "filter")
}

// confirmExport ticks "Keep value formatting" when offered and presses the
// dialog's Export button. It returns when the click happened.
func (s *session) confirmExport(now func() time.Time) (time.Time, error) {
	if sel, ok := s.clickFirst(keepFormattingSelectors, probeWait); ok {
		s.logger.Info("'Keep value formatting' checked", slog.String("selector", sel))
	} else {
		s.logger.Warn("Could not check 'Keep value formatting'")
	}
	if err := s.sleep(stepPause); err != nil {
		return time.Time{}, err
	}

	clicked := now()
	if err := s.tryClick(dialogExportSelector, s.cfg.ExportWait, chromedp.BySearch); err != nil {
		return time.Time{}, apperrors.NewExtractionError("export button not clickable", err)
	}
	s.logger.Info("Export started, waiting for download")
	return clicked, nil
}
