package gui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	appsvc "github.com/fmuoria/candidate-dashboard/internal/app"
	"github.com/fmuoria/candidate-dashboard/internal/chat"
	"github.com/fmuoria/candidate-dashboard/internal/config"
	"github.com/fmuoria/candidate-dashboard/internal/dashboard"
	"github.com/fmuoria/candidate-dashboard/internal/export"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	services   *appsvc.Services
	ctx        context.Context
	cancelFunc context.CancelFunc

	// UI Components
	sourceSelect  *widget.Select
	loadBtn       *widget.Button
	cancelBtn     *widget.Button
	progressBar   *widget.ProgressBar
	progressLabel *widget.Label
	totalLabel    *widget.Label
	exportBtn     *widget.Button
	facetPanels   map[facets.Facet]*facetPanel

	candidatesTable *widget.Table
	pageLabel       *widget.Label
	page            models.Page
	headers         []string

	chatList     *widget.List
	chatEntry    *widget.Entry
	sendBtn      *widget.Button
	chatStatus   *widget.Label
	chatMessages []models.ChatMessage
}

// facetPanel is the card of one facet: unique count, top values and the
// button opening its picker
type facetPanel struct {
	card   *widget.Card
	values *widget.Label
	filter *widget.Button
}

// NewApp creates a new GUI application
func NewApp() *App {
	a := app.New()
	w := a.NewWindow("Candidate Dashboard")
	w.Resize(fyne.NewSize(1200, 800))

	guiApp := &App{
		fyneApp:     a,
		mainWindow:  w,
		facetPanels: make(map[facets.Facet]*facetPanel),
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		cfg = config.DefaultConfig()
	}
	cfg.OverrideFromEnv()
	cfg.ApplyToEnv()
	guiApp.config = cfg

	services, err := appsvc.New(context.Background(), cfg)
	if err != nil {
		log.Printf("Failed to initialize dashboard: %v", err)
		cfg.SynonymsPath = ""
		cfg.FieldMapPath = ""
		services, _ = appsvc.New(context.Background(), cfg)
	}
	guiApp.services = services

	// Setup UI
	guiApp.setupUI()

	return guiApp
}

// Run starts the GUI application
func (a *App) Run() {
	defer a.services.Close()
	a.loadInitial()
	a.mainWindow.ShowAndRun()
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Dashboard", a.createDashboardTab()),
		container.NewTabItem("Candidates", a.createCandidatesTab()),
		container.NewTabItem("AI Analyst", a.createChatTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
}

func (a *App) sourceNames() []string {
	names := make([]string, 0, len(a.services.Sources))
	for name := range a.services.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// createDashboardTab creates the metrics and filters tab
func (a *App) createDashboardTab() fyne.CanvasObject {
	a.sourceSelect = widget.NewSelect(a.sourceNames(), nil)
	if _, ok := a.services.Sources[appsvc.SourceFile]; ok {
		a.sourceSelect.SetSelected(appsvc.SourceFile)
	}
	a.loadBtn = widget.NewButton("Load", a.handleLoad)
	a.cancelBtn = widget.NewButton("Cancel", a.handleCancel)
	a.cancelBtn.Disable()
	uploadBtn := widget.NewButton("Upload Spreadsheet...", a.handleUpload)

	a.progressBar = widget.NewProgressBar()
	a.progressLabel = widget.NewLabel("No dataset loaded")

	a.services.Dashboard.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			a.progressBar.SetValue(float64(current) / float64(total))
			a.progressLabel.SetText(message)
		})
	})

	loadSection := container.NewVBox(
		container.NewHBox(widget.NewLabel("Source"), a.sourceSelect, a.loadBtn, a.cancelBtn, uploadBtn),
		a.progressLabel,
		a.progressBar,
	)

	a.totalLabel = widget.NewLabel("0")
	a.totalLabel.TextStyle = fyne.TextStyle{Bold: true}
	clearAllBtn := widget.NewButton("Clear All Filters", func() {
		a.services.Dashboard.ClearAll()
		a.refresh()
	})
	a.exportBtn = widget.NewButton("Export to Excel", a.handleExport)
	a.exportBtn.Disable()

	metrics := container.NewHBox(
		widget.NewCard("Total Candidates", "", a.totalLabel),
		clearAllBtn,
		a.exportBtn,
	)

	grid := container.NewGridWithColumns(3)
	for _, f := range facets.All {
		panel := &facetPanel{
			values: widget.NewLabel(""),
			filter: widget.NewButton("Filter...", func() { a.showPicker(f) }),
		}
		details := widget.NewButton("Details", func() { a.showDetails(f) })
		panel.card = widget.NewCard(f.Label(), "", container.NewBorder(nil, container.NewHBox(panel.filter, details), nil, nil, panel.values))
		a.facetPanels[f] = panel
		grid.Add(panel.card)
	}

	return container.NewVScroll(container.NewVBox(
		loadSection,
		widget.NewSeparator(),
		metrics,
		widget.NewSeparator(),
		grid,
	))
}

// createCandidatesTab creates the paginated table of filtered rows
func (a *App) createCandidatesTab() fyne.CanvasObject {
	a.candidatesTable = widget.NewTable(
		func() (int, int) {
			return len(a.page.Candidates) + 1, len(a.headers) // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Col >= len(a.headers) {
				return
			}
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(a.headers[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			if id.Row-1 < len(a.page.Candidates) {
				label.SetText(a.page.Candidates[id.Row-1].Get(a.headers[id.Col]))
			}
		},
	)

	a.pageLabel = widget.NewLabel("")
	prevBtn := widget.NewButton("Previous", func() { a.showPage(a.page.Page - 1) })
	nextBtn := widget.NewButton("Next", func() { a.showPage(a.page.Page + 1) })

	return container.NewBorder(nil, container.NewHBox(prevBtn, a.pageLabel, nextBtn), nil, nil, a.candidatesTable)
}

// createChatTab creates the assistant conversation tab
func (a *App) createChatTab() fyne.CanvasObject {
	a.chatMessages = a.services.Assistant.Messages()
	a.chatList = widget.NewList(
		func() int { return len(a.chatMessages) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Wrapping = fyne.TextWrapWord
			return label
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(a.chatMessages) {
				return
			}
			item.(*widget.Label).SetText(formatMessage(a.chatMessages[id]))
		},
	)

	a.chatEntry = widget.NewEntry()
	a.chatEntry.SetPlaceHolder("Ask about your candidates, e.g. Which clients need Java developers?")
	a.chatEntry.OnSubmitted = func(string) { a.handleAsk() }
	a.sendBtn = widget.NewButton("Send", a.handleAsk)
	a.chatStatus = widget.NewLabel("")
	if !a.services.Assistant.Configured() {
		a.chatStatus.SetText("AI analyst not configured. Add API keys in Settings.")
	}

	input := container.NewBorder(nil, nil, nil, a.sendBtn, a.chatEntry)
	return container.NewBorder(nil, container.NewVBox(a.chatStatus, input), nil, nil, a.chatList)
}

// formatMessage renders a message and its chart series as text
func formatMessage(m models.ChatMessage) string {
	var b strings.Builder
	if m.Sender == "user" {
		b.WriteString("You: ")
	} else {
		b.WriteString("Analyst: ")
	}
	b.WriteString(m.Text)
	for _, p := range m.Series {
		fmt.Fprintf(&b, "\n  %s: %g", p.Name, p.Value)
	}
	return b.String()
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	datasetEntry := widget.NewEntry()
	datasetEntry.SetText(a.config.DatasetPath)

	providerSelect := widget.NewSelect([]string{config.ProviderGemini, config.ProviderVertex}, nil)
	providerSelect.SetSelected(a.config.LLMProvider)

	keysEntry := widget.NewPasswordEntry()
	keysEntry.SetText(a.config.GeminiAPIKeys)
	keysEntry.SetPlaceHolder("key1,key2")

	modelEntry := widget.NewEntry()
	modelEntry.SetText(a.config.GeminiModel)

	projectEntry := widget.NewEntry()
	projectEntry.SetText(a.config.GoogleCloudProject)

	locationEntry := widget.NewEntry()
	locationEntry.SetText(a.config.GoogleCloudLocation)

	googleCredsEntry := widget.NewEntry()
	googleCredsEntry.SetText(a.config.GoogleCredentialsPath)

	gmailCredsEntry := widget.NewEntry()
	gmailCredsEntry.SetText(a.config.GmailCredentialsPath)

	gmailSubjectEntry := widget.NewEntry()
	gmailSubjectEntry.SetText(a.config.GmailSubject)

	bucketEntry := widget.NewEntry()
	bucketEntry.SetText(a.config.S3Bucket)
	keyEntry := widget.NewEntry()
	keyEntry.SetText(a.config.S3Key)
	endpointEntry := widget.NewEntry()
	endpointEntry.SetText(a.config.S3Endpoint)
	accountEntry := widget.NewEntry()
	accountEntry.SetText(a.config.S3AccountID)
	accessEntry := widget.NewEntry()
	accessEntry.SetText(a.config.S3AccessKey)
	secretEntry := widget.NewPasswordEntry()
	secretEntry.SetText(a.config.S3SecretKey)

	browse := func(target *widget.Entry) *widget.Button {
		return widget.NewButton("Browse...", func() {
			dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
				if err == nil && uc != nil {
					target.SetText(uc.URI().Path())
					uc.Close()
				}
			}, a.mainWindow)
		})
	}
	withBrowse := func(entry *widget.Entry) fyne.CanvasObject {
		return container.NewBorder(nil, nil, nil, browse(entry), entry)
	}

	form := widget.NewForm(
		widget.NewFormItem("Dataset File", withBrowse(datasetEntry)),
		widget.NewFormItem("AI Provider", providerSelect),
		widget.NewFormItem("Gemini API Keys", keysEntry),
		widget.NewFormItem("Model", modelEntry),
		widget.NewFormItem("Google Cloud Project", projectEntry),
		widget.NewFormItem("Google Cloud Location", locationEntry),
		widget.NewFormItem("Google Credentials", withBrowse(googleCredsEntry)),
		widget.NewFormItem("Gmail Credentials", withBrowse(gmailCredsEntry)),
		widget.NewFormItem("Gmail Subject", gmailSubjectEntry),
		widget.NewFormItem("S3 Bucket", bucketEntry),
		widget.NewFormItem("S3 Object Key", keyEntry),
		widget.NewFormItem("S3 Endpoint", endpointEntry),
		widget.NewFormItem("R2 Account ID", accountEntry),
		widget.NewFormItem("S3 Access Key", accessEntry),
		widget.NewFormItem("S3 Secret Key", secretEntry),
	)

	apply := func() {
		a.config.DatasetPath = datasetEntry.Text
		a.config.LLMProvider = providerSelect.Selected
		a.config.GeminiAPIKeys = keysEntry.Text
		a.config.GeminiModel = modelEntry.Text
		a.config.GoogleCloudProject = projectEntry.Text
		a.config.GoogleCloudLocation = locationEntry.Text
		a.config.GoogleCredentialsPath = googleCredsEntry.Text
		a.config.GmailCredentialsPath = gmailCredsEntry.Text
		a.config.GmailSubject = gmailSubjectEntry.Text
		a.config.S3Bucket = bucketEntry.Text
		a.config.S3Key = keyEntry.Text
		a.config.S3Endpoint = endpointEntry.Text
		a.config.S3AccountID = accountEntry.Text
		a.config.S3AccessKey = accessEntry.Text
		a.config.S3SecretKey = secretEntry.Text
	}

	saveBtn := widget.NewButton("Save Settings", func() {
		apply()
		if err := a.config.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		// Apply to environment
		a.config.ApplyToEnv()

		go func() {
			ctx := context.Background()
			a.services.Reload(ctx)
			modelErr := a.services.ConnectModel(ctx)

			fyne.Do(func() {
				a.sourceSelect.Options = a.sourceNames()
				a.sourceSelect.Refresh()
				if modelErr != nil {
					a.chatStatus.SetText("AI analyst not configured: " + modelErr.Error())
				} else {
					a.chatStatus.SetText("")
				}
				dialog.ShowInformation("Success", "Settings saved successfully", a.mainWindow)
			})
		}()
	})

	testBtn := widget.NewButton("Test Configuration", func() {
		apply()
		if err := a.config.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Configuration is valid", a.mainWindow)
	})

	return container.NewVScroll(container.NewVBox(
		form,
		container.NewHBox(saveBtn, testBtn),
	))
}

func (a *App) loadInitial() {
	go func() {
		err := a.services.LoadInitial(context.Background())
		fyne.Do(func() {
			if err != nil {
				a.progressLabel.SetText("No dataset loaded. Choose a source or upload a spreadsheet.")
			}
			a.refresh()
		})
	}()
}

// handleLoad loads the dataset from the selected source
func (a *App) handleLoad() {
	src, ok := a.services.Sources[a.sourceSelect.Selected]
	if !ok {
		dialog.ShowError(fmt.Errorf("please choose a data source"), a.mainWindow)
		return
	}

	a.loadBtn.Disable()
	a.cancelBtn.Enable()

	// Create cancellable context
	a.ctx, a.cancelFunc = context.WithCancel(context.Background())
	ctx := a.ctx

	go func() {
		err := a.services.Dashboard.Load(ctx, src)

		fyne.Do(func() {
			a.loadBtn.Enable()
			a.cancelBtn.Disable()

			if err != nil {
				if errors.Is(err, context.Canceled) {
					a.progressLabel.SetText("Loading canceled")
				} else {
					a.progressLabel.SetText("Error: " + err.Error())
					dialog.ShowError(err, a.mainWindow)
				}
				return
			}

			a.refresh()
			status := a.services.Dashboard.Status()
			fyne.CurrentApp().SendNotification(&fyne.Notification{
				Title:   "Dataset Loaded",
				Content: fmt.Sprintf("Loaded %d candidates from %s", status.Rows, status.Source),
			})
		})
	}()
}

// handleCancel cancels a running load
func (a *App) handleCancel() {
	if a.cancelFunc != nil {
		a.cancelFunc()
		a.progressLabel.SetText("Canceling...")
	}
}

// handleUpload copies a spreadsheet into the uploads directory and loads it
func (a *App) handleUpload() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		if _, err := a.services.Uploads.SaveUploadedFile(uc.URI().Name(), uc); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		a.sourceSelect.SetSelected(appsvc.SourceUploads)
		a.handleLoad()
	}, a.mainWindow)
}

// refresh redraws every widget from the current view
func (a *App) refresh() {
	snap := a.services.Dashboard.Snapshot()

	a.totalLabel.SetText(fmt.Sprintf("%d", snap.TotalRows))
	if snap.Status.State == dashboard.StateReady {
		a.progressLabel.SetText(fmt.Sprintf("%d candidates from %s", snap.Status.Rows, filepath.Base(snap.Status.Source)))
		a.progressBar.SetValue(1)
	}

	if a.services.Dashboard.HasData() {
		a.exportBtn.Enable()
	} else {
		a.exportBtn.Disable()
	}

	for _, fs := range snap.Facets {
		panel := a.facetPanels[fs.Facet]
		if panel == nil {
			continue
		}
		panel.card.SetSubTitle(fmt.Sprintf("%d unique", fs.Unique))
		panel.values.SetText(formatTable(fs.Display))
		if len(fs.Selected) > 0 {
			panel.filter.SetText(fmt.Sprintf("Filter (%d)", len(fs.Selected)))
		} else {
			panel.filter.SetText("Filter...")
		}
	}

	if dataset := a.services.Dashboard.Dataset(); dataset != nil {
		a.headers = dataset.Headers
	}
	a.showPage(1)
}

func formatTable(table models.FrequencyTable) string {
	if len(table) == 0 {
		return "No data"
	}
	lines := make([]string, 0, len(table))
	for _, e := range table {
		lines = append(lines, fmt.Sprintf("%s  %d", e.Name, e.Count))
	}
	return strings.Join(lines, "\n")
}

func (a *App) showPage(n int) {
	if n < 1 {
		n = 1
	}
	page := a.services.Dashboard.Page(n, 0)
	if page.TotalPages > 0 && n > page.TotalPages {
		return
	}
	a.page = page

	total := max(page.TotalPages, 1)
	a.pageLabel.SetText(fmt.Sprintf("Page %d of %d (%d candidates)", page.Page, total, page.TotalRows))
	a.candidatesTable.Refresh()
}

// showPicker opens the staged picker of f: toggles edit the draft, Submit
// applies it, Cancel discards it
func (a *App) showPicker(f facets.Facet) {
	d := a.services.Dashboard
	if _, err := d.Open(f); err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}

	options, _ := d.Options(f, "")
	picker, _ := d.Picker(f)

	list := widget.NewList(
		func() int { return len(options) },
		func() fyne.CanvasObject { return widget.NewCheck("", nil) },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(options) {
				return
			}
			entry := options[id]
			check := item.(*widget.Check)
			check.OnChanged = nil
			check.Text = fmt.Sprintf("%s (%d)", entry.Name, entry.Count)
			check.SetChecked(slices.Contains(picker.Draft, entry.Name))
			check.OnChanged = func(bool) {
				if _, err := d.Toggle(f, entry.Name); err != nil {
					log.Printf("Toggle %s failed: %v", f, err)
				}
				picker, _ = d.Picker(f)
			}
		},
	)

	search := widget.NewEntry()
	search.SetPlaceHolder("Search " + strings.ToLower(f.Label()) + "...")
	search.OnChanged = func(q string) {
		options, _ = d.Options(f, q)
		list.Refresh()
	}

	var pop dialog.Dialog
	submitBtn := widget.NewButton("Submit", func() {
		if _, err := d.Submit(f); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		pop.Hide()
		a.refresh()
	})
	cancelBtn := widget.NewButton("Cancel", func() {
		d.Cancel(f)
		pop.Hide()
	})
	clearBtn := widget.NewButton("Clear", func() {
		if _, err := d.Clear(f); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		pop.Hide()
		a.refresh()
	})

	content := container.NewBorder(search, container.NewHBox(submitBtn, cancelBtn, clearBtn), nil, nil, list)
	pop = dialog.NewCustomWithoutButtons("Filter by "+f.Label(), content, a.mainWindow)
	pop.Resize(fyne.NewSize(420, 520))
	pop.Show()
}

// showDetails lists the filtered candidates per displayed value of f
func (a *App) showDetails(f facets.Facet) {
	d := a.services.Dashboard
	var b strings.Builder
	for _, entry := range d.View().Display(f) {
		rows, err := d.CandidatesFor(f, entry.Name)
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		fmt.Fprintf(&b, "%s (%d)\n", entry.Name, len(rows))
		for _, c := range rows {
			fmt.Fprintf(&b, "  row %d", c.Row)
			for _, other := range facets.All {
				if other == f {
					continue
				}
				if v := d.Schema().Column(other, c); v != "" {
					fmt.Fprintf(&b, ", %s: %s", other.Label(), v)
				}
			}
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		b.WriteString("No candidates")
	}

	text := widget.NewLabel(b.String())
	text.Wrapping = fyne.TextWrapWord
	pop := dialog.NewCustom(f.Label()+" Details", "Close", container.NewVScroll(text), a.mainWindow)
	pop.Resize(fyne.NewSize(600, 500))
	pop.Show()
}

// handleAsk sends the question to the assistant in the background
func (a *App) handleAsk() {
	question := strings.TrimSpace(a.chatEntry.Text)
	if question == "" {
		return
	}

	a.chatEntry.SetText("")
	a.sendBtn.Disable()
	a.chatStatus.SetText("Analyzing...")

	go func() {
		_, err := a.services.Assistant.Ask(context.Background(), question)

		fyne.Do(func() {
			a.sendBtn.Enable()
			a.chatMessages = a.services.Assistant.Messages()
			a.chatList.Refresh()
			a.chatList.ScrollToBottom()

			var cooldown *chat.CooldownError
			switch {
			case err == nil:
				a.chatStatus.SetText("")
			case errors.As(err, &cooldown):
				a.chatStatus.SetText(fmt.Sprintf("Rate limited. Available in %ds", int(cooldown.Remaining.Round(time.Second).Seconds())))
			case errors.Is(err, chat.ErrNotConfigured):
				a.chatStatus.SetText("AI analyst not configured. Add API keys in Settings.")
			default:
				a.chatStatus.SetText("Error: " + err.Error())
			}
		})
	}()
}

// handleExport handles exporting the filtered candidates to Excel
func (a *App) handleExport() {
	headers, view, err := a.services.Dashboard.ExportData()
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}

	// Create default filename with timestamp
	timestamp := time.Now().Format("2006-01-02_150405")
	defaultName := fmt.Sprintf("Candidates_%s.xlsx", timestamp)

	// Show save dialog
	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		outputPath := uc.URI().Path()

		if err := export.ExportToExcel(headers, view, outputPath); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
			return
		}

		dialog.ShowInformation("Success", "Candidates exported successfully to "+filepath.Base(outputPath), a.mainWindow)
	}, a.mainWindow)
	save.SetFileName(defaultName)
	save.Show()
}
