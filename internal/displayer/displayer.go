package displayer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"obdlog/internal/export"
	"obdlog/internal/models"
	"obdlog/internal/session"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	refreshInterval = time.Second
	historyRows     = 50
)

// Source is the live session being displayed.
type Source interface {
	ID() string
	State() session.State
	Err() error
	History() []models.Snapshot
	Latest() (models.Snapshot, bool)
}

// Displayer handles the TUI. It only reads from the session; stopping the
// session is left to the caller once Run returns.
type Displayer struct {
	app    *tview.Application
	tabs   *tview.Pages
	src    Source
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// UI elements cached for updates
	valueTexts   map[models.ReadingKind]*tview.TextView
	updatedText  *tview.TextView
	statusText   *tview.TextView
	helpText     *tview.TextView
	historyTable *tview.Table
}

func New(src Source) *Displayer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Displayer{
		app:        tview.NewApplication(),
		tabs:       tview.NewPages(),
		src:        src,
		ctx:        ctx,
		cancel:     cancel,
		valueTexts: make(map[models.ReadingKind]*tview.TextView),
	}
}

// Run blocks until the user quits or Shutdown is called.
func (d *Displayer) Run() error {
	dashboard := d.buildDashboard()
	d.historyTable = d.buildHistory()

	title := tview.NewTextView().SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("obdlog - session %s", d.src.ID()))
	d.statusText = tview.NewTextView().SetTextAlign(tview.AlignCenter).SetDynamicColors(true)
	d.helpText = tview.NewTextView().SetTextAlign(tview.AlignCenter).SetText("[1 - Dashboard] [2 - History] [q - Quit]")

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	headerFlex.AddItem(title, 1, 0, false)
	headerFlex.AddItem(d.statusText, 1, 0, false)
	headerFlex.AddItem(d.helpText, 1, 0, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(headerFlex, 3, 0, false)

	d.tabs.AddPage("dashboard", dashboard, true, true)
	d.tabs.AddPage("history", d.historyTable, true, false)
	mainFlex.AddItem(d.tabs, 0, 1, true)

	d.app.SetRoot(mainFlex, true)
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			d.Shutdown()
			return nil
		case '1':
			d.tabs.SwitchToPage("dashboard")
			return nil
		case '2':
			d.tabs.SwitchToPage("history")
			return nil
		}
		return event
	})

	d.updateValues()
	d.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		d.updateValues()
		return false
	})

	go d.refreshLoop()

	return d.app.Run()
}

// Shutdown stops the UI. It is safe to call from any goroutine, more than once.
func (d *Displayer) Shutdown() {
	d.once.Do(func() {
		d.cancel()
		d.app.Stop()
	})
}

func (d *Displayer) buildDashboard() *tview.Flex {
	infoFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	for _, k := range models.Kinds() {
		tv := tview.NewTextView().SetDynamicColors(true)
		d.valueTexts[k] = tv
		infoFlex.AddItem(tv, 1, 0, false)
	}
	d.updatedText = tview.NewTextView().SetDynamicColors(true)
	infoFlex.AddItem(d.updatedText, 1, 0, false)
	return infoFlex
}

func (d *Displayer) buildHistory() *tview.Table {
	tbl := tview.NewTable().SetBorders(true).SetFixed(1, 0)
	for col, name := range export.Header() {
		tbl.SetCell(0, col, tview.NewTableCell(name).SetSelectable(false).SetAlign(tview.AlignCenter))
	}
	return tbl
}

func (d *Displayer) updateValues() {
	snap, ok := d.src.Latest()
	for _, k := range models.Kinds() {
		d.valueTexts[k].SetText(fmt.Sprintf("%s: %s", label(k), formatValue(snap, k)))
	}
	if ok {
		d.updatedText.SetText("Updated: " + snap.Timestamp.Format(time.TimeOnly))
	} else {
		d.updatedText.SetText("Updated: [yellow]waiting for first cycle[white]")
	}

	if d.statusText != nil {
		d.statusText.SetText(statusLine(d.src.State(), d.src.Err()))
	}
}

func (d *Displayer) updateHistory() {
	fillHistory(d.historyTable, d.src.History())
}

func (d *Displayer) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			// BeforeDraw handles the dashboard
			d.app.QueueUpdateDraw(d.updateHistory)
		}
	}
}

// fillHistory renders the most recent snapshots, newest first.
func fillHistory(tbl *tview.Table, history []models.Snapshot) {
	for r := tbl.GetRowCount() - 1; r >= 1; r-- {
		tbl.RemoveRow(r)
	}
	row := 1
	for i := len(history) - 1; i >= 0 && row <= historyRows; i-- {
		for col, field := range export.Record(history[i]) {
			if field == "" {
				field = "--"
			}
			tbl.SetCell(row, col, tview.NewTableCell(field).SetAlign(tview.AlignRight))
		}
		row++
	}
}

func label(k models.ReadingKind) string {
	switch k {
	case models.EngineRpm:
		return "RPM"
	case models.VehicleSpeed:
		return "Speed"
	case models.CoolantTemperature:
		return "Coolant"
	case models.FuelLevel:
		return "Fuel"
	}
	return k.String()
}

func formatValue(snap models.Snapshot, k models.ReadingKind) string {
	v, ok := snap.Value(k)
	if !ok {
		return "--"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + k.Unit()
}

func statusLine(state session.State, err error) string {
	var status string
	switch state {
	case session.StateConnected:
		status = "[green]connected[white]"
	case session.StateConnecting, session.StateDisconnecting:
		status = "[yellow]" + string(state) + "[white]"
	case session.StateFailed:
		status = "[red]failed[white]"
		if err != nil {
			status += ": " + tview.Escape(err.Error())
		}
	default:
		status = "[red]disconnected[white]"
	}
	return "Status: " + status
}
