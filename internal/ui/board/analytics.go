package board

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/core/analytics"
	"focusflow/internal/core/model"
)

// analyticsPanel renders the bucket report of one view.
type analyticsPanel struct {
	board    *View
	current  analytics.View
	selector *widget.RadioGroup
	list     *fyne.Container
	total    *widget.Label
	reset    *widget.Button
	content  fyne.CanvasObject
	buckets  []analytics.Bucket
}

func newAnalyticsPanel(board *View) *analyticsPanel {
	panel := &analyticsPanel{
		board:   board,
		current: analytics.ViewDay,
		list:    container.NewVBox(),
		total:   widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	}
	options := make([]string, 0, len(analytics.Views))
	for _, view := range analytics.Views {
		options = append(options, string(view))
	}
	panel.selector = widget.NewRadioGroup(options, func(value string) {
		view, err := analytics.ParseView(value)
		if err != nil {
			return
		}
		panel.current = view
		panel.render()
	})
	panel.selector.Horizontal = true
	panel.selector.SetSelected(string(panel.current))

	panel.reset = widget.NewButton("Reset analytics", func() {
		board.confirm("Reset analytics", "Delete every recorded session and empty the time pool?", func() {
			board.update("reset analytics", func(doc *model.AppState) error {
				doc.ResetAnalytics()
				return nil
			})
			panel.render()
		})
	})
	panel.reset.Importance = widget.DangerImportance

	panel.content = container.NewBorder(
		panel.selector,
		container.NewBorder(nil, nil, nil, panel.reset, panel.total),
		nil, nil,
		container.NewVScroll(panel.list),
	)
	panel.render()
	return panel
}

func (panel *analyticsPanel) render() {
	doc := panel.board.Document()
	panel.buckets = analytics.Aggregate(doc.TimerSessions, panel.current, time.Local)

	objects := make([]fyne.CanvasObject, 0, len(panel.buckets))
	for _, bucket := range panel.buckets {
		start := bucket.Start
		caption := fmt.Sprintf("%s  %s  (%d)", panel.current.Label(start), model.FormatHHMMSS(bucket.TotalSec), bucket.Sessions)
		row := widget.NewButton(caption, func() { panel.showDetail(start) })
		row.Alignment = widget.ButtonAlignLeading
		objects = append(objects, row)
	}
	if len(objects) == 0 {
		objects = append(objects, widget.NewLabel("No sessions recorded."))
	}
	panel.list.Objects = objects
	panel.list.Refresh()
	panel.total.SetText("Total " + model.FormatHHMMSS(analytics.Total(panel.buckets)))
}

func (panel *analyticsPanel) showDetail(start time.Time) {
	detail := analytics.DetailFor(panel.board.Document(), panel.current, start)

	rows := make([]fyne.CanvasObject, 0, len(detail.Entries)+1)
	for _, entry := range detail.Entries {
		rows = append(rows, widget.NewLabel(fmt.Sprintf("%s  %s  %s",
			entry.Start.Format("02.01 15:04"), model.FormatHHMMSS(entry.Session.DurationSec), entry.Caption())))
	}
	rows = append(rows, widget.NewLabelWithStyle("Total "+model.FormatHHMMSS(detail.TotalSec), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))

	title := panel.current.Label(detail.From)
	detailDialog := dialog.NewCustom(title, "Close", container.NewVScroll(container.NewVBox(rows...)), panel.board.window)
	detailDialog.Resize(fyne.NewSize(460, 360))
	detailDialog.Show()
}

func (view *View) showAnalytics() {
	panel := newAnalyticsPanel(view)
	analyticsDialog := dialog.NewCustom("Analytics", "Close", panel.content, view.window)
	analyticsDialog.Resize(fyne.NewSize(520, 440))
	analyticsDialog.Show()
}
