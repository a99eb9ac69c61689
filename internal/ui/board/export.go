package board

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"focusflow/internal/export"
)

func (view *View) showExport() {
	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			view.report("export sessions", err)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := view.exportTo(path); err != nil {
			view.report("export sessions", err)
			return
		}
		view.inform("Export", "Sessions exported to "+path)
	}, view.window)
	saveDialog.SetFileName("focusflow-sessions.csv")
	saveDialog.Show()
}

// exportTo writes the sessions to path in the format its extension names.
func (view *View) exportTo(path string) error {
	format, err := export.ParseFormat("", path)
	if err != nil {
		return err
	}
	return export.Write(view.Document(), format, path)
}
