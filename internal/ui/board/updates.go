package board

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"focusflow/internal/update"
)

// updateBanner shows update progress and the install button. It stays
// hidden until the checker reports something worth showing.
type updateBanner struct {
	view     *View
	content  *fyne.Container
	status   *widget.Label
	progress *widget.ProgressBar
	install  *widget.Button
}

func newUpdateBanner(view *View) *updateBanner {
	banner := &updateBanner{
		view:     view,
		status:   widget.NewLabel(""),
		progress: widget.NewProgressBar(),
	}
	banner.install = widget.NewButton("Restart and install", banner.installUpdate)
	banner.install.Importance = widget.HighImportance
	banner.install.Hide()
	banner.progress.Hide()

	banner.content = container.NewBorder(nil, nil, nil, banner.install,
		container.NewVBox(banner.status, banner.progress))
	banner.content.Hide()
	return banner
}

// ShowUpdateEvent renders an update status event.
func (view *View) ShowUpdateEvent(event update.Event) {
	view.do(func() { view.updateBar.apply(event) })
}

// apply must run on the UI thread.
func (banner *updateBanner) apply(event update.Event) {
	switch event.Type {
	case update.EventChecking, update.EventNotAvailable:
		banner.content.Hide()
		return
	case update.EventAvailable:
		banner.status.SetText(fmt.Sprintf("Downloading FocusFlow %s...", event.Release.Version))
		banner.progress.SetValue(0)
		banner.progress.Show()
		banner.install.Hide()
	case update.EventProgress:
		banner.progress.SetValue(event.Progress.Percent / 100)
		banner.progress.Show()
	case update.EventDownloaded:
		banner.status.SetText(fmt.Sprintf("FocusFlow %s is ready to install.", event.Release.Version))
		banner.progress.Hide()
		banner.install.Show()
	case update.EventError:
		banner.status.SetText("Update failed: " + errorText(event.Err))
		banner.progress.Hide()
		banner.install.Hide()
	}
	banner.content.Show()
}

func (banner *updateBanner) installUpdate() {
	if banner.view.options.Actions.InstallUpdate == nil {
		return
	}
	banner.install.Disable()
	if err := banner.view.options.Actions.InstallUpdate(); err != nil {
		banner.install.Enable()
		banner.view.report("install update", err)
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
