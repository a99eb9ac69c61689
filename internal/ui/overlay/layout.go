package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// barLayout puts the clock on the left, the buttons on the right and lets
// the task caption take the space between them.
type barLayout struct{}

func (layout *barLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 3 {
		return
	}
	clock := objects[0]
	task := objects[1]
	buttons := objects[2]

	pad := size.Height * 0.12
	clockSize := clock.MinSize()
	clock.Move(fyne.NewPos(pad, (size.Height-clockSize.Height)/2))
	clock.Resize(clockSize)

	buttonsSize := buttons.MinSize()
	buttonsX := size.Width - pad - buttonsSize.Width
	if buttonsX < 0 {
		buttonsX = 0
	}
	buttons.Move(fyne.NewPos(buttonsX, (size.Height-buttonsSize.Height)/2))
	buttons.Resize(buttonsSize)

	taskX := pad + clockSize.Width + pad
	taskWidth := buttonsX - taskX - pad
	if taskWidth < 0 {
		taskWidth = 0
	}
	taskSize := task.MinSize()
	task.Move(fyne.NewPos(taskX, (size.Height-taskSize.Height)/2))
	task.Resize(fyne.NewSize(taskWidth, taskSize.Height))
}

func (layout *barLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 3 {
		return fyne.NewSize(0, 0)
	}
	clockSize := objects[0].MinSize()
	buttonsSize := objects[2].MinSize()
	height := clockSize.Height
	if buttonsSize.Height > height {
		height = buttonsSize.Height
	}
	return fyne.NewSize(clockSize.Width+buttonsSize.Width+24, height)
}

// clockLayout stacks the time above its label.
type clockLayout struct{}

func (layout *clockLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	timeSize := objects[0].MinSize()
	labelSize := objects[1].MinSize()
	objects[0].Move(fyne.NewPos(0, 0))
	objects[0].Resize(fyne.NewSize(size.Width, timeSize.Height))
	objects[1].Move(fyne.NewPos(0, timeSize.Height))
	objects[1].Resize(fyne.NewSize(size.Width, labelSize.Height))
}

func (layout *clockLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	timeSize := objects[0].MinSize()
	labelSize := objects[1].MinSize()
	width := timeSize.Width
	if labelSize.Width > width {
		width = labelSize.Width
	}
	return fyne.NewSize(width, timeSize.Height+labelSize.Height)
}

// grabArea is an invisible widget that reports taps and drags.
type grabArea struct {
	widget.BaseWidget
	onTap     func()
	onDrag    func(*fyne.DragEvent)
	onDragEnd func()
}

func newGrabArea(onTap func(), onDrag func(*fyne.DragEvent), onDragEnd func()) *grabArea {
	area := &grabArea{onTap: onTap, onDrag: onDrag, onDragEnd: onDragEnd}
	area.ExtendBaseWidget(area)
	return area
}

func (area *grabArea) Tapped(*fyne.PointEvent) {
	if area.onTap != nil {
		area.onTap()
	}
}

func (area *grabArea) Dragged(event *fyne.DragEvent) {
	if area.onDrag != nil {
		area.onDrag(event)
	}
}

func (area *grabArea) DragEnd() {
	if area.onDragEnd != nil {
		area.onDragEnd()
	}
}

func (area *grabArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(&fyne.Container{})
}
