package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	ShutdownLabel = "Shutdown after backup completes."
	buttonWidth   = 90
)

// View owns the widgets of the reminder window and implements session.View.
type View struct {
	window fyne.Window

	message       *widget.RichText
	ShutdownCheck *widget.Check
	OKButton      *widget.Button
	CancelButton  *widget.Button
	CloseButton   *widget.Button
	mainContainer *fyne.Container

	// cells wrap the buttons so a hidden button leaves no gap behind
	okCell, cancelCell, closeCell *fyne.Container

	confirmHandler func()
	closeHandler   func()
}

func NewView(window fyne.Window) *View {
	view := &View{
		window: window,
	}

	view.setupComponents()
	view.setupLayout()

	return view
}

func (v *View) setupComponents() {
	v.message = widget.NewRichText()
	v.message.Wrapping = fyne.TextWrapOff

	v.ShutdownCheck = widget.NewCheck(ShutdownLabel, nil)

	v.OKButton = widget.NewButton("OK", v.onConfirm)
	v.OKButton.Importance = widget.HighImportance
	v.CancelButton = widget.NewButton("Cancel", v.onClose)
	v.CloseButton = widget.NewButton("Close", v.onClose)
	v.CloseButton.Hide()
}

func (v *View) setupLayout() {
	icon := widget.NewIcon(theme.QuestionIcon())
	header := container.NewHBox(
		container.NewGridWrap(fyne.NewSize(48, 48), icon),
		v.message,
	)

	v.closeCell = fixedWidth(v.CloseButton)
	v.cancelCell = fixedWidth(v.CancelButton)
	v.okCell = fixedWidth(v.OKButton)
	v.closeCell.Hide()

	buttons := container.NewHBox(v.closeCell, v.cancelCell, v.okCell)

	controls := container.NewHBox(
		v.ShutdownCheck,
		layout.NewSpacer(),
		buttons,
	)

	v.mainContainer = container.NewPadded(container.NewVBox(
		header,
		layout.NewSpacer(),
		controls,
	))
}

// fixedWidth keeps a button at least buttonWidth wide even when hidden siblings shift.
func fixedWidth(button *widget.Button) *fyne.Container {
	return container.New(&minWidthLayout{width: buttonWidth}, button)
}

type minWidthLayout struct {
	width float32
}

func (l *minWidthLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	size := fyne.NewSize(0, 0)
	for _, o := range objects {
		if !o.Visible() {
			continue
		}
		ms := o.MinSize()
		size = fyne.NewSize(max(ms.Width, l.width), max(size.Height, ms.Height))
	}
	return size
}

func (l *minWidthLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Resize(size)
		o.Move(fyne.NewPos(0, 0))
	}
}

func (v *View) SetConfirmHandler(handler func()) {
	v.confirmHandler = handler
}

func (v *View) SetCloseHandler(handler func()) {
	v.closeHandler = handler
}

func (v *View) onConfirm() {
	if v.confirmHandler != nil {
		v.confirmHandler()
	}
}

func (v *View) onClose() {
	if v.closeHandler != nil {
		v.closeHandler()
	}
}

// SetMessage shows a bold heading above the body text. Neither is parsed as markup.
func (v *View) SetMessage(heading, body string) {
	title := widget.RichTextStyleStrong
	title.Inline = false

	v.message.Segments = []widget.RichTextSegment{
		&widget.TextSegment{Style: title, Text: heading},
		&widget.TextSegment{Style: widget.RichTextStyleParagraph, Text: body},
	}
	v.message.Refresh()
}

// Message returns the text currently displayed, without markup.
func (v *View) Message() string {
	return v.message.String()
}

func (v *View) ShowRunning() {
	setShown(v.okCell, v.OKButton, false)
	v.focus(v.CancelButton)
}

// ShowFinished leaves Close as the only button, whichever state came before.
func (v *View) ShowFinished() {
	setShown(v.okCell, v.OKButton, false)
	setShown(v.cancelCell, v.CancelButton, false)
	setShown(v.closeCell, v.CloseButton, true)
	v.focus(v.CloseButton)
}

func setShown(cell *fyne.Container, button *widget.Button, shown bool) {
	if shown {
		button.Show()
		cell.Show()
		return
	}
	cell.Hide()
	button.Hide()
}

func (v *View) RequestAttention() {
	v.window.RequestFocus()
}

func (v *View) focus(button *widget.Button) {
	if c := v.window.Canvas(); c != nil {
		c.Focus(button)
	}
}

func (v *View) ShutdownChecked() bool {
	return v.ShutdownCheck.Checked
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
	v.focus(v.OKButton)
}
