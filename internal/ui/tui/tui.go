package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"livechat/internal/app/session"
	"livechat/internal/app/store"
)

const (
	pageLogin = "login"
	pageChat  = "chat"
)

// =============================================================================

type TUI struct {
	tviewApp *tview.Application
	pages    *tview.Pages

	nameField   *tview.InputField
	loginButton *tview.Button

	list     *tview.List
	textView *tview.TextView
	status   *tview.TextView
	textArea *tview.TextArea
	button   *tview.Button

	session *session.Session
	store   *store.Store

	// dirty coalesces store changes into one redraw.
	dirty chan struct{}

	// loggedIn signals a login made outside the UI, such as through the control API.
	loggedIn chan struct{}

	stop chan struct{}
}

func New(sess *session.Session, st *store.Store) *TUI {
	ui := TUI{
		tviewApp: tview.NewApplication(),
		session:  sess,
		store:    st,
		dirty:    make(chan struct{}, 1),
		loggedIn: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}

	ui.pages = tview.NewPages().
		AddPage(pageLogin, ui.buildLogin(), true, true).
		AddPage(pageChat, ui.buildChat(), true, false)

	ui.pages.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlQ:
			ui.tviewApp.Stop()
			return nil
		}

		return event
	})

	st.OnChange(ui.markDirty)
	sess.OnLogin(func(*session.Chat) { ui.markLoggedIn() })

	return &ui
}

// -----------------------------------------------------------------------------

func (ui *TUI) buildLogin() tview.Primitive {
	ui.nameField = tview.NewInputField().
		SetLabel("Username ").
		SetFieldWidth(30).
		SetPlaceholder("Enter a username...")

	ui.loginButton = tview.NewButton("Go Chatting!")
	ui.loginButton.SetBorder(true)
	ui.loginButton.SetSelectedFunc(func() {
		ui.Login(ui.nameField.GetText())
	})

	ui.nameField.SetChangedFunc(func(text string) {
		ui.setLoginEnabled(strings.TrimSpace(text) != "")
	})
	ui.nameField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			ui.Login(ui.nameField.GetText())
		}
	})
	ui.setLoginEnabled(false)

	form := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.nameField, 1, 0, true).
		AddItem(ui.loginButton, 3, 0, false)
	form.SetBorder(true)
	form.SetTitle("*** livechat ***")

	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 6, 0, true).
			AddItem(nil, 0, 1, false),
			44, 0, true).
		AddItem(nil, 0, 1, false)
}

func (ui *TUI) setLoginEnabled(enabled bool) {
	color := tcell.ColorGray
	if enabled {
		color = tcell.ColorGreen
	}
	ui.loginButton.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(color).Bold(enabled))
	ui.loginButton.SetBorderColor(color)
}

func (ui *TUI) buildChat() tview.Primitive {
	ui.textView = tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetWordWrap(true)
	ui.textView.SetBorder(true)

	ui.list = tview.NewList()
	ui.list.SetBorder(true)
	ui.list.SetTitle("Users")

	ui.status = tview.NewTextView()

	ui.button = tview.NewButton("SUBMIT")
	ui.button.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGreen).Bold(true))
	ui.button.SetActivatedStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGreen).Bold(true))
	ui.button.SetBorder(true)
	ui.button.SetBorderColor(tcell.ColorGreen)
	ui.button.SetSelectedFunc(ui.submit)

	ui.textArea = tview.NewTextArea()
	ui.textArea.SetWrap(false)
	ui.textArea.SetPlaceholder("Enter message here...")
	ui.textArea.SetBorder(true)
	ui.textArea.SetBorderPadding(0, 0, 1, 0)
	ui.textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			ui.submit()
			return nil
		}
		return event
	})

	return tview.NewFlex().
		AddItem(ui.list, 30, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(ui.textView, 0, 5, false).
			AddItem(ui.status, 1, 0, false).
			AddItem(tview.NewFlex().
				SetDirection(tview.FlexColumn).
				AddItem(ui.textArea, 0, 90, true).
				AddItem(ui.button, 0, 10, false),
				3, 0, true),
			0, 1, true)
}

// =============================================================================

// Run blocks until the user quits.
func (ui *TUI) Run() error {
	go ui.redrawLoop()
	defer close(ui.stop)

	return ui.tviewApp.SetRoot(ui.pages, true).EnableMouse(true).Run()
}

// Stop ends Run from any goroutine.
func (ui *TUI) Stop() {
	ui.tviewApp.Stop()
}

// Login performs the entry screen action and switches to the chat page on success.
func (ui *TUI) Login(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	if _, err := ui.session.Login(name); err != nil {
		ui.loginButton.SetLabel("Go Chatting! (" + err.Error() + ")")
		return false
	}

	ui.showChat()
	return true
}

// showChat switches to the chat page of the active chat. It must run on the UI goroutine.
func (ui *TUI) showChat() {
	chat := ui.session.Chat()
	if chat == nil {
		return
	}

	ui.textView.SetTitle(fmt.Sprintf("*** %s ***", chat.Username))
	ui.pages.SwitchToPage(pageChat)
	ui.tviewApp.SetFocus(ui.textArea)
	ui.refresh()
}

// =============================================================================

func (ui *TUI) markDirty() {
	select {
	case ui.dirty <- struct{}{}:
	default:
	}
}

func (ui *TUI) markLoggedIn() {
	select {
	case ui.loggedIn <- struct{}{}:
	default:
	}
}

func (ui *TUI) redrawLoop() {
	for {
		select {
		case <-ui.stop:
			return
		case <-ui.dirty:
			ui.tviewApp.QueueUpdateDraw(ui.refresh)
		case <-ui.loggedIn:
			ui.tviewApp.QueueUpdateDraw(ui.showChat)
		}
	}
}

// refresh repaints the roster and transcript from a store snapshot.
func (ui *TUI) refresh() {
	snap := ui.store.Snapshot()

	current := ui.list.GetCurrentItem()
	ui.list.Clear()
	for _, p := range snap.Roster {
		ui.list.AddItem(p.Name, p.Avatar, 0, nil)
	}
	if current < ui.list.GetItemCount() {
		ui.list.SetCurrentItem(current)
	}

	ui.textView.SetText(renderTranscript(snap.Transcript))
	ui.textView.ScrollToEnd()
}

func (ui *TUI) submit() {
	msg := ui.textArea.GetText()
	if msg == "" {
		return
	}

	if err := ui.session.Submit(msg); err != nil {
		ui.status.SetText(fmt.Sprintf("Error sending message: %s", err))
		return
	}

	ui.status.SetText("")
	ui.textArea.SetText("", false)
}

// =============================================================================

func renderTranscript(entries []store.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("-----\n")
		}
		b.WriteString(renderEntry(e))
	}
	return b.String()
}

func renderEntry(e store.Entry) string {
	name := e.Sender.Name
	if !e.SenderOnline {
		name += " [offline]"
	}
	return fmt.Sprintf("%s <%s>\n%s\n", name, e.Sender.Avatar, e.Message)
}
