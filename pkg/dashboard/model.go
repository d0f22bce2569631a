package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xnftctl/pkg/controller"
)

// MaxLogLines caps the log pane history.
const MaxLogLines = 100

var (
	headerStyle = lipgloss.NewStyle().Foreground(Dark).Background(Orange).Padding(0, 1).Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(Cyan)
	errorStyle  = lipgloss.NewStyle().Foreground(Red)
	hintStyle   = grayStyle
)

// StateMsg carries a controller snapshot into the bubbletea loop.
type StateMsg controller.State

// LogMsg is one line of log output for the log pane.
type LogMsg string

// TickMsg refreshes relative times in the view.
type TickMsg time.Time

// flowDoneMsg reports the end of a flow started from the dashboard. The
// controller has already logged any error.
type flowDoneMsg struct {
	op  controller.Op
	err error
}

type connectDoneMsg struct {
	err error
}

// Options configure the dashboard model.
type Options struct {
	Version        string
	Network        string
	RequestTimeout time.Duration
	TxTimeout      time.Duration
	ExplorerTxLink func(hash string) string
}

type focus int

const (
	focusNone focus = iota
	focusTokenID
	focusRecipient
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctrl      *controller.Controller
	opts      Options
	state     controller.State
	spinner   spinner.Model
	tokenID   textinput.Model
	recipient textinput.Model
	keyName   textinput.Model
	focus     focus
	logs      []string
	notice    string
	width     int
	height    int
	startTime time.Time
	now       time.Time
}

// New builds the dashboard model around ctrl.
func New(ctrl *controller.Controller, opts Options) Model {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 2 * time.Minute
	}
	if opts.ExplorerTxLink == nil {
		opts.ExplorerTxLink = func(hash string) string { return hash }
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(Yellow)),
	)

	st := ctrl.Snapshot()
	tokenID := newInput("token id", 20)
	tokenID.SetValue(st.Draft.TokenID)
	recipient := newInput("xion1...", 80)
	recipient.SetValue(st.Draft.Recipient)

	now := time.Now()
	return Model{
		ctrl:      ctrl,
		opts:      opts,
		state:     st,
		spinner:   sp,
		tokenID:   tokenID,
		recipient: recipient,
		keyName:   newInput("key name", 64),
		startTime: now,
		now:       now,
	}
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "› "
	return ti
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// runFlow runs one controller flow in a tea.Cmd.
func (m Model) runFlow(op controller.Op) tea.Cmd {
	ctrl := m.ctrl
	timeout := m.opts.RequestTimeout
	if op == controller.OpMint || op == controller.OpTransfer {
		timeout = m.opts.TxTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var err error
		switch op {
		case controller.OpSupply:
			err = ctrl.FetchSupplyCount(ctx)
		case controller.OpOwned:
			err = ctrl.FetchOwnedCount(ctx)
		case controller.OpMint:
			_, err = ctrl.Mint(ctx)
		case controller.OpTransfer:
			_, err = ctrl.Transfer(ctx)
		}
		return flowDoneMsg{op: op, err: err}
	}
}

func (m Model) connect(keyName string) tea.Cmd {
	session := m.ctrl.Session()
	timeout := m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := session.Connect(ctx, keyName)
		return connectDoneMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.ModalVisible {
			return m.updateModal(msg)
		}
		if m.focus != focusNone {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recipient.Width = max(msg.Width/2-8, 10)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.now = time.Time(msg)
		m.state = newer(m.state, m.ctrl.Snapshot())
		return m, tickCmd()

	case StateMsg:
		// Snapshots are sent from several goroutines; keep the newest.
		if msg.Version >= m.state.Version {
			m.state = controller.State(msg)
		}

	case flowDoneMsg:
		m.state = newer(m.state, m.ctrl.Snapshot())
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", FlowLabel(msg.op), msg.err)
		} else {
			m.notice = ""
			if tx := m.state.LastTx; tx != nil && tx.Kind == msg.op {
				m.notice = fmt.Sprintf("%s confirmed at height %d", FlowLabel(msg.op), tx.Height)
			}
		}

	case connectDoneMsg:
		m.state = newer(m.state, m.ctrl.Snapshot())
		if msg.err != nil {
			m.notice = "connect failed: " + msg.err.Error()
		} else {
			m.notice = ""
			m.keyName.Reset()
			m.keyName.Blur()
		}

	case LogMsg:
		m.logs = append(m.logs, string(msg))
		if len(m.logs) > MaxLogLines {
			m.logs = m.logs[len(m.logs)-MaxLogLines:]
		}
	}

	return m, nil
}

func newer(a, b controller.State) controller.State {
	if b.Version >= a.Version {
		return b
	}
	return a
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "s":
		return m, m.runFlow(controller.OpSupply)
	case "o":
		return m, m.runFlow(controller.OpOwned)
	case "m":
		return m, m.runFlow(controller.OpMint)
	case "t":
		return m, m.runFlow(controller.OpTransfer)
	case "tab":
		m.focus = focusTokenID
		cmd := m.tokenID.Focus()
		return m, cmd
	case "c":
		m.ctrl.ToggleModal()
		m.state = newer(m.state, m.ctrl.Snapshot())
		if m.state.ModalVisible {
			cmd := m.keyName.Focus()
			return m, cmd
		}
	case "l":
		m.ctrl.Logout()
		m.state = newer(m.state, m.ctrl.Snapshot())
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.blurForm()
		return m, nil
	case "tab", "shift+tab":
		if m.focus == focusTokenID {
			m.focus = focusRecipient
			m.tokenID.Blur()
			cmd := m.recipient.Focus()
			return m, cmd
		}
		m.blurForm()
		return m, nil
	case "enter":
		m.blurForm()
		return m, m.runFlow(controller.OpTransfer)
	}

	var cmd tea.Cmd
	if m.focus == focusTokenID {
		m.tokenID, cmd = m.tokenID.Update(msg)
		m.ctrl.SetDraftTokenID(strings.TrimSpace(m.tokenID.Value()))
	} else {
		m.recipient, cmd = m.recipient.Update(msg)
		m.ctrl.SetDraftRecipient(strings.TrimSpace(m.recipient.Value()))
	}
	m.state = newer(m.state, m.ctrl.Snapshot())
	return m, cmd
}

func (m *Model) blurForm() {
	m.focus = focusNone
	m.tokenID.Blur()
	m.recipient.Blur()
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.SetModalVisible(false)
		m.keyName.Blur()
		m.state = newer(m.state, m.ctrl.Snapshot())
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.keyName.Value())
		if name == "" {
			return m, nil
		}
		return m, m.connect(name)
	}
	var cmd tea.Cmd
	m.keyName, cmd = m.keyName.Update(msg)
	return m, cmd
}

// Logs returns the lines currently held by the log pane.
func (m Model) Logs() []string {
	return m.logs
}

// State returns the snapshot the model last rendered.
func (m Model) State() controller.State {
	return m.state
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	uptime := m.now.Sub(m.startTime).Round(time.Second)
	title := fmt.Sprintf(" xnftctl %s | %s | Uptime: %v ", m.opts.Version, m.opts.Network, uptime)
	header := headerStyle.Width(m.width).Render(TruncateToWidth(title, max(m.width-2, 1)))

	// Frame layout, sharing borders between neighbouring panels:
	//   ╭─ Account ───┬─ Collection ─╮
	//   ├─ Transfer ──┼─ Last Tx ────┤
	//   ├─ Log ───────┴──────────────┤
	//   ╰─ keys ─────────────────────╯
	leftInner := max((m.width-3)/2, 1)
	rightInner := max(m.width-3-leftInner, 1)
	logInner := max(m.width-2, 1)
	topRows, midRows, logRows := layoutRows(m.height)

	accountLines := PadLines(RenderToLines(m.renderAccount(leftInner), leftInner), topRows, leftInner)
	collectionLines := PadLines(RenderToLines(m.renderCollection(), rightInner), topRows, rightInner)
	formLines := PadLines(RenderToLines(m.renderForm(), leftInner), midRows, leftInner)
	txLines := PadLines(RenderToLines(m.renderLastTx(rightInner), rightInner), midRows, rightInner)

	start := max(len(m.logs)-logRows, 0)
	colored := make([]string, 0, logRows)
	for _, l := range m.logs[start:] {
		colored = append(colored, TruncateToWidth(ColorizeLogLine(l), logInner-2))
	}
	logLines := OverlayLogo(PadLines(RenderToLines(strings.Join(colored, "\n"), logInner), logRows, logInner), logInner)

	var out strings.Builder
	out.WriteString(header + "\n")
	out.WriteString(BuildTopBorder(leftInner, rightInner, "Account", "Collection") + "\n")
	for _, row := range JoinColumns(accountLines, collectionLines) {
		out.WriteString(row + "\n")
	}
	out.WriteString(BuildSplitMiddleBorder(leftInner, rightInner, "Transfer", "Last Transaction") + "\n")
	for _, row := range JoinColumns(formLines, txLines) {
		out.WriteString(row + "\n")
	}
	out.WriteString(BuildMiddleBorder(m.width, leftInner, "Log") + "\n")
	for _, l := range logLines {
		out.WriteString(BorderStr("│") + l + BorderStr("│") + "\n")
	}
	out.WriteString(BuildBottomBorder(m.width, m.footer()))
	return out.String()
}

func (m Model) footer() string {
	switch {
	case m.state.ModalVisible:
		return "[enter] connect | [esc] close"
	case m.focus != focusNone:
		return "[tab] next field | [enter] transfer | [esc] done"
	default:
		return "[s] supply | [o] owned | [m] mint | [t] transfer | [tab] edit | [c] connect | [l] logout | [q] quit"
	}
}

func (m Model) renderAccount(width int) string {
	var b bytes.Buffer
	b.WriteString("\n")
	switch {
	case m.state.ModalVisible:
		b.WriteString(labelStyle.Render(" Connect a keyring account") + "\n\n")
		b.WriteString(" " + m.keyName.View() + "\n\n")
		b.WriteString(hintStyle.Render(" The key is resolved with xiond keys show.") + "\n")
	case m.state.Account == nil:
		b.WriteString(valueStyle.Render(" Not connected") + "\n\n")
		b.WriteString(hintStyle.Render(" Press [c] to connect an account.") + "\n")
	default:
		acct := m.state.Account
		b.WriteString(labelStyle.Render(" Address: ") + valueStyle.Render(ShortAddress(acct.Address, width-13)) + "\n")
		key := acct.KeyName
		if key == "" {
			key = "(read-only)"
		}
		b.WriteString(labelStyle.Render(" Key:     ") + key + "\n\n")
		b.WriteString(hintStyle.Render(" [l] logout | [c] switch account") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n " + m.renderNotice() + "\n")
	}
	return b.String()
}

func (m Model) renderNotice() string {
	if strings.Contains(m.notice, "failed") {
		return errorStyle.Render(m.notice)
	}
	return valueStyle.Render(m.notice)
}

func (m Model) renderCollection() string {
	var b bytes.Buffer
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(" Minted: ") + valueStyle.Render(FormatCount(m.state.Supply)) + "\n")
	b.WriteString(labelStyle.Render(" Owned:  ") + valueStyle.Render(FormatOwned(m.state.Owned, m.ctrl.Settings().OwnedPageLimit)) + "\n\n")

	spin := m.spinner.View()
	for _, op := range controller.Ops {
		b.WriteString(fmt.Sprintf(" %-9s %s\n", FlowLabel(op), RenderFlowStatus(m.state.Status[op], spin, m.now)))
	}
	if !m.state.QueryReady {
		b.WriteString(errorStyle.Render("\n query client unavailable") + "\n")
	}
	if !m.state.SignerReady {
		b.WriteString(errorStyle.Render("\n signer unavailable") + "\n")
	}
	return b.String()
}

func (m Model) renderForm() string {
	var b bytes.Buffer
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(" Token ID") + "\n ")
	b.WriteString(m.tokenID.View() + "\n")
	b.WriteString(labelStyle.Render(" Recipient") + "\n ")
	b.WriteString(m.recipient.View() + "\n")
	return b.String()
}

func (m Model) renderLastTx(width int) string {
	var b bytes.Buffer
	b.WriteString("\n")
	tx := m.state.LastTx
	if tx == nil {
		b.WriteString(grayStyle.Render(" No transactions yet.") + "\n")
		return b.String()
	}
	b.WriteString(labelStyle.Render(" Kind:   ") + FlowLabel(tx.Kind) + " #" + tx.TokenID + "\n")
	b.WriteString(labelStyle.Render(" Hash:   ") + valueStyle.Render(ShortHash(tx.TransactionHash)) + "\n")
	b.WriteString(labelStyle.Render(" Height: ") + valueStyle.Render(FormatWithCommas(fmt.Sprint(tx.Height))) + "\n")
	if tx.Recipient != "" {
		b.WriteString(labelStyle.Render(" To:     ") + ShortAddress(tx.Recipient, width-12) + "\n")
	}
	b.WriteString("\n " + hintStyle.Render(TruncateToWidth(m.opts.ExplorerTxLink(tx.TransactionHash), max(width-3, 1))) + "\n")
	return b.String()
}

// LogWriter turns written bytes into one LogMsg per complete line and hands
// them to send. It is safe for concurrent use.
type LogWriter struct {
	mu   sync.Mutex
	buf  []byte
	send func(tea.Msg)
}

func NewLogWriter(send func(tea.Msg)) *LogWriter {
	return &LogWriter{send: send}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	var lines []string
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimRight(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	w.mu.Unlock()

	for _, l := range lines {
		w.send(LogMsg(l))
	}
	return len(p), nil
}

// Forwarder queues messages produced outside the bubbletea loop, such as
// controller snapshots and log lines, and delivers them in order. Post never
// blocks, so it may be called from inside Update; messages posted while the
// queue is full are dropped.
type Forwarder struct {
	ch chan tea.Msg
}

func NewForwarder(size int) *Forwarder {
	return &Forwarder{ch: make(chan tea.Msg, size)}
}

// Post queues msg for delivery.
func (f *Forwarder) Post(msg tea.Msg) {
	select {
	case f.ch <- msg:
	default:
	}
}

// Run delivers queued messages to send until ctx is done.
func (f *Forwarder) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-f.ch:
			send(msg)
		}
	}
}
