package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/app"
	"github.com/axio-hub/axio-go/internal/models"
	"github.com/axio-hub/axio-go/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of jobs and notifications",
	Long: `Follow ingestion jobs and notifications as they change.

Updates arrive over the realtime channel when one is configured and fall
back to polling while disconnected. Press q or Ctrl+C to quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchTickMsg redraws the dashboard from the current store state.
type watchTickMsg time.Time

// watchToastMsg surfaces a toast raised by a store.
type watchToastMsg store.Toast

type watchModel struct {
	shell    *app.Shell
	progress progress.Model
	theme    Theme
	toasts   []store.Toast
	quitting bool
}

func newWatchModel(shell *app.Shell) watchModel {
	return watchModel{
		shell: shell,
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(30),
		),
		theme: defaultTheme,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(watchTick(), m.progress.Init())
}

func watchTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "d":
			for _, job := range m.shell.Jobs.Jobs() {
				if job.Status.Terminal() && !job.Dismissed {
					m.shell.Jobs.Dismiss(job.ID)
				}
			}
			return m, nil
		}

	case watchTickMsg:
		return m, watchTick()

	case watchToastMsg:
		m.toasts = append(m.toasts, store.Toast(msg))
		if len(m.toasts) > 3 {
			m.toasts = m.toasts[len(m.toasts)-3:]
		}
		return m, nil

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	header := m.renderHeader()
	jobs := m.renderJobs()
	notifs := m.renderNotifications()
	toasts := m.renderToasts()
	hint := m.theme.hintStyle().Render("q to quit")

	return tea.NewView(fmt.Sprintf("%s\n\n%s\n%s%s\n%s\n", header, jobs, notifs, toasts, hint))
}

func (m watchModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("Axio")
	conn := m.theme.hintStyle().Render("polling")
	if m.shell.SyncConnected() {
		conn = m.theme.completedStyle().Render("live")
	}
	return fmt.Sprintf("%s  %s", title, conn)
}

func (m watchModel) renderJobs() string {
	active := m.shell.Jobs.Active()
	finished := m.finishedJobs()
	if len(active) == 0 && len(finished) == 0 {
		return m.theme.hintStyle().Render("No active jobs") + "\n"
	}

	out := lipgloss.NewStyle().Bold(true).Render("Jobs") + "\n"
	for _, job := range active {
		out += m.renderJob(job)
	}
	for _, job := range finished {
		style := m.theme.completedStyle()
		if job.Status == models.JobFailed {
			style = m.theme.errorStyle()
		}
		out += fmt.Sprintf("  %-10s %s\n", job.ID, style.Render(string(job.Status)))
	}
	if len(finished) > 0 {
		out += m.theme.hintStyle().Render("  d to dismiss finished jobs") + "\n"
	}
	return out
}

// finishedJobs returns terminal jobs the user has not dismissed yet.
func (m watchModel) finishedJobs() []models.Job {
	var out []models.Job
	for _, job := range m.shell.Jobs.Jobs() {
		if job.Status.Terminal() && !job.Dismissed {
			out = append(out, job)
		}
	}
	if len(out) > store.ActiveJobLimit {
		out = out[:store.ActiveJobLimit]
	}
	return out
}

func (m watchModel) renderJob(job models.Job) string {
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", job.Status))
	bar := m.progress.ViewAs(job.Percent() / 100)
	counts := ""
	if job.TotalFiles > 0 {
		counts = fmt.Sprintf(" %d/%d", job.ProcessedFiles, job.TotalFiles)
	}
	return fmt.Sprintf("  %-10s %s %s%s\n", job.ID, status, bar, counts)
}

func (m watchModel) renderNotifications() string {
	unread := m.shell.Notifications.UnreadCount()
	if unread == 0 {
		return ""
	}
	items := m.shell.Notifications.Notifications()

	out := "\n" + lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Notifications (%d unread)", unread)) + "\n"
	shown := 0
	for _, n := range items {
		if n.Read {
			continue
		}
		out += fmt.Sprintf("  * %s\n", n.Title)
		shown++
		if shown == 5 {
			break
		}
	}
	return out
}

func (m watchModel) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	out := "\n"
	for _, t := range m.toasts {
		style := m.theme.statusStyle()
		if t.Variant == store.VariantDestructive {
			style = m.theme.errorStyle()
		}
		line := t.Title
		if t.Description != "" {
			line += ": " + t.Description
		}
		out += "  " + style.Render(line) + "\n"
	}
	return out
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := newWatchModel(shell)
	p := tea.NewProgram(model)

	// Route store toasts into the running program instead of stderr.
	prev := shell.Toaster
	shell.SetToaster(store.ToastFunc(func(t store.Toast) {
		p.Send(watchToastMsg(t))
	}))
	defer shell.SetToaster(prev)

	if err := shell.StartSync(ctx); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}
	defer shell.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
