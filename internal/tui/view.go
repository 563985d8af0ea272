package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/wizard"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF7A1A"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3E3E3E"))

	requiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF7A1A"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FC4100"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF7A1A")).
			Padding(0, 1)

	skeletonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0E0E0"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#CFCFCF")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.BorderForeground(lipgloss.Color("#FF7A1A"))
)

// View renders the screen.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if a.loader.Loading() {
		return a.skeletonView()
	}
	return a.formView()
}

// skeletonView stands in for the form until the saved draft is restored.
func (a *App) skeletonView() string {
	bar := func(width int) string {
		return skeletonStyle.Render(strings.Repeat("█", width))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Loading draft…\n\n", a.spinner.View()))
	for _, width := range []int{12, 40, 10, 40, 10, 24} {
		b.WriteString(bar(width))
		b.WriteString("\n\n")
	}
	images := make([]string, 0, a.config.ImageLimit())
	for i := 0; i < a.config.ImageLimit(); i++ {
		images = append(images, skeletonStyle.Render("▆▆▆▆"))
	}
	b.WriteString(strings.Join(images, "  "))
	return b.String()
}

func (a *App) formView() string {
	var b strings.Builder
	header := titleStyle.Render("Step 1 · Basics")
	if a.store.StepActive(wizard.StepOne) {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, " ", badgeStyle.Render("In progress"))
	}
	b.WriteString(header + "\n\n")

	b.WriteString(a.section("Posting title", true, a.title.View(), fieldTitle, form.FieldTitle))
	b.WriteString(a.section("Introduction", true, a.description.View(), fieldDescription, form.FieldDescription))

	dates := lipgloss.JoinHorizontal(lipgloss.Top,
		a.box(a.startDate.View(), a.focus == fieldStartDate),
		"  ~  ",
		a.box(a.endDate.View(), a.focus == fieldEndDate),
	)
	dateErr := a.form.Error(form.FieldRecruitmentStartDate)
	if dateErr == "" {
		dateErr = a.form.Error(form.FieldRecruitmentEndDate)
	}
	b.WriteString(label("Recruitment period", true) + "\n" + dates + "\n")
	if dateErr != "" {
		b.WriteString(errorStyle.Render(dateErr) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(label(fmt.Sprintf("Images (%d/%d)", a.attach.Len(), a.attach.Limit()), false) + "\n")
	for i, img := range a.attach.Images() {
		b.WriteString(fmt.Sprintf("  %d. %s  %s\n", i+1, img.Name, helpStyle.Render(humanBytes(len(img.Data)))))
	}
	b.WriteString(a.box(a.imagePath.View(), a.focus == fieldImagePath) + "\n")
	if a.err != nil {
		b.WriteString(errorStyle.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n")

	if a.statusMsg != "" {
		b.WriteString(helpStyle.Render(a.statusMsg) + "\n")
	}
	if lines, _ := a.logbook.Tail(journalLines); len(lines) > 0 {
		b.WriteString(helpStyle.Render(strings.Join(lines, "\n")) + "\n")
	}
	b.WriteString(helpStyle.Render("tab: next · enter: set dates / attach · ctrl+x: remove last image · ctrl+s: check & save · esc: quit"))
	return b.String()
}

func (a *App) section(title string, required bool, input string, f field, name string) string {
	var b strings.Builder
	b.WriteString(label(title, required) + "\n")
	b.WriteString(a.box(input, a.focus == f) + "\n")
	if msg := a.form.Error(name); msg != "" {
		b.WriteString(errorStyle.Render(msg) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) box(content string, focused bool) string {
	if focused {
		return focusedBoxStyle.Render(content)
	}
	return boxStyle.Render(content)
}

func label(text string, required bool) string {
	if required {
		return labelStyle.Render(text) + requiredStyle.Render(" *")
	}
	return labelStyle.Render(text)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
