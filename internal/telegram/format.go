package telegram

import (
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shopping"
)

var weekdayLabels = [...]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

func weekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// cellMarker is the emoji shown for each cell state.
func cellMarker(state plan.CellState) string {
	switch state {
	case plan.StateFilled:
		return "✅"
	case plan.StateCanteenOverride:
		return "🍱"
	case plan.StateNoAction:
		return "🏫"
	case plan.StateEmpty:
		return "⬜"
	case plan.StateBlocked:
		return "⛔"
	}
	return "❔"
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatError(err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr)
}

func writeCell(sb *strings.Builder, c plan.Cell) {
	fmt.Fprintf(sb, "%s %s", cellMarker(c.State), c.Slot.Label())
	switch c.State {
	case plan.StateFilled, plan.StateCanteenOverride:
		sb.WriteString(": " + escapeMarkdown(c.Record.RecipeName))
		if c.Record.PrepTime > 0 {
			fmt.Fprintf(sb, " (%d min)", c.Record.PrepTime)
		}
	case plan.StateNoAction:
		sb.WriteString(": cantine")
	case plan.StateBlocked:
		sb.WriteString(": indisponible")
	}
	sb.WriteString("\n")
}

func writeDayHeader(sb *strings.Builder, d plan.Day) {
	fmt.Fprintf(sb, "*%s %s* - %s", weekdayLabel(d.Policy.Weekday), d.Policy.Date, d.Policy.LunchType.Label())
	if d.Policy.IsLunchboxDay {
		sb.WriteString(" 🧊")
	}
	sb.WriteString("\n")
}

func formatDayMarkdown(view *planner.DayView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "☀️ *Aujourd'hui pour %s*\n\n", escapeMarkdown(view.ChildName))
	writeDayHeader(&sb, view.Day)
	for _, c := range view.Day.Cells {
		writeCell(&sb, c)
	}
	return sb.String()
}

func formatWeekMarkdown(view *planner.WeekView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Semaine du %s pour %s*\n\n", view.Grid.Start, escapeMarkdown(view.ChildName))
	for _, d := range view.Grid.Days {
		writeDayHeader(&sb, d)
		for _, c := range d.Cells {
			writeCell(&sb, c)
		}
		sb.WriteString("\n")
	}

	s := view.Stats
	fmt.Fprintf(&sb, "📊 *%d/%d repas planifiés* (%d jours, %d recettes)\n", s.PlannedMealsCount, s.TotalMealsCount, s.DaysPlanned, s.RecipesReady)
	fmt.Fprintf(&sb, "🧊 %d lunchbox · 🏠 %d maison · 🏫 %d cantine", s.LunchboxCount, s.HomeLunchCount, s.CanteenCount)
	return sb.String()
}

func formatShoppingMarkdown(childName string, list *shopping.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Liste de courses de %s* (semaine du %s)\n\n", escapeMarkdown(childName), list.WeekStart)
	if len(list.Items) == 0 {
		sb.WriteString("_Aucun repas planifié_\n")
	}
	for _, line := range list.Lines() {
		fmt.Fprintf(&sb, "• %s\n", escapeMarkdown(line))
	}
	if len(list.Missing) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Recettes introuvables: %s\n", escapeMarkdown(strings.Join(list.Missing, ", ")))
	}
	return sb.String()
}

func formatExpressMarkdown(childName string, res *planner.ExpressResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚡ *Planning express pour %s* (semaine du %s)\n\n", escapeMarkdown(childName), res.WeekStart)
	if len(res.Generated) == 0 && len(res.Failures) == 0 {
		sb.WriteString("_Rien à générer, la semaine est complète._\n")
	}
	for _, g := range res.Generated {
		fmt.Fprintf(&sb, "✅ %s %s: %s\n", g.Record.Date, g.Recipe.Slot.Label(), escapeMarkdown(g.Recipe.Name))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(&sb, "❌ %s %s: %s\n", f.Date, f.Slot.Label(), escapeMarkdown(f.Error))
	}
	fmt.Fprintf(&sb, "\n📊 *%d/%d repas planifiés*", res.Stats.PlannedMealsCount, res.Stats.TotalMealsCount)
	return sb.String()
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
