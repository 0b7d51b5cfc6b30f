package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data is limited to 64 bytes, so it carries one id at most:
// "use|<listID>", "tog|<itemID>" or "res|<decision>|<proposalID>".
const (
	actionUse     = "use"
	actionToggle  = "tog"
	actionResolve = "res"
)

type callback struct {
	action   string
	id       string
	decision ingest.Decision
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, "|")
	switch {
	case len(parts) == 2 && (parts[0] == actionUse || parts[0] == actionToggle) && parts[1] != "":
		return callback{action: parts[0], id: parts[1]}, nil
	case len(parts) == 3 && parts[0] == actionResolve && parts[2] != "":
		d := ingest.Decision(parts[1])
		switch d {
		case ingest.DecisionMerge, ingest.DecisionKeepSeparate, ingest.DecisionDiscard:
			return callback{action: actionResolve, id: parts[2], decision: d}, nil
		}
	}
	return callback{}, fmt.Errorf("unknown callback %q", data)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatQty(qty float64, unit string) string {
	s := strconv.FormatFloat(qty, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}

func describeItem(it shopping.Item) string {
	s := fmt.Sprintf("%s %s × %s", it.Icon, it.Name, formatQty(it.Qty, it.Unit))
	if it.Notes != "" {
		s += " (" + it.Notes + ")"
	}
	if it.Store != "" {
		s += " @" + it.Store
	}
	if it.Urgent {
		s += " ❗"
	}
	if it.GF {
		s += " GF"
	}
	return s
}

func describeDraft(d shopping.Draft) string {
	s := d.Name + " × " + formatQty(d.Qty, d.Unit)
	if d.Urgent {
		s += " ❗"
	}
	return s
}

// formatList renders the open items grouped by category, then the checked ones.
func formatList(list *shopping.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s*\n", list.Icon, escape(list.Name))
	if len(list.Items) == 0 {
		sb.WriteString("\n_Empty. Send me what you need!_")
		return sb.String()
	}

	var order []string
	byCategory := map[string][]shopping.Item{}
	var checked []shopping.Item
	for _, it := range list.Items {
		if it.Checked {
			checked = append(checked, it)
			continue
		}
		if _, seen := byCategory[it.Category]; !seen {
			order = append(order, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}

	for _, cat := range order {
		fmt.Fprintf(&sb, "\n*%s*\n", escape(cat))
		for _, it := range byCategory[cat] {
			fmt.Fprintf(&sb, "• %s\n", escape(describeItem(it)))
		}
	}
	if len(checked) > 0 {
		sb.WriteString("\n✅ _In the cart_\n")
		for _, it := range checked {
			fmt.Fprintf(&sb, "• %s\n", escape(it.Name))
		}
	}
	return sb.String()
}

// itemsKeyboard has one toggle button per item.
func itemsKeyboard(list *shopping.List) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range list.Items {
		label := "⬜ " + it.Name
		if it.Checked {
			label = "✅ " + it.Name
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, actionToggle+"|"+it.ID),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func listsKeyboard(lists []shopping.List) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lists))
	for _, l := range lists {
		label := fmt.Sprintf("%s %s (%d)", l.Icon, l.Name, len(l.Items))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, actionUse+"|"+l.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatProposal(p ingest.Proposal) string {
	return fmt.Sprintf(
		"🤔 *Merge these items?*\n\nOn the list: %s\nNew: %s\n\nMerged: %s",
		escape(describeItem(p.Existing)),
		escape(describeItem(p.Candidate)),
		escape(describeItem(p.Preview)),
	)
}

func proposalKeyboard(p ingest.Proposal) tgbotapi.InlineKeyboardMarkup {
	data := func(d ingest.Decision) string {
		return actionResolve + "|" + string(d) + "|" + p.ID
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Merge", data(ingest.DecisionMerge)),
			tgbotapi.NewInlineKeyboardButtonData("➕ Keep separate", data(ingest.DecisionKeepSeparate)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Discard", data(ingest.DecisionDiscard)),
		),
	)
}

func resolvedText(p ingest.Proposal, d ingest.Decision) string {
	switch d {
	case ingest.DecisionMerge:
		return fmt.Sprintf("🔗 Merged into %s.", p.Existing.Name)
	case ingest.DecisionKeepSeparate:
		return fmt.Sprintf("➕ Added %s as a separate item.", p.Candidate.Name)
	default:
		return fmt.Sprintf("🗑 Discarded %s.", p.Candidate.Name)
	}
}

func droppedText(ev ingest.Event) string {
	name := "an item"
	if ev.Item != nil {
		name = ev.Item.Name
	}
	if ev.Err != nil {
		return fmt.Sprintf("❌ Could not add %s: %v", name, ev.Err)
	}
	return fmt.Sprintf("❌ Could not add %s.", name)
}

func toggleText(it *shopping.Item) string {
	if it.Checked {
		return "✅ " + it.Name
	}
	return "⬜ " + it.Name
}
