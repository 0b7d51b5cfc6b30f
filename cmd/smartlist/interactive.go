package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/shopping"

	"github.com/fatih/color"
)

// queue is the part of the app the interactive drain needs.
type queue interface {
	Drain(ctx context.Context) error
	Proposal() (ingest.Proposal, bool)
	ResolveProposalID(ctx context.Context, proposalID string, accept, keepSeparate bool) error
	Pending() bool
}

// drainInteractive processes the queue in the foreground and asks on out
// whenever a merge proposal opens. EOF on in discards the open proposal.
func drainInteractive(ctx context.Context, q queue, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		if err := q.Drain(ctx); err != nil {
			return err
		}
		p, open := q.Proposal()
		if !open {
			return nil
		}

		accept, keep, err := askProposal(reader, out, p)
		if err != nil {
			return err
		}
		if err := q.ResolveProposalID(ctx, p.ID, accept, keep); err != nil {
			fmt.Fprintf(out, "%s %v\n", color.RedString("✗"), err)
		}
	}
}

func askProposal(reader *bufio.Reader, out io.Writer, p ingest.Proposal) (accept, keep bool, err error) {
	fmt.Fprintf(out, "\n%s\n", color.YellowString("Possible duplicate"))
	fmt.Fprintf(out, "  on the list: %s\n", formatItem(p.Existing))
	fmt.Fprintf(out, "  new:         %s\n", formatItem(p.Candidate))
	fmt.Fprintf(out, "  merged:      %s\n", color.CyanString(formatItem(p.Preview)))

	for {
		fmt.Fprint(out, "[m]erge, [k]eep separate, [d]iscard? ")
		line, readErr := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "m", "merge":
			return true, false, nil
		case "k", "keep":
			return false, true, nil
		case "d", "discard":
			return false, false, nil
		}
		if readErr == io.EOF {
			fmt.Fprintln(out, "\nno answer, discarding")
			return false, false, nil
		}
		if readErr != nil {
			return false, false, readErr
		}
	}
}

func formatItem(it shopping.Item) string {
	s := fmt.Sprintf("%s %s × %g", it.Icon, it.Name, it.Qty)
	if it.Unit != "" {
		s += " " + it.Unit
	}
	if it.Notes != "" {
		s += " (" + it.Notes + ")"
	}
	if it.Store != "" {
		s += " @" + it.Store
	}
	if it.Urgent {
		s += " !"
	}
	return s
}

func printList(out io.Writer, list *shopping.List) {
	fmt.Fprintf(out, "%s %s  %s\n", list.Icon, color.New(color.Bold).Sprint(list.Name), color.HiBlackString("(%s, v%d)", list.ID, list.Version))
	if len(list.Items) == 0 {
		fmt.Fprintln(out, color.HiBlackString("  (empty)"))
		return
	}
	for _, it := range list.Items {
		if it.Checked {
			fmt.Fprintf(out, "  %s %s  %s\n", color.GreenString("✓"), color.HiBlackString(formatItem(it)), color.HiBlackString(it.ID))
			continue
		}
		fmt.Fprintf(out, "  • %s  %s  %s\n", formatItem(it), color.HiBlackString("[%s]", it.Category), color.HiBlackString(it.ID))
	}
}
