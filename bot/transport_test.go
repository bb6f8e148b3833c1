package bot

import (
	"testing"

	"github.com/katarsees/leadbot/bot/leads"
)

func TestDecisionKeyboardLayoutAndPayloads(t *testing.T) {
	markup := decisionKeyboard(7)

	rows := markup.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("unexpected layout: %d rows", len(rows))
	}

	want := []struct {
		text string
		verb leads.Verb
	}{
		{btnAccept, leads.VerbAccept},
		{btnReject, leads.VerbReject},
		{btnClarify, leads.VerbClarify},
	}
	var buttons []struct {
		Text, Unique, Data string
	}
	for _, row := range rows {
		for _, btn := range row {
			buttons = append(buttons, struct{ Text, Unique, Data string }{btn.Text, btn.Unique, btn.Data})
		}
	}
	for i, w := range want {
		if buttons[i].Text != w.text {
			t.Fatalf("button %d text = %q, want %q", i, buttons[i].Text, w.text)
		}
		if buttons[i].Unique != decisionCallbackKey {
			t.Fatalf("button %d unique = %q, want %q", i, buttons[i].Unique, decisionCallbackKey)
		}
		verb, requesterID, err := leads.DecodeDecision(buttons[i].Data)
		if err != nil {
			t.Fatalf("button %d payload %q: %v", i, buttons[i].Data, err)
		}
		if verb != w.verb || requesterID != 7 {
			t.Fatalf("button %d decoded %q/%d, want %q/7", i, verb, requesterID, w.verb)
		}
	}
}
