package keyboard

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestReplyButtonsLayout(t *testing.T) {
	markup := ReplyButtons(
		[]string{"a", "b"},
		[]string{"c"},
	)
	if !markup.ResizeKeyboard {
		t.Fatal("expected resizable keyboard")
	}
	rows := markup.ReplyKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("unexpected layout: %v", rows)
	}
	if rows[0][0].Text != "a" || rows[1][0].Text != "c" {
		t.Fatalf("labels out of order: %v", rows)
	}
}

func TestToInlineKeyboardPreservesRowsAndData(t *testing.T) {
	markup := &tele.ReplyMarkup{}
	first := markup.Data("one", "key", "p1")
	second := markup.Data("two", "key", "p2")

	inline := ToInlineKeyboard([][]tele.Btn{{first}, {second}})
	if len(inline) != 2 || len(inline[0]) != 1 {
		t.Fatalf("unexpected layout: %v", inline)
	}
	if inline[0][0].Unique != "key" || inline[0][0].Data != "p1" {
		t.Fatalf("first button = %+v", inline[0][0])
	}
	if inline[1][0].Text != "two" || inline[1][0].Data != "p2" {
		t.Fatalf("second button = %+v", inline[1][0])
	}
}
