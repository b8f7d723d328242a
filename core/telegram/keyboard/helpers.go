// Package keyboard builds reply and inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. Unique selects the callback handler and Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard, one slice of labels per row.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	kb := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			buttons[i] = tele.ReplyButton{Text: label}
		}
		kb = append(kb, buttons)
	}
	return &tele.ReplyMarkup{ReplyKeyboard: kb, ResizeKeyboard: true}
}

// OneTimeMenu offers options one per row; the client hides the keyboard after a choice.
func OneTimeMenu(options []string) *tele.ReplyMarkup {
	rows := make([][]string, len(options))
	for i, o := range options {
		rows[i] = []string{o}
	}
	markup := ReplyButtons(rows...)
	markup.OneTimeKeyboard = true
	return markup
}

// InlineButtonsRows builds an inline keyboard. Telebot encodes each button's
// callback data as "\f<unique>|<data>" when the markup is sent.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	kb := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		kb[i] = make([]tele.InlineButton, len(row))
		for j, b := range row {
			kb[i][j] = tele.InlineButton{Text: b.Text, Unique: b.Unique, Data: b.Data}
		}
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}
