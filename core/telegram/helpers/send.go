package helpers

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/logger"
)

// SendText sends raw text (no parse mode) to the current recipient with optional reply markup.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var err error
	if len(markup) > 0 && markup[0] != nil {
		err = c.Send(text, markup[0])
	} else {
		err = c.Send(text)
	}
	if err != nil {
		logger.LogEvent(BuildContext(c), logger.TG, slog.LevelWarn, "send.text",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}
	return err
}

// EditText replaces the text of the message the current callback belongs to and drops its inline keyboard.
func EditText(c tele.Context, text string) error {
	err := c.Edit(text, &tele.ReplyMarkup{})
	if err != nil {
		logger.LogEvent(BuildContext(c), logger.TG, slog.LevelWarn, "send.edit",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}
	return err
}
