package quizbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/access"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/quiz"
)

const callbackAccess = "access"

// Texts that do not belong to the quiz or access domains.
const (
	TextSendStart      = "Send /start to begin."
	TextTryLater       = "⚠️ Something went wrong. Please try again later."
	TextAdminUnreached = "⚠️ Could not reach the administrator. Please try again later."
	TextSlowDown       = "Too many requests. Please slow down."
	TextSaveFailed     = "Could not save the decision. Try again."
	TextStaleButton    = "This button is no longer active."
)

var errNoMessenger = errors.New("quizbot: messenger not ready")

func (a *App) handleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	allowed, err := a.gate.IsAllowed(ctx, sender.ID)
	if err != nil {
		_ = tghelpers.SendText(c, TextTryLater)
		return err
	}
	if allowed {
		return a.sendReplies(c, a.engine.Begin(ctx, sender.ID))
	}
	return a.requestAccess(ctx, c, sender)
}

// requestAccess forwards an approval prompt to the administrator. The user stays idle.
func (a *App) requestAccess(ctx context.Context, c tele.Context, sender *tele.User) error {
	prompt, err := a.gate.RequestAccess(ctx, access.Requester{
		ID:       sender.ID,
		Name:     strings.TrimSpace(sender.FirstName + " " + sender.LastName),
		Username: sender.Username,
	})
	if err != nil {
		_ = tghelpers.SendText(c, TextTryLater)
		return err
	}

	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: access.TextAllowButton, Unique: callbackAccess, Data: prompt.Allow.Payload()},
		{Text: access.TextDenyButton, Unique: callbackAccess, Data: prompt.Deny.Payload()},
	})
	if err := a.sendTo(ctx, prompt.AdminID, prompt.Text, markup); err != nil {
		_ = tghelpers.SendText(c, TextAdminUnreached)
		return fmt.Errorf("send approval prompt: %w", err)
	}
	return tghelpers.SendText(c, access.TextRequestSent)
}

func (a *App) handleCancel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return a.sendReplies(c, a.engine.Cancel(tghelpers.BuildContext(c), sender.ID))
}

func (a *App) handleQuizText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	replies := a.engine.Handle(tghelpers.BuildContext(c), sender.ID, c.Text())
	if replies == nil {
		return a.handleIdleText(c)
	}
	return a.sendReplies(c, replies...)
}

func (a *App) handleIdleText(c tele.Context) error {
	return tghelpers.SendText(c, TextSendStart)
}

func (a *App) handleAccessDecision(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	d, err := access.ParseDecision(callbacks.CallbackPayload(c))
	if err != nil {
		logger.LogEvent(ctx, logger.Access, slog.LevelWarn, "access.decision",
			slog.String("status", "fail"),
			slog.String("reason", "invalid_payload"),
			slog.Any("err", err),
		)
		return callbacks.Alert(c, access.TextBadDecision)
	}

	out, err := a.gate.Resolve(ctx, d)
	if err != nil {
		_ = callbacks.Alert(c, TextSaveFailed)
		return err
	}

	if err := a.sendTo(ctx, d.UserID, out.UserText, nil); err != nil {
		logger.LogEvent(ctx, logger.Access, slog.LevelWarn, "access.notify",
			slog.String("status", "fail"),
			slog.Int64("target_user_id", d.UserID),
			slog.Any("err", err),
		)
	}
	return tghelpers.EditText(c, out.AdminText)
}

func rejectNonAdmin(c tele.Context) error {
	if c.Callback() != nil {
		return callbacks.Alert(c, access.TextNotAdmin)
	}
	return tghelpers.SendText(c, access.TextNotAdmin)
}

func handleStaleButton(c tele.Context) error {
	return callbacks.Alert(c, TextStaleButton)
}

func onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return callbacks.Notify(c, TextSlowDown)
	}
	return tghelpers.SendText(c, TextSlowDown)
}

// sendReplies delivers engine replies in order and stops at the first failure.
func (a *App) sendReplies(c tele.Context, replies ...quiz.Reply) error {
	for _, r := range replies {
		if err := tghelpers.SendText(c, r.Text, replyMarkup(r)); err != nil {
			return err
		}
	}
	return nil
}

func replyMarkup(r quiz.Reply) *tele.ReplyMarkup {
	switch {
	case len(r.Menu) > 0:
		return keyboard.OneTimeMenu(r.Menu)
	case r.RemoveKeyboard:
		return keyboard.RemoveKeyboard()
	}
	return nil
}

func (a *App) sendTo(ctx context.Context, userID int64, text string, markup *tele.ReplyMarkup) error {
	m := a.outbound()
	if m == nil {
		return errNoMessenger
	}
	var err error
	if markup != nil {
		_, err = m.Send(tele.ChatID(userID), text, markup)
	} else {
		_, err = m.Send(tele.ChatID(userID), text)
	}
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "send.direct",
		slog.String("status", status),
		slog.Int64("target_user_id", userID),
	)
	return err
}
