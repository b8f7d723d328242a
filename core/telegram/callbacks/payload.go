package callbacks

import tele "gopkg.in/telebot.v4"

const answeredKey = "cb_answered"

// Respond answers the current callback query and remembers that it was answered,
// so the router does not send a second, empty answer.
func Respond(c tele.Context, resp ...*tele.CallbackResponse) error {
	c.Set(answeredKey, true)
	return c.Respond(resp...)
}

// Alert answers the current callback with a modal alert.
func Alert(c tele.Context, text string) error {
	return Respond(c, &tele.CallbackResponse{Text: text, ShowAlert: true})
}

// Notify answers the current callback with a short toast.
func Notify(c tele.Context, text string) error {
	return Respond(c, &tele.CallbackResponse{Text: text})
}

// Answered reports whether a handler already answered the callback.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}
