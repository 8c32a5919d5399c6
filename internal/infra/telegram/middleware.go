package telegram

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OperatorsOnly drops updates from anyone who is not a configured operator.
func OperatorsOnly(isOperator func(int64) bool, logger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil || !isOperator(sender.ID) {
				fields := logrus.Fields{"text": c.Text()}
				if sender != nil {
					fields["sender_id"] = sender.ID
				}
				logger.WithFields(fields).Warn("Unauthorized access attempt")
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: "Brak uprawnien."})
				}
				return c.Send("Ta komenda jest dostepna tylko dla operatorow.")
			}
			return next(c)
		}
	}
}
