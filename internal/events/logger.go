package events

import (
	"github.com/sirupsen/logrus"
)

func logEvent(log logrus.FieldLogger, evt Event) {
	entry := log.WithFields(logrus.Fields{
		"event":   evt.Name,
		"session": evt.SessionKey,
	})

	switch data := evt.Data.(type) {
	case PhaseData:
		entry.WithFields(logrus.Fields{"phase": data.Phase, "status": data.Status}).Debug(data.Message)
	case ErrorData:
		entry.WithField("detail", data.Detail).Error(data.Message)
	case MessageData:
		entry.WithField("kind", data.Kind).Debug(data.Content)
	default:
		entry.Debug("event")
	}
}
