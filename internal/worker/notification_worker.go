package worker

import (
	"github.com/SaschaHYR/G-Copro-sub000/internal/api/ws"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
)

// StartNotificationWorker subscribes the notification tracker and the
// websocket feed to the comment event stream.
func StartNotificationWorker(dispatcher events.Dispatcher, tracker *service.NotificationTracker, feed *ws.FeedServer) {
	if tracker != nil {
		tracker.RegisterHandlers(dispatcher)
	}
	if feed != nil {
		feed.RegisterHandlers(dispatcher)
	}
}
