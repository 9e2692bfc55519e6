package rabbitmq

// NotificationsExchange обменник, в который сайт публикует письма.
const NotificationsExchange = "notifications"

const (
	MailQueue      = "notification.mail"
	MailRoutingKey = "mail"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: MailQueue, RoutingKey: MailRoutingKey},
	}
}
