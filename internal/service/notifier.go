package service

import "go-printshop-ws/internal/ws"

// Notifier receives post-commit change notifications. *ws.Hub implements it.
type Notifier interface {
	Publish(msg ws.Message)
}

type nopNotifier struct{}

func (nopNotifier) Publish(ws.Message) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
