// Package notify is the change broadcaster: it turns committed mutations into
// wire envelopes and hands them to the hub. It is invoked synchronously after
// the mutation persists, so same-request events keep their emission order;
// delivery itself is best effort and never fails the request path.
package notify

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/event"
)

type Broadcaster interface {
	Broadcast(payload []byte)
}

// envelope is the server push frame: {"type":"changes","data":{...}}.
type envelope struct {
	Type string  `json:"type"`
	Data payload `json:"data"`
}

type payload struct {
	Action    event.Kind      `json:"action"`
	Resource  string          `json:"resource"`
	Body      event.Event     `json:"body"`
	Initiator event.Initiator `json:"initiator"`
	CreatedAt time.Time       `json:"created_at"`
}

type Notifier struct {
	hub Broadcaster
}

func NewNotifier(hub Broadcaster) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Publish(ev event.Event) {
	env := envelope{
		Type: "changes",
		Data: payload{
			Action:    ev.Kind(),
			Resource:  "/api/requests/" + ev.ResourceID(),
			Body:      ev,
			Initiator: ev.Who(),
			CreatedAt: time.Now().UTC(),
		},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		logrus.Errorf("marshal %s event for request %s: %v", ev.Kind(), ev.ResourceID(), err)
		return
	}
	n.hub.Broadcast(raw)
}
