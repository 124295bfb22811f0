package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"newvision-backend/internal/models"
)

// Channel returns the pub/sub channel carrying one user's chat events.
func Channel(userID uuid.UUID) string {
	return "chat_updates:" + userID.String()
}

// Event is one user-scoped chat update bound for connected clients.
type Event struct {
	UserID  uuid.UUID
	Message models.WSMessage
}

// Dispatcher drains an in-process event channel into Redis pub/sub with a
// small publisher pool, keeping the send path free of Redis round trips.
// Publish never blocks the caller: when the buffer is full the event is
// dropped, since clients reload state on navigation anyway.
type Dispatcher struct {
	redis       *redis.Client
	events      chan Event
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewDispatcher(redisClient *redis.Client, workerCount, buffer int) *Dispatcher {
	return &Dispatcher{
		redis:       redisClient,
		events:      make(chan Event, buffer),
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	log.Printf("Started %d event publisher goroutines", d.workerCount)
}

// Stop shuts the publishers down after the queued events drain.
func (d *Dispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.events <- ev:
	default:
		log.Printf("event queue full, dropping %s for user %s", ev.Message.Type, ev.UserID)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.events:
			d.publish(ev)
		case <-d.stopChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case ev := <-d.events:
					d.publish(ev)
				default:
					log.Printf("Event publisher %d shutting down", id)
					return
				}
			}
		}
	}
}

func (d *Dispatcher) publish(ev Event) {
	data, err := json.Marshal(ev.Message)
	if err != nil {
		log.Printf("failed to encode %s event: %v", ev.Message.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.redis.Publish(ctx, Channel(ev.UserID), string(data)).Err(); err != nil {
		log.Printf("failed to publish %s event for user %s: %v", ev.Message.Type, ev.UserID, err)
	}
}
