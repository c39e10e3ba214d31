package ledger

// EventKind identifies what changed in the catalog.
type EventKind string

const (
	BookStockUpdated EventKind = "book_stock_updated"
	BookAdded        EventKind = "book_added"
	BookDeleted      EventKind = "book_deleted"
	BookImported     EventKind = "book_imported"
)

// Event carries enough context for an observer to refresh its view without
// re-querying the store.
type Event struct {
	Kind         EventKind
	BookID       int64
	Title        string
	Author       string
	OldAvailable int
	NewAvailable int
	OldTotal     int
	NewTotal     int
}

// Observer receives inventory-changed events after each committed mutation.
type Observer interface {
	OnInventoryChanged(ev Event)
}

// Notifier is a process-local publish/subscribe hub. Publish is synchronous
// and runs strictly after the mutation has been persisted, so an observer
// failure is a display concern, never a correctness concern.
type Notifier struct {
	observers []Observer
}

// NewNotifier returns a hub with no observers.
func NewNotifier() *Notifier { return &Notifier{} }

// Subscribe registers an observer. Registering the same observer twice is a
// no-op; delivery order is registration order.
func (n *Notifier) Subscribe(obs Observer) {
	for _, o := range n.observers {
		if o == obs {
			return
		}
	}
	n.observers = append(n.observers, obs)
}

// Unsubscribe removes an observer. Unknown observers are ignored.
func (n *Notifier) Unsubscribe(obs Observer) {
	for i, o := range n.observers {
		if o == obs {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every observer in registration order. A panicking
// observer is logged and skipped; the remaining observers still run.
func (n *Notifier) Publish(ev Event) {
	for _, o := range n.observers {
		n.deliver(o, ev)
	}
}

func (n *Notifier) deliver(o Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().
				Str("event", string(ev.Kind)).
				Int64("book_id", ev.BookID).
				Any("panic", r).
				Msg("observer panicked during publish")
		}
	}()
	o.OnInventoryChanged(ev)
}
