package models

// Bucket is one of the status groupings used for unread badges. Assigned
// orders count toward the pending bucket on the buyer side: from the buyer's
// point of view the order is still "on the way".
type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketCompleted Bucket = "completed"
	BucketCancelled Bucket = "cancelled"
)

// Buckets lists all buckets in display order.
var Buckets = []Bucket{BucketPending, BucketCompleted, BucketCancelled}

// BucketFor maps an order status onto its notification bucket.
func BucketFor(s Status) Bucket {
	switch s {
	case StatusCompleted:
		return BucketCompleted
	case StatusCancelled:
		return BucketCancelled
	default:
		return BucketPending
	}
}

// NotificationState is the persisted per-buyer unread bookkeeping. Unread
// holds the badge flag per bucket; Seen holds the order ids already
// attributed to a bucket so that only a genuinely new order re-arms a bucket
// the buyer has acknowledged.
type NotificationState struct {
	Unread map[Bucket]bool     `json:"unread"`
	Seen   map[Bucket][]string `json:"seen"`
}

// NewNotificationState starts with every bucket flagged, matching a first
// visit where everything is news.
func NewNotificationState() NotificationState {
	n := NotificationState{
		Unread: make(map[Bucket]bool, len(Buckets)),
		Seen:   make(map[Bucket][]string, len(Buckets)),
	}
	for _, b := range Buckets {
		n.Unread[b] = true
	}
	return n
}

// Normalize fills in maps lost to JSON round-trips of older payloads.
func (n *NotificationState) Normalize() {
	if n.Unread == nil {
		n.Unread = make(map[Bucket]bool, len(Buckets))
	}
	if n.Seen == nil {
		n.Seen = make(map[Bucket][]string, len(Buckets))
	}
}

// HasSeen reports whether the order id was already attributed to the bucket.
func (n *NotificationState) HasSeen(b Bucket, orderID string) bool {
	for _, id := range n.Seen[b] {
		if id == orderID {
			return true
		}
	}
	return false
}
