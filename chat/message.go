package chat

import "time"

// MaxMessages bounds the retained message list.
const MaxMessages = 50

// Message is a single live chat message as returned by the platform.
type Message struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// Fresh returns the entries of batch whose IDs are not present in existing,
// in batch order. Duplicates inside batch itself are collapsed to the first.
func Fresh(existing, batch []Message) []Message {
	out := make([]Message, 0, len(batch))
	for _, m := range batch {
		if containsID(existing, m.ID) || containsID(out, m.ID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Merge prepends the unseen messages of batch to existing and truncates the
// result to limit entries. Neither input slice is modified.
func Merge(existing, batch []Message, limit int) []Message {
	if limit <= 0 {
		limit = MaxMessages
	}
	fresh := Fresh(existing, batch)
	if len(fresh) == 0 && len(existing) <= limit {
		return existing
	}
	n := len(fresh) + len(existing)
	if n > limit {
		n = limit
	}
	out := make([]Message, 0, n)
	out = append(out, fresh...)
	if len(out) > n {
		out = out[:n]
	}
	for _, m := range existing {
		if len(out) == n {
			break
		}
		out = append(out, m)
	}
	return out
}

func containsID(list []Message, id string) bool {
	for _, m := range list {
		if m.ID == id {
			return true
		}
	}
	return false
}
