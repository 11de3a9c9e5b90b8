// Package roster tracks which tenant users are currently reachable for
// chat. The list is owned by the backend's presence service; this side
// only mirrors the snapshots it pushes and never mutates entries.
package roster

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"chatsync/internal/transport"
)

// OnlineUser is one reachable counterpart.
type OnlineUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Email       string `json:"email,omitempty"`
}

type presencePayload struct {
	Users []OnlineUser `json:"users"`
}

// Roster is the read-only mirror of the presence list.
type Roster struct {
	mu    sync.RWMutex
	users map[string]OnlineUser
}

func New() *Roster {
	return &Roster{
		users: make(map[string]OnlineUser),
	}
}

// HandleEvent consumes presence snapshots from the transport. Payloads
// that are not presence snapshots are ignored.
func (r *Roster) HandleEvent(ev transport.Event) {
	var payload presencePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		log.Printf("roster: ignoring malformed presence payload: %v", err)
		return
	}
	if payload.Users == nil {
		return
	}
	r.Replace(payload.Users)
}

// Replace swaps the whole roster for a new snapshot. Entries without an id
// are dropped.
func (r *Roster) Replace(users []OnlineUser) {
	next := make(map[string]OnlineUser, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		next[u.ID] = u
	}

	r.mu.Lock()
	r.users = next
	r.mu.Unlock()
}

// Users returns a snapshot sorted by display name.
func (r *Roster) Users() []OnlineUser {
	r.mu.RLock()
	out := make([]OnlineUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get looks one user up by id.
func (r *Roster) Get(id string) (OnlineUser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}
