package app

import (
	"sync"

	"github.com/studyhall/studyhall/internal/api"
)

// NotifStore caches the latest polled notifications and (for admins) the
// unresolved moderation reports.
type NotifStore struct {
	mu      sync.Mutex
	items   []api.NotificationItem
	reports []api.Report
}

func NewNotifStore() *NotifStore {
	return &NotifStore{}
}

func (s *NotifStore) ApplyItems(items []api.NotificationItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *NotifStore) ApplyReports(reports []api.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = reports
}

func (s *NotifStore) Items() []api.NotificationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.NotificationItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *NotifStore) Reports() []api.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// UnreadCount counts notifications without a readAt stamp.
func (s *NotifStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.ReadAt == nil {
			n++
		}
	}
	return n
}

func (s *NotifStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.reports = nil
}
