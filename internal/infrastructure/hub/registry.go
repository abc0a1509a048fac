package hub

import (
	"sort"
	"sync"

	"go-group-relay/internal/infrastructure/logger"
)

// GroupInfo is a point-in-time view of one group.
type GroupInfo struct {
	GroupID string `json:"group_id"`
	Members int    `json:"members"`
}

// Registry tracks which connections belong to which group.
//
// A group exists only while it has members: the last Unregister removes its
// entry, so an absent group and an empty group are the same state.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[string]Connection
	total  int

	logger   logger.Logger
	recorder Recorder
}

// NewRegistry creates an empty registry. A nil recorder disables metrics.
func NewRegistry(log logger.Logger, recorder Recorder) *Registry {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Registry{
		groups:   make(map[string]map[string]Connection),
		logger:   log.WithField("component", "registry"),
		recorder: recorder,
	}
}

// Register adds conn to groupID's member set, creating the group if needed.
// Members are keyed by connection ID, so registering the same handle twice
// leaves a single entry.
func (r *Registry) Register(groupID string, conn Connection) {
	r.mu.Lock()
	members, exists := r.groups[groupID]
	if !exists {
		members = make(map[string]Connection)
		r.groups[groupID] = members
	}
	if _, dup := members[conn.ID()]; !dup {
		r.total++
	}
	members[conn.ID()] = conn
	count := len(members)
	r.recorder.MembershipChanged(len(r.groups), r.total)
	r.mu.Unlock()

	r.logger.Infof("Connection %s joined group %s (members: %d)", conn.ID(), groupID, count)
}

// Unregister removes conn from groupID. Unknown groups and connections are
// ignored, so repeated calls are harmless. A different handle registered
// under the same ID since then is left in place.
func (r *Registry) Unregister(groupID string, conn Connection) {
	r.mu.Lock()
	members, exists := r.groups[groupID]
	if !exists {
		r.mu.Unlock()
		return
	}
	if current, ok := members[conn.ID()]; !ok || current != conn {
		r.mu.Unlock()
		return
	}
	delete(members, conn.ID())
	r.total--
	count := len(members)
	if count == 0 {
		delete(r.groups, groupID)
	}
	r.recorder.MembershipChanged(len(r.groups), r.total)
	r.mu.Unlock()

	r.logger.Infof("Connection %s left group %s (remaining: %d)", conn.ID(), groupID, count)
}

// MembersOf returns a snapshot of groupID's members. The slice is freshly
// allocated on every call; later registry changes never show up in it.
func (r *Registry) MembersOf(groupID string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[groupID]
	snapshot := make([]Connection, 0, len(members))
	for _, conn := range members {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// Prune unregisters every member for which remove returns true and reports
// how many were dropped.
func (r *Registry) Prune(remove func(groupID string, conn Connection) bool) int {
	r.mu.Lock()
	pruned := 0
	for groupID, members := range r.groups {
		for id, conn := range members {
			if remove(groupID, conn) {
				delete(members, id)
				r.total--
				pruned++
			}
		}
		if len(members) == 0 {
			delete(r.groups, groupID)
		}
	}
	if pruned > 0 {
		r.recorder.MembershipChanged(len(r.groups), r.total)
	}
	r.mu.Unlock()

	if pruned > 0 {
		r.logger.Infof("Pruned %d connections", pruned)
	}
	return pruned
}

// Groups lists the current groups ordered by id.
func (r *Registry) Groups() []GroupInfo {
	r.mu.RLock()
	infos := make([]GroupInfo, 0, len(r.groups))
	for groupID, members := range r.groups {
		infos = append(infos, GroupInfo{GroupID: groupID, Members: len(members)})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].GroupID < infos[j].GroupID })
	return infos
}

func (r *Registry) GroupCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}
