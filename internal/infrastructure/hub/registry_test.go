package hub

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-group-relay/internal/infrastructure/logger"
)

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	tests := []struct {
		name  string
		ops   func(r *Registry, a, b Connection)
		group string
		want  []string
	}{
		{
			name: "register two members",
			ops: func(r *Registry, a, b Connection) {
				r.Register("lobby", a)
				r.Register("lobby", b)
			},
			group: "lobby",
			want:  []string{"a", "b"},
		},
		{
			name: "unregister one member",
			ops: func(r *Registry, a, b Connection) {
				r.Register("lobby", a)
				r.Register("lobby", b)
				r.Unregister("lobby", a)
			},
			group: "lobby",
			want:  []string{"b"},
		},
		{
			name: "double unregister equals single unregister",
			ops: func(r *Registry, a, b Connection) {
				r.Register("lobby", a)
				r.Register("lobby", b)
				r.Unregister("lobby", a)
				r.Unregister("lobby", a)
			},
			group: "lobby",
			want:  []string{"b"},
		},
		{
			name: "unregister from unknown group is a no-op",
			ops: func(r *Registry, a, b Connection) {
				r.Register("lobby", a)
				r.Unregister("other", a)
			},
			group: "lobby",
			want:  []string{"a"},
		},
		{
			name: "duplicate register keeps one entry",
			ops: func(r *Registry, a, b Connection) {
				r.Register("lobby", a)
				r.Register("lobby", a)
			},
			group: "lobby",
			want:  []string{"a"},
		},
		{
			name:  "unknown group is empty",
			ops:   func(r *Registry, a, b Connection) {},
			group: "nobody-here",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			tt.ops(r, newMockConnection("a"), newMockConnection("b"))

			members := r.MembersOf(tt.group)
			require.NotNil(t, members)
			assert.ElementsMatch(t, tt.want, memberIDs(members))
		})
	}
}

func TestRegistry_UnregisterKeepsReplacementHandle(t *testing.T) {
	r := newTestRegistry()
	old, replacement := newMockConnection("a"), newMockConnection("a")

	r.Register("lobby", old)
	r.Register("lobby", replacement)
	r.Unregister("lobby", old)

	members := r.MembersOf("lobby")
	require.Len(t, members, 1)
	assert.Same(t, replacement, members[0])
	assert.Equal(t, 1, r.ConnectionCount())
}

func TestRegistry_EmptyGroupIsPruned(t *testing.T) {
	r := newTestRegistry()
	a := newMockConnection("a")

	r.Register("lobby", a)
	assert.Equal(t, 1, r.GroupCount())
	assert.Equal(t, 1, r.ConnectionCount())

	r.Unregister("lobby", a)
	assert.Equal(t, 0, r.GroupCount())
	assert.Equal(t, 0, r.ConnectionCount())
	assert.Empty(t, r.Groups())
}

func TestRegistry_SnapshotIsNotAffectedByLaterChanges(t *testing.T) {
	r := newTestRegistry()
	a, b := newMockConnection("a"), newMockConnection("b")
	r.Register("lobby", a)
	r.Register("lobby", b)

	snapshot := r.MembersOf("lobby")

	r.Unregister("lobby", a)
	r.Register("lobby", newMockConnection("c"))

	assert.ElementsMatch(t, []string{"a", "b"}, memberIDs(snapshot))
	assert.ElementsMatch(t, []string{"b", "c"}, memberIDs(r.MembersOf("lobby")))
}

func TestRegistry_SnapshotsDoNotShareStorage(t *testing.T) {
	r := newTestRegistry()
	r.Register("lobby", newMockConnection("a"))

	first := r.MembersOf("lobby")
	first[0] = newMockConnection("mutated")

	assert.Equal(t, []string{"a"}, memberIDs(r.MembersOf("lobby")))
}

func TestRegistry_Groups(t *testing.T) {
	r := newTestRegistry()
	r.Register("b-group", newMockConnection("1"))
	r.Register("a-group", newMockConnection("2"))
	r.Register("a-group", newMockConnection("3"))

	assert.Equal(t, []GroupInfo{
		{GroupID: "a-group", Members: 2},
		{GroupID: "b-group", Members: 1},
	}, r.Groups())
}

func TestRegistry_Prune(t *testing.T) {
	r := newTestRegistry()
	open := newMockConnection("open")
	closed := newMockConnection("closed")
	closed.Close()
	alone := newMockConnection("alone")
	alone.Close()

	r.Register("lobby", open)
	r.Register("lobby", closed)
	r.Register("quiet", alone)

	pruned := r.Prune(func(_ string, c Connection) bool { return c.IsClosed() })

	assert.Equal(t, 2, pruned)
	assert.Equal(t, []string{"open"}, memberIDs(r.MembersOf("lobby")))
	assert.Equal(t, 1, r.GroupCount())
	assert.Equal(t, 1, r.ConnectionCount())
}

func TestRegistry_ConcurrentRegisterUnregisterMatchesReplay(t *testing.T) {
	r := newTestRegistry()

	const workers = 16
	const perWorker = 50

	// each worker owns its connections; odd-numbered ones leave again
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			conns := make([]*mockConnection, perWorker)
			for i := range conns {
				conns[i] = newMockConnection(fmt.Sprintf("w%d-c%d", w, i))
				r.Register("lobby", conns[i])
				_ = r.MembersOf("lobby")
			}
			order := rand.Perm(perWorker)
			for _, i := range order {
				if i%2 == 1 {
					r.Unregister("lobby", conns[i])
					r.Unregister("lobby", conns[i])
				}
			}
		}(w)
	}
	wg.Wait()

	var want []string
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i += 2 {
			want = append(want, fmt.Sprintf("w%d-c%d", w, i))
		}
	}

	assert.ElementsMatch(t, want, memberIDs(r.MembersOf("lobby")))
	assert.Equal(t, len(want), r.ConnectionCount())
}

type countingRecorder struct {
	mu          sync.Mutex
	groups      int
	connections int
	broadcasts  int
}

func (c *countingRecorder) MembershipChanged(groups, connections int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups, c.connections = groups, connections
}

func (c *countingRecorder) BroadcastCompleted(*DeliveryReport, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcasts++
}

func TestRegistry_ReportsMembershipToRecorder(t *testing.T) {
	rec := &countingRecorder{}
	r := NewRegistry(logger.NewNopLogger(), rec)

	a := newMockConnection("a")
	r.Register("lobby", a)
	r.Register("other", newMockConnection("b"))
	assert.Equal(t, 2, rec.groups)
	assert.Equal(t, 2, rec.connections)

	r.Unregister("lobby", a)
	assert.Equal(t, 1, rec.groups)
	assert.Equal(t, 1, rec.connections)
}
