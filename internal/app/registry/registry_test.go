package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	id string
}

func (f *fakeClient) ID() string                             { return f.id }
func (f *fakeClient) Send(_ context.Context, _ []byte) error { return nil }
func (f *fakeClient) Close()                                 {}

func TestRegister_Lookup(t *testing.T) {
	req := require.New(t)
	r := New()
	c := &fakeClient{id: "conn-1"}

	_, ok := r.Lookup("u1")
	req.False(ok)

	r.Register("u1", c)
	got, ok := r.Lookup("u1")
	req.True(ok)
	req.Same(c, got)
}

func TestRegister_Idempotent(t *testing.T) {
	req := require.New(t)
	r := New()
	c := &fakeClient{id: "conn-1"}

	r.Register("u1", c)
	r.Register("u1", c)
	r.Register("u1", c)

	got, ok := r.Lookup("u1")
	req.True(ok)
	req.Same(c, got)
	req.Equal([]string{"u1"}, r.Online())
}

func TestRegister_LastWriteWins(t *testing.T) {
	req := require.New(t)
	r := New()
	c1 := &fakeClient{id: "conn-1"}
	c2 := &fakeClient{id: "conn-2"}

	r.Register("u1", c1)
	r.Register("u1", c2)

	got, ok := r.Lookup("u1")
	req.True(ok)
	req.Same(c2, got)

	// the superseded connection no longer owns an entry
	r.Unregister(c1)
	got, ok = r.Lookup("u1")
	req.True(ok)
	req.Same(c2, got)
}

func TestUnregister(t *testing.T) {
	req := require.New(t)
	r := New()
	c := &fakeClient{id: "conn-1"}

	r.Register("u1", c)
	r.Unregister(c)
	_, ok := r.Lookup("u1")
	req.False(ok)
	req.Empty(r.Online())
}

func TestUnregister_UnknownConnectionIsNoOp(t *testing.T) {
	req := require.New(t)
	r := New()
	c := &fakeClient{id: "conn-1"}
	stranger := &fakeClient{id: "conn-9"}

	r.Register("u1", c)
	r.Unregister(stranger)
	r.Unregister(stranger)

	got, ok := r.Lookup("u1")
	req.True(ok)
	req.Same(c, got)
}

func TestRegister_ConnectionRebindsIdentity(t *testing.T) {
	req := require.New(t)
	r := New()
	c := &fakeClient{id: "conn-1"}

	r.Register("u1", c)
	r.Register("u2", c)

	_, ok := r.Lookup("u1")
	req.False(ok, "old identity must be unbound when the connection re-registers")
	got, ok := r.Lookup("u2")
	req.True(ok)
	req.Same(c, got)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", n%10)
			c := &fakeClient{id: fmt.Sprintf("conn-%d", n)}
			r.Register(user, c)
			r.Lookup(user)
			r.Online()
			r.Unregister(c)
		}(i)
	}
	wg.Wait()
}
