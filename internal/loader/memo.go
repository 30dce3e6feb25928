package loader

import (
	gcache "github.com/patrickmn/go-cache"
)

// idMemo remembers dimension ids resolved earlier in the same batch. It lives
// for one Load call only, so ids from a rolled back transaction never leak.
type idMemo struct {
	c *gcache.Cache
}

func newIDMemo() *idMemo {
	return &idMemo{c: gcache.New(gcache.NoExpiration, 0)}
}

func (m *idMemo) resolve(kind, key string, fn func() (int64, error)) (int64, error) {
	k := kind + "\x00" + key
	if v, ok := m.c.Get(k); ok {
		return v.(int64), nil
	}

	id, err := fn()
	if err != nil {
		return 0, err
	}
	m.c.Set(k, id, gcache.NoExpiration)
	return id, nil
}
