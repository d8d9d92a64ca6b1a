// ABOUTME: Tests for hook state transitions
// ABOUTME: Uses stub fetch functions to observe loading, data and error states
package hooks

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
	"github.com/harperreed/mbgctl/fakeapi"
	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
	"github.com/harperreed/mbgctl/session"
)

type item struct{ Name string }

func TestQueryStates(t *testing.T) {
	var during State[item]
	var q *Query[item]
	q = NewQuery(func(ctx context.Context) (*item, error) {
		during = q.State()
		return &item{Name: "x"}, nil
	})

	var changes int
	q.OnChange(func() { changes++ })

	got, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
	assert.True(t, during.Loading)
	assert.Equal(t, State[item]{Data: got}, q.State())
	assert.Equal(t, 2, changes)
}

func TestQueryErrorKeepsMessage(t *testing.T) {
	boom := errors.New("boom")
	q := NewQuery(func(ctx context.Context) (*item, error) { return nil, boom })

	_, err := q.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, State[item]{Error: "boom"}, q.State())
}

func TestListPaging(t *testing.T) {
	var asked []resources.Page
	l := NewList(func(ctx context.Context, p resources.Page) (*resources.Listing[item], error) {
		asked = append(asked, p)
		if p.Page > 1 {
			return nil, errors.New("no such page")
		}
		return &resources.Listing[item]{Items: []item{{"a"}, {"b"}}, TotalElements: 12}, nil
	})

	_, err := l.Fetch(context.Background())
	require.NoError(t, err)
	s := l.State()
	assert.Equal(t, 0, s.Page)
	assert.Equal(t, 10, s.Size)
	assert.Equal(t, int64(12), s.Total)
	assert.Len(t, s.Items, 2)

	_, err = l.FetchPage(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, l.State().Page)

	_, err = l.FetchPage(context.Background(), 7, 5)
	require.Error(t, err)
	s = l.State()
	assert.Equal(t, "no such page", s.Error)
	assert.Empty(t, s.Items)
	assert.Equal(t, 1, s.Page, "failed fetch keeps the last good page")

	assert.Equal(t, []resources.Page{{Page: 0, Size: 10}, {Page: 1, Size: 5}, {Page: 7, Size: 5}}, asked)
}

func TestDeleteTreatsNotFoundAsDone(t *testing.T) {
	d := NewDelete(func(ctx context.Context, id string) error {
		return &api.Error{Kind: api.KindNotFound, StatusCode: 404}
	})
	require.NoError(t, d.Delete(context.Background(), "gone"))
	assert.Empty(t, d.State().Error)

	d = NewDelete(func(ctx context.Context, id string) error {
		return &api.Error{Kind: api.KindServer, StatusCode: 500, Message: "down"}
	})
	err := d.Delete(context.Background(), "x")
	assert.True(t, errors.Is(err, api.ErrServer))
	assert.NotEmpty(t, d.State().Error)
}

func TestForResourceAgainstBackend(t *testing.T) {
	srv := httptest.NewServer(fakeapi.New().Handler())
	defer srv.Close()

	store := credentials.NewMemoryStore()
	client, err := api.New(srv.URL+fakeapi.BasePath, store)
	require.NoError(t, err)

	mgr := session.NewManager(client, session.WithPath(""))
	_, err = session.NewSynchronizer(store, nil).Attach(mgr)
	require.NoError(t, err)
	_, err = mgr.Login(context.Background(), fakeapi.DefaultEmail, fakeapi.DefaultPassword)
	require.NoError(t, err)

	crud := ForResource(resources.NewSchools(client))
	ctx := context.Background()

	_, err = crud.List.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, crud.List.State().Items)

	created, err := crud.Create.Create(ctx, models.CreateSchoolRequest{Name: "SDN 2"})
	require.NoError(t, err)
	assert.Equal(t, created, crud.Create.State().Data)

	_, err = crud.Update.Update(ctx, created.ID, models.CreateSchoolRequest{Name: "SDN 2 Baru"})
	require.NoError(t, err)

	got, err := crud.Get(created.ID).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SDN 2 Baru", got.Name)

	require.NoError(t, crud.Delete.Delete(ctx, created.ID))
	require.NoError(t, crud.Delete.Delete(ctx, created.ID))

	_, err = crud.Get(created.ID).Fetch(ctx)
	assert.True(t, api.IsNotFound(err))

	_, err = crud.List.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, crud.List.State().Items)
	assert.Equal(t, int64(0), crud.List.State().Total)
}
