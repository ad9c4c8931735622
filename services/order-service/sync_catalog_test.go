package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

type sliceSource []models.Product

func (s sliceSource) EachProduct(ctx context.Context, batchSize int32, fn func(*models.Product) error) error {
	for i := range s {
		if err := fn(&s[i]); err != nil {
			return err
		}
	}
	return nil
}

type mapSink struct {
	items map[string]models.Product
	fail  map[string]bool
}

func (m *mapSink) PutProduct(ctx context.Context, p *models.Product) error {
	if m.fail[p.ID] {
		return errors.New("throttled")
	}
	m.items[p.ID] = *p
	return nil
}

func TestSyncCatalog(t *testing.T) {
	src := sliceSource{
		{ID: "p-1", Title: "Kettle", Stock: 5},
		{ID: "", Title: "Orphan"},
		{ID: "p-2", Title: "Mug", Stock: 1},
		{ID: "p-3", Title: "Pan", Stock: 2},
	}
	dst := &mapSink{items: map[string]models.Product{}, fail: map[string]bool{"p-3": true}}

	n, err := syncCatalog(context.Background(), src, dst, 10, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, dst.items["p-1"].Stock)
	assert.Contains(t, dst.items, "p-2")
	assert.NotContains(t, dst.items, "p-3")
}
