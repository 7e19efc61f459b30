package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Costeo-api/internal/domain"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
)

func TestDecodeBatchChange_Update(t *testing.T) {
	payload := `{
		"table": "batch_manufacturing_records",
		"type": "UPDATE",
		"old": {"id": "b-1", "product_id": "p-1", "batch_size": 50, "bags_count": 4,
		        "batch_started": "2026-03-01T08:00:00+00:00", "batch_finished": null,
		        "ingredients": [{"raw_material_id": "m-1", "quantity": 12.5}], "revision": 2,
		        "created_at": "2026-03-01T08:00:00.123456+00:00", "updated_at": "2026-03-01T08:00:00+00:00"},
		"new": {"id": "b-1", "product_id": "p-1", "batch_size": 50, "bags_count": null,
		        "batch_started": "2026-03-01T08:00:00+00:00", "batch_finished": "2026-03-01T10:30:00+00:00",
		        "ingredients": [{"raw_material_id": "m-1", "quantity": "12.5"}], "revision": 3,
		        "created_at": "2026-03-01T08:00:00+00:00", "updated_at": "2026-03-01T10:30:00+00:00"}
	}`

	ev, err := DecodeBatchChange([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, entity.ChangeUpdate, ev.Type)

	require.NotNil(t, ev.Old)
	assert.False(t, ev.Old.IsFinished())
	assert.Equal(t, 4, ev.Old.Bags())

	require.NotNil(t, ev.New)
	assert.True(t, ev.New.IsFinished())
	assert.Equal(t, 1, ev.New.Bags(), "bags_count nulo cuenta como 1")
	assert.Equal(t, "50", ev.New.BatchSize.String())
	require.Len(t, ev.New.Ingredients, 1)
	assert.Equal(t, "m-1", ev.New.Ingredients[0].RawMaterialID)
	assert.Equal(t, "12.5", ev.New.Ingredients[0].Quantity.String())
	assert.Equal(t, 10, ev.New.UpdatedAt.Hour())
	assert.Equal(t, int64(2), ev.Old.Revision)
	assert.Equal(t, int64(3), ev.New.Revision)
}

func TestDecodeBatchChange_Insert(t *testing.T) {
	ev, err := DecodeBatchChange([]byte(`{"table":"batch_manufacturing_records","type":"INSERT","old":null,
		"new":{"id":"b-2","product_id":"p-1","batch_size":10,"bags_count":2,"ingredients":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, entity.ChangeInsert, ev.Type)
	assert.Nil(t, ev.Old)
	assert.Equal(t, "b-2", ev.New.ID)
	assert.Empty(t, ev.New.Ingredients)
}

func TestDecodeBatchChange_Invalidos(t *testing.T) {
	cases := map[string]string{
		"json roto":      `{"type":`,
		"delete":         `{"table":"batch_manufacturing_records","type":"DELETE","old":{"id":"b-1"}}`,
		"otra tabla":     `{"table":"recipes","type":"INSERT","new":{"id":"r-1"}}`,
		"sin fila nueva": `{"table":"batch_manufacturing_records","type":"INSERT","new":null}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBatchChange([]byte(payload))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abc", 2))
}
