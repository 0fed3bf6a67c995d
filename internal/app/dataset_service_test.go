package app_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
)

func TestAddItem_StoresFileAndRecounts(t *testing.T) {
	h := newHarness(t)

	item, err := h.dataItems.GetDataItem(context.Background(), h.items[0])
	require.NoError(t, err)
	assert.Equal(t, "img1.png", item.FileName)
	assert.Equal(t, "image/png", item.MimeType)
	assert.Equal(t, "pending", item.Status)
	assert.Equal(t, int64(len("fake image bytes for img1.png")), item.FileSize)

	rc, err := h.files.Open(context.Background(), item.FilePath)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes for img1.png", string(body))

	ds, err := h.datasets.GetDataset(context.Background(), h.datasetID)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.TotalItems)
}

func TestAddItem_ExplicitMimeType(t *testing.T) {
	h := newHarness(t)

	item, err := h.datasets.AddItem(h.as(h.manager), primary.AddItemRequest{
		DatasetID: h.datasetID,
		FileName:  "scan",
		MimeType:  "image/tiff",
		Content:   strings.NewReader("tiff"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/tiff", item.MimeType)
}

func TestAddItem_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.datasets.AddItem(h.as(h.annotator), primary.AddItemRequest{DatasetID: h.datasetID, FileName: "x.png", Content: strings.NewReader("x")})
	requireKind(t, err, errs.KindForbidden)

	_, err = h.datasets.AddItem(h.as(h.manager), primary.AddItemRequest{DatasetID: 404, FileName: "x.png", Content: strings.NewReader("x")})
	requireKind(t, err, errs.KindNotFound)

	_, err = h.datasets.AddItem(h.as(h.manager), primary.AddItemRequest{DatasetID: h.datasetID, FileName: "x.png"})
	requireKind(t, err, errs.KindValidation)

	_, err = h.datasets.AddItem(h.as(h.manager), primary.AddItemRequest{DatasetID: h.datasetID, FileName: "", Content: strings.NewReader("x")})
	requireKind(t, err, errs.KindValidation)

	ds, err := h.datasets.GetDataset(context.Background(), h.datasetID)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.TotalItems)
}

func TestRemoveItem(t *testing.T) {
	h := newHarness(t)
	item, err := h.dataItems.GetDataItem(context.Background(), h.items[2])
	require.NoError(t, err)

	require.NoError(t, h.datasets.RemoveItem(h.as(h.manager), h.items[2]))

	_, err = h.dataItems.GetDataItem(context.Background(), h.items[2])
	requireKind(t, err, errs.KindNotFound)
	_, err = h.files.Open(context.Background(), item.FilePath)
	requireKind(t, err, errs.KindNotFound)

	ds, err := h.datasets.GetDataset(context.Background(), h.datasetID)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.TotalItems)
}

func TestRemoveItem_AssignedItemIsConflict(t *testing.T) {
	h := newHarness(t)
	h.assign(h.annotator, h.items[0])

	err := h.datasets.RemoveItem(h.as(h.manager), h.items[0])
	requireKind(t, err, errs.KindConflict)
	assert.Equal(t, "assigned", h.itemStatus(h.items[0]))

	err = h.datasets.RemoveItem(h.as(h.annotator), h.items[1])
	requireKind(t, err, errs.KindForbidden)
}

func TestRemoveItem_RecountsTasksThatHeldIt(t *testing.T) {
	h := newHarness(t)
	taskID := h.submitted(h.items[0], h.items[1])
	_, err := h.review(h.items[0], "rejected", "blurry", 3)
	require.NoError(t, err)
	res, err := h.dataItems.BulkUpdateStatus(h.as(h.manager), []int64{h.items[0]}, "pending")
	require.NoError(t, err)
	require.Equal(t, 1, res.Affected)

	require.NoError(t, h.datasets.RemoveItem(h.as(h.manager), h.items[0]))

	h.requireCounters(taskID)
	task := h.task(taskID)
	assert.Equal(t, 1, task.TotalItems)
	assert.Equal(t, 1, task.CompletedItems)
}

func TestCreateDataset_OnePerProject(t *testing.T) {
	h := newHarness(t)

	_, err := h.datasets.CreateDataset(h.as(h.manager), h.projectID, "second")
	requireKind(t, err, errs.KindConflict)

	_, err = h.datasets.CreateDataset(h.as(h.manager), 404, "orphan")
	requireKind(t, err, errs.KindNotFound)

	_, err = h.datasets.CreateDataset(h.as(h.manager), h.projectID, "  ")
	requireKind(t, err, errs.KindValidation)

	all, err := h.datasets.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecountDataset(t *testing.T) {
	h := newHarness(t)

	ds, err := h.datasets.RecountDataset(h.as(h.manager), h.datasetID)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.TotalItems)
	assert.Equal(t, 0.0, ds.TotalSizeMB)

	_, err = h.datasets.RecountDataset(h.as(h.manager), 404)
	requireKind(t, err, errs.KindNotFound)

	_, err = h.datasets.RecountDataset(h.as(h.annotator), h.datasetID)
	requireKind(t, err, errs.KindForbidden)
	_, err = h.datasets.RecountDataset(context.Background(), h.datasetID)
	requireKind(t, err, errs.KindUnauthorized)
}
