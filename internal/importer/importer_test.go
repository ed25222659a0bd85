package importer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nlstn/go-catalog/internal/products"
	"github.com/nlstn/go-catalog/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScheduler struct {
	calls atomic.Int32
}

func (c *countingScheduler) Schedule() { c.calls.Add(1) }

func newImporter(t *testing.T) (*Importer, *products.WriteService, *countingScheduler) {
	t.Helper()
	write := products.NewWriteService(storage.NewMemoryStore())
	sched := &countingScheduler{}
	return New(write, WithScheduler(sched)), write, sched
}

const csvFeed = `id;pictures;reference;category;manufacturer;name;price;body;istop
;"a.jpg,b.jpg";N-1;Electronics / Phones;Nokia;Nokia 3310;49.90;Classic phone;true

;;;Home;;Lamp;12;A lamp;
;;;Home;;Broken;abc;Price is not a number;
;;;;;No Category;5;Missing category;
legacy0001;;;Garden;Acme;Rake;"7,50";Garden rake;0
`

func TestImportCSV(t *testing.T) {
	imp, write, sched := newImporter(t)
	ctx := context.Background()

	res, err := imp.ImportCSV(ctx, strings.NewReader(csvFeed))
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 3, Skipped: 2}, res)
	assert.True(t, res.OK())
	assert.EqualValues(t, 1, sched.calls.Load())

	phone, err := write.Get(ctx, products.GetOptions{Link: "n-1-nokia-3310"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, phone.Pictures)
	assert.Equal(t, "electronics/phones", phone.CategoryLink)
	assert.Equal(t, "nokia", phone.ManufacturerLink)
	assert.True(t, phone.Top)
	assert.True(t, phone.Price.Equal(decimal.RequireFromString("49.90")))

	rake, err := write.Get(ctx, products.GetOptions{ID: "legacy0001"})
	require.NoError(t, err, "unknown ids are kept")
	assert.True(t, rake.Price.Equal(decimal.RequireFromString("7.5")))
	assert.False(t, rake.Top)
}

func TestImportCSVUpdatesExistingIDs(t *testing.T) {
	imp, write, _ := newImporter(t)
	ctx := context.Background()

	feed := "id;name;category;price;body\nsku0000001;Lamp;Home;10;First\n"
	_, err := imp.ImportCSV(ctx, strings.NewReader(feed))
	require.NoError(t, err)

	feed = "id;name;category;price;body\nsku0000001;Lamp;Home;12;Second\n"
	res, err := imp.ImportCSV(ctx, strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	got, err := write.Get(ctx, products.GetOptions{ID: "sku0000001"})
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Body)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(12)))
}

func TestImportCSVEmptyAndHeaderOnly(t *testing.T) {
	imp, _, sched := newImporter(t)

	for _, feed := range []string{"", "id;name;category;price;body\n"} {
		res, err := imp.ImportCSV(context.Background(), strings.NewReader(feed))
		require.NoError(t, err)
		assert.False(t, res.OK())
	}
	assert.Zero(t, sched.calls.Load())
}

const xmlFeed = `<?xml version="1.0" encoding="utf-8"?>
<catalog>
	<meta><name>ignored</name></meta>
	<product>
		<name>Nokia 3310</name>
		<reference>N-1</reference>
		<category>Electronics/Phones</category>
		<manufacturer>Nokia</manufacturer>
		<price>49.90</price>
		<body><![CDATA[Classic <b>phone</b>]]></body>
		<pictures>a.jpg,b.jpg</pictures>
		<istop>1</istop>
	</product>
	<product>
		<name>Nameless price</name>
		<category>Home</category>
		<price>-1</price>
		<body>Negative price</body>
	</product>
	<product>
		<name>Lamp</name>
		<category>Home</category>
		<price>12</price>
		<body>A lamp</body>
	</product>
</catalog>`

func TestImportXML(t *testing.T) {
	imp, write, sched := newImporter(t)
	ctx := context.Background()

	res, err := imp.ImportXML(ctx, strings.NewReader(xmlFeed))
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 2, Skipped: 1}, res)
	assert.EqualValues(t, 1, sched.calls.Load())

	phone, err := write.Get(ctx, products.GetOptions{Link: "n-1-nokia-3310"})
	require.NoError(t, err)
	assert.Equal(t, "Electronics / Phones", phone.Category)
	assert.Equal(t, "Classic <b>phone</b>", phone.Body)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, phone.Pictures)
	assert.True(t, phone.Top)
}

func TestImportXMLMalformed(t *testing.T) {
	imp, _, _ := newImporter(t)
	feed := `<catalog><product><name>Lamp</name><category>Home</category><price>1</price><body>x</body></product><product><name>`

	res, err := imp.ImportXML(context.Background(), strings.NewReader(feed))
	require.Error(t, err)
	assert.Equal(t, 1, res.Saved, "records before the break are kept")
}

type brokenSaver struct{}

func (brokenSaver) Save(context.Context, *products.Product) (*products.Product, error) {
	return nil, errors.New("unused")
}

func (brokenSaver) Create(context.Context, *products.Product) (*products.Product, error) {
	return nil, products.ErrStorage
}

func TestImportStopsOnStorageFailure(t *testing.T) {
	imp := New(brokenSaver{})
	feed := "name;category;price;body\nLamp;Home;1;x\nRake;Garden;2;y\n"

	res, err := imp.ImportCSV(context.Background(), strings.NewReader(feed))
	require.ErrorIs(t, err, products.ErrStorage)
	assert.Equal(t, Result{}, res)
}

func TestImportHonoursCancellation(t *testing.T) {
	imp, _, _ := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imp.ImportCSV(ctx, strings.NewReader("name;category;price;body\nLamp;Home;1;x\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordValidation(t *testing.T) {
	valid := record{Name: "Lamp", Category: "Home", Price: "1", Body: "x"}

	tests := []struct {
		name   string
		mutate func(r *record)
		field  string
	}{
		{"name", func(r *record) { r.Name = " " }, "name"},
		{"category", func(r *record) { r.Category = "" }, "category"},
		{"body", func(r *record) { r.Body = "" }, "body"},
		{"missing price", func(r *record) { r.Price = "" }, "price"},
		{"bad price", func(r *record) { r.Price = "ten" }, "price"},
		{"negative price", func(r *record) { r.Price = "-3" }, "price"},
		{"bad flag", func(r *record) { r.Top = "maybe" }, "istop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			_, err := r.product()
			var verr *products.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	p, err := valid.product()
	require.NoError(t, err)
	assert.Nil(t, p.Pictures)
	assert.False(t, p.Top)
}
