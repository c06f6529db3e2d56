package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/agritech-golang/internal/database/dbtest"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserRepo_CreateAndLookup(t *testing.T) {
	db := dbtest.New(t)
	users := &repository.UserRepo{DB: db}
	ctx := context.Background()

	u := &models.User{Email: "asha@example.com", PasswordHash: "hash", FirstName: "Asha",
		Category: models.UserFarmer, Mobile: strPtr("9000000001")}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := users.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.UserFarmer, got.Category)
	require.NotNil(t, got.Mobile)
	assert.Equal(t, "9000000001", *got.Mobile)

	err = users.Create(ctx, &models.User{Email: "asha@example.com", PasswordHash: "x", FirstName: "A", Category: models.UserBuyer})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo_MobileTaken(t *testing.T) {
	db := dbtest.New(t)
	users := &repository.UserRepo{DB: db}
	ctx := context.Background()

	a := &models.User{Email: "a@example.com", PasswordHash: "h", FirstName: "A", Category: models.UserFarmer, Mobile: strPtr("111")}
	b := &models.User{Email: "b@example.com", PasswordHash: "h", FirstName: "B", Category: models.UserBuyer}
	require.NoError(t, users.Create(ctx, a))
	require.NoError(t, users.Create(ctx, b))

	taken, err := users.MobileTaken(ctx, "111", b.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = users.MobileTaken(ctx, "111", a.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	counts, err := users.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.UserFarmer])
	assert.Equal(t, 1, counts[models.UserBuyer])
}

func TestProfileRepo_Upserts(t *testing.T) {
	db := dbtest.New(t)
	profiles := &repository.ProfileRepo{DB: db}
	ctx := context.Background()

	_, err := profiles.GetFarmerDetails(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, profiles.SetFarmerPhoto(ctx, "u1", strPtr("http://img/1.png")))
	require.NoError(t, profiles.UpsertFarmerDetails(ctx, &models.FarmerDetails{UserID: "u1", Address: "Village Road", FarmSize: "5 acres"}))

	d, err := profiles.GetFarmerDetails(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Village Road", d.Address)
	require.NotNil(t, d.PhotoURL)
	assert.Equal(t, "http://img/1.png", *d.PhotoURL)

	require.NoError(t, profiles.SetFarmerPhoto(ctx, "u1", nil))
	d, err = profiles.GetFarmerDetails(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, d.PhotoURL)

	require.NoError(t, profiles.UpsertBuyerProfile(ctx, &models.BuyerProfile{UserID: "u2", FullName: "Ravi", Location: "Pune"}))
	require.NoError(t, profiles.UpsertBuyerProfile(ctx, &models.BuyerProfile{UserID: "u2", FullName: "Ravi K", Location: "Pune"}))
	p, err := profiles.GetBuyerProfile(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", p.FullName)
}

func seedProduct(t *testing.T, products *repository.ProductRepo, seller, name string, qty, price float64) *models.Product {
	t.Helper()
	p := &models.Product{SellerID: seller, Name: name, Category: models.CategorySeeds,
		Quantity: qty, Unit: models.UnitKg, Price: price}
	require.NoError(t, products.Create(context.Background(), p))
	return p
}

func TestProductRepo_ListFilters(t *testing.T) {
	db := dbtest.New(t)
	products := &repository.ProductRepo{DB: db}
	ctx := context.Background()

	seedProduct(t, products, "s1", "Tomato Seeds", 10, 5)
	seedProduct(t, products, "s1", "Wheat 50%_mix", 10, 5)
	tool := &models.Product{SellerID: "s2", Name: "Hand Hoe", Category: models.CategoryTools, Quantity: 3, Unit: models.UnitPieces, Price: 250}
	require.NoError(t, products.Create(ctx, tool))

	all, err := products.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySeller, err := products.List(ctx, models.ProductFilter{SellerID: "s1"})
	require.NoError(t, err)
	assert.Len(t, bySeller, 2)

	byName, err := products.List(ctx, models.ProductFilter{Query: "TOMATO"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Tomato Seeds", byName[0].Name)

	literal, err := products.List(ctx, models.ProductFilter{Query: "50%_"})
	require.NoError(t, err)
	assert.Len(t, literal, 1)

	byCategory, err := products.List(ctx, models.ProductFilter{Category: models.CategoryTools})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, tool.ID, byCategory[0].ID)

	page, err := products.List(ctx, models.ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestProductRepo_OwnerOnlyMutations(t *testing.T) {
	db := dbtest.New(t)
	products := &repository.ProductRepo{DB: db}
	ctx := context.Background()
	p := seedProduct(t, products, "s1", "Urea", 20, 300)

	p.SellerID = "intruder"
	p.Price = 1
	assert.ErrorIs(t, products.Update(ctx, p), repository.ErrNotFound)
	assert.ErrorIs(t, products.Delete(ctx, p.ID, "intruder"), repository.ErrNotFound)

	p.SellerID = "s1"
	require.NoError(t, products.Update(ctx, p))
	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Price)

	require.NoError(t, products.Delete(ctx, p.ID, "s1"))
	_, err = products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductRepo_ConditionalStock(t *testing.T) {
	db := dbtest.New(t)
	products := &repository.ProductRepo{DB: db}
	ctx := context.Background()
	p := seedProduct(t, products, "s1", "Seeds", 5, 10)
	at := time.Now().UTC()

	ok, err := products.DecrementStock(ctx, db, p.ID, 3, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = products.DecrementStock(ctx, db, p.ID, 3, at)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 left")

	ok, err = products.IncrementStock(ctx, db, p.ID, 3, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = products.IncrementStock(ctx, db, "gone", 3, at)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got.Quantity, 1e-9)
}

func TestProductRepo_FractionalStockIsExact(t *testing.T) {
	db := dbtest.New(t)
	products := &repository.ProductRepo{DB: db}
	ctx := context.Background()
	p := seedProduct(t, products, "s1", "Neem Oil", 0.3, 10)
	at := time.Now().UTC()

	for range 3 {
		ok, err := products.DecrementStock(ctx, db, p.ID, 0.1, at)
		require.NoError(t, err)
		require.True(t, ok)
	}
	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Quantity)

	ok, err := products.DecrementStock(ctx, db, p.ID, 0.001, at)
	require.NoError(t, err)
	assert.False(t, ok)

	// Listings keep three decimal places.
	q := seedProduct(t, products, "s1", "Urea", 1.23456, 10)
	got, err = products.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.235, got.Quantity)
}

func newOrder(id, buyer string, items ...models.OrderItem) *models.Order {
	ts := time.Now().UTC()
	return &models.Order{
		ID: id, BuyerID: buyer, Items: items, TotalPrice: 100,
		DeliveryMethod: models.DeliveryParcel, PaymentMethod: models.PaymentUPI,
		DeliveryDetails: models.DeliveryDetails{FullName: "B", PhoneNumber: "1", Address: "a", City: "c", State: "s", PinCode: "1"},
		Status:          models.StatusPending, CreatedAt: ts, UpdatedAt: ts,
	}
}

func TestOrderRepo_InsertGetAndSellerView(t *testing.T) {
	db := dbtest.New(t)
	orders := &repository.OrderRepo{DB: db}
	ctx := context.Background()

	o := newOrder("o1", "buyer",
		models.OrderItem{ProductID: "p1", Name: "Seeds", Quantity: 2, Price: 10, SellerID: "s1"},
		models.OrderItem{ProductID: "p2", Name: "Hoe", Quantity: 1, Price: 80, SellerID: "s2"},
	)
	require.NoError(t, orders.Insert(ctx, db, o))

	got, err := orders.Get(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p1", got.Items[0].ProductID)
	assert.Equal(t, "1", got.DeliveryDetails.PinCode)
	assert.Nil(t, got.PickupTime)

	mine, err := orders.ListByBuyer(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	sellerView, err := orders.ListBySeller(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, sellerView, 1)
	require.Len(t, sellerView[0].Items, 1)
	assert.Equal(t, "p2", sellerView[0].Items[0].ProductID)

	none, err := orders.ListBySeller(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepo_CompareAndSetStatus(t *testing.T) {
	db := dbtest.New(t)
	orders := &repository.OrderRepo{DB: db}
	ctx := context.Background()
	require.NoError(t, orders.Insert(ctx, db, newOrder("o1", "buyer",
		models.OrderItem{ProductID: "p1", Name: "Seeds", Quantity: 1, Price: 10, SellerID: "s1"})))

	ok, err := orders.CompareAndSetStatus(ctx, db, "o1", models.StatusPending, models.StatusPacked, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.CompareAndSetStatus(ctx, db, "o1", models.StatusPending, models.StatusCancelled, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "status already moved on")

	require.NoError(t, orders.SetTrackingLink(ctx, "o1", "https://track/1", time.Now().UTC()))
	got, err := orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPacked, got.Status)
	require.NotNil(t, got.TrackingLink)
	assert.Equal(t, "https://track/1", *got.TrackingLink)

	stats, err := orders.SellerStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 0, stats.PendingOrders)
}

func TestWantedRepo(t *testing.T) {
	db := dbtest.New(t)
	wanted := &repository.WantedRepo{DB: db}
	ctx := context.Background()
	when := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)

	w := &models.WantedProduct{UserID: "u1", Name: "Basmati", Category: models.CategoryPaddy,
		Quantity: 100, Unit: models.UnitKg, DeliveryLocation: strPtr("Karnal"), RequiredDateTime: &when}
	require.NoError(t, wanted.Create(ctx, w))

	require.NoError(t, wanted.Create(ctx, &models.WantedProduct{UserID: "u2", Name: "Mangoes",
		Category: models.CategoryFruits, Quantity: 0.5, Unit: models.UnitKg}))

	list, err := wanted.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, w.ID, list[0].ID)
	require.NotNil(t, list[0].RequiredDateTime)
	assert.True(t, when.Equal(*list[0].RequiredDateTime))

	list, err = wanted.List(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, wanted.Delete(ctx, w.ID, "u2"), repository.ErrNotFound)
	require.NoError(t, wanted.Delete(ctx, w.ID, "u1"))
}

func TestNotificationRepo(t *testing.T) {
	db := dbtest.New(t)
	notes := &repository.NotificationRepo{DB: db}
	ctx := context.Background()

	require.NoError(t, notes.Add(ctx, "u1", "New order received", "/seller/orders"))
	require.NoError(t, notes.Add(ctx, "u1", "Welcome", ""))

	list, err := notes.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.ErrorIs(t, notes.MarkRead(ctx, list[0].ID, "u2"), repository.ErrNotFound)
	require.NoError(t, notes.MarkRead(ctx, list[0].ID, "u1"))

	list, err = notes.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, list[0].IsRead, "unread first")
	assert.True(t, list[1].IsRead)
}

func TestScanRepo(t *testing.T) {
	db := dbtest.New(t)
	scans := &repository.ScanRepo{DB: db}
	ctx := context.Background()

	_, err := scans.SaveScan(ctx, "u1", []map[string]any{{"name": "Leaf spot", "probability": 0.8}})
	require.NoError(t, err)

	list, err := scans.ListScans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `[{"name":"Leaf spot","probability":0.8}]`, string(list[0].Results))

	require.NoError(t, scans.SaveFeedback(ctx, &models.Feedback{UserID: "u1", Rating: 4, Comment: "useful"}))
}
