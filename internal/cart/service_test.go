package cart

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
)

type fakeCartQueries struct {
	carts    map[string]db.Cart
	items    map[string]db.CartItem
	products map[string]db.Product
}

func newFakeCartQueries() *fakeCartQueries {
	return &fakeCartQueries{
		carts:    map[string]db.Cart{},
		items:    map[string]db.CartItem{},
		products: map[string]db.Product{},
	}
}

func newPgUUID(t *testing.T) pgtype.UUID {
	t.Helper()
	id, err := db.UUID(uuid.NewString())
	require.NoError(t, err)
	return id
}

func (f *fakeCartQueries) addProduct(t *testing.T, name string, base string, discount *string) db.Product {
	t.Helper()
	p := db.Product{
		ID:        newPgUUID(t),
		Name:      name,
		Slug:      name,
		BasePrice: decimal.RequireFromString(base),
		IsActive:  true,
	}
	if discount != nil {
		d := decimal.RequireFromString(*discount)
		p.DiscountPrice = &d
	}
	f.products[db.UUIDString(p.ID)] = p
	return p
}

func (f *fakeCartQueries) GetCartByUser(_ context.Context, userID pgtype.UUID) (db.Cart, error) {
	c, ok := f.carts[db.UUIDString(userID)]
	if !ok {
		return db.Cart{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCartQueries) CreateCart(_ context.Context, userID pgtype.UUID) (db.Cart, error) {
	c := db.Cart{UserID: userID}
	_ = c.ID.Scan(uuid.NewString())
	f.carts[db.UUIDString(userID)] = c
	return c, nil
}

func (f *fakeCartQueries) FindCartItem(_ context.Context, arg db.FindCartItemParams) (db.CartItem, error) {
	for _, it := range f.items {
		if db.UUIDEqual(it.CartID, arg.CartID) && db.UUIDEqual(it.ProductID, arg.ProductID) && it.VariantSize == arg.VariantSize {
			return it, nil
		}
	}
	return db.CartItem{}, pgx.ErrNoRows
}

func (f *fakeCartQueries) CreateCartItem(_ context.Context, arg db.CreateCartItemParams) (db.CartItem, error) {
	it := db.CartItem{
		CartID:      arg.CartID,
		ProductID:   arg.ProductID,
		VariantSize: arg.VariantSize,
		Quantity:    arg.Quantity,
	}
	_ = it.ID.Scan(uuid.NewString())
	f.items[db.UUIDString(it.ID)] = it
	return it, nil
}

func (f *fakeCartQueries) UpdateCartItemQuantity(_ context.Context, arg db.UpdateCartItemQuantityParams) (db.CartItem, error) {
	it, ok := f.items[db.UUIDString(arg.ID)]
	if !ok {
		return db.CartItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	f.items[db.UUIDString(arg.ID)] = it
	return it, nil
}

func (f *fakeCartQueries) GetCartItemByID(_ context.Context, id pgtype.UUID) (db.CartItem, error) {
	it, ok := f.items[db.UUIDString(id)]
	if !ok {
		return db.CartItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (f *fakeCartQueries) DeleteCartItem(_ context.Context, id pgtype.UUID) (int64, error) {
	if _, ok := f.items[db.UUIDString(id)]; !ok {
		return 0, nil
	}
	delete(f.items, db.UUIDString(id))
	return 1, nil
}

func (f *fakeCartQueries) DeleteCartItems(_ context.Context, cartID pgtype.UUID) error {
	for key, it := range f.items {
		if db.UUIDEqual(it.CartID, cartID) {
			delete(f.items, key)
		}
	}
	return nil
}

func (f *fakeCartQueries) ListCartItemsWithProduct(_ context.Context, cartID pgtype.UUID) ([]db.CartItemWithProduct, error) {
	rows := []db.CartItemWithProduct{}
	for _, it := range f.items {
		if !db.UUIDEqual(it.CartID, cartID) {
			continue
		}
		p := f.products[db.UUIDString(it.ProductID)]
		rows = append(rows, db.CartItemWithProduct{
			ID:            it.ID,
			CartID:        it.CartID,
			ProductID:     it.ProductID,
			VariantSize:   it.VariantSize,
			Quantity:      it.Quantity,
			ProductName:   p.Name,
			ProductSlug:   p.Slug,
			BasePrice:     p.BasePrice,
			DiscountPrice: p.DiscountPrice,
			FeaturedImage: p.FeaturedImage,
			Images:        p.Images,
		})
	}
	return rows, nil
}

func (f *fakeCartQueries) GetProductByID(_ context.Context, id pgtype.UUID) (db.Product, error) {
	p, ok := f.products[db.UUIDString(id)]
	if !ok {
		return db.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	product := q.addProduct(t, "noir-intense", "179.99", strPtr("159.99"))

	first, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 1)
	require.NoError(t, err)
	require.Equal(t, 1, first.Quantity)

	second, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 2)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 3, second.Quantity)
	require.Len(t, q.items, 1)
	require.True(t, second.UnitPrice.Equal(decimal.RequireFromString("159.99")))
}

func TestAddItemSeparateLinesPerVariantSize(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	product := q.addProduct(t, "fleur-blanche", "129.99", nil)

	_, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 50, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 1)
	require.NoError(t, err)
	require.Len(t, q.items, 2)
}

func TestAddItemUnknownProduct(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})

	_, err := svc.AddItem(context.Background(), uuid.NewString(), uuid.NewString(), 100, 1)
	requireAppStatus(t, err, http.StatusNotFound)
}

func TestAddItemInactiveProduct(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	product := q.addProduct(t, "retired-scent", "99.99", nil)
	product.IsActive = false
	q.products[db.UUIDString(product.ID)] = product

	_, err := svc.AddItem(context.Background(), uuid.NewString(), db.UUIDString(product.ID), 100, 1)
	requireAppStatus(t, err, http.StatusNotFound)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	product := q.addProduct(t, "bois-ambre", "149.99", nil)

	item, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 2)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(context.Background(), userID, item.ID, 0))
	require.Empty(t, q.items)
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	product := q.addProduct(t, "bois-ambre", "149.99", nil)

	item, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 2)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(context.Background(), userID, item.ID, 5))
	stored := q.items[item.ID]
	require.Equal(t, int32(5), stored.Quantity)
}

func TestRemoveItemAlreadyGoneIsSuccess(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	product := q.addProduct(t, "cuir-noir", "199.99", nil)

	item, err := svc.AddItem(context.Background(), userID, db.UUIDString(product.ID), 100, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(context.Background(), userID, item.ID))
	require.NoError(t, svc.RemoveItem(context.Background(), userID, item.ID))
	require.Empty(t, q.items)
}

func TestMutationsOnAnotherUsersItem(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := uuid.NewString()
	intruder := uuid.NewString()
	product := q.addProduct(t, "santal-blanc", "119.99", nil)

	item, err := svc.AddItem(context.Background(), owner, db.UUIDString(product.ID), 100, 1)
	require.NoError(t, err)

	err = svc.UpdateQuantity(context.Background(), intruder, item.ID, 3)
	requireAppStatus(t, err, http.StatusNotFound)

	stored := q.items[item.ID]
	require.Equal(t, int32(1), stored.Quantity)
}

func TestClearWithoutCart(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})

	require.NoError(t, svc.Clear(context.Background(), uuid.NewString()))
}

func TestClearRemovesAllLines(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})
	userID := uuid.NewString()
	first := q.addProduct(t, "noir-intense", "179.99", nil)
	second := q.addProduct(t, "fleur-blanche", "129.99", nil)

	_, err := svc.AddItem(context.Background(), userID, db.UUIDString(first.ID), 100, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, db.UUIDString(second.ID), 50, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), userID))
	require.Empty(t, q.items)

	items, err := svc.Items(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestItemsWithoutCart(t *testing.T) {
	q := newFakeCartQueries()
	svc := NewService(ServiceConfig{Queries: q})

	items, err := svc.Items(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func requireAppStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus)
}

func strPtr(s string) *string { return &s }
