package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/adapter/cache"
	"github.com/pankaj085/lotuslynx/internal/adapter/payment"
	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/repository"
	"github.com/pankaj085/lotuslynx/internal/service"
)

func newCatalogService(t *testing.T, products repository.ProductRepository, images *fakeImageStore, payments *fakePaymentProvider) *service.CatalogService {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	if images == nil {
		images = newFakeImageStore()
	}
	if payments == nil {
		payments = &fakePaymentProvider{}
	}
	return service.NewCatalogService(products, images, payments, cache.NopProductCache{}, node, "usd", zap.NewNop())
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogService(t, newMemoryProductRepo(), nil, nil)

	_, err := svc.Create(ctx, domain.Product{Name: "  ", Price: 10})
	require.Error(t, err)

	_, err = svc.Create(ctx, domain.Product{Name: "Widget", Price: 0})
	require.Error(t, err)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 19.99, Category: "tools"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Empty(t, created.ImageURL)
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	svc := newCatalogService(t, products, nil, nil)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 5})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, created.ID+1)
	require.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestUpdateProductPatch(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	svc := newCatalogService(t, products, nil, nil)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Description: "old", Price: 5, Category: "tools"})
	require.NoError(t, err)

	price := 7.5
	updated, err := svc.Update(ctx, created.ID, domain.ProductUpdate{Price: &price})
	require.NoError(t, err)
	require.Equal(t, 7.5, updated.Price)
	require.Equal(t, "Widget", updated.Name)
	require.Equal(t, "old", updated.Description)

	bad := 0.0
	_, err = svc.Update(ctx, created.ID, domain.ProductUpdate{Price: &bad})
	require.Error(t, err)

	_, err = svc.Update(ctx, created.ID+1, domain.ProductUpdate{Price: &price})
	require.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestDeleteProductRemovesImage(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	images := newFakeImageStore()
	svc := newCatalogService(t, products, images, nil)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 5})
	require.NoError(t, err)

	_, err = svc.AttachImage(ctx, created.ID, bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	require.Len(t, images.objects, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.Empty(t, images.objects)

	require.ErrorIs(t, svc.Delete(ctx, created.ID), service.ErrProductNotFound)
}

func TestAttachImage(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	images := newFakeImageStore()
	svc := newCatalogService(t, products, images, nil)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 5})
	require.NoError(t, err)

	_, err = svc.AttachImage(ctx, created.ID, bytes.NewReader([]byte("nope")), 4, "text/plain")
	require.Error(t, err)

	first, err := svc.AttachImage(ctx, created.ID, bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, first.ImageURL)

	// A second upload replaces the stored object.
	second, err := svc.AttachImage(ctx, created.ID, bytes.NewReader([]byte("png2")), 4, "image/png")
	require.NoError(t, err)
	require.NotEqual(t, first.ImageURL, second.ImageURL)
	require.Len(t, images.objects, 1)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, second.ImageURL, got.ImageURL)
}

func TestListClampsPagination(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	svc := newCatalogService(t, products, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.Product{Name: fmt.Sprintf("Widget %d", i), Price: 5})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, repository.ProductFilter{Limit: -5, Offset: -1})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, 100, products.lastFilter.Limit)
	require.Equal(t, 0, products.lastFilter.Offset)

	_, err = svc.List(ctx, repository.ProductFilter{Limit: 10_000})
	require.NoError(t, err)
	require.Equal(t, 500, products.lastFilter.Limit)
}

func TestCreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	provider := &fakePaymentProvider{}
	svc := newCatalogService(t, products, nil, provider)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 19.99})
	require.NoError(t, err)

	user := domain.User{ID: 7, Username: "alice"}
	resp, err := svc.CreatePaymentIntent(ctx, created.ID, user)
	require.NoError(t, err)
	require.Equal(t, int64(1999), resp.AmountCents)
	require.Equal(t, "usd", resp.Currency)
	require.NotEmpty(t, resp.ClientSecret)
	require.Equal(t, created.ID, resp.Product.ID)

	require.Equal(t, "7", provider.lastRequest.Metadata["user_id"])
	require.Equal(t, "Widget", provider.lastRequest.Metadata["product_name"])

	_, err = svc.CreatePaymentIntent(ctx, created.ID+1, user)
	require.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestCreatePaymentIntentGatewayRejection(t *testing.T) {
	ctx := context.Background()
	products := newMemoryProductRepo()
	provider := &fakePaymentProvider{err: &payment.GatewayError{Message: "card declined"}}
	svc := newCatalogService(t, products, nil, provider)

	created, err := svc.Create(ctx, domain.Product{Name: "Widget", Price: 19.99})
	require.NoError(t, err)

	_, err = svc.CreatePaymentIntent(ctx, created.ID, domain.User{ID: 7})
	require.Error(t, err)

	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	require.Equal(t, 400, svcErr.Status)
	require.Equal(t, "card declined", svcErr.Description)
}

type memoryProductRepo struct {
	byID       map[int64]domain.Product
	lastFilter repository.ProductFilter
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{byID: make(map[int64]domain.Product)}
}

func (m *memoryProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	m.lastFilter = filter
	var items []domain.Product
	for _, product := range m.byID {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && product.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
			continue
		}
		items = append(items, product)
	}
	return items, nil
}

func (m *memoryProductRepo) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	product, ok := m.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("get product: %w", pgx.ErrNoRows)
	}
	return product, nil
}

func (m *memoryProductRepo) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	m.byID[product.ID] = product
	return product, nil
}

func (m *memoryProductRepo) Update(ctx context.Context, id int64, patch domain.ProductUpdate) (domain.Product, error) {
	product, ok := m.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("update product: %w", pgx.ErrNoRows)
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	m.byID[id] = product
	return product, nil
}

func (m *memoryProductRepo) SetImageURL(ctx context.Context, id int64, imageURL string) error {
	product, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("set image url: %w", pgx.ErrNoRows)
	}
	product.ImageURL = imageURL
	m.byID[id] = product
	return nil
}

func (m *memoryProductRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete product: %w", pgx.ErrNoRows)
	}
	delete(m.byID, id)
	return nil
}

type fakeImageStore struct {
	objects map[string][]byte
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (f *fakeImageStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[objectName] = data
	return "http://images.test/bucket/" + objectName, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, objectName string) error {
	delete(f.objects, objectName)
	return nil
}

func (f *fakeImageStore) ObjectName(imageURL string) string {
	return strings.TrimPrefix(imageURL, "http://images.test/bucket/")
}

type fakePaymentProvider struct {
	lastRequest payment.IntentRequest
	err         error
}

func (f *fakePaymentProvider) CreateIntent(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	if f.err != nil {
		return payment.Intent{}, f.err
	}
	f.lastRequest = req
	return payment.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
	}, nil
}
