package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/adapter/cache"
	"github.com/pankaj085/lotuslynx/internal/adapter/payment"
	"github.com/pankaj085/lotuslynx/internal/adapter/storage"
	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// CatalogService manages products, their images and payment intents.
type CatalogService struct {
	products  repository.ProductRepository
	images    storage.ImageStore
	payments  payment.Provider
	cache     cache.ProductCache
	snowflake *snowflake.Node
	currency  string
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewCatalogService wires dependencies.
func NewCatalogService(products repository.ProductRepository, images storage.ImageStore, payments payment.Provider, productCache cache.ProductCache, node *snowflake.Node, currency string, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		products:  products,
		images:    images,
		payments:  payments,
		cache:     productCache,
		snowflake: node,
		currency:  currency,
		logger:    logger,
		tracer:    otel.Tracer("github.com/pankaj085/lotuslynx/internal/service"),
	}
}

// List returns a filtered page of the catalog.
func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.List")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, err := s.products.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// Get looks up one product, serving from cache when possible.
func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.Get")
	defer span.End()

	if product, ok := s.cache.Get(ctx, id); ok {
		return product, nil
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrProductNotFound
		}
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}

	s.cache.Set(ctx, product)
	return product, nil
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.Create")
	defer span.End()

	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return domain.Product{}, invalidRequest("Product name is required.")
	}
	if product.Price <= 0 {
		return domain.Product{}, invalidRequest("Price must be greater than zero.")
	}

	product.ID = s.snowflake.Generate().Int64()
	product.ImageURL = ""
	product.CreatedAt = time.Now().UTC()

	created, err := s.products.Create(ctx, product)
	if err != nil {
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.audit("product.created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

// Update applies a partial update and invalidates the cache entry.
func (s *CatalogService) Update(ctx context.Context, id int64, patch domain.ProductUpdate) (domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.Update")
	defer span.End()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Product{}, invalidRequest("Product name cannot be empty.")
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return domain.Product{}, invalidRequest("Price must be greater than zero.")
	}

	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrProductNotFound
		}
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.cache.Delete(ctx, id)
	s.audit("product.updated", "product_id", id)
	return updated, nil
}

// Delete removes a product and its stored image.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "CatalogService.Delete")
	defer span.End()

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("load product: %w", err)
	}

	if product.ImageURL != "" {
		if err := s.images.Delete(ctx, s.images.ObjectName(product.ImageURL)); err != nil {
			s.log().Warn("delete product image failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("delete product: %w", err)
	}

	s.cache.Delete(ctx, id)
	s.audit("product.deleted", "product_id", id)
	return nil
}

// AttachImage uploads an image and points the product at it. A previous
// image is removed after the new one is stored.
func (s *CatalogService) AttachImage(ctx context.Context, id int64, reader io.Reader, size int64, contentType string) (domain.Product, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.AttachImage")
	defer span.End()

	if !strings.HasPrefix(contentType, "image/") {
		return domain.Product{}, invalidRequest("File must be an image.")
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrProductNotFound
		}
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}

	objectName := fmt.Sprintf("products/%d/%d", id, time.Now().UnixNano())
	imageURL, err := s.images.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("upload image: %w", err)
	}

	if err := s.products.SetImageURL(ctx, id, imageURL); err != nil {
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("set image url: %w", err)
	}

	if product.ImageURL != "" && product.ImageURL != imageURL {
		if err := s.images.Delete(ctx, s.images.ObjectName(product.ImageURL)); err != nil {
			s.log().Warn("delete replaced image failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}

	s.cache.Delete(ctx, id)
	s.audit("product.image_attached", "product_id", id)

	product.ImageURL = imageURL
	return product, nil
}

// CreatePaymentIntent asks the payment gateway for an intent covering one
// unit of the product at its current price.
func (s *CatalogService) CreatePaymentIntent(ctx context.Context, productID int64, user domain.User) (*PaymentIntentResponse, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.CreatePaymentIntent")
	defer span.End()

	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	amount := int64(math.Round(product.Price * 100))
	intent, err := s.payments.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: amount,
		Currency:    s.currency,
		Description: "Purchase of " + product.Name,
		Metadata: map[string]string{
			"product_id":   strconv.FormatInt(product.ID, 10),
			"product_name": product.Name,
			"user_id":      strconv.FormatInt(user.ID, 10),
		},
	})
	if err != nil {
		var gatewayErr *payment.GatewayError
		if errors.As(err, &gatewayErr) {
			return nil, paymentFailed(gatewayErr.Message)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	s.audit("payment_intent.created", "product_id", product.ID, "user_id", user.ID, "amount", amount)
	return &PaymentIntentResponse{
		Product:      product,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, nil
}

func (s *CatalogService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *CatalogService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *CatalogService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
