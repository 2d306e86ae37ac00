package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/ferreteria-backend/pkg/clients"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const productKeyPrefix = "product:barcode:"

// CacheRepo кэширует товары по штрихкоду.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает товар из кэша. Промах — (nil, nil).
// Повреждённая или чужая запись удаляется и считается промахом.
func (c *CacheRepo) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	key := productKey(barcode)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, nil // промах
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil || model.Barcode != barcode {
		c.logger.Warnf("Dropping corrupted cache entry %s: %v", key, err)
		if err := c.client.Client.Del(ctx, key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	return c.conv.ToEntity(&model), nil
}

// SetProduct кэширует товар с заданным TTL.
func (c *CacheRepo) SetProduct(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(c.conv.ToRedisModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, productKey(product.Barcode), data, c.cfg.ProductTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProduct удаляет товар из кэша по штрихкоду.
func (c *CacheRepo) DeleteProduct(ctx context.Context, barcode string) error {
	if err := c.client.Client.Del(ctx, productKey(barcode)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// productKey возвращает Redis-ключ для одного товара
func productKey(barcode string) string {
	return productKeyPrefix + barcode
}
