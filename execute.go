package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrValueType is returned by Execute when a concurrent caller sharing the
// same single-flight computation produced a value of another type.
var ErrValueType = errors.New("cache: value has unexpected type")

/*
Execute is the typed form of ExecuteWithCache.
A cached value that is not a V is treated as a miss: compute runs and its
result replaces the entry. A cached nil yields the zero V.
*/
func Execute[V any](
	ctx context.Context,
	c *OperationCache,
	operation string,
	params any,
	compute func(context.Context) (V, error),
	ttl time.Duration,
) (V, error) {
	var zero V

	key, err := c.DeriveKey(operation, params)
	if err != nil {
		return zero, err
	}

	recheck := true
	if v, ok := c.lookup(key); ok {
		// A memoized nil is a hit; it has no dynamic type to assert.
		if v == nil {
			return zero, nil
		}
		if typed, ok := v.(V); ok {
			return typed, nil
		}
		c.engine.Logger.WithField("key", key).Warnf("cached value has type %T, recomputing", v)
		recheck = false
	}

	v, err := c.run(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	}, ttl, recheck)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("%w: %T for operation %q", ErrValueType, v, operation)
	}
	return typed, nil
}

/*
Cacheable wraps fn so each call is memoized under operation, using the call
argument as params. It replaces method decorators:

	getProduct := cache.Cacheable(c, "get_product", 10*time.Minute, catalog.GetProduct)
	p, err := getProduct(ctx, "PC61")
*/
func Cacheable[P, V any](
	c *OperationCache,
	operation string,
	ttl time.Duration,
	fn func(context.Context, P) (V, error),
) func(context.Context, P) (V, error) {
	return func(ctx context.Context, params P) (V, error) {
		return Execute(ctx, c, operation, params, func(ctx context.Context) (V, error) {
			return fn(ctx, params)
		}, ttl)
	}
}
