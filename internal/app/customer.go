package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	customerLockTTL      = 15 * time.Second
	customerLockWaitTime = 10 * time.Second
)

var errCustomerNotLinkedYet = errors.New("gateway customer not linked yet")

// releaseLockScript deletes the lock only while it still holds our token, so
// an expired lock taken over by another caller is left alone.
var releaseLockScript = redis.NewScript(`
    -- KEYS = [lock key]
    -- ARGV = [token]

    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    end

    return 0
`)

func customerLockKey(userId uuid.UUID) string {
	return fmt.Sprintf("customer_lock:%s", userId)
}

// ensureGatewayCustomer returns the gateway customer linked to the caller,
// creating and linking one on first use. Exactly one mapping per user is
// kept: the table's primary key rejects a second link and the loser adopts
// the winner's customer.
func (app *Application) ensureGatewayCustomer(ctx context.Context, identity domain.Identity) (string, error) {
	customer, err := app.customerRepo.GetByUserId(ctx, identity.UserID)
	if err == nil {
		app.metrics.customerLinked(ctx, "existing")
		return customer.StripeCustomerID, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return "", err
	}

	release, acquired := app.acquireCustomerLock(ctx, identity.UserID)
	if acquired {
		defer release()

		// Another caller may have linked a customer between our lookup and
		// taking the lock.
		customer, err = app.customerRepo.GetByUserId(ctx, identity.UserID)
		if err == nil {
			return customer.StripeCustomerID, nil
		}

		if !errors.Is(err, domain.ErrRecordNotFound) {
			return "", err
		}
	} else if release == nil {
		customerId, err := app.waitForCustomerLink(ctx, identity.UserID)
		if err == nil {
			app.metrics.customerLinked(ctx, "waited")
			return customerId, nil
		}

		if !errors.Is(err, errCustomerNotLinkedYet) {
			return "", err
		}

		app.logger.Warn("gateway customer lock holder did not link a customer, creating one", "user_id", identity.UserID)
	}

	var name string

	profile, err := app.profileRepo.GetById(ctx, identity.UserID)
	if err == nil && profile.FullName != nil {
		name = *profile.FullName
	}

	created, err := app.paymentProvider.CreateCustomer(ctx, identity, name)
	if err != nil {
		return "", fmt.Errorf("create gateway customer: %w", err)
	}

	err = app.customerRepo.Create(ctx, &domain.GatewayCustomer{
		UserID:           identity.UserID,
		StripeCustomerID: created.ID,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCustomerAlreadyLinked) {
			return "", err
		}

		customer, err = app.customerRepo.GetByUserId(ctx, identity.UserID)
		if err != nil {
			return "", err
		}

		app.logger.Warn(
			"lost gateway customer link race, discarding created customer",
			"user_id", identity.UserID,
			"discarded_customer_id", created.ID,
			"customer_id", customer.StripeCustomerID,
		)
		app.metrics.customerLinked(ctx, "race_lost")

		return customer.StripeCustomerID, nil
	}

	app.metrics.customerLinked(ctx, "created")

	return created.ID, nil
}

// acquireCustomerLock tries to take the per-user customer lock. When Redis
// is unavailable the caller proceeds unlocked: release is a no-op and
// acquired is false. When another caller holds the lock release is nil.
func (app *Application) acquireCustomerLock(ctx context.Context, userId uuid.UUID) (func(), bool) {
	key := customerLockKey(userId)
	token := uuid.NewString()

	ok, err := app.redis.SetNX(ctx, key, token, customerLockTTL).Result()
	if err != nil {
		app.logger.Warn("customer lock unavailable, continuing without it", "user_id", userId, "error", err)
		return func() {}, false
	}

	if !ok {
		return nil, false
	}

	release := func() {
		err := releaseLockScript.Run(context.WithoutCancel(ctx), app.redis, []string{key}, token).Err()
		if err != nil {
			app.logger.Warn("failed to release customer lock", "user_id", userId, "error", err)
		}
	}

	return release, true
}

func (app *Application) waitForCustomerLink(ctx context.Context, userId uuid.UUID) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second

	return backoff.Retry(ctx, func() (string, error) {
		customer, err := app.customerRepo.GetByUserId(ctx, userId)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return "", errCustomerNotLinkedYet
			}

			return "", backoff.Permanent(err)
		}

		return customer.StripeCustomerID, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(customerLockWaitTime))
}
