// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone mongod, some hosted tiers).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Run executes fn inside a transaction. When the server rejects transactions
// fn runs once more without one, so callers get the same result either way.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop()
	}
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unavailable, running without", zap.Error(err))
		return fn(ctx)
	}
	return err
}
