package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/audit"
	"github.com/phillip/ngo-admin-console/auth"
	"github.com/phillip/ngo-admin-console/notify"
	"github.com/phillip/ngo-admin-console/store"
	"github.com/phillip/ngo-admin-console/utils"
)

// Setup connects the configured backends and fills in the runtime handles.
// Optional backends (redis, kafka, cloudinary) fall back to local
// implementations when left unconfigured.
func (c *Config) Setup(ctx context.Context) error {
	if c.Log == nil {
		c.Log = utils.NewLogger(c.App.Env)
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	c.Location = loc

	if c.DB == nil {
		db, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		c.DB = store.WithMetrics(db)
	}

	c.Tokens = auth.NewTokenManager(c.Auth.JWTSecret, c.Auth.Issuer, c.Auth.SessionTTL)

	if c.Revoker == nil {
		if c.Redis.Addr != "" {
			c.RedisClient = redis.NewClient(&redis.Options{
				Addr:     c.Redis.Addr,
				Password: c.Redis.Password,
				DB:       c.Redis.DB,
			})
			if err := c.RedisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			c.Revoker = auth.NewRedisRevoker(c.RedisClient)
			c.Log.Infow("redis connected", "addr", c.Redis.Addr)
		} else {
			c.Revoker = auth.NewMemoryRevoker()
		}
	}

	if c.Notifier == nil {
		sender := c.mailSender()
		breaker := notify.NewBreaker(sender, notify.BreakerConfig{
			MaxFailures: c.Mail.BreakerMaxFailures,
			Timeout:     c.Mail.BreakerTimeout,
		}, c.Log)
		c.Notifier = notify.NewNotifier(breaker, notify.Brand{Name: c.Mail.Brand, From: c.Mail.From}, c.Mail.Timeout, c.Log)
	}

	if c.Audit == nil {
		if len(c.Kafka.Brokers) > 0 {
			c.Audit = audit.NewKafka(c.Kafka.Brokers, c.Kafka.Topic)
			c.Log.Infow("audit events go to kafka", "brokers", c.Kafka.Brokers, "topic", c.Kafka.Topic)
		} else {
			c.Audit = audit.Nop{}
		}
	}

	if c.Images == nil {
		if c.Cloudinary.CloudName != "" {
			cld, err := utils.NewCloudinary(c.Cloudinary.CloudName, c.Cloudinary.APIKey, c.Cloudinary.APISecret, c.Cloudinary.Folder)
			if err != nil {
				return fmt.Errorf("cloudinary: %w", err)
			}
			c.Images = cld
		} else {
			c.Images = utils.NoImages{}
		}
	}

	if c.Accounts == nil {
		resolver := accounts.NewResolver(c.DB, c.Log, accounts.DefaultLookupLimit)
		c.Accounts = accounts.NewService(c.DB, resolver, c.Audit, c.Log)
	}
	return nil
}

func (c *Config) openStore(ctx context.Context) (store.Store, error) {
	if c.Store.Driver == "memory" {
		c.Log.Warnw("using the in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	}
	client, err := store.Connect(ctx, c.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	c.MongoClient = client
	m := store.NewMongo(client, c.Mongo.Database, c.Mongo.Timeout)
	if err := m.EnsureIndexes(ctx); err != nil {
		c.Log.Warnw("could not create indexes", "error", err)
	}
	c.Log.Infow("mongo connected", "database", c.Mongo.Database)
	return m, nil
}

func (c *Config) mailSender() notify.Sender {
	switch c.Mail.Transport {
	case "smtp":
		return &notify.SMTP{
			Host:     c.Mail.SMTPHost,
			Port:     c.Mail.SMTPPort,
			Username: c.Mail.SMTPUser,
			Password: c.Mail.SMTPPass,
			From:     c.Mail.From,
			FromName: c.Mail.FromName,
			Timeout:  c.Mail.Timeout,
		}
	case "zepto":
		return notify.NewZepto(c.Mail.ZeptoURL, c.Mail.ZeptoKey, c.Mail.From, c.Mail.FromName)
	case "sendgrid":
		return notify.NewSendGrid(c.Mail.SendGridKey, c.Mail.From, c.Mail.FromName)
	default:
		return notify.NewConsole(c.Log)
	}
}

// Close releases the backends opened by Setup.
func (c *Config) Close(ctx context.Context) error {
	var errs []error
	if c.Audit != nil {
		errs = append(errs, c.Audit.Close())
	}
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.MongoClient != nil {
		errs = append(errs, c.MongoClient.Disconnect(ctx))
	}
	if c.Log != nil {
		_ = c.Log.Sync()
	}
	return errors.Join(errs...)
}

// Logger returns the configured logger, or a no-op one before Setup.
func (c *Config) Logger() *zap.SugaredLogger {
	if c.Log == nil {
		return zap.NewNop().Sugar()
	}
	return c.Log
}
