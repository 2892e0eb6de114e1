// Package pubsub wraps the Pub/Sub v2 client used by the outbox publisher
// and the analytics worker.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/gcp"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// Role selects which resource a process depends on.
type Role int

const (
	// Publishes checks the quotation topic.
	Publishes Role = iota
	// Consumes checks the analytics subscription.
	Consumes
)

type kind string

const (
	kindTopic        kind = "topics"
	kindSubscription kind = "subscriptions"
)

// Client hands out cached publishers and subscribers for one project.
type Client struct {
	ps      *gcppubsub.Client
	project string
	cfg     config.PubSubConfig
	role    Role

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

// NewClient dials Pub/Sub and verifies the resource the role depends on.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.PubSubConfig, role Role, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcpCfg.ProjectID)
	if project == "" {
		return nil, errors.New("gcp project id is required")
	}

	ps, err := gcppubsub.NewClient(ctx, project, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		ps:         ps,
		project:    project,
		cfg:        cfg,
		role:       role,
		publishers: map[string]*gcppubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "pubsub_resource", c.dependency()), "pubsub client ready")
	}
	return c, nil
}

// Subscription returns a subscriber for an ID or full resource name.
func (c *Client) Subscription(name string) *gcppubsub.Subscriber {
	if c == nil || c.ps == nil {
		return nil
	}
	full := resourceName(c.project, kindSubscription, name)
	if full == "" {
		return nil
	}
	return c.ps.Subscriber(full)
}

func (c *Client) AnalyticsSubscription() *gcppubsub.Subscriber {
	return c.Subscription(c.cfg.AnalyticsSubscription)
}

// Publisher returns the publisher for a topic ID or full resource name.
// Handles are reused so batching settings apply across calls.
func (c *Client) Publisher(name string) *gcppubsub.Publisher {
	if c == nil || c.ps == nil {
		return nil
	}
	full := resourceName(c.project, kindTopic, name)
	if full == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[full]; ok {
		return p
	}
	p := c.ps.Publisher(full)
	c.publishers[full] = p
	return p
}

func (c *Client) QuotationPublisher() *gcppubsub.Publisher {
	return c.Publisher(c.cfg.QuotationTopic)
}

// Ping checks that the resource the role depends on exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.ps == nil {
		return errors.New("pubsub client not initialized")
	}
	name := c.dependency()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("pubsub %s name is required", c.kind())
	}
	full := resourceName(c.project, c.kind(), name)

	var err error
	switch c.kind() {
	case kindTopic:
		_, err = c.ps.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
	default:
		_, err = c.ps.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
	}
	return lookupErr(c.kind(), name, err)
}

// Close flushes cached publishers and releases the connection.
func (c *Client) Close() error {
	if c == nil || c.ps == nil {
		return nil
	}
	c.mu.Lock()
	for _, p := range c.publishers {
		p.Stop()
	}
	c.publishers = map[string]*gcppubsub.Publisher{}
	c.mu.Unlock()
	return c.ps.Close()
}

func (c *Client) kind() kind {
	if c.role == Consumes {
		return kindSubscription
	}
	return kindTopic
}

func (c *Client) dependency() string {
	if c.role == Consumes {
		return c.cfg.AnalyticsSubscription
	}
	return c.cfg.QuotationTopic
}

func lookupErr(k kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("pubsub %s %q does not exist", k, name)
	default:
		return fmt.Errorf("looking up pubsub %s %q: %w", k, name, err)
	}
}

// resourceName expands a bare ID to projects/<project>/<kind>/<id>.
// Names already qualified for the same kind pass through.
func resourceName(project string, k kind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+string(k)+"/") {
		return name
	}
	if project == "" {
		return ""
	}
	return "projects/" + project + "/" + string(k) + "/" + name
}
