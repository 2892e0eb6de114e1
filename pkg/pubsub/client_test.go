package pubsub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		name    string
		project string
		kind    kind
		in      string
		want    string
	}{
		{"bare subscription", "acme", kindSubscription, " sub ", "projects/acme/subscriptions/sub"},
		{"bare topic", "acme", kindTopic, "fq-quotation-events", "projects/acme/topics/fq-quotation-events"},
		{"qualified", "acme", kindSubscription, "projects/other/subscriptions/sub", "projects/other/subscriptions/sub"},
		{"qualified for other kind", "acme", kindTopic, "projects/other/subscriptions/sub", "projects/acme/topics/projects/other/subscriptions/sub"},
		{"blank", "acme", kindTopic, "  ", ""},
		{"no project", "", kindTopic, "t", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resourceName(tc.project, tc.kind, tc.in))
		})
	}
}

func TestRoleSelectsDependency(t *testing.T) {
	cfg := config.PubSubConfig{QuotationTopic: "events", AnalyticsSubscription: "analytics"}

	pub := &Client{cfg: cfg, role: Publishes}
	assert.Equal(t, kindTopic, pub.kind())
	assert.Equal(t, "events", pub.dependency())

	sub := &Client{cfg: cfg, role: Consumes}
	assert.Equal(t, kindSubscription, sub.kind())
	assert.Equal(t, "analytics", sub.dependency())
}

func TestLookupErr(t *testing.T) {
	require.NoError(t, lookupErr(kindTopic, "events", nil))

	err := lookupErr(kindTopic, "events", status.Error(codes.NotFound, "gone"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `topics "events" does not exist`)

	cause := status.Error(codes.PermissionDenied, "denied")
	err = lookupErr(kindSubscription, "analytics", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("topic"))
	assert.Nil(t, c.Subscription("sub"))
	assert.Error(t, c.Ping(t.Context()))
	assert.NoError(t, c.Close())
}
