package notifier

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-petcare-checkout/internal/kafka"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inbox struct{ got []Notification }

func (i *inbox) Send(_ context.Context, n Notification) error {
	i.got = append(i.got, n)
	return nil
}

// capture collects what an Emitter would publish, as kafka messages.
type capture struct{ msgs []kafkago.Message }

func (c *capture) Publish(topic string, key, value []byte, headers ...kafkago.Header) error {
	c.msgs = append(c.msgs, kafkago.Message{Topic: topic, Key: key, Value: value, Headers: headers})
	return nil
}

func newService(t *testing.T) (*Service, *inbox, redis.Cmdable) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	in := &inbox{}
	return &Service{Redis: rdb, Sender: in, Log: zap.NewNop(), ServiceName: "notifier"}, in, rdb
}

func TestOrderLifecycleUpdatesStatusCache(t *testing.T) {
	ctx := context.Background()
	svc, in, rdb := newService(t)
	pub := &capture{}
	em := &orders.Emitter{P: pub, Producer: "petcare-api"}

	require.NoError(t, em.Emit("t1", orders.TopicOrderCreated, orders.EventOrderCreated, "abc",
		orders.OrderCreatedPayload{OrderID: "abc", UserID: "u1", Total: "150000", Status: orders.StatusPendingPayment, PaymentMethod: orders.PaymentQR}))
	require.NoError(t, em.Emit("t1", orders.TopicPaymentConfirmed, orders.EventPaymentConfirmed, "abc",
		orders.PaymentConfirmedPayload{OrderID: "abc", TransactionID: "FT1", Amount: "150000"}))

	require.NoError(t, svc.HandleMessage(ctx, pub.msgs[0]))
	e, found, err := redisx.CachedOrderStatus(ctx, rdb, "abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, string(orders.StatusPendingPayment), e.Status)

	require.NoError(t, svc.HandleMessage(ctx, pub.msgs[1]))
	e, _, err = redisx.CachedOrderStatus(ctx, rdb, "abc")
	require.NoError(t, err)
	assert.Equal(t, string(orders.StatusPaid), e.Status)
	assert.Equal(t, "u1", e.UserID)

	require.Len(t, in.got, 2)
	assert.Contains(t, in.got[0].Text, "Scan the QR code")
	assert.Equal(t, orders.EventPaymentConfirmed, in.got[1].Kind)
}

func TestDuplicateEventsAreSkipped(t *testing.T) {
	ctx := context.Background()
	svc, in, _ := newService(t)
	pub := &capture{}
	em := &orders.Emitter{P: pub, Producer: "petcare-api"}
	require.NoError(t, em.Emit("", orders.TopicPaymentTimedOut, orders.EventPaymentTimedOut, "abc",
		orders.PaymentTimedOutPayload{OrderID: "abc", WaitedSeconds: 600}))

	require.NoError(t, svc.HandleMessage(ctx, pub.msgs[0]))
	require.NoError(t, svc.HandleMessage(ctx, pub.msgs[0]))
	assert.Len(t, in.got, 1)
}

func TestUndecodableMessageIsCommitted(t *testing.T) {
	svc, in, _ := newService(t)
	require.NoError(t, svc.HandleMessage(context.Background(), kafkago.Message{Value: []byte("nope")}))
	assert.Empty(t, in.got)
}

func TestUnknownEventVersionIsCommitted(t *testing.T) {
	ctx := context.Background()
	svc, in, rdb := newService(t)
	pub := &capture{}
	em := &orders.Emitter{P: pub, Producer: "petcare-api"}
	require.NoError(t, em.Emit("", orders.TopicOrderCreated, orders.EventOrderCreated, "abc",
		orders.OrderCreatedPayload{OrderID: "abc", UserID: "u1", Status: orders.StatusPending}))

	m := pub.msgs[0]
	for i := range m.Headers {
		if m.Headers[i].Key == kafkax.HeaderEventVersion {
			m.Headers[i].Value = []byte("2")
		}
	}
	require.NoError(t, svc.HandleMessage(ctx, m))
	assert.Empty(t, in.got)
	_, found, err := redisx.CachedOrderStatus(ctx, rdb, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}
