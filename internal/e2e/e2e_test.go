package e2e

import (
	"net/http"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayd/internal/config"
	"relayd/internal/registry"
	"relayd/pkg/types"
)

// TestE2E_RegisterAndRoute registers a consumer over the control plane and
// checks that only its events reach it.
func TestE2E_RegisterAndRoute(t *testing.T) {
	r := startRelay(t, nil)
	orders := newSink(t)
	c := ctl(t, r)

	assert.Equal(t, `OK:Producer 'orders' registered with events: ["order"]`, do(t, c, "REGISTER orders "+orders.URI()+" order"))

	publish(t, r, "order:id=1", "payment:id=2", `{"event_name":"order","msg":"id=3"}`)
	orders.expectAll(t, "id=1", "id=3")
	orders.expectNone(t, 200*time.Millisecond)
}

// TestE2E_FanOutAndUnsubscribe covers multiple subscribers and removal of a
// subscription at runtime.
func TestE2E_FanOutAndUnsubscribe(t *testing.T) {
	r := startRelay(t, nil)
	a, b := newSink(t), newSink(t)
	c := ctl(t, r)

	require.Contains(t, do(t, c, "REGISTER a "+a.URI()+" alerts"), "OK:")
	require.Contains(t, do(t, c, "REGISTER b "+b.URI()), "OK:")
	assert.Equal(t, "OK:Producer 'b' subscribed to event 'alerts'", do(t, c, "SUBSCRIBE b alerts"))

	publish(t, r, "alerts:disk full")
	a.expect(t, "disk full")
	b.expect(t, "disk full")

	assert.Equal(t, "OK:Producer 'a' unsubscribed from event 'alerts'", do(t, c, "UNSUBSCRIBE a alerts"))
	publish(t, r, "alerts:cpu hot")
	b.expect(t, "cpu hot")
	a.expectNone(t, 200*time.Millisecond)
}

// TestE2E_DefaultEvent routes lines without an event name to "default".
func TestE2E_DefaultEvent(t *testing.T) {
	r := startRelay(t, nil)
	d := newSink(t)
	c := ctl(t, r)
	require.Contains(t, do(t, c, "REGISTER d "+d.URI()+" default"), "OK:")

	publish(t, r, "no event here", "trailing:")
	d.expectAll(t, "no event here", "trailing:")
}

// TestE2E_DeadSubscriberDoesNotBlockOthers keeps delivering to live
// consumers when one registered address refuses connections.
func TestE2E_DeadSubscriberDoesNotBlockOthers(t *testing.T) {
	r := startRelay(t, func(cfg *config.Config) {
		cfg.SendTimeout = config.Duration{Duration: 500 * time.Millisecond}
	})
	live := newSink(t)
	c := ctl(t, r)
	require.Contains(t, do(t, c, "REGISTER dead tcp://127.0.0.1:1 e"), "OK:")
	require.Contains(t, do(t, c, "REGISTER live "+live.URI()+" e"), "OK:")

	publish(t, r, "e:one", "e:two")
	live.expectAll(t, "one", "two")
}

// TestE2E_StaticProducersAndAdminAPI loads producers from config and
// inspects them through the admin API.
func TestE2E_StaticProducersAndAdminAPI(t *testing.T) {
	s := newSink(t)
	r := startRelay(t, func(cfg *config.Config) {
		cfg.Producers = []registry.Spec{{ID: "static", URI: s.URI(), Events: []string{"boot"}}}
	})

	publish(t, r, "boot:hello")
	s.expect(t, "hello")

	resp, err := http.Get("http://" + r.AdminAddr() + "/producers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body types.ProducersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Producers, 1)
	assert.Equal(t, "static", body.Producers[0].ID)
	assert.Equal(t, []string{"boot"}, body.Producers[0].Events)

	req, err := http.NewRequest(http.MethodDelete, "http://"+r.AdminAddr()+"/producers/static", nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dresp.Body.Close()
	assert.Equal(t, http.StatusNoContent, dresp.StatusCode)
	assert.False(t, r.Registry().Has("static"))

	publish(t, r, "boot:again")
	s.expectNone(t, 200*time.Millisecond)
}

// TestE2E_List shows the registry state through the LIST command.
func TestE2E_List(t *testing.T) {
	r := startRelay(t, nil)
	c := ctl(t, r)
	require.Contains(t, do(t, c, "REGISTER p1 tcp://127.0.0.1:9000 a"), "OK:")
	require.Contains(t, do(t, c, "REGISTER p2 tcp://127.0.0.1:9001"), "OK:")

	want := "OK:Producers: 2\n" +
		"  p1 -> 127.0.0.1:9000 (events: [\"a\"])\n" +
		"  p2 -> 127.0.0.1:9001 (events: [])\n" +
		"Events: [\"a\"]"
	assert.Equal(t, want, do(t, c, "LIST"))
	assert.Equal(t, "ERROR:Producer not found: p3", do(t, c, "SUBSCRIBE p3 a"))
	assert.Equal(t, "OK:Goodbye", do(t, c, "QUIT"))
}
