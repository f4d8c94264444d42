package control

import (
	"strings"
	"testing"

	"relayd/internal/registry"
)

func newProc() (*Processor, *registry.Registry) {
	reg := registry.New()
	return &Processor{Registry: reg}, reg
}

func TestProcessRegister(t *testing.T) {
	p, reg := newProc()
	cases := []struct {
		line string
		want string
	}{
		{"REGISTER c1 tcp://127.0.0.1:9000", "OK:Producer 'c1' registered"},
		{"register c2 TCP://127.0.0.1:9001 orders payments", `OK:Producer 'c2' registered with events: ["orders", "payments"]`},
		{"REGISTER c3", "ERROR:Usage: REGISTER <id> <protocol>://<address> [events...]"},
		{"REGISTER c3 127.0.0.1:9000", "ERROR:Invalid URI format. Expected: protocol://address"},
		{"REGISTER c3 udp://127.0.0.1:9000", "ERROR:Unsupported protocol: udp"},
		{"REGISTER c3 tcp://not-an-address", "ERROR:Invalid address: not-an-address"},
	}
	for _, tc := range cases {
		if got := p.Process(tc.line).String(); got != tc.want {
			t.Fatalf("%q: got %q want %q", tc.line, got, tc.want)
		}
	}
	if reg.Count() != 2 || reg.Has("c3") {
		t.Fatalf("ids=%v", reg.IDs())
	}
	if got := reg.Subscribers("orders"); len(got) != 1 || got[0] != "c2" {
		t.Fatalf("orders subscribers=%v", got)
	}
}

func TestProcessSubscribeUnsubscribe(t *testing.T) {
	p, reg := newProc()
	p.Process("REGISTER c1 tcp://127.0.0.1:9000")

	if got := p.Process("SUBSCRIBE c1 orders").String(); got != "OK:Producer 'c1' subscribed to event 'orders'" {
		t.Fatalf("subscribe: %q", got)
	}
	if got := p.Process("SUBSCRIBE c1").String(); got != "ERROR:Usage: SUBSCRIBE <id> <event_name>" {
		t.Fatalf("usage: %q", got)
	}
	if got := p.Process("SUBSCRIBE c1 a b").String(); got != "ERROR:Usage: SUBSCRIBE <id> <event_name>" {
		t.Fatalf("usage extra arg: %q", got)
	}
	if got := p.Process("SUBSCRIBE ghost orders").String(); got != "ERROR:Producer not found: ghost" {
		t.Fatalf("not found: %q", got)
	}
	if got := p.Process("unsubscribe c1 orders").String(); got != "OK:Producer 'c1' unsubscribed from event 'orders'" {
		t.Fatalf("unsubscribe: %q", got)
	}
	if got := p.Process("UNSUBSCRIBE c1").String(); got != "ERROR:Usage: UNSUBSCRIBE <id> <event_name>" {
		t.Fatalf("usage: %q", got)
	}
	if got := p.Process("UNSUBSCRIBE ghost orders").String(); got != "ERROR:Producer not found: ghost" {
		t.Fatalf("not found: %q", got)
	}
	if len(reg.SubscribedEvents()) != 0 {
		t.Fatalf("events=%v", reg.SubscribedEvents())
	}
}

func TestProcessList(t *testing.T) {
	p, _ := newProc()
	if got := p.Process("LIST").String(); got != "OK:Producers: 0\nEvents: []" {
		t.Fatalf("empty list: %q", got)
	}
	p.Process("REGISTER p2 tcp://127.0.0.1:9001")
	p.Process("REGISTER p1 tcp://127.0.0.1:9000 a")
	want := strings.Join([]string{
		"OK:Producers: 2",
		`  p1 -> 127.0.0.1:9000 (events: ["a"])`,
		"  p2 -> 127.0.0.1:9001 (events: [])",
		`Events: ["a"]`,
	}, "\n")
	if got := p.Process("list").String(); got != want {
		t.Fatalf("list:\n%s\nwant:\n%s", got, want)
	}
}

func TestProcessQuitAndUnknown(t *testing.T) {
	p, _ := newProc()
	r := p.Process("quit")
	if !r.Quit || r.String() != "OK:Goodbye" {
		t.Fatalf("quit: %+v", r)
	}
	if r := p.Process("QUIT now"); r.Quit || r.String() != "ERROR:Usage: QUIT" {
		t.Fatalf("quit with args: %+v", r)
	}
	if got := p.Process("FROB x").String(); got != "ERROR:Unknown command: FROB" {
		t.Fatalf("unknown: %q", got)
	}
	if r := p.Process("   "); r.OK {
		t.Fatalf("blank line should not succeed")
	}
}
