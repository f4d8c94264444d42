// Package control implements the line-based registration protocol through
// which external consumers register, subscribe and unsubscribe.
package control

import (
	"fmt"
	"strconv"
	"strings"

	"relayd/internal/client"
	"relayd/internal/registry"
)

// Version is announced in the banner.
const Version = "1.0"

// Banner is written to every new control connection.
var Banner = []string{
	"REGISTRATION_SERVER:" + Version,
	"Commands: REGISTER <id> <protocol>://<address> [events...]",
	"          SUBSCRIBE <id> <event_name>",
	"          UNSUBSCRIBE <id> <event_name>",
	"          LIST",
	"          QUIT",
}

// Command keywords.
const (
	CmdRegister    = "REGISTER"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdList        = "LIST"
	CmdQuit        = "QUIT"
)

const (
	usageRegister    = "Usage: REGISTER <id> <protocol>://<address> [events...]"
	usageSubscribe   = "Usage: SUBSCRIBE <id> <event_name>"
	usageUnsubscribe = "Usage: UNSUBSCRIBE <id> <event_name>"
	usageQuit        = "Usage: QUIT"
)

// Response is the reply to one command line.
type Response struct {
	// Keyword is the upper-cased command, "" for a blank line.
	Keyword string
	OK      bool
	// Text is the reply without its OK:/ERROR: prefix; it may span lines.
	Text string
	// Quit asks the session to end after the reply is written.
	Quit bool
}

// String renders the wire form.
func (r Response) String() string {
	if r.OK {
		return "OK:" + r.Text
	}
	return "ERROR:" + r.Text
}

// Processor applies registration commands to a registry.
type Processor struct {
	Registry *registry.Registry
	// ClientOptions are passed to every client built by REGISTER.
	ClientOptions []client.Option
}

// Process parses and applies one command line.
func (p *Processor) Process(line string) Response {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return fail("", "Empty command")
	}
	kw := strings.ToUpper(parts[0])
	args := parts[1:]
	switch kw {
	case CmdRegister:
		return p.register(args)
	case CmdSubscribe:
		if len(args) != 2 {
			return fail(kw, usageSubscribe)
		}
		if err := p.Registry.Subscribe(args[0], args[1]); err != nil {
			return fail(kw, err.Error())
		}
		return ok(kw, fmt.Sprintf("Producer '%s' subscribed to event '%s'", args[0], args[1]))
	case CmdUnsubscribe:
		if len(args) != 2 {
			return fail(kw, usageUnsubscribe)
		}
		if err := p.Registry.Unsubscribe(args[0], args[1]); err != nil {
			return fail(kw, err.Error())
		}
		return ok(kw, fmt.Sprintf("Producer '%s' unsubscribed from event '%s'", args[0], args[1]))
	case CmdList:
		return ok(kw, p.list())
	case CmdQuit:
		if len(args) != 0 {
			return fail(kw, usageQuit)
		}
		r := ok(kw, "Goodbye")
		r.Quit = true
		return r
	default:
		return fail("", "Unknown command: "+parts[0])
	}
}

func (p *Processor) register(args []string) Response {
	if len(args) < 2 {
		return fail(CmdRegister, usageRegister)
	}
	id, uri, evts := args[0], args[1], args[2:]
	c, err := client.FromURI(uri, p.ClientOptions...)
	if err != nil {
		return fail(CmdRegister, err.Error())
	}
	p.Registry.AddProducerWithEvents(id, c, evts...)
	if len(evts) == 0 {
		return ok(CmdRegister, fmt.Sprintf("Producer '%s' registered", id))
	}
	return ok(CmdRegister, fmt.Sprintf("Producer '%s' registered with events: %s", id, quoteList(evts)))
}

// list renders the producer table, sorted by ID.
func (p *Processor) list() string {
	snap := p.Registry.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "Producers: %d\n", len(snap))
	for _, info := range snap {
		fmt.Fprintf(&b, "  %s -> %s (events: %s)\n", info.ID, info.Address, quoteList(info.Events))
	}
	b.WriteString("Events: " + quoteList(p.Registry.SubscribedEvents()))
	return b.String()
}

// quoteList renders ["a", "b"].
func quoteList(items []string) string {
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(q, ", ") + "]"
}

func ok(kw, text string) Response   { return Response{Keyword: kw, OK: true, Text: text} }
func fail(kw, text string) Response { return Response{Keyword: kw, Text: text} }
