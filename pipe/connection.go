package pipe

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/kbukum/flowkit/dag"
	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/subject"
)

// Endpoint is a (pipe, port) pair.
type Endpoint struct {
	Pipe string `json:"pipe" yaml:"pipe"`
	Port string `json:"port" yaml:"port"`
}

func (e Endpoint) String() string { return e.Pipe + "." + e.Port }

// ParseEndpoint parses "pipe.port".
func ParseEndpoint(s string) (Endpoint, error) {
	pipeName, port, ok := strings.Cut(s, ".")
	if !ok || pipeName == "" || port == "" {
		return Endpoint{}, apperrors.Configuration(fmt.Sprintf("endpoint %q must be \"pipe.port\"", s))
	}
	return Endpoint{Pipe: pipeName, Port: port}, nil
}

// Connection links From's target port to To's source port. Group is a free
// label for partitioning connections; it has no effect on scheduling.
type Connection struct {
	From  Endpoint
	To    Endpoint
	Group string
}

func (c Connection) String() string { return c.From.String() + "->" + c.To.String() }

// ConnectionBuilder records a connection once To is called.
type ConnectionBuilder struct {
	p     *Pipe
	from  Endpoint
	group string
}

// Connect starts a connection from fromPipe's target fromTarget. When
// fromPipe is SelfName, fromTarget names one of this pipe's sources.
func (p *Pipe) Connect(fromPipe, fromTarget string) *ConnectionBuilder {
	return &ConnectionBuilder{p: p, from: Endpoint{Pipe: fromPipe, Port: fromTarget}}
}

// Group labels the connection.
func (b *ConnectionBuilder) Group(label string) *ConnectionBuilder {
	b.group = label
	return b
}

// To completes the connection into toPipe's source toSource. When toPipe is
// SelfName, toSource names one of this pipe's targets.
func (b *ConnectionBuilder) To(toPipe, toSource string) *Connection {
	c := &Connection{From: b.from, To: Endpoint{Pipe: toPipe, Port: toSource}, Group: b.group}
	b.p.connections = append(b.p.connections, c)
	return c
}

// Connections returns the recorded connections in declaration order.
func (p *Pipe) Connections() []Connection {
	out := make([]Connection, len(p.connections))
	for i, c := range p.connections {
		out[i] = *c
	}
	return out
}

// ConnectionsInGroup returns the connections labelled group.
func (p *Pipe) ConnectionsInGroup(group string) []Connection {
	var out []Connection
	for _, c := range p.connections {
		if c.Group == group {
			out = append(out, *c)
		}
	}
	return out
}

// upstream returns the subject a connection reads from.
func (p *Pipe) upstream(e Endpoint) (subject.Subject, bool) {
	owner, ok := p.resolve(e.Pipe)
	if !ok {
		return nil, false
	}
	ports := owner.targets
	if e.Pipe == SelfName {
		ports = owner.sources
	}
	return ports.Get(e.Port)
}

// downstream returns the subject a connection writes to.
func (p *Pipe) downstream(e Endpoint) (subject.Subject, bool) {
	owner, ok := p.resolve(e.Pipe)
	if !ok {
		return nil, false
	}
	ports := owner.sources
	if e.Pipe == SelfName {
		ports = owner.targets
	}
	return ports.Get(e.Port)
}

// Validate checks every connection and returns all problems found, each a
// dag validation error: unknown pipes or ports, two connections sharing a
// source endpoint or a target endpoint, and cycles among children.
func (p *Pipe) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, apperrors.DagValidation(p.name, fmt.Sprintf(format, args...)))
	}

	from := make(map[Endpoint]*Connection)
	to := make(map[Endpoint]*Connection)
	for _, c := range p.connections {
		valid := true
		for _, e := range []Endpoint{c.From, c.To} {
			if _, ok := p.resolve(e.Pipe); !ok {
				fail("connection %s: unknown pipe %q", c, e.Pipe)
				valid = false
			}
		}
		if !valid {
			continue
		}
		if _, ok := p.upstream(c.From); !ok {
			fail("connection %s: %q has no %s %q", c, c.From.Pipe, upstreamDirection(c.From), c.From.Port)
		}
		if _, ok := p.downstream(c.To); !ok {
			fail("connection %s: %q has no %s %q", c, c.To.Pipe, downstreamDirection(c.To), c.To.Port)
		}

		if prev, ok := from[c.From]; ok {
			fail("connections %s and %s share the same source %s; use a fork", prev, c, c.From)
		} else {
			from[c.From] = c
		}
		if prev, ok := to[c.To]; ok {
			fail("connections %s and %s share the same target %s; use a concat", prev, c, c.To)
		} else {
			to[c.To] = c
		}
	}

	if err := p.checkCycles(); err != nil {
		fail("cycle among children: %v", err)
	}
	return errs
}

// checkCycles orders the children by their connections, ignoring self.
func (p *Pipe) checkCycles() error {
	g := dag.NewGraph()
	for _, name := range p.childOrder {
		if err := g.AddNode(dag.NodeFunc(name, nil)); err != nil {
			return err
		}
	}
	for _, c := range p.connections {
		if !g.Has(c.From.Pipe) || !g.Has(c.To.Pipe) {
			continue
		}
		g.AddEdge(c.From.Pipe, c.To.Pipe)
	}
	_, err := dag.BuildLevels(g)
	return err
}

func upstreamDirection(e Endpoint) string {
	if e.Pipe == SelfName {
		return DirectionSource
	}
	return DirectionTarget
}

func downstreamDirection(e Endpoint) string {
	if e.Pipe == SelfName {
		return DirectionTarget
	}
	return DirectionSource
}
