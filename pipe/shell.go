package pipe

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/subject"
)

// PortShell describes one port without its payload.
type PortShell struct {
	Name    string          `json:"name"`
	Variant subject.Variant `json:"variant"`
	Schema  *schema.Schema  `json:"schema"`
}

// Shell is the behavior-free shape of a pipe, suitable for sending to
// another process.
type Shell struct {
	Name    string      `json:"name"`
	Sources []PortShell `json:"sources"`
	Targets []PortShell `json:"targets"`
}

// Shell captures the pipe's ports.
func (p *Pipe) Shell() Shell {
	return Shell{
		Name:    p.name,
		Sources: portShells(p.sources),
		Targets: portShells(p.targets),
	}
}

func portShells(ports *subject.Ports) []PortShell {
	out := make([]PortShell, 0, ports.Len())
	for _, s := range ports.All() {
		out = append(out, PortShell{Name: s.Name(), Variant: s.Variant(), Schema: s.Schema()})
	}
	return out
}

// MarshalShell encodes the shell of p.
func MarshalShell(p *Pipe) ([]byte, error) {
	return json.Marshal(p.Shell())
}

// UnmarshalShell decodes a shell produced by MarshalShell.
func UnmarshalShell(data []byte) (Shell, error) {
	var sh Shell
	if err := json.Unmarshal(data, &sh); err != nil {
		return Shell{}, fmt.Errorf("pipe: decoding shell: %w", err)
	}
	return sh, nil
}

// Hydrate restores the shell's port names and schemas into p. Missing ports
// are declared with p's subject factory; existing ports whose schema differs
// are replaced. Payloads are not carried.
func (p *Pipe) Hydrate(sh Shell) error {
	if sh.Name != "" && p.parent == nil {
		p.name = sh.Name
		p.sources.SetOwner(p.name)
		p.targets.SetOwner(p.name)
	}
	if err := p.hydratePorts(p.sources, sh.Sources); err != nil {
		return err
	}
	return p.hydratePorts(p.targets, sh.Targets)
}

func (p *Pipe) hydratePorts(ports *subject.Ports, shells []PortShell) error {
	for _, ps := range shells {
		existing, ok := ports.Get(ps.Name)
		if !ok {
			if _, err := p.addPort(ports, ps.Name, ps.Schema, nil); err != nil {
				return err
			}
			continue
		}
		if existing.Schema().Equal(ps.Schema) {
			continue
		}
		if err := ports.Replace(p.factory(ps.Name, p.name, ps.Schema)); err != nil {
			return err
		}
	}
	return nil
}
