package store

import (
	"context"
	"fmt"
	"sync"

	billforge "github.com/medira/billforge"
)

// Design is the payload delivered to a client: the version that was published
// and the template's persisted JSON form.
type Design struct {
	Name      string
	VersionID string
	Template  []byte
}

// Transport delivers a published design to one client. Implementations are
// called concurrently and must be safe for concurrent use.
type Transport interface {
	Deliver(ctx context.Context, clientID string, design Design) error
}

// ClientDirectory lists the known client ids, used when publishing to all
// clients.
type ClientDirectory interface {
	ClientIDs(ctx context.Context) ([]string, error)
}

// Targets names the recipients of a publish: an explicit id list, or every
// client the directory knows.
type Targets struct {
	all bool
	ids []string
}

// AllClients targets every client in the publisher's directory.
func AllClients() Targets {
	return Targets{all: true}
}

// Clients targets the given client ids.
func Clients(ids ...string) Targets {
	return Targets{ids: ids}
}

// Delivery is the outcome of one client's publish.
type Delivery struct {
	ClientID string
	Err      error
}

// Report summarizes a publish fan-out.
type Report struct {
	Name       string
	VersionID  string
	Deliveries []Delivery
}

// Failed returns the deliveries that did not succeed.
func (r Report) Failed() []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Publisher pushes saved template versions out to clients. Deliveries run
// concurrently and one client's failure never blocks the others.
type Publisher struct {
	store     *Store
	transport Transport
	directory ClientDirectory
}

// NewPublisher creates a Publisher over the given store and transport. The
// directory may be nil if AllClients is never used.
func NewPublisher(s *Store, t Transport, dir ClientDirectory) *Publisher {
	return &Publisher{store: s, transport: t, directory: dir}
}

// Publish delivers the newest saved version of the named template to every
// target. It returns a per-client report; a delivery error is recorded, not
// returned, so the caller always learns which clients got the design.
func (p *Publisher) Publish(ctx context.Context, name string, targets Targets) (Report, error) {
	versions, err := p.store.Versions(name)
	if err != nil {
		return Report{}, err
	}
	return p.publish(ctx, name, versions[len(versions)-1], targets)
}

// PublishVersion delivers one specific saved version of the named template,
// so an older design can be pushed back out after a bad save.
func (p *Publisher) PublishVersion(ctx context.Context, name, versionID string, targets Targets) (Report, error) {
	versions, err := p.store.Versions(name)
	if err != nil {
		return Report{}, err
	}
	for _, v := range versions {
		if v.ID == versionID {
			return p.publish(ctx, name, v, targets)
		}
	}
	return Report{}, &billforge.Error{Op: "Publish",
		Err: fmt.Errorf("%w: %s@%s", billforge.ErrVersionNotFound, name, versionID)}
}

func (p *Publisher) publish(ctx context.Context, name string, version Version, targets Targets) (Report, error) {
	if p.transport == nil {
		return Report{}, &billforge.Error{Op: "Publish", Err: billforge.ErrNoTransport}
	}
	doc, err := p.store.read(name, version)
	if err != nil {
		return Report{}, err
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return Report{}, &billforge.Error{Op: "Publish", Err: err}
	}

	ids := targets.ids
	if targets.all {
		if p.directory == nil {
			return Report{}, &billforge.Error{Op: "Publish",
				Err: fmt.Errorf("no client directory for all-clients publish")}
		}
		ids, err = p.directory.ClientIDs(ctx)
		if err != nil {
			return Report{}, &billforge.Error{Op: "Publish", Err: err}
		}
	}

	design := Design{Name: name, VersionID: version.ID, Template: data}
	report := Report{
		Name:       name,
		VersionID:  version.ID,
		Deliveries: make([]Delivery, len(ids)),
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			report.Deliveries[i] = Delivery{
				ClientID: id,
				Err:      p.transport.Deliver(ctx, id, design),
			}
		}(i, id)
	}
	wg.Wait()
	return report, nil
}
