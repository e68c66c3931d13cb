// Package event defines the closed set of messages that travel over the bus.
//
// Every variant is a plain value that owns its payload; slices are copied by
// the constructors so an event can move between goroutines freely. Fallible
// variants carry either a payload or a non-empty Err, never both.
package event

import (
	"fmt"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

// Event is implemented only by the variants in this package.
type Event interface {
	isEvent()
}

// Keyed is implemented by events addressed to a single entity view.
type Keyed interface {
	Event
	Key() string
}

// ClientReady carries a freshly built client handle.
type ClientReady struct {
	Client remote.Client
}

// AuthSucceeded carries the session token issued by a login.
type AuthSucceeded struct {
	Token auth.Token
}

// AuthFailed carries a human readable reason for a failed login, register
// or dial.
type AuthFailed struct {
	Reason string
}

// EndpointSelected asks the dispatch service to dial a new host.
type EndpointSelected struct {
	Host string
}

// EntityListReady carries the stock list.
type EntityListReady struct {
	Entities []market.Entity
	Err      string
}

// SeriesReady carries the result of a series fetch for one entity.
// Generation identifies the request parameters the result belongs to.
type SeriesReady struct {
	EntityID    string
	Generation  uint64
	Granularity market.Granularity
	Bars        []market.Bar
	Err         string
}

// PredictionReady carries the composed prediction for one entity.
type PredictionReady struct {
	EntityID   string
	Generation uint64
	Bars       []market.Bar
	Err        string
}

// MetadataReady carries issue metadata for one entity.
type MetadataReady struct {
	EntityID string
	Metadata *market.Metadata
	Err      string
}

func (ClientReady) isEvent()      {}
func (AuthSucceeded) isEvent()    {}
func (AuthFailed) isEvent()       {}
func (EndpointSelected) isEvent() {}
func (EntityListReady) isEvent()  {}
func (SeriesReady) isEvent()      {}
func (PredictionReady) isEvent()  {}
func (MetadataReady) isEvent()    {}

func (e SeriesReady) Key() string     { return e.EntityID }
func (e PredictionReady) Key() string { return e.EntityID }
func (e MetadataReady) Key() string   { return e.EntityID }

// NewEntityListReady builds the stock list result.
func NewEntityListReady(entities []market.Entity, err error) EntityListReady {
	if err != nil {
		return EntityListReady{Err: errString(err)}
	}
	// an empty list is still a loaded list
	return EntityListReady{Entities: append(make([]market.Entity, 0, len(entities)), entities...)}
}

// NewSeriesReady builds a series fetch result.
func NewSeriesReady(id string, gen uint64, g market.Granularity, bars []market.Bar, err error) SeriesReady {
	ev := SeriesReady{EntityID: id, Generation: gen, Granularity: g}
	if err != nil {
		ev.Err = errString(err)
		return ev
	}
	ev.Bars = clone(bars)
	return ev
}

// NewPredictionReady builds a prediction result.
func NewPredictionReady(id string, gen uint64, bars []market.Bar, err error) PredictionReady {
	ev := PredictionReady{EntityID: id, Generation: gen}
	if err != nil {
		ev.Err = errString(err)
		return ev
	}
	ev.Bars = clone(bars)
	return ev
}

// NewMetadataReady builds a metadata fetch result. A missing result with
// no error is reported as an error so the view does not ask again.
func NewMetadataReady(id string, md *market.Metadata, err error) MetadataReady {
	ev := MetadataReady{EntityID: id}
	switch {
	case err != nil:
		ev.Err = errString(err)
	case md == nil:
		ev.Err = "no issue information returned"
	default:
		c := *md
		ev.Metadata = &c
	}
	return ev
}

// Name returns a short label for logs.
func Name(ev Event) string {
	switch ev.(type) {
	case ClientReady:
		return "client_ready"
	case AuthSucceeded:
		return "auth_succeeded"
	case AuthFailed:
		return "auth_failed"
	case EndpointSelected:
		return "endpoint_selected"
	case EntityListReady:
		return "entity_list_ready"
	case SeriesReady:
		return "series_ready"
	case PredictionReady:
		return "prediction_ready"
	case MetadataReady:
		return "metadata_ready"
	default:
		return fmt.Sprintf("%T", ev)
	}
}

func errString(err error) string {
	if s := err.Error(); s != "" {
		return s
	}
	return "unknown error"
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
