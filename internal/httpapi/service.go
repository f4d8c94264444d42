package httpapi

import (
	"time"

	"relayd/internal/registry"
	"relayd/pkg/types"
)

// RegistryService implements Service on top of a registry. The address
// and readiness funcs are optional; a nil serving func reports true.
type RegistryService struct {
	Registry       *registry.Registry
	IngressAddr    func() string
	ControlAddr    func() string
	IngressServing func() bool
	ControlServing func() bool
	ReadyFunc      func() bool
	Started        time.Time
}

func (s *RegistryService) Producers() []types.ProducerInfo { return s.Registry.Snapshot() }

func (s *RegistryService) Producer(id string) (types.ProducerInfo, bool) {
	p, ok := s.Registry.Get(id)
	if !ok {
		return types.ProducerInfo{}, false
	}
	return p.Info(), true
}

func (s *RegistryService) RemoveProducer(id string) bool {
	_, ok := s.Registry.RemoveProducer(id)
	return ok
}

func (s *RegistryService) Subscribers(event string) types.EventSubscribers {
	return types.EventSubscribers{Event: event, Producers: s.Registry.Subscribers(event)}
}

func (s *RegistryService) Ready() bool {
	if s.ReadyFunc == nil {
		return true
	}
	return s.ReadyFunc()
}

func (s *RegistryService) Status() types.StatusResponse {
	now := time.Now()
	st := types.StatusResponse{
		IngressAddr:    call(s.IngressAddr),
		ControlAddr:    call(s.ControlAddr),
		IngressServing: serving(s.IngressServing),
		ControlServing: serving(s.ControlServing),
		Producers:      s.Registry.Count(),
		Events:         s.Registry.SubscribedEvents(),
		Ready:          s.Ready(),
		ServerTimeUnix: now.Unix(),
	}
	if !s.Started.IsZero() {
		st.UptimeSeconds = int64(now.Sub(s.Started).Seconds())
	}
	return st
}

func serving(f func() bool) bool {
	if f == nil {
		return true
	}
	return f()
}

func call(f func() string) string {
	if f == nil {
		return ""
	}
	return f()
}
