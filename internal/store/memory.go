package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warelink/mpbridge/internal/model"
)

// Memory is an in-memory Store for tests and single-node deployments.
type Memory struct {
	mu       sync.RWMutex
	pickings map[string]*model.Picking
	methods  map[string]*model.CarrierMethod
	pkgTypes map[string]*model.PackageType
	orders   map[string]*model.Order
	partners map[string]*model.Partner

	invoiceSeq int

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		pickings: make(map[string]*model.Picking),
		methods:  make(map[string]*model.CarrierMethod),
		pkgTypes: make(map[string]*model.PackageType),
		orders:   make(map[string]*model.Order),
		partners: make(map[string]*model.Partner),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Seed helpers used by tests and local bootstrap.

func (m *Memory) PutPicking(p *model.Picking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.pickings[p.ID] = &cp
}

func (m *Memory) PutCarrierMethod(c *model.CarrierMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.methods[c.ID] = &cp
}

func (m *Memory) PutPackageType(t *model.PackageType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.pkgTypes[t.ID] = &cp
}

func (m *Memory) PutOrder(o *model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
}

func (m *Memory) PutPartner(p *model.Partner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.partners[p.ID] = &cp
}

func (m *Memory) FindPicking(ctx context.Context, origin, name string) (*model.Picking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pickings {
		if p.Origin == origin && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetPicking(ctx context.Context, id string) (*model.Picking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.pickings[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdatePicking(ctx context.Context, id string, patch model.PickingPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickings[id]
	if !ok {
		return ErrNotFound
	}
	if patch.CarrierID != nil {
		p.CarrierID = *patch.CarrierID
	}
	if patch.CarrierTrackingRef != nil {
		p.CarrierTrackingRef = *patch.CarrierTrackingRef
	}
	if patch.CarrierPrice != nil {
		p.CarrierPrice = *patch.CarrierPrice
	}
	if patch.ScheduledDate != nil {
		p.ScheduledDate = *patch.ScheduledDate
	}
	return nil
}

func (m *Memory) AppendPickingNote(ctx context.Context, id, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickings[id]
	if !ok {
		return ErrNotFound
	}
	p.Notes = append(p.Notes, note)
	return nil
}

// WithPickingLock serializes callers per picking id.
func (m *Memory) WithPickingLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	m.lockMu.Lock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	m.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

func (m *Memory) GetCarrierMethod(ctx context.Context, id string) (*model.CarrierMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.methods[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) GetPackageType(ctx context.Context, id string) (*model.PackageType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.pkgTypes[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) FindPackageType(ctx context.Context, shipperCode, carrierType string) (*model.PackageType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.pkgTypes {
		if t.ShipperCode == shipperCode && t.CarrierType == carrierType {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindCarrierMethodByPackageType(ctx context.Context, packageTypeID, deliveryType string) (*model.CarrierMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.methods {
		if c.DefaultPackageTypeID == packageTypeID && c.DeliveryType == deliveryType {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindCarrierMethodByNameOrType(ctx context.Context, code string) (*model.CarrierMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.methods {
		if c.Name == code || c.DeliveryType == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.partners[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) NextInvoiceNumber(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoiceSeq++
	return fmt.Sprintf("RINV/%05d", m.invoiceSeq), nil
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
