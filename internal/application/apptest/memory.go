// Package apptest provee repositorios en memoria para las pruebas de los
// casos de uso. Clonan en cada lectura/escritura para simular una base real
// (nada de aliasing con el llamador) y honran la guarda por versión del
// inventario, lo que permite probar la exclusividad de asignación.
package apptest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Suscripta-api/internal/domain"
	"github.com/jhoicas/Suscripta-api/internal/domain/entity"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// InventoryRepo implementación en memoria de repository.InventoryRepository.
type InventoryRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.InventoryUnit
	seq  int
}

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// NewInventoryRepo construye el repositorio vacío.
func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{byID: make(map[string]*entity.InventoryUnit)}
}

// Seed inserta unidades sin pasar por Create (estado inicial de la prueba).
func (r *InventoryRepo) Seed(units ...*entity.InventoryUnit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range units {
		r.byID[u.ID] = cloneUnit(u)
	}
}

func (r *InventoryRepo) Create(_ context.Context, u *entity.InventoryUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrConflict
	}
	r.byID[u.ID] = cloneUnit(u)
	return nil
}

func (r *InventoryRepo) GetByID(_ context.Context, id string) (*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneUnit(u), nil
}

func (r *InventoryRepo) List(_ context.Context, limit, offset int) ([]*entity.InventoryUnit, error) {
	all, _ := r.ListAll(context.Background())
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *InventoryRepo) ListAll(_ context.Context) ([]*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.InventoryUnit, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUnit(u))
	}
	return out, nil
}

func (r *InventoryRepo) FindByLinkedOrder(_ context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryUnit
	for _, u := range r.byID {
		if !u.IsAccountBased && u.LinkedOrderID == orderID {
			out = append(out, cloneUnit(u))
		}
	}
	return out, nil
}

func (r *InventoryRepo) FindBySlotOrder(_ context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryUnit
	for _, u := range r.byID {
		if u.IsAccountBased && u.SlotAssignedTo(orderID) != nil {
			out = append(out, cloneUnit(u))
		}
	}
	return out, nil
}

func (r *InventoryRepo) FindNeedsUpdateByOrder(_ context.Context, orderID string) ([]*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryUnit
	for _, u := range r.byID {
		if !u.IsAccountBased && u.Status == entity.UnitStatusNeedsUpdate && u.PreviousLinkedOrderID == orderID {
			out = append(out, cloneUnit(u))
			continue
		}
		for _, s := range u.Profiles {
			if s.NeedsUpdate && s.PreviousOrderID == orderID {
				out = append(out, cloneUnit(u))
				break
			}
		}
	}
	return out, nil
}

func (r *InventoryRepo) FindEligible(_ context.Context, productID, packageID string, sharedPool bool) ([]*entity.InventoryUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryUnit
	for _, u := range r.byID {
		if sharedPool {
			if u.ProductID != productID {
				continue
			}
		} else if u.PackageID != packageID {
			continue
		}
		out = append(out, cloneUnit(u))
	}
	return out, nil
}

func (r *InventoryRepo) Update(_ context.Context, u *entity.InventoryUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[u.ID] = cloneUnit(u)
	return nil
}

func (r *InventoryRepo) UpdateGuarded(_ context.Context, u *entity.InventoryUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != u.Version {
		return domain.ErrConflict
	}
	u.Version++
	r.byID[u.ID] = cloneUnit(u)
	return nil
}

func (r *InventoryRepo) NextCode(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("INV-%06d", r.seq), nil
}

// OrderRepo implementación en memoria de repository.OrderRepository.
type OrderRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Order
	seq  int
}

var _ repository.OrderRepository = (*OrderRepo)(nil)

// NewOrderRepo construye el repositorio vacío.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{byID: make(map[string]*entity.Order)}
}

// Seed inserta pedidos directamente.
func (r *OrderRepo) Seed(orders ...*entity.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		r.byID[o.ID] = cloneOrder(o)
	}
}

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID]; ok {
		return domain.ErrConflict
	}
	r.byID[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *OrderRepo) List(_ context.Context, limit, offset int) ([]*entity.Order, error) {
	all, _ := r.ListAll(context.Background())
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *OrderRepo) ListAll(_ context.Context) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Order, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *OrderRepo) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *OrderRepo) Update(_ context.Context, o *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) NextCode(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("ORD-%06d", r.seq), nil
}

// PackageRepo implementación en memoria de repository.PackageRepository.
type PackageRepo struct {
	byID map[string]*entity.Package
}

var _ repository.PackageRepository = (*PackageRepo)(nil)

// NewPackageRepo construye el repositorio con los paquetes dados.
func NewPackageRepo(pkgs ...*entity.Package) *PackageRepo {
	r := &PackageRepo{byID: make(map[string]*entity.Package)}
	for _, p := range pkgs {
		r.byID[p.ID] = p
	}
	return r
}

func (r *PackageRepo) GetByID(_ context.Context, id string) (*entity.Package, error) {
	return r.byID[id], nil
}

func (r *PackageRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Package, error) {
	var out []*entity.Package
	for _, p := range r.byID {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CustomerRepo implementación en memoria de repository.CustomerRepository.
type CustomerRepo struct {
	byID map[string]*entity.Customer
}

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// NewCustomerRepo construye el repositorio con los clientes dados.
func NewCustomerRepo(customers ...*entity.Customer) *CustomerRepo {
	r := &CustomerRepo{byID: make(map[string]*entity.Customer)}
	for _, c := range customers {
		r.byID[c.ID] = c
	}
	return r
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.byID[id], nil
}

// InventoryRenewalRepo implementación en memoria de
// repository.InventoryRenewalRepository.
type InventoryRenewalRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.InventoryRenewal
}

var _ repository.InventoryRenewalRepository = (*InventoryRenewalRepo)(nil)

// NewInventoryRenewalRepo construye el repositorio vacío.
func NewInventoryRenewalRepo() *InventoryRenewalRepo {
	return &InventoryRenewalRepo{byID: make(map[string]*entity.InventoryRenewal)}
}

func (r *InventoryRenewalRepo) Create(_ context.Context, rec *entity.InventoryRenewal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.byID[rec.ID] = &cp
	return nil
}

func (r *InventoryRenewalRepo) GetByID(_ context.Context, id string) (*entity.InventoryRenewal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *InventoryRenewalRepo) ListByInventory(_ context.Context, inventoryID string) ([]*entity.InventoryRenewal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InventoryRenewal
	for _, rec := range r.byID {
		if rec.InventoryID == inventoryID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InventoryRenewalRepo) UpdatePaymentStatus(_ context.Context, id, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.PaymentStatus = paymentStatus
	return nil
}

// ActivityLogRepo implementación en memoria del sink de auditoría.
type ActivityLogRepo struct {
	mu      sync.Mutex
	Entries []*entity.ActivityLog
}

var _ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)

// NewActivityLogRepo construye el sink vacío.
func NewActivityLogRepo() *ActivityLogRepo {
	return &ActivityLogRepo{}
}

func (r *ActivityLogRepo) Create(_ context.Context, l *entity.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, l)
	return nil
}

func (r *ActivityLogRepo) ListByEntity(_ context.Context, entityType, entityID string, limit int) ([]*entity.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ActivityLog
	for _, l := range r.Entries {
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, l)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// TxRunner ejecuta el callback directamente sobre los repos en memoria.
// No simula rollback: las pruebas que lo necesitan verifican el estado final.
type TxRunner struct {
	Units  *InventoryRepo
	Orders *OrderRepo
}

// Run invoca fn con los repositorios en memoria.
func (t *TxRunner) Run(_ context.Context, fn func(
	units repository.InventoryRepository,
	orders repository.OrderRepository,
) error) error {
	return fn(t.Units, t.Orders)
}

func cloneUnit(u *entity.InventoryUnit) *entity.InventoryUnit {
	cp := *u
	cp.Profiles = append([]entity.Slot(nil), u.Profiles...)
	cp.AccountColumns = append([]entity.AccountColumn(nil), u.AccountColumns...)
	if u.AccountData != nil {
		cp.AccountData = make(map[string]string, len(u.AccountData))
		for k, v := range u.AccountData {
			cp.AccountData[k] = v
		}
	}
	return &cp
}

func cloneOrder(o *entity.Order) *entity.Order {
	cp := *o
	cp.InventoryProfileIDs = append([]string(nil), o.InventoryProfileIDs...)
	cp.Renewals = append([]entity.RenewalRecord(nil), o.Renewals...)
	return &cp
}
