// Package testutil provee un almacén en memoria que implementa los puertos de repositorio
// y los TxRunner, para probar casos de uso sin PostgreSQL.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/domain/repository"
)

// D parsea un decimal; entra en pánico si s no es válido.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// MemStore almacén en memoria. Las transacciones se serializan y se revierten si fn devuelve error.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	materials   map[string]entity.RawMaterial
	receipts    []entity.StockReceipt
	recipes     []entity.Recipe
	items       []entity.RecipeItem
	products    []entity.FinalProduct
	records     []entity.InventoryRecord
	movements   []entity.InventoryMovement
	batches     map[string]entity.BatchManufacturingRecord
	conversions map[string]entity.UnitConversion

	fail map[string]error
	// Calls cuenta las operaciones ejecutadas por nombre.
	Calls map[string]int
}

// NewMemStore crea un almacén vacío.
func NewMemStore() *MemStore {
	return &MemStore{
		materials:   map[string]entity.RawMaterial{},
		batches:     map[string]entity.BatchManufacturingRecord{},
		conversions: map[string]entity.UnitConversion{},
		fail:        map[string]error{},
		Calls:       map[string]int{},
	}
}

// FailOn hace que la operación op devuelva err hasta que se llame ClearFailures.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// ClearFailures elimina los fallos inyectados.
func (s *MemStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = map[string]error{}
}

// call registra la operación y devuelve el fallo inyectado, si hay. Requiere s.mu tomado.
func (s *MemStore) call(op string) error {
	s.Calls[op]++
	return s.fail[op]
}

// ── Datos de prueba ──────────────────────────────────────────────────────────

// AddMaterial agrega una materia prima.
func (s *MemStore) AddMaterial(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[id] = entity.RawMaterial{ID: id, Name: name, Unit: "kg"}
}

// AddReceipt agrega una recepción de materia prima.
func (s *MemStore) AddReceipt(materialID, qty, price string, accepted bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("rcpt-%d", len(s.receipts)+1)
	s.receipts = append(s.receipts, entity.StockReceipt{
		ID: id, RawMaterialID: materialID, Quantity: D(qty), UnitPrice: D(price), IsAccepted: accepted,
	})
	return id
}

// AddRecipe agrega una receta vacía.
func (s *MemStore) AddRecipe(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = append(s.recipes, entity.Recipe{ID: id, Name: name})
}

// AddItem agrega un ítem a una receta.
func (s *MemStore) AddItem(recipeID, materialID, qty string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, entity.RecipeItem{
		ID: fmt.Sprintf("item-%d", len(s.items)+1), RecipeID: recipeID, RawMaterialID: materialID, Quantity: D(qty),
	})
}

// AddProduct agrega un producto final. recipeID vacío = sin receta.
func (s *MemStore) AddProduct(id, name, recipeID, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := entity.FinalProduct{ID: id, Name: name, UnitPrice: D(price)}
	if recipeID != "" {
		rid := recipeID
		p.RecipeID = &rid
	}
	s.products = append(s.products, p)
}

// AddRecord agrega un registro de inventario y devuelve su ID.
func (s *MemStore) AddRecord(name, stock string, finalProduct bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("inv-%d", len(s.records)+1)
	s.records = append(s.records, entity.InventoryRecord{
		ID: id, ProductName: name, StockLevel: D(stock), IsFinalProduct: finalProduct, Unit: "kg", ReorderPoint: decimal.Zero,
	})
	return id
}

// AddBatch guarda un lote para Reprocess.
func (s *MemStore) AddBatch(b entity.BatchManufacturingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

// ── Consultas para aserciones ────────────────────────────────────────────────

// Recipe devuelve una copia de la receta.
func (s *MemStore) Recipe(id string) entity.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipes {
		if r.ID == id {
			return r
		}
	}
	return entity.Recipe{}
}

// Items devuelve copias de los ítems de la receta.
func (s *MemStore) Items(recipeID string) []entity.RecipeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.RecipeItem
	for _, it := range s.items {
		if it.RecipeID == recipeID {
			out = append(out, it)
		}
	}
	return out
}

// Product devuelve una copia del producto final.
func (s *MemStore) Product(id string) entity.FinalProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return entity.FinalProduct{}
}

// Material devuelve una copia de la materia prima.
func (s *MemStore) Material(id string) entity.RawMaterial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials[id]
}

// Record devuelve una copia del registro de inventario por nombre (primero que coincida).
func (s *MemStore) Record(name string, finalProduct bool) (entity.InventoryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ProductName == name && r.IsFinalProduct == finalProduct {
			return r, true
		}
	}
	return entity.InventoryRecord{}, false
}

// Movements devuelve los movimientos del tipo indicado (todos si t es vacío).
func (s *MemStore) Movements(t string) []entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.InventoryMovement
	for _, m := range s.movements {
		if t == "" || m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Conversion devuelve la conversión kg/bolsa de un producto.
func (s *MemStore) Conversion(productID string) (entity.UnitConversion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversions[productID]
	return c, ok
}

// ── Transacciones ────────────────────────────────────────────────────────────

type snapshot struct {
	materials   map[string]entity.RawMaterial
	receipts    []entity.StockReceipt
	recipes     []entity.Recipe
	items       []entity.RecipeItem
	products    []entity.FinalProduct
	records     []entity.InventoryRecord
	movements   []entity.InventoryMovement
	conversions map[string]entity.UnitConversion
}

func (s *MemStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		materials:   make(map[string]entity.RawMaterial, len(s.materials)),
		receipts:    append([]entity.StockReceipt(nil), s.receipts...),
		recipes:     append([]entity.Recipe(nil), s.recipes...),
		items:       append([]entity.RecipeItem(nil), s.items...),
		products:    append([]entity.FinalProduct(nil), s.products...),
		records:     append([]entity.InventoryRecord(nil), s.records...),
		movements:   append([]entity.InventoryMovement(nil), s.movements...),
		conversions: make(map[string]entity.UnitConversion, len(s.conversions)),
	}
	for k, v := range s.materials {
		snap.materials[k] = v
	}
	for k, v := range s.conversions {
		snap.conversions[k] = v
	}
	return snap
}

func (s *MemStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = snap.materials
	s.receipts = snap.receipts
	s.recipes = snap.recipes
	s.items = snap.items
	s.products = snap.products
	s.records = snap.records
	s.movements = snap.movements
	s.conversions = snap.conversions
}

func (s *MemStore) inTx(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// TxRunner implementa costing.TxRunner e inventory.TxRunner sobre el almacén.
type TxRunner struct{ s *MemStore }

// TxRunner devuelve el runner de transacciones del almacén.
func (s *MemStore) TxRunner() *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn con los repositorios de inventario.
func (t *TxRunner) Run(ctx context.Context, fn func(
	recordRepo repository.InventoryRecordRepository,
	movRepo repository.InventoryMovementRepository,
) error) error {
	return t.s.inTx(func() error {
		return fn(t.s.RecordRepo(), t.s.MovementRepo())
	})
}

// RunCosting ejecuta fn con los repositorios de costeo.
func (t *TxRunner) RunCosting(ctx context.Context, fn func(
	recipeRepo repository.RecipeRepository,
	productRepo repository.FinalProductRepository,
) error) error {
	return t.s.inTx(func() error {
		return fn(t.s.RecipeRepo(), t.s.ProductRepo())
	})
}

// ── Repositorios ─────────────────────────────────────────────────────────────

// MaterialRepo devuelve el repositorio de materias primas.
func (s *MemStore) MaterialRepo() repository.RawMaterialRepository { return materialRepo{s} }

// ReceiptRepo devuelve el repositorio de recepciones.
func (s *MemStore) ReceiptRepo() repository.StockReceiptRepository { return receiptRepo{s} }

// RecipeRepo devuelve el repositorio de recetas.
func (s *MemStore) RecipeRepo() repository.RecipeRepository { return recipeRepo{s} }

// ProductRepo devuelve el repositorio de productos finales.
func (s *MemStore) ProductRepo() repository.FinalProductRepository { return productRepo{s} }

// RecordRepo devuelve el repositorio de registros de inventario.
func (s *MemStore) RecordRepo() repository.InventoryRecordRepository { return recordRepo{s} }

// MovementRepo devuelve el repositorio de movimientos.
func (s *MemStore) MovementRepo() repository.InventoryMovementRepository { return movementRepo{s} }

// BatchRepo devuelve el repositorio de lotes.
func (s *MemStore) BatchRepo() repository.BatchRepository { return batchRepo{s} }

// ConversionRepo devuelve el repositorio de conversiones kg/bolsa.
func (s *MemStore) ConversionRepo() repository.UnitConversionRepository { return conversionRepo{s} }

type materialRepo struct{ s *MemStore }

func (r materialRepo) GetByID(_ context.Context, id string) (*entity.RawMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("materials.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.materials[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r materialRepo) UpdateAverageCost(_ context.Context, id string, cost decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("materials.UpdateAverageCost"); err != nil {
		return err
	}
	m, ok := r.s.materials[id]
	if !ok {
		return nil
	}
	m.AverageCost = cost
	r.s.materials[id] = m
	return nil
}

type receiptRepo struct{ s *MemStore }

func (r receiptRepo) Create(_ context.Context, receipt *entity.StockReceipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("receipts.Create"); err != nil {
		return err
	}
	r.s.receipts = append(r.s.receipts, *receipt)
	return nil
}

func (r receiptRepo) GetByID(_ context.Context, id string) (*entity.StockReceipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("receipts.GetByID"); err != nil {
		return nil, err
	}
	for _, rc := range r.s.receipts {
		if rc.ID == id {
			return &rc, nil
		}
	}
	return nil, nil
}

func (r receiptRepo) ListAcceptedByMaterial(_ context.Context, materialID string) ([]*entity.StockReceipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("receipts.ListAcceptedByMaterial"); err != nil {
		return nil, err
	}
	var out []*entity.StockReceipt
	for _, rc := range r.s.receipts {
		if rc.RawMaterialID == materialID && rc.IsAccepted {
			out = append(out, &rc)
		}
	}
	return out, nil
}

func (r receiptRepo) MarkAccepted(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("receipts.MarkAccepted"); err != nil {
		return err
	}
	for i := range r.s.receipts {
		if r.s.receipts[i].ID == id {
			r.s.receipts[i].IsAccepted = true
		}
	}
	return nil
}

type recipeRepo struct{ s *MemStore }

func (r recipeRepo) GetByID(_ context.Context, id string) (*entity.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.GetByID"); err != nil {
		return nil, err
	}
	for _, rc := range r.s.recipes {
		if rc.ID == id {
			return &rc, nil
		}
	}
	return nil, nil
}

func (r recipeRepo) ListIDs(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.ListIDs"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(r.s.recipes))
	for _, rc := range r.s.recipes {
		ids = append(ids, rc.ID)
	}
	return ids, nil
}

func (r recipeRepo) ListIDsByMaterial(_ context.Context, materialID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.ListIDsByMaterial"); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ids []string
	for _, it := range r.s.items {
		if it.RawMaterialID == materialID && !seen[it.RecipeID] {
			seen[it.RecipeID] = true
			ids = append(ids, it.RecipeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r recipeRepo) ListItems(_ context.Context, recipeID string) ([]*entity.RecipeItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.ListItems"); err != nil {
		return nil, err
	}
	var out []*entity.RecipeItem
	for _, it := range r.s.items {
		if it.RecipeID == recipeID {
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r recipeRepo) UpdateItemCost(_ context.Context, item *entity.RecipeItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.UpdateItemCost"); err != nil {
		return err
	}
	for i := range r.s.items {
		if r.s.items[i].ID == item.ID {
			r.s.items[i].UnitCost = item.UnitCost
			r.s.items[i].TotalCost = item.TotalCost
		}
	}
	return nil
}

func (r recipeRepo) UpdateTotalPrice(_ context.Context, recipeID string, total decimal.Decimal) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("recipes.UpdateTotalPrice"); err != nil {
		return 0, err
	}
	for i := range r.s.recipes {
		if r.s.recipes[i].ID == recipeID {
			// La versión solo avanza si el total cambia.
			if !r.s.recipes[i].TotalPrice.Equal(total) || r.s.recipes[i].CostVersion == 0 {
				r.s.recipes[i].CostVersion++
			}
			r.s.recipes[i].TotalPrice = total
			return r.s.recipes[i].CostVersion, nil
		}
	}
	return 0, nil
}

type productRepo struct{ s *MemStore }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.FinalProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("products.GetByID"); err != nil {
		return nil, err
	}
	for _, p := range r.s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (r productRepo) ListByRecipe(_ context.Context, recipeID string) ([]*entity.FinalProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("products.ListByRecipe"); err != nil {
		return nil, err
	}
	var out []*entity.FinalProduct
	for _, p := range r.s.products {
		if p.RecipeID != nil && *p.RecipeID == recipeID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r productRepo) UpdateCostFields(_ context.Context, product *entity.FinalProduct) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("products.UpdateCostFields"); err != nil {
		return err
	}
	for i := range r.s.products {
		if r.s.products[i].ID == product.ID {
			p := &r.s.products[i]
			p.RecipeCost = product.RecipeCost
			p.Markup = product.Markup
			p.ProfitMargin = product.ProfitMargin
			p.ProfitPerItem = product.ProfitPerItem
			p.RecipeCostVersion = product.RecipeCostVersion
		}
	}
	return nil
}

type recordRepo struct{ s *MemStore }

func (r recordRepo) find(op, name string, finalProduct bool) (*entity.InventoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call(op); err != nil {
		return nil, err
	}
	for _, rec := range r.s.records {
		if rec.ProductName == name && rec.IsFinalProduct == finalProduct {
			return &rec, nil
		}
	}
	return nil, nil
}

func (r recordRepo) GetByName(_ context.Context, name string) (*entity.InventoryRecord, error) {
	return r.find("records.GetByName", name, false)
}

func (r recordRepo) GetByNameForUpdate(_ context.Context, name string) (*entity.InventoryRecord, error) {
	return r.find("records.GetByNameForUpdate", name, false)
}

func (r recordRepo) GetFinalProductByNameForUpdate(_ context.Context, name string) (*entity.InventoryRecord, error) {
	return r.find("records.GetFinalProductByNameForUpdate", name, true)
}

func (r recordRepo) Create(_ context.Context, record *entity.InventoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("records.Create"); err != nil {
		return err
	}
	r.s.records = append(r.s.records, *record)
	return nil
}

func (r recordRepo) UpdateStockLevel(_ context.Context, record *entity.InventoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("records.UpdateStockLevel"); err != nil {
		return err
	}
	for i := range r.s.records {
		if r.s.records[i].ID == record.ID {
			r.s.records[i].StockLevel = record.StockLevel
			r.s.records[i].UpdatedAt = record.UpdatedAt
		}
	}
	return nil
}

func (r recordRepo) ListBelowReorderPoint(_ context.Context) ([]*entity.InventoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("records.ListBelowReorderPoint"); err != nil {
		return nil, err
	}
	var out []*entity.InventoryRecord
	for _, rec := range r.s.records {
		if rec.StockLevel.LessThanOrEqual(rec.ReorderPoint) {
			out = append(out, &rec)
		}
	}
	return out, nil
}

type movementRepo struct{ s *MemStore }

func (r movementRepo) CreateIfAbsent(_ context.Context, m *entity.InventoryMovement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("movements.CreateIfAbsent"); err != nil {
		return false, err
	}
	for _, existing := range r.s.movements {
		if existing.ReferenceKey == m.ReferenceKey {
			return false, nil
		}
	}
	r.s.movements = append(r.s.movements, *m)
	return true, nil
}

func (r movementRepo) ListByInventory(_ context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("movements.ListByInventory"); err != nil {
		return nil, err
	}
	var all []*entity.InventoryMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.InventoryID == inventoryID {
			all = append(all, &m)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type batchRepo struct{ s *MemStore }

func (r batchRepo) GetByID(_ context.Context, id string) (*entity.BatchManufacturingRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("batches.GetByID"); err != nil {
		return nil, err
	}
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type conversionRepo struct{ s *MemStore }

func (r conversionRepo) Upsert(_ context.Context, c *entity.UnitConversion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("conversions.Upsert"); err != nil {
		return err
	}
	r.s.conversions[c.ProductID] = *c
	return nil
}
