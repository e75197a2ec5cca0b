package block

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// BlockID представляет идентификатор блока
type BlockID uint16

// AirBlockID - пустая ячейка. Всегда зарегистрирован под нулевым ID.
const AirBlockID BlockID = 0

// Уровни жидкости
const (
	MaxLiquidLevel     = 7 // Источник
	FallingLiquidLevel = 6 // Падающий поток на уровень ниже полного
)

// AirReplaceable - заменяемость пустой ячейки
const AirReplaceable = 9999

// VoidBlockID - пустота за границами мира. В реестре не регистрируется.
const VoidBlockID BlockID = math.MaxUint16

// Void - тип ячейки за границами мира. Заменяемость ниже любого порога:
// жидкость не течёт в пустоту и стоит на ней, как на твёрдом блоке.
var Void = Type{ID: VoidBlockID, Code: "void", Replaceable: -1}

// ErrUnknownBlock возвращается, когда в сетке встречается незарегистрированный ID
var ErrUnknownBlock = errors.New("unknown block id")

// Family - тег вещества жидкости ("water", "lava"). Пустое значение - не жидкость.
type Family string

// NoFamily обозначает блок, не являющийся жидкостью
const NoFamily Family = ""

// Type описывает тип блока. Семейство и уровень задаются явно при регистрации
// и никогда не вычисляются из кода блока.
type Type struct {
	ID          BlockID
	Code        string
	Family      Family
	LiquidLevel int // 0..7
	Replaceable int
}

// IsLiquid возвращает true для ячеек с уровнем жидкости больше нуля
func (t Type) IsLiquid() bool {
	return t.LiquidLevel > 0
}

// IsSource возвращает true для источника жидкости
func (t Type) IsSource() bool {
	return t.LiquidLevel == MaxLiquidLevel
}

// SameLiquid сообщает, относятся ли оба блока к одному семейству жидкости
func (t Type) SameLiquid(other Type) bool {
	return t.Family != NoFamily && t.Family == other.Family
}

// Registry хранит типы блоков и их поведения. Заполняется при старте и
// передаётся явно во все компоненты, которым нужен доступ к типам.
type Registry struct {
	types     map[BlockID]Type
	byCode    map[string]BlockID
	variants  map[Family][MaxLiquidLevel + 1]BlockID
	behaviors map[BlockID]Behavior
	nextID    BlockID
}

// NewRegistry создаёт реестр с уже зарегистрированным воздухом
func NewRegistry() *Registry {
	r := &Registry{
		types:     make(map[BlockID]Type),
		byCode:    make(map[string]BlockID),
		variants:  make(map[Family][MaxLiquidLevel + 1]BlockID),
		behaviors: make(map[BlockID]Behavior),
	}
	r.types[AirBlockID] = Type{ID: AirBlockID, Code: "air", Replaceable: AirReplaceable}
	r.byCode["air"] = AirBlockID
	r.nextID = AirBlockID + 1
	return r
}

// Register добавляет нежидкий блок и возвращает выданный ID
func (r *Registry) Register(code string, replaceable int) (BlockID, error) {
	return r.register(Type{Code: code, Replaceable: replaceable})
}

// RegisterLiquid добавляет все варианты уровней 1..7 семейства жидкости.
// Коды вариантов имеют вид "<family>-<level>" и служат только для отображения.
func (r *Registry) RegisterLiquid(family Family, replaceable int) error {
	if family == NoFamily {
		return fmt.Errorf("пустое семейство жидкости")
	}
	if _, exists := r.variants[family]; exists {
		return fmt.Errorf("семейство %q уже зарегистрировано", family)
	}

	var ids [MaxLiquidLevel + 1]BlockID
	ids[0] = AirBlockID
	for level := 1; level <= MaxLiquidLevel; level++ {
		id, err := r.register(Type{
			Code:        fmt.Sprintf("%s-%d", family, level),
			Family:      family,
			LiquidLevel: level,
			Replaceable: replaceable,
		})
		if err != nil {
			return err
		}
		ids[level] = id
	}
	r.variants[family] = ids
	return nil
}

func (r *Registry) register(t Type) (BlockID, error) {
	if t.Code == "" {
		return 0, fmt.Errorf("пустой код блока")
	}
	if _, exists := r.byCode[t.Code]; exists {
		return 0, fmt.Errorf("блок %q уже зарегистрирован", t.Code)
	}

	t.ID = r.nextID
	r.nextID++
	r.types[t.ID] = t
	r.byCode[t.Code] = t.ID
	return t.ID, nil
}

// Get возвращает тип блока по ID
func (r *Registry) Get(id BlockID) (Type, bool) {
	t, ok := r.types[id]
	return t, ok
}

// ByCode возвращает тип блока по коду
func (r *Registry) ByCode(code string) (Type, bool) {
	id, ok := r.byCode[code]
	if !ok {
		return Type{}, false
	}
	return r.types[id], true
}

// LiquidVariant возвращает ID блока семейства с указанным уровнем.
// Уровень 0 соответствует воздуху.
func (r *Registry) LiquidVariant(family Family, level int) (BlockID, bool) {
	if level == 0 {
		return AirBlockID, true
	}
	if level < 0 || level > MaxLiquidLevel {
		return 0, false
	}
	ids, ok := r.variants[family]
	if !ok {
		return 0, false
	}
	return ids[level], true
}

// Families возвращает зарегистрированные семейства в отсортированном порядке
func (r *Registry) Families() []Family {
	families := make([]Family, 0, len(r.variants))
	for f := range r.variants {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// SetBehavior привязывает поведение к типу блока
func (r *Registry) SetBehavior(id BlockID, behavior Behavior) {
	r.behaviors[id] = behavior
}

// Behavior возвращает поведение блока, если оно задано
func (r *Registry) Behavior(id BlockID) (Behavior, bool) {
	b, ok := r.behaviors[id]
	return b, ok
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func (r *Registry) IsValidBlockID(id BlockID) bool {
	_, exists := r.types[id]
	return exists
}
