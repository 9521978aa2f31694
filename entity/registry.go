package entity

import (
	"fmt"
	"reflect"
	"sort"
)

// Registry maps table names to entity types so stores can rehydrate records
// they only know by table name.
type Registry struct {
	types map[string]reflect.Type
}

func NewRegistry(entities ...Entity) *Registry {
	r := &Registry{types: map[string]reflect.Type{}}
	for _, ent := range entities {
		r.Register(ent)
	}
	return r
}

func (r *Registry) Register(ent Entity) {
	r.types[ent.TableName()] = reflect.TypeOf(ent).Elem()
}

func (r *Registry) GetType(tableName string) (reflect.Type, bool) {
	t, ok := r.types[tableName]
	return t, ok
}

// New returns a fresh, empty entity of the type registered under tableName.
func (r *Registry) New(tableName, id string) (Entity, error) {
	t, ok := r.types[tableName]
	if !ok {
		return nil, fmt.Errorf("unknown entity table %q", tableName)
	}
	ent := reflect.New(t).Interface().(Entity)
	ent.SetID(id)
	return ent, nil
}

func (r *Registry) TableNames() (out []string) {
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return
}

// Definition lists every entity of the vault subgraphs.
var Definition = NewRegistry(
	&YieldAggregator{},
	&Token{},
	&Vault{},
	&Account{},
	&ActiveAccount{},
	&Deposit{},
	&Withdraw{},
	&StrategyReport{},
	&Stat{},
	&FinancialsDailySnapshot{},
	&UsageMetricsDailySnapshot{},
	&UsageMetricsHourlySnapshot{},
	&VaultDailySnapshot{},
	&VaultHourlySnapshot{},
	&Cursor{},
)
