package api

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"korob/internal/dsl"
	"korob/internal/reference"
	"korob/internal/schema"

	"github.com/oklog/ulid/v2"
)

// Record — одна запись хранилища. Fields лежит под ФИЗИЧЕСКИМИ именами
// полей (выход schema.TranslateToFields), обратно переводим на чтении.
type Record struct {
	ID        string         `json:"id"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Deleted   bool           `json:"-"`
	Fields    map[string]any `json:"fields"`
}

type Storage struct {
	mu      sync.RWMutex
	Models  map[string]*dsl.Model          // FQN ("module.Name") -> DSL-модель
	Schemas map[string]*schema.Schema      // FQN -> собранная схема
	Data    map[string]map[string]*Record  // FQN -> id -> запись
	Enums   map[string]reference.EnumDirectory
	entropy io.Reader
}

// NewStorage собирает схемы по всем моделям; битая схема = ошибка старта
func NewStorage(models map[string]*dsl.Model, enumCatalog map[string]reference.EnumDirectory) (*Storage, error) {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Storage{
		Models:  make(map[string]*dsl.Model, len(models)),
		Schemas: make(map[string]*schema.Schema, len(models)),
		Data:    make(map[string]map[string]*Record),
		Enums:   enumCatalog,
		entropy: ulid.Monotonic(src, 0),
	}
	for fqn, m := range models {
		sch, err := BuildSchema(m, enumCatalog)
		if err != nil {
			return nil, err
		}
		s.Models[fqn] = m
		s.Schemas[fqn] = sch
	}
	return s, nil
}

func (s *Storage) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}
