package api

import (
	"time"

	"korob/internal/schema"
)

// flatten переводит запись из физических имён обратно в логические,
// гонит get-хуки и пришивает системные поля. Скрытые (hide) атрибуты
// наружу не отдаём — это единственное, что hide значит для API.
func flatten(sch *schema.Schema, rec *Record) map[string]any {
	logical := make(map[string]any, len(rec.Fields))
	for field, v := range rec.Fields {
		name, ok := sch.TranslationForRetrieval[field]
		if !ok {
			continue // неизвестное физическое поле — молча мимо
		}
		logical[name] = v
	}
	logical = sch.ApplyGetters(logical)

	out := map[string]any{
		"id":         rec.ID,
		"version":    rec.Version,
		"created_at": rec.CreatedAt.Format(time.RFC3339),
		"updated_at": rec.UpdatedAt.Format(time.RFC3339),
	}
	for name, v := range logical {
		if a, ok := sch.Attributes[name]; ok && a.Hidden {
			continue
		}
		// пользовательские атрибуты не перетирают служебные, если вдруг совпадут
		if _, clash := out[name]; clash {
			out["data."+name] = v
			continue
		}
		out[name] = v
	}
	return out
}

// logicalView — то же, но без системных полей и без фильтра hide
// (для внутренних нужд: merge на update)
func logicalView(sch *schema.Schema, rec *Record) map[string]any {
	out := make(map[string]any, len(rec.Fields))
	for field, v := range rec.Fields {
		if name, ok := sch.TranslationForRetrieval[field]; ok {
			out[name] = v
		}
	}
	return out
}
